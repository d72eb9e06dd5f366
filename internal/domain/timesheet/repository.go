package timesheet

import (
	"context"
	"time"
)

type TimesheetRepository interface {
	// Create inserts the timesheet and its entries; a second timesheet for the
	// same trainee and week fails with ErrTimesheetExists.
	Create(ctx context.Context, ts Timesheet) (Timesheet, error)

	// GetByID loads the timesheet with its entries.
	GetByID(ctx context.Context, id string) (Timesheet, error)

	// GetByTraineeAndWeek returns nil, nil when no timesheet exists yet.
	GetByTraineeAndWeek(ctx context.Context, traineeID string, weekStart time.Time) (*Timesheet, error)

	LockByID(ctx context.Context, id string) (Timesheet, error)
	LockByTraineeAndWeek(ctx context.Context, traineeID string, weekStart time.Time) (*Timesheet, error)

	Update(ctx context.Context, ts Timesheet) error

	// ReplaceEntries swaps every entry of the timesheet for entries.
	ReplaceEntries(ctx context.Context, timesheetID string, entries []Entry) error

	// List returns timesheets without entries, newest week first.
	List(ctx context.Context, filter TimesheetFilter) ([]Timesheet, error)
}
