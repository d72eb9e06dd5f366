package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// Create inserts a record; a second record for the same trainee and date
	// fails with ErrAlreadyClockedIn.
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	GetByID(ctx context.Context, id string) (AttendanceRecord, error)

	// GetByTraineeAndDate returns nil, nil when nothing was recorded that day.
	GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*AttendanceRecord, error)

	// LockByTraineeAndDate is GetByTraineeAndDate with a row lock; it must run
	// inside a transaction.
	LockByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*AttendanceRecord, error)

	LockByID(ctx context.Context, id string) (AttendanceRecord, error)

	Update(ctx context.Context, record AttendanceRecord) error

	// ListByTrainee returns records between from and to inclusive, oldest first.
	ListByTrainee(ctx context.Context, traineeID string, from, to time.Time) ([]AttendanceRecord, error)

	// ListByDate returns records on date for trainees of supervisorID, or for
	// every trainee when supervisorID is empty.
	ListByDate(ctx context.Context, date time.Time, supervisorID string) ([]AttendanceRecord, error)

	// ListOpenBefore returns records clocked in before date that were never clocked out.
	ListOpenBefore(ctx context.Context, date time.Time) ([]AttendanceRecord, error)
}

type LatePermissionRepository interface {
	// Create fails with ErrPermissionAlreadyRequested when the trainee already
	// has a request for the date.
	Create(ctx context.Context, req LatePermissionRequest) (LatePermissionRequest, error)

	GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*LatePermissionRequest, error)

	LockByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*LatePermissionRequest, error)

	Update(ctx context.Context, req LatePermissionRequest) error

	List(ctx context.Context, filter LatePermissionFilter) ([]LatePermissionRequest, error)

	// ListPendingBefore returns pending requests whose date is before date.
	ListPendingBefore(ctx context.Context, date time.Time) ([]LatePermissionRequest, error)
}
