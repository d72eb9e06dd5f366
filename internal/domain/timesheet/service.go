package timesheet

import "context"

// TimesheetService drives weekly submission and supervisor review.
type TimesheetService interface {
	List(ctx context.Context, filter TimesheetFilter) ([]TimesheetResponse, error)

	// GetWeek returns the caller's timesheet for a week, building an unsaved
	// draft preview from attendance when none exists
	GetWeek(ctx context.Context, weekStart string) (TimesheetResponse, error)

	Get(ctx context.Context, id string) (TimesheetResponse, error)
	SaveDraft(ctx context.Context, req SaveDraftRequest) (TimesheetResponse, error)
	Submit(ctx context.Context, req SubmitTimesheetRequest) (TimesheetResponse, error)
	Approve(ctx context.Context, id string) (TimesheetResponse, error)
	Reject(ctx context.Context, req RejectTimesheetRequest) (TimesheetResponse, error)
	Export(ctx context.Context, id string, format ExportFormat) (ExportFile, error)
}
