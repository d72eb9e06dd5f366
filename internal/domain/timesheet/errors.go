package timesheet

import "errors"

var (
	ErrTimesheetNotFound         = errors.New("timesheet not found")
	ErrTimesheetNotSubmitted     = errors.New("timesheet has not been submitted")
	ErrTimesheetAlreadySubmitted = errors.New("timesheet has already been submitted")
	ErrTimesheetAlreadyApproved  = errors.New("timesheet has already been approved")
	ErrTimesheetLocked           = errors.New("timesheet can no longer be edited")
	ErrTimesheetExists           = errors.New("timesheet already exists for this week")
	ErrRejectionReasonRequired   = errors.New("rejection reason is required")
	ErrSummaryRequired           = errors.New("timesheet summary is required")
	ErrInvalidWeekStart          = errors.New("week start must be a Monday")
	ErrEntryNotFound             = errors.New("no attendance entry for this date")
	ErrEmptyTimesheet            = errors.New("timesheet has no attendance entries")
	ErrUnsupportedExportFormat   = errors.New("unsupported export format")
)
