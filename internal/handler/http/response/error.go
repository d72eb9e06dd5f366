package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/auth"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/validator"
	"github.com/fragranza-olio/ojt-backend/internal/service/file"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Late clock-in without an approved permission carries extra data the
	// client branches on.
	var permissionErr *attendance.RequiresPermissionError
	if errors.As(err, &permissionErr) {
		RequiresPermission(w, permissionErr)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingClaims):
		Unauthorized(w, "Invalid or expired token")

	// User and role errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrTraineeNotFound):
		NotFound(w, "Trainee not found")
	case errors.Is(err, user.ErrNotATrainee):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, user.ErrTraineeAccessRequired),
		errors.Is(err, user.ErrSupervisorAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrNotYourTrainee):
		Forbidden(w, err.Error())

	// Attendance workflow errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNotClockedIn),
		errors.Is(err, attendance.ErrAlreadyClockedOut),
		errors.Is(err, attendance.ErrAlreadyOnBreak),
		errors.Is(err, attendance.ErrNotOnBreak),
		errors.Is(err, attendance.ErrBreakAlreadyTaken),
		errors.Is(err, attendance.ErrMarkedAbsent),
		errors.Is(err, attendance.ErrTimeOutBeforeTimeIn),
		errors.Is(err, attendance.ErrBreakEndBeforeStart),
		errors.Is(err, attendance.ErrBreakNotClosed):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrPhotoRequired),
		errors.Is(err, attendance.ErrInvalidDateRange),
		errors.Is(err, attendance.ErrPermissionDateInPast):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Late permission and overtime errors
	case errors.Is(err, attendance.ErrPermissionRequestNotFound):
		NotFound(w, "Late permission request not found")
	case errors.Is(err, attendance.ErrPermissionAlreadyRequested),
		errors.Is(err, attendance.ErrPermissionAlreadyDecided),
		errors.Is(err, attendance.ErrAttendanceIncomplete),
		errors.Is(err, attendance.ErrNoOvertime),
		errors.Is(err, attendance.ErrOvertimeAlreadyApproved):
		Conflict(w, err.Error())

	// Timesheet errors
	case errors.Is(err, timesheet.ErrTimesheetNotFound):
		NotFound(w, "Timesheet not found")
	case errors.Is(err, timesheet.ErrEntryNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, timesheet.ErrTimesheetNotSubmitted),
		errors.Is(err, timesheet.ErrTimesheetAlreadySubmitted),
		errors.Is(err, timesheet.ErrTimesheetAlreadyApproved),
		errors.Is(err, timesheet.ErrTimesheetLocked),
		errors.Is(err, timesheet.ErrTimesheetExists),
		errors.Is(err, timesheet.ErrEmptyTimesheet):
		Conflict(w, err.Error())
	case errors.Is(err, timesheet.ErrRejectionReasonRequired),
		errors.Is(err, timesheet.ErrSummaryRequired),
		errors.Is(err, timesheet.ErrInvalidWeekStart),
		errors.Is(err, timesheet.ErrUnsupportedExportFormat):
		BadRequest(w, err.Error(), nil)

	// Photo upload errors
	case errors.Is(err, file.ErrUnsupportedType), errors.Is(err, file.ErrInvalidImage):
		BadRequest(w, err.Error(), nil)

	// Notification errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrQueueFull):
		ServiceUnavailable(w, "Notifications are temporarily unavailable")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
