package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Attendance domain errors
var (
	// Workflow errors
	ErrAlreadyClockedIn  = errors.New("you have already clocked in today")
	ErrNotClockedIn      = errors.New("you have not clocked in yet")
	ErrAlreadyClockedOut = errors.New("you have already clocked out today")
	ErrAlreadyOnBreak    = errors.New("a break is already in progress")
	ErrNotOnBreak        = errors.New("no break in progress")
	ErrBreakAlreadyTaken = errors.New("today's break has already been taken")
	ErrMarkedAbsent      = errors.New("you have been marked absent for today")
	ErrPhotoRequired     = errors.New("attendance photo is required")

	// Record invariants
	ErrTimeOutBeforeTimeIn = errors.New("time out cannot be before time in")
	ErrBreakEndBeforeStart = errors.New("break end cannot be before break start")
	ErrBreakNotClosed      = errors.New("break must be closed before clocking out")

	// Late permission errors
	ErrRequiresPermission         = errors.New("late permission required to clock in after the cutoff")
	ErrPermissionRequestNotFound  = errors.New("late permission request not found")
	ErrPermissionAlreadyRequested = errors.New("late permission already requested for this date")
	ErrPermissionAlreadyDecided   = errors.New("late permission request has already been decided")
	ErrPermissionDateInPast       = errors.New("cannot request late permission for a past date")

	// Overtime errors
	ErrAttendanceIncomplete    = errors.New("attendance record has not been clocked out yet")
	ErrNoOvertime              = errors.New("attendance record has no overtime to approve")
	ErrOvertimeAlreadyApproved = errors.New("overtime has already been approved")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrInvalidSchedule    = errors.New("invalid schedule configuration")
)

// RequiresPermissionError is returned when clock-in is attempted past the
// cutoff without an approved late permission for the date.
type RequiresPermissionError struct {
	Date           time.Time
	ExistingStatus PermissionStatus
}

func (e *RequiresPermissionError) Error() string {
	return fmt.Sprintf("%s (date %s, existing request: %s)",
		ErrRequiresPermission.Error(), e.Date.Format("2006-01-02"), e.ExistingStatus)
}

// Is lets errors.Is(err, ErrRequiresPermission) match.
func (e *RequiresPermissionError) Is(target error) bool {
	return target == ErrRequiresPermission
}
