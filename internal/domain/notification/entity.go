package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLatePermissionRequested NotificationType = "late_permission_requested"
	TypeLatePermissionApproved  NotificationType = "late_permission_approved"
	TypeLatePermissionDenied    NotificationType = "late_permission_denied"
	TypeOvertimeApproved        NotificationType = "overtime_approved"
	TypeTimesheetSubmitted      NotificationType = "timesheet_submitted"
	TypeTimesheetApproved       NotificationType = "timesheet_approved"
	TypeTimesheetRejected       NotificationType = "timesheet_rejected"
	TypeAttendanceAutoClosed    NotificationType = "attendance_auto_closed"
)

// Notification is one inbox item for a trainee or supervisor.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
