package attendance

import (
	"context"
)

// AttendanceService defines the trainee clock workflow and supervisor actions.
type AttendanceService interface {
	// GetStatus returns today's state, record and late-permission gate for the caller
	GetStatus(ctx context.Context) (StatusResponse, error)

	// GetToday returns today's record for the caller, nil if none
	GetToday(ctx context.Context) (*AttendanceResponse, error)

	GetHistory(ctx context.Context, filter HistoryFilter) (HistoryResponse, error)

	// ListAttendance lists the supervised trainees' records for a date
	ListAttendance(ctx context.Context, filter ListAttendanceFilter) ([]AttendanceResponse, error)

	ClockIn(ctx context.Context, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, req ClockOutRequest) (AttendanceResponse, error)
	StartBreak(ctx context.Context) (AttendanceResponse, error)
	EndBreak(ctx context.Context) (AttendanceResponse, error)

	// ApproveOvertime marks a completed record's overtime as approved by the caller
	ApproveOvertime(ctx context.Context, attendanceID string) (AttendanceResponse, error)

	RequestLatePermission(ctx context.Context, req RequestLatePermissionRequest) (LatePermissionResponse, error)
	GrantLatePermission(ctx context.Context, req GrantLatePermissionRequest) (LatePermissionResponse, error)
	ListLatePermissions(ctx context.Context, filter LatePermissionFilter) ([]LatePermissionResponse, error)
}
