package attendance

import (
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
)

const dateLayout = "2006-01-02"

// formatTime renders instants in the schedule timezone so the kiosk shows
// local wall-clock times.
func (s *AttendanceServiceImpl) formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	out := t.In(s.schedule.Location).Format(time.RFC3339)
	return &out
}

func (s *AttendanceServiceImpl) toResponse(r attendance.AttendanceRecord) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:                 r.ID,
		TraineeID:          r.TraineeID,
		Date:               r.Date.Format(dateLayout),
		State:              attendance.StateOf(&r),
		Status:             r.Status,
		TimeIn:             s.formatTime(r.TimeIn),
		TimeOut:            s.formatTime(r.TimeOut),
		BreakStart:         s.formatTime(r.BreakStart),
		BreakEnd:           s.formatTime(r.BreakEnd),
		WorkHours:          r.WorkHours,
		OvertimeHours:      r.OvertimeHours,
		OvertimeApproved:   r.OvertimeApproved,
		OvertimeApprovedBy: r.OvertimeApprovedBy,
		LateMinutes:        r.LateMinutes,
		PenaltyHours:       r.PenaltyHours,
		NetHours:           r.NetHours(),
		PhotoIn:            r.PhotoIn,
		PhotoOut:           r.PhotoOut,
		LatitudeIn:         r.LatitudeIn,
		LongitudeIn:        r.LongitudeIn,
		LocationIn:         r.LocationIn,
		LatitudeOut:        r.LatitudeOut,
		LongitudeOut:       r.LongitudeOut,
		LocationOut:        r.LocationOut,
		FaceVerified:       r.FaceVerified,
	}
	if r.TraineeName != nil {
		resp.TraineeName = *r.TraineeName
	}
	return resp
}

func (s *AttendanceServiceImpl) toPermissionResponse(p attendance.LatePermissionRequest) attendance.LatePermissionResponse {
	resp := attendance.LatePermissionResponse{
		ID:             p.ID,
		TraineeID:      p.TraineeID,
		PermissionDate: p.PermissionDate.Format(dateLayout),
		Reason:         p.Reason,
		Status:         p.Status,
		DeniedReason:   p.DeniedReason,
		GrantedBy:      p.GrantedBy,
		DecidedAt:      s.formatTime(p.DecidedAt),
		UsedAt:         s.formatTime(p.UsedAt),
		CreatedAt:      p.CreatedAt.In(s.schedule.Location).Format(time.RFC3339),
	}
	if p.TraineeName != nil {
		resp.TraineeName = *p.TraineeName
	}
	return resp
}

func scheduleResponse(s attendance.Schedule) attendance.ScheduleResponse {
	return attendance.ScheduleResponse{
		Start:       s.Start.String(),
		End:         s.End.String(),
		LunchStart:  s.LunchStart.String(),
		LunchEnd:    s.LunchEnd.String(),
		TargetHours: s.TargetHours,
		LateCutoff:  s.LateCutoff.String(),
		Timezone:    s.Location.String(),
	}
}
