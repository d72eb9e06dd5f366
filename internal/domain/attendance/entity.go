package attendance

import (
	"time"
)

// State is the derived daily clock state of a trainee.
type State string

const (
	StateNotClocked State = "NOT_CLOCKED"
	StateWorking    State = "WORKING"
	StateOnBreak    State = "ON_BREAK"
	StateComplete   State = "COMPLETE"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// AttendanceRecord is the single row kept per trainee per calendar date.
type AttendanceRecord struct {
	ID                 string
	TraineeID          string
	Date               time.Time
	TimeIn             *time.Time
	TimeOut            *time.Time
	BreakStart         *time.Time
	BreakEnd           *time.Time
	WorkHours          float64
	OvertimeHours      float64
	OvertimeApproved   bool
	OvertimeApprovedBy *string
	OvertimeApprovedAt *time.Time
	LateMinutes        int
	PenaltyHours       float64
	PhotoIn            *string
	PhotoOut           *string
	LatitudeIn         *float64
	LongitudeIn        *float64
	LocationIn         *string
	LatitudeOut        *float64
	LongitudeOut       *float64
	LocationOut        *string
	FaceVerified       bool
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Join
	TraineeName *string
}

// StateOf derives the clock state from a record; nil means nothing recorded today.
func StateOf(r *AttendanceRecord) State {
	switch {
	case r == nil || r.TimeIn == nil:
		return StateNotClocked
	case r.TimeOut != nil:
		return StateComplete
	case r.BreakStart != nil && r.BreakEnd == nil:
		return StateOnBreak
	default:
		return StateWorking
	}
}

// IsAbsent reports whether the trainee was marked absent for the day.
func (r *AttendanceRecord) IsAbsent() bool {
	return r != nil && r.Status == StatusAbsent
}

// NetHours is work minus penalty plus overtime once a supervisor approved it.
func (r *AttendanceRecord) NetHours() float64 {
	return NetHours(r.WorkHours, r.PenaltyHours, r.OvertimeHours, r.OvertimeApproved)
}

// CheckInvariants verifies timestamp ordering on the record.
func (r *AttendanceRecord) CheckInvariants() error {
	if r.TimeOut != nil {
		if r.TimeIn == nil || r.TimeOut.Before(*r.TimeIn) {
			return ErrTimeOutBeforeTimeIn
		}
		if (r.BreakStart == nil) != (r.BreakEnd == nil) {
			return ErrBreakNotClosed
		}
	}
	if r.BreakStart != nil && r.BreakEnd != nil && r.BreakEnd.Before(*r.BreakStart) {
		return ErrBreakEndBeforeStart
	}
	return nil
}

type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "pending"
	PermissionApproved PermissionStatus = "approved"
	PermissionDenied   PermissionStatus = "denied"

	// PermissionNone is reported when no request exists for the date.
	PermissionNone PermissionStatus = "none"
)

// LatePermissionRequest unlocks clock-in past the cutoff for one trainee and date.
type LatePermissionRequest struct {
	ID             string
	TraineeID      string
	PermissionDate time.Time
	Reason         string
	Status         PermissionStatus
	DeniedReason   *string
	GrantedBy      *string
	DecidedAt      *time.Time
	UsedAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Join
	TraineeName *string
}

// StatusOf returns the request status, or PermissionNone for a nil request.
func StatusOf(p *LatePermissionRequest) PermissionStatus {
	if p == nil {
		return PermissionNone
	}
	return p.Status
}
