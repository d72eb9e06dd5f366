package attendance

import (
	"math"
	"time"
)

const (
	// Penalty tiers are a step function on minutes late.
	minorPenaltyHours  = 0.5
	majorPenaltyHours  = 4.0
	majorLateThreshold = 120
)

// LateMinutes is how far the clock-in minute of day lies past the scheduled start.
func (s Schedule) LateMinutes(clockIn time.Time) int {
	local := clockIn.In(s.Location)
	minuteOfDay := local.Hour()*60 + local.Minute()
	return max(0, minuteOfDay-int(s.Start))
}

// PenaltyHours maps minutes late to the flat penalty tier.
func PenaltyHours(lateMinutes int) float64 {
	switch {
	case lateMinutes <= 0:
		return 0
	case lateMinutes < majorLateThreshold:
		return minorPenaltyHours
	default:
		return majorPenaltyHours
	}
}

// WorkHours splits the time between in and out into regular hours (capped at
// the daily target) and overtime. The lunch window is always deducted, whether
// or not a break was recorded. Hours run from CreditedStart.
func (s Schedule) WorkHours(in, out time.Time) (work float64, overtime float64) {
	from := s.CreditedStart(in)
	gross := max(0, int(out.Sub(from)/time.Minute))
	worked := max(0, gross-s.LunchMinutes())
	target := int(math.Round(s.TargetHours * 60))

	regular := min(worked, target)
	extra := worked - regular
	return minutesToHours(regular), minutesToHours(extra)
}

// CreditedStart is the instant work hours are counted from for a clock-in.
// Early and minor-late arrivals count from the scheduled start, the minor
// penalty standing in for the missed minutes. From the major tier on, hours
// count from the actual clock-in.
func (s Schedule) CreditedStart(in time.Time) time.Time {
	if s.LateMinutes(in) >= majorLateThreshold {
		return in
	}
	return s.Start.On(s.DateOf(in), s.Location)
}

// NetHours = work - penalty + overtime, with overtime only counted once approved.
func NetHours(work, penalty, overtime float64, overtimeApproved bool) float64 {
	net := work - penalty
	if overtimeApproved {
		net += overtime
	}
	return roundHours(net)
}

// Evaluate recomputes every derived field of r from its timestamps.
func (s Schedule) Evaluate(r *AttendanceRecord) {
	if r.TimeIn == nil {
		return
	}

	r.LateMinutes = s.LateMinutes(*r.TimeIn)
	r.PenaltyHours = PenaltyHours(r.LateMinutes)
	if r.LateMinutes > 0 {
		r.Status = StatusLate
	} else {
		r.Status = StatusPresent
	}

	if r.TimeOut != nil {
		r.WorkHours, r.OvertimeHours = s.WorkHours(*r.TimeIn, *r.TimeOut)
		if r.OvertimeHours == 0 {
			r.OvertimeApproved = false
		}
	}
}

// HoursSummary aggregates a set of attendance records.
type HoursSummary struct {
	WorkHours             float64 `json:"work_hours"`
	PenaltyHours          float64 `json:"penalty_hours"`
	OvertimeHours         float64 `json:"overtime_hours"`
	ApprovedOvertimeHours float64 `json:"approved_overtime_hours"`
	NetHours              float64 `json:"net_hours"`
	DaysPresent           int     `json:"days_present"`
	DaysLate              int     `json:"days_late"`
	DaysAbsent            int     `json:"days_absent"`
}

func Summarize(records []AttendanceRecord) HoursSummary {
	var sum HoursSummary
	for _, r := range records {
		switch r.Status {
		case StatusAbsent:
			sum.DaysAbsent++
			continue
		case StatusLate:
			sum.DaysLate++
		}
		sum.DaysPresent++
		sum.WorkHours += r.WorkHours
		sum.PenaltyHours += r.PenaltyHours
		sum.OvertimeHours += r.OvertimeHours
		if r.OvertimeApproved {
			sum.ApprovedOvertimeHours += r.OvertimeHours
		}
	}
	sum.WorkHours = roundHours(sum.WorkHours)
	sum.PenaltyHours = roundHours(sum.PenaltyHours)
	sum.OvertimeHours = roundHours(sum.OvertimeHours)
	sum.ApprovedOvertimeHours = roundHours(sum.ApprovedOvertimeHours)
	sum.NetHours = roundHours(sum.WorkHours - sum.PenaltyHours + sum.ApprovedOvertimeHours)
	return sum
}

func minutesToHours(minutes int) float64 {
	return roundHours(float64(minutes) / 60)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
