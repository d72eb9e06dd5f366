package attendance

import "time"

// Action is a clock action a trainee can take during the day.
type Action string

const (
	ActionClockIn    Action = "clock_in"
	ActionClockOut   Action = "clock_out"
	ActionBreakStart Action = "break_start"
	ActionBreakEnd   Action = "break_end"
)

var transitions = map[State]map[Action]State{
	StateNotClocked: {
		ActionClockIn: StateWorking,
	},
	StateWorking: {
		ActionBreakStart: StateOnBreak,
		ActionClockOut:   StateComplete,
	},
	StateOnBreak: {
		ActionBreakEnd: StateWorking,
		// Clocking out while on break closes the break at the same instant.
		ActionClockOut: StateComplete,
	},
	StateComplete: {},
}

// NextState validates action against the current state.
func NextState(from State, action Action) (State, error) {
	if to, ok := transitions[from][action]; ok {
		return to, nil
	}
	return from, rejection(from, action)
}

func rejection(from State, action Action) error {
	switch from {
	case StateNotClocked:
		return ErrNotClockedIn
	case StateComplete:
		return ErrAlreadyClockedOut
	}

	switch action {
	case ActionClockIn:
		return ErrAlreadyClockedIn
	case ActionBreakStart:
		return ErrAlreadyOnBreak
	default:
		return ErrNotOnBreak
	}
}

// Apply performs action on r at the given instant. r is left untouched when
// the action is rejected.
func (r *AttendanceRecord) Apply(action Action, at time.Time) error {
	if action == ActionClockIn && r.IsAbsent() {
		return ErrMarkedAbsent
	}

	from := StateOf(r)
	if _, err := NextState(from, action); err != nil {
		return err
	}
	if r.TimeIn != nil && at.Before(*r.TimeIn) {
		return ErrTimeOutBeforeTimeIn
	}

	next := *r
	switch action {
	case ActionClockIn:
		next.TimeIn = &at
	case ActionBreakStart:
		if r.BreakStart != nil {
			return ErrBreakAlreadyTaken
		}
		next.BreakStart = &at
	case ActionBreakEnd:
		next.BreakEnd = &at
	case ActionClockOut:
		if from == StateOnBreak {
			next.BreakEnd = &at
		}
		next.TimeOut = &at
	}
	if err := next.CheckInvariants(); err != nil {
		return err
	}
	*r = next
	return nil
}
