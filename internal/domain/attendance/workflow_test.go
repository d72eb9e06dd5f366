package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		action  Action
		want    State
		wantErr error
	}{
		{"clock in", StateNotClocked, ActionClockIn, StateWorking, nil},
		{"start break", StateWorking, ActionBreakStart, StateOnBreak, nil},
		{"end break", StateOnBreak, ActionBreakEnd, StateWorking, nil},
		{"clock out", StateWorking, ActionClockOut, StateComplete, nil},
		{"clock out on break", StateOnBreak, ActionClockOut, StateComplete, nil},
		{"clock out before clock in", StateNotClocked, ActionClockOut, StateNotClocked, ErrNotClockedIn},
		{"break before clock in", StateNotClocked, ActionBreakStart, StateNotClocked, ErrNotClockedIn},
		{"double clock in", StateWorking, ActionClockIn, StateWorking, ErrAlreadyClockedIn},
		{"end break while working", StateWorking, ActionBreakEnd, StateWorking, ErrNotOnBreak},
		{"second break start", StateOnBreak, ActionBreakStart, StateOnBreak, ErrAlreadyOnBreak},
		{"clock in after complete", StateComplete, ActionClockIn, StateComplete, ErrAlreadyClockedOut},
		{"break after complete", StateComplete, ActionBreakStart, StateComplete, ErrAlreadyClockedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextState(tt.from, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateOf(t *testing.T) {
	s := testSchedule(t)
	in, bs, be, out := at(s, "09:00"), at(s, "12:00"), at(s, "13:00"), at(s, "18:00")

	assert.Equal(t, StateNotClocked, StateOf(nil))
	assert.Equal(t, StateNotClocked, StateOf(&AttendanceRecord{Status: StatusAbsent}))
	assert.Equal(t, StateWorking, StateOf(&AttendanceRecord{TimeIn: &in}))
	assert.Equal(t, StateOnBreak, StateOf(&AttendanceRecord{TimeIn: &in, BreakStart: &bs}))
	assert.Equal(t, StateWorking, StateOf(&AttendanceRecord{TimeIn: &in, BreakStart: &bs, BreakEnd: &be}))
	assert.Equal(t, StateComplete, StateOf(&AttendanceRecord{TimeIn: &in, TimeOut: &out}))
}

func TestApply_FullDay(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{}

	require.NoError(t, r.Apply(ActionClockIn, at(s, "09:00")))
	require.NoError(t, r.Apply(ActionBreakStart, at(s, "12:00")))
	require.NoError(t, r.Apply(ActionBreakEnd, at(s, "13:00")))
	require.NoError(t, r.Apply(ActionClockOut, at(s, "18:00")))

	assert.Equal(t, StateComplete, StateOf(r))
	assert.NoError(t, r.CheckInvariants())
}

func TestApply_RejectedActionLeavesRecordUntouched(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{}

	err := r.Apply(ActionClockOut, at(s, "18:00"))

	assert.ErrorIs(t, err, ErrNotClockedIn)
	assert.Nil(t, r.TimeIn)
	assert.Nil(t, r.TimeOut)
	assert.Equal(t, StateNotClocked, StateOf(r))
}

func TestApply_ClockOutOnBreakClosesBreak(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{}
	require.NoError(t, r.Apply(ActionClockIn, at(s, "09:00")))
	require.NoError(t, r.Apply(ActionBreakStart, at(s, "17:30")))

	out := at(s, "18:00")
	require.NoError(t, r.Apply(ActionClockOut, out))

	require.NotNil(t, r.BreakEnd)
	assert.True(t, r.BreakEnd.Equal(out))
	assert.NoError(t, r.CheckInvariants())
}

func TestApply_OneBreakPerDay(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{}
	require.NoError(t, r.Apply(ActionClockIn, at(s, "09:00")))
	require.NoError(t, r.Apply(ActionBreakStart, at(s, "12:00")))
	require.NoError(t, r.Apply(ActionBreakEnd, at(s, "13:00")))

	err := r.Apply(ActionBreakStart, at(s, "15:00"))

	assert.ErrorIs(t, err, ErrBreakAlreadyTaken)
	assert.True(t, r.BreakStart.Equal(at(s, "12:00")))
}

func TestApply_MarkedAbsent(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{Status: StatusAbsent}

	err := r.Apply(ActionClockIn, at(s, "19:00"))

	assert.ErrorIs(t, err, ErrMarkedAbsent)
	assert.Nil(t, r.TimeIn)
}

func TestApply_TimeOutBeforeTimeIn(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{}
	require.NoError(t, r.Apply(ActionClockIn, at(s, "09:00")))

	err := r.Apply(ActionClockOut, at(s, "08:00"))

	assert.ErrorIs(t, err, ErrTimeOutBeforeTimeIn)
	assert.Nil(t, r.TimeOut)
}

func TestApply_BreakEndBeforeBreakStart(t *testing.T) {
	s := testSchedule(t)
	r := &AttendanceRecord{}
	require.NoError(t, r.Apply(ActionClockIn, at(s, "09:00")))
	require.NoError(t, r.Apply(ActionBreakStart, at(s, "12:00")))

	assert.ErrorIs(t, r.Apply(ActionBreakEnd, at(s, "11:30")), ErrBreakEndBeforeStart)
	assert.ErrorIs(t, r.Apply(ActionClockOut, at(s, "11:30")), ErrBreakEndBeforeStart)

	assert.Nil(t, r.BreakEnd)
	assert.Nil(t, r.TimeOut)
	assert.Equal(t, StateOnBreak, StateOf(r))
}

func TestCheckInvariants(t *testing.T) {
	s := testSchedule(t)
	in, out := at(s, "09:00"), at(s, "18:00")
	bs, be := at(s, "12:00"), at(s, "11:00")

	assert.ErrorIs(t, (&AttendanceRecord{TimeIn: &out, TimeOut: &in}).CheckInvariants(), ErrTimeOutBeforeTimeIn)
	assert.ErrorIs(t, (&AttendanceRecord{TimeIn: &in, BreakStart: &bs, TimeOut: &out}).CheckInvariants(), ErrBreakNotClosed)
	assert.ErrorIs(t, (&AttendanceRecord{TimeIn: &in, BreakStart: &bs, BreakEnd: &be}).CheckInvariants(), ErrBreakEndBeforeStart)
}

func TestRequiresPermissionError(t *testing.T) {
	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	var err error = &RequiresPermissionError{Date: date, ExistingStatus: PermissionPending}

	assert.True(t, errors.Is(err, ErrRequiresPermission))
	assert.Contains(t, err.Error(), "2025-03-10")

	var rp *RequiresPermissionError
	require.True(t, errors.As(err, &rp))
	assert.Equal(t, PermissionPending, rp.ExistingStatus)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, PermissionNone, StatusOf(nil))
	assert.Equal(t, PermissionDenied, StatusOf(&LatePermissionRequest{Status: PermissionDenied}))
}
