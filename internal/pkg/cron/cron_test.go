package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type maintainerStub struct {
	closed, expired int
	err             error
}

func (m *maintainerStub) AutoCloseOpenAttendance(ctx context.Context) (int, error) {
	m.closed++
	return 1, m.err
}

func (m *maintainerStub) ExpireLatePermissions(ctx context.Context) (int, error) {
	m.expired++
	return 2, m.err
}

func jobsAt(t *testing.T, m *maintainerStub, hour int) *AttendanceJobs {
	t.Helper()
	loc := time.FixedZone("PHT", 8*60*60)
	j := NewAttendanceJobs(m, loc, 1)
	j.now = func() time.Time { return time.Date(2025, time.March, 11, hour, 15, 0, 0, loc) }
	return j
}

func TestAttendanceJobs_RunOnlyInTheirHour(t *testing.T) {
	m := &maintainerStub{}

	require.NoError(t, jobsAt(t, m, 9).AutoCloseOpenAttendance(context.Background()))
	require.NoError(t, jobsAt(t, m, 9).ExpireLatePermissions(context.Background()))
	assert.Zero(t, m.closed)
	assert.Zero(t, m.expired)

	require.NoError(t, jobsAt(t, m, 1).AutoCloseOpenAttendance(context.Background()))
	require.NoError(t, jobsAt(t, m, 1).ExpireLatePermissions(context.Background()))
	assert.Equal(t, 1, m.closed)
	assert.Equal(t, 1, m.expired)
}

func TestScheduler_RunOnceReportsOutcomes(t *testing.T) {
	m := &maintainerStub{err: errors.New("db down")}
	outcomes := map[string]error{}
	s := NewScheduler(WithObserver(func(name string, err error) { outcomes[name] = err }))
	jobsAt(t, m, 1).RegisterJobs(s)

	s.RunOnce(context.Background())

	require.Len(t, outcomes, 2)
	assert.ErrorContains(t, outcomes["auto_close_open_attendance"], "db down")
	assert.ErrorContains(t, outcomes["expire_late_permissions"], "db down")
}

func TestScheduler_StartStop(t *testing.T) {
	ran := make(chan string, 1)
	s := NewScheduler()
	s.AddJob("ping", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- "ping":
		default:
		}
		return nil
	})

	s.Start()
	select {
	case name := <-ran:
		assert.Equal(t, "ping", name)
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
