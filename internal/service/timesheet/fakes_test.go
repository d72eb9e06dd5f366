package timesheet

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
)

var tokenAuth = jwtauth.New("HS256", []byte("timesheet-service-test-secret"), nil)

func asUser(t *testing.T, id string, role user.Role) context.Context {
	t.Helper()
	token, _, err := tokenAuth.Encode(map[string]interface{}{
		"user_id": id,
		"role":    string(role),
		"type":    "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type memoryTimesheets struct {
	mu   sync.Mutex
	byID map[string]timesheet.Timesheet
	seq  int
}

func newMemoryTimesheets() *memoryTimesheets {
	return &memoryTimesheets{byID: map[string]timesheet.Timesheet{}}
}

func (m *memoryTimesheets) Create(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.TraineeID == ts.TraineeID && existing.WeekStart.Equal(ts.WeekStart) {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetExists
		}
	}
	m.seq++
	ts.ID = "ts-" + strconv.Itoa(m.seq)
	m.byID[ts.ID] = ts
	return ts, nil
}

func (m *memoryTimesheets) GetByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.byID[id]
	if !ok {
		return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
	}
	return ts, nil
}

func (m *memoryTimesheets) GetByTraineeAndWeek(ctx context.Context, traineeID string, weekStart time.Time) (*timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ts := range m.byID {
		if ts.TraineeID == traineeID && ts.WeekStart.Equal(weekStart) {
			return &ts, nil
		}
	}
	return nil, nil
}

func (m *memoryTimesheets) LockByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryTimesheets) LockByTraineeAndWeek(ctx context.Context, traineeID string, weekStart time.Time) (*timesheet.Timesheet, error) {
	return m.GetByTraineeAndWeek(ctx, traineeID, weekStart)
}

func (m *memoryTimesheets) Update(ctx context.Context, ts timesheet.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[ts.ID]; !ok {
		return timesheet.ErrTimesheetNotFound
	}
	m.byID[ts.ID] = ts
	return nil
}

func (m *memoryTimesheets) ReplaceEntries(ctx context.Context, id string, entries []timesheet.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.byID[id]
	if !ok {
		return timesheet.ErrTimesheetNotFound
	}
	ts.Entries = entries
	m.byID[id] = ts
	return nil
}

func (m *memoryTimesheets) List(ctx context.Context, filter timesheet.TimesheetFilter) ([]timesheet.Timesheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []timesheet.Timesheet
	for _, ts := range m.byID {
		if filter.TraineeID != "" && ts.TraineeID != filter.TraineeID {
			continue
		}
		if filter.Status != "" && string(ts.Status) != filter.Status {
			continue
		}
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

// weekRecords serves only ListByTrainee; the timesheet flow never writes
// attendance.
type weekRecords struct {
	attendance.AttendanceRepository
	records []attendance.AttendanceRecord
}

func (w *weekRecords) ListByTrainee(ctx context.Context, traineeID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	var out []attendance.AttendanceRecord
	for _, r := range w.records {
		if r.TraineeID == traineeID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type memoryUsers map[string]user.User

func (m memoryUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	u, ok := m[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (m memoryUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (m memoryUsers) ListTrainees(ctx context.Context, supervisorID string) ([]user.User, error) {
	var out []user.User
	for _, u := range m {
		if u.IsTrainee() && (supervisorID == "" || (u.SupervisorID != nil && *u.SupervisorID == supervisorID)) {
			out = append(out, u)
		}
	}
	return out, nil
}

type notifierSpy struct {
	mu   sync.Mutex
	sent []notification.CreateNotificationRequest
}

func (n *notifierSpy) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
	return nil
}

func (n *notifierSpy) types() []notification.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.NotificationType, 0, len(n.sent))
	for _, req := range n.sent {
		out = append(out, req.Type)
	}
	return out
}
