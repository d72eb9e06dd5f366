package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/cache"
)

var tokenAuth = jwtauth.New("HS256", []byte("attendance-service-test-secret"), nil)

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

func dayKey(traineeID string, date time.Time) string {
	return traineeID + "|" + date.Format("2006-01-02")
}

// passthroughTx runs fn directly; memory repositories need no isolation.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type memoryRecords struct {
	mu        sync.Mutex
	byID      map[string]attendance.AttendanceRecord
	seq       int
	createErr error
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{byID: map[string]attendance.AttendanceRecord{}}
}

func (m *memoryRecords) Create(ctx context.Context, r attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return attendance.AttendanceRecord{}, m.createErr
	}
	for _, existing := range m.byID {
		if existing.TraineeID == r.TraineeID && existing.Date.Equal(r.Date) {
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyClockedIn
		}
	}
	m.seq++
	r.ID = "att-" + strconv.Itoa(m.seq)
	m.byID[r.ID] = r
	return r, nil
}

func (m *memoryRecords) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
	}
	return r, nil
}

func (m *memoryRecords) LockByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryRecords) GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.TraineeID == traineeID && r.Date.Equal(date) {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memoryRecords) LockByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	return m.GetByTraineeAndDate(ctx, traineeID, date)
}

func (m *memoryRecords) Update(ctx context.Context, r attendance.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.ID]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	m.byID[r.ID] = r
	return nil
}

func (m *memoryRecords) sorted(keep func(attendance.AttendanceRecord) bool) []attendance.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, r := range m.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m *memoryRecords) ListByTrainee(ctx context.Context, traineeID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	return m.sorted(func(r attendance.AttendanceRecord) bool {
		return r.TraineeID == traineeID && !r.Date.Before(from) && !r.Date.After(to)
	}), nil
}

func (m *memoryRecords) ListByDate(ctx context.Context, date time.Time, supervisorID string) ([]attendance.AttendanceRecord, error) {
	return m.sorted(func(r attendance.AttendanceRecord) bool { return r.Date.Equal(date) }), nil
}

func (m *memoryRecords) ListOpenBefore(ctx context.Context, date time.Time) ([]attendance.AttendanceRecord, error) {
	return m.sorted(func(r attendance.AttendanceRecord) bool {
		return r.Date.Before(date) && r.TimeIn != nil && r.TimeOut == nil
	}), nil
}

type memoryPermissions struct {
	mu    sync.Mutex
	byKey map[string]attendance.LatePermissionRequest
}

func newMemoryPermissions() *memoryPermissions {
	return &memoryPermissions{byKey: map[string]attendance.LatePermissionRequest{}}
}

func (m *memoryPermissions) Create(ctx context.Context, p attendance.LatePermissionRequest) (attendance.LatePermissionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(p.TraineeID, p.PermissionDate)
	if _, ok := m.byKey[key]; ok {
		return attendance.LatePermissionRequest{}, attendance.ErrPermissionAlreadyRequested
	}
	p.ID = "perm-" + key
	p.CreatedAt = time.Now()
	m.byKey[key] = p
	return p, nil
}

func (m *memoryPermissions) GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.LatePermissionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byKey[dayKey(traineeID, date)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memoryPermissions) LockByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.LatePermissionRequest, error) {
	return m.GetByTraineeAndDate(ctx, traineeID, date)
}

func (m *memoryPermissions) Update(ctx context.Context, p attendance.LatePermissionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey[dayKey(p.TraineeID, p.PermissionDate)] = p
	return nil
}

func (m *memoryPermissions) List(ctx context.Context, filter attendance.LatePermissionFilter) ([]attendance.LatePermissionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.LatePermissionRequest
	for _, p := range m.byKey {
		if filter.TraineeID != "" && p.TraineeID != filter.TraineeID {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryPermissions) ListPendingBefore(ctx context.Context, date time.Time) ([]attendance.LatePermissionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.LatePermissionRequest
	for _, p := range m.byKey {
		if p.Status == attendance.PermissionPending && p.PermissionDate.Before(date) {
			out = append(out, p)
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

type fakeFiles struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeFiles) UploadAttendancePhoto(ctx context.Context, traineeID string, date time.Time, action string, file io.Reader, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "attendance/" + date.Format("2006-01-02") + "/" + traineeID + "-" + action + ".jpg"
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeFiles) DeleteFile(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeFiles) GetFileURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "mem://" + key, nil
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
	out := make([]notification.NotificationType, len(n.sent))
	for i, req := range n.sent {
		out[i] = req.Type
	}
	return out
}

// memoryCache mimics the Redis cache with JSON round-trips.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type geocoderStub struct {
	address string
	err     error
	calls   int
}

func (g *geocoderStub) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	g.calls++
	return g.address, g.err
}

type recorderSpy struct {
	actions []string
	blocked []string
}

func (r *recorderSpy) ClockAction(action, outcome string) {
	r.actions = append(r.actions, action+":"+outcome)
}

func (r *recorderSpy) PermissionGateBlocked(existingStatus string) {
	r.blocked = append(r.blocked, existingStatus)
}

func (r *recorderSpy) CacheLookup(bool) {}

var errDatabaseDown = errors.New("database down")
