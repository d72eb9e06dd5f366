package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/cache"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/geo"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
	"github.com/fragranza-olio/ojt-backend/internal/service/file"
)

const (
	statusCacheTTL = 2 * time.Minute
	maxHistoryDays = 366
)

// StatusCache holds each trainee's record and late permission for the day.
type StatusCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Recorder receives workflow counters.
type Recorder interface {
	ClockAction(action, outcome string)
	PermissionGateBlocked(existingStatus string)
	CacheLookup(hit bool)
}

type AttendanceServiceImpl struct {
	tx          database.Transactor
	records     attendance.AttendanceRepository
	permissions attendance.LatePermissionRepository
	users       user.UserRepository
	schedule    attendance.Schedule
	fileService file.FileService

	notifier notification.Queuer
	cache    StatusCache
	geocoder geo.ReverseGeocoder
	metrics  Recorder
	now      func() time.Time
}

type Option func(*AttendanceServiceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *AttendanceServiceImpl) { s.now = now }
}

func WithNotifier(n notification.Queuer) Option {
	return func(s *AttendanceServiceImpl) { s.notifier = n }
}

func WithStatusCache(c StatusCache) Option {
	return func(s *AttendanceServiceImpl) { s.cache = c }
}

// WithGeocoder enables server-side address lookup for clock actions that
// carry coordinates without a location text.
func WithGeocoder(g geo.ReverseGeocoder) Option {
	return func(s *AttendanceServiceImpl) { s.geocoder = g }
}

func WithMetrics(m Recorder) Option {
	return func(s *AttendanceServiceImpl) { s.metrics = m }
}

func NewAttendanceService(
	tx database.Transactor,
	records attendance.AttendanceRepository,
	permissions attendance.LatePermissionRepository,
	users user.UserRepository,
	schedule attendance.Schedule,
	fileService file.FileService,
	opts ...Option,
) *AttendanceServiceImpl {
	s := &AttendanceServiceImpl{
		tx:          tx,
		records:     records,
		permissions: permissions,
		users:       users,
		schedule:    schedule,
		fileService: fileService,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// ==================== STATUS ====================

// dayState is what the kiosk polls; it is cached per trainee and date.
type dayState struct {
	Record     *attendance.AttendanceRecord     `json:"record"`
	Permission *attendance.LatePermissionRequest `json:"permission"`
}

func statusKey(traineeID string, date time.Time) string {
	return fmt.Sprintf("status:%s:%s", traineeID, date.Format("2006-01-02"))
}

func (s *AttendanceServiceImpl) loadDay(ctx context.Context, traineeID string, date time.Time) (dayState, error) {
	var day dayState
	key := statusKey(traineeID, date)

	if s.cache != nil {
		err := s.cache.Get(ctx, key, &day)
		if err == nil {
			s.recordCache(true)
			return day, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("status cache read failed", "key", key, "error", err)
		}
		s.recordCache(false)
	}

	record, err := s.records.GetByTraineeAndDate(ctx, traineeID, date)
	if err != nil {
		return dayState{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	permission, err := s.permissions.GetByTraineeAndDate(ctx, traineeID, date)
	if err != nil {
		return dayState{}, fmt.Errorf("failed to get late permission: %w", err)
	}
	day = dayState{Record: record, Permission: permission}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, day, statusCacheTTL); err != nil {
			slog.Warn("status cache write failed", "key", key, "error", err)
		}
	}
	return day, nil
}

func (s *AttendanceServiceImpl) invalidate(ctx context.Context, traineeID string, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statusKey(traineeID, date)); err != nil {
		slog.Warn("status cache invalidation failed", "trainee_id", traineeID, "error", err)
	}
}

// GetStatus implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetStatus(ctx context.Context) (attendance.StatusResponse, error) {
	caller, err := s.trainee(ctx)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	now := s.now()
	date := s.schedule.DateOf(now)
	day, err := s.loadDay(ctx, caller.UserID, date)
	if err != nil {
		return attendance.StatusResponse{}, err
	}

	state := attendance.StateOf(day.Record)
	pastCutoff := s.schedule.PastCutoff(now)
	open := state == attendance.StateNotClocked && !day.Record.IsAbsent()
	requiresPermission := open && pastCutoff && attendance.StatusOf(day.Permission) != attendance.PermissionApproved

	resp := attendance.StatusResponse{
		Date:               date.Format("2006-01-02"),
		ServerTime:         now.In(s.schedule.Location).Format(time.RFC3339),
		State:              state,
		PastCutoff:         pastCutoff,
		RequiresPermission: requiresPermission,
		CanClockIn:         open && !requiresPermission,
		Schedule:           scheduleResponse(s.schedule),
	}
	if day.Record != nil {
		r := s.toResponse(*day.Record)
		resp.Record = &r
	}
	if day.Permission != nil {
		p := s.toPermissionResponse(*day.Permission)
		resp.LatePermission = &p
	}
	return resp, nil
}

// GetToday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context) (*attendance.AttendanceResponse, error) {
	caller, err := s.trainee(ctx)
	if err != nil {
		return nil, err
	}

	day, err := s.loadDay(ctx, caller.UserID, s.schedule.DateOf(s.now()))
	if err != nil {
		return nil, err
	}
	if day.Record == nil {
		return nil, nil
	}
	resp := s.toResponse(*day.Record)
	return &resp, nil
}

// GetHistory implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetHistory(ctx context.Context, filter attendance.HistoryFilter) (attendance.HistoryResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.HistoryResponse{}, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return attendance.HistoryResponse{}, err
	}

	traineeID := filter.TraineeID
	if traineeID == "" || traineeID == caller.UserID {
		if caller.Role != user.RoleOJTTrainee {
			return attendance.HistoryResponse{}, user.ErrTraineeAccessRequired
		}
		traineeID = caller.UserID
	} else if _, err := s.reviewableTrainee(ctx, caller, traineeID); err != nil {
		return attendance.HistoryResponse{}, err
	}

	from, to, err := s.historyRange(filter.From, filter.To)
	if err != nil {
		return attendance.HistoryResponse{}, err
	}

	records, err := s.records.ListByTrainee(ctx, traineeID, from, to)
	if err != nil {
		return attendance.HistoryResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := attendance.HistoryResponse{
		TraineeID: traineeID,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Records:   make([]attendance.AttendanceResponse, 0, len(records)),
		Summary:   attendance.Summarize(records),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, s.toResponse(r))
	}
	return resp, nil
}

// historyRange defaults to the current week.
func (s *AttendanceServiceImpl) historyRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, to := attendance.WeekOf(s.schedule.DateOf(s.now()))

	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return time.Time{}, time.Time{}, attendance.ErrInvalidDateRange
		}
		if toStr == "" {
			to = from.AddDate(0, 0, 6)
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return time.Time{}, time.Time{}, attendance.ErrInvalidDateRange
		}
		if fromStr == "" {
			from = to.AddDate(0, 0, -6)
		}
	}

	if to.Before(from) || to.Sub(from) > maxHistoryDays*24*time.Hour {
		return time.Time{}, time.Time{}, attendance.ErrInvalidDateRange
	}
	return from, to, nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.ListAttendanceFilter) ([]attendance.AttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	supervisorID, err := supervisorScope(caller)
	if err != nil {
		return nil, err
	}

	date := s.schedule.DateOf(s.now())
	if filter.Date != "" {
		date, _ = time.Parse("2006-01-02", filter.Date)
	}

	records, err := s.records.ListByDate(ctx, date, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, s.toResponse(r))
	}
	return resp, nil
}

// ==================== CLOCK ACTIONS ====================

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	caller, err := s.trainee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	date := s.schedule.DateOf(now)
	location := s.locationText(ctx, req.Latitude, req.Longitude, req.Location)

	var (
		result   attendance.AttendanceRecord
		photoKey string
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.records.LockByTraineeAndDate(txCtx, caller.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		record := attendance.AttendanceRecord{TraineeID: caller.UserID, Date: date}
		if existing != nil {
			record = *existing
		}
		if err := record.Apply(attendance.ActionClockIn, now); err != nil {
			return err
		}

		if err := s.checkLateGate(txCtx, caller.UserID, date, now); err != nil {
			return err
		}

		photoKey, err = s.fileService.UploadAttendancePhoto(txCtx, caller.UserID, date, "in", req.File, req.FileHeader.Filename)
		if err != nil {
			return fmt.Errorf("failed to upload attendance photo: %w", err)
		}

		record.PhotoIn = &photoKey
		record.LatitudeIn = req.Latitude
		record.LongitudeIn = req.Longitude
		record.LocationIn = location
		record.FaceVerified = req.FaceVerified
		s.schedule.Evaluate(&record)
		logAdvisoryMismatch(req, record)

		if existing == nil {
			result, err = s.records.Create(txCtx, record)
			if err != nil {
				return fmt.Errorf("failed to create attendance record: %w", err)
			}
			return nil
		}
		if err := s.records.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		result = record
		return nil
	})
	s.recordAction(attendance.ActionClockIn, err)
	if err != nil {
		s.discardPhoto(ctx, photoKey)
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, caller.UserID, date)
	slog.Info("trainee clocked in",
		"trainee_id", caller.UserID,
		"date", date.Format("2006-01-02"),
		"late_minutes", result.LateMinutes,
		"penalty_hours", result.PenaltyHours)

	return s.toResponse(result), nil
}

// checkLateGate blocks clock-in past the cutoff unless the day's late
// permission was approved; an approved permission is marked used.
func (s *AttendanceServiceImpl) checkLateGate(ctx context.Context, traineeID string, date, now time.Time) error {
	if !s.schedule.PastCutoff(now) {
		return nil
	}

	permission, err := s.permissions.LockByTraineeAndDate(ctx, traineeID, date)
	if err != nil {
		return fmt.Errorf("failed to get late permission: %w", err)
	}

	status := attendance.StatusOf(permission)
	if status != attendance.PermissionApproved {
		if s.metrics != nil {
			s.metrics.PermissionGateBlocked(string(status))
		}
		return &attendance.RequiresPermissionError{Date: date, ExistingStatus: status}
	}

	if permission.UsedAt == nil {
		permission.UsedAt = &now
		if err := s.permissions.Update(ctx, *permission); err != nil {
			return fmt.Errorf("failed to mark late permission used: %w", err)
		}
	}
	return nil
}

// ClockOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	caller, err := s.trainee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	date := s.schedule.DateOf(now)
	location := s.locationText(ctx, req.Latitude, req.Longitude, req.Location)

	var (
		result   attendance.AttendanceRecord
		photoKey string
	)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.records.LockByTraineeAndDate(txCtx, caller.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if existing == nil {
			return attendance.ErrNotClockedIn
		}

		record := *existing
		if err := record.Apply(attendance.ActionClockOut, now); err != nil {
			return err
		}

		photoKey, err = s.fileService.UploadAttendancePhoto(txCtx, caller.UserID, date, "out", req.File, req.FileHeader.Filename)
		if err != nil {
			return fmt.Errorf("failed to upload attendance photo: %w", err)
		}

		record.PhotoOut = &photoKey
		record.LatitudeOut = req.Latitude
		record.LongitudeOut = req.Longitude
		record.LocationOut = location
		record.FaceVerified = record.FaceVerified && req.FaceVerified
		s.schedule.Evaluate(&record)

		if err := s.records.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		result = record
		return nil
	})
	s.recordAction(attendance.ActionClockOut, err)
	if err != nil {
		s.discardPhoto(ctx, photoKey)
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, caller.UserID, date)
	slog.Info("trainee clocked out",
		"trainee_id", caller.UserID,
		"date", date.Format("2006-01-02"),
		"work_hours", result.WorkHours,
		"overtime_hours", result.OvertimeHours)

	return s.toResponse(result), nil
}

// StartBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) StartBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	return s.transition(ctx, attendance.ActionBreakStart)
}

// EndBreak implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	return s.transition(ctx, attendance.ActionBreakEnd)
}

func (s *AttendanceServiceImpl) transition(ctx context.Context, action attendance.Action) (attendance.AttendanceResponse, error) {
	caller, err := s.trainee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	date := s.schedule.DateOf(now)

	var result attendance.AttendanceRecord
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.records.LockByTraineeAndDate(txCtx, caller.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if existing == nil {
			return attendance.ErrNotClockedIn
		}

		record := *existing
		if err := record.Apply(action, now); err != nil {
			return err
		}
		if err := s.records.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		result = record
		return nil
	})
	s.recordAction(action, err)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, caller.UserID, date)
	return s.toResponse(result), nil
}

// ApproveOvertime implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApproveOvertime(ctx context.Context, attendanceID string) (attendance.AttendanceResponse, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if _, err := supervisorScope(caller); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.now().UTC()
	var result attendance.AttendanceRecord
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.records.LockByID(txCtx, attendanceID)
		if err != nil {
			return err
		}
		if _, err := s.reviewableTrainee(txCtx, caller, record.TraineeID); err != nil {
			return err
		}

		switch {
		case record.TimeOut == nil:
			return attendance.ErrAttendanceIncomplete
		case record.OvertimeHours <= 0:
			return attendance.ErrNoOvertime
		case record.OvertimeApproved:
			return attendance.ErrOvertimeAlreadyApproved
		}

		record.OvertimeApproved = true
		record.OvertimeApprovedBy = &caller.UserID
		record.OvertimeApprovedAt = &now
		if err := s.records.Update(txCtx, record); err != nil {
			return fmt.Errorf("failed to approve overtime: %w", err)
		}
		result = record
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	s.invalidate(ctx, result.TraineeID, result.Date)
	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: result.TraineeID,
		SenderID:    &caller.UserID,
		Type:        notification.TypeOvertimeApproved,
		Title:       "Overtime approved",
		Message:     fmt.Sprintf("%.2f overtime hours on %s were approved.", result.OvertimeHours, result.Date.Format("2006-01-02")),
		Data:        map[string]interface{}{"attendance_id": result.ID, "date": result.Date.Format("2006-01-02")},
	})

	return s.toResponse(result), nil
}

// ==================== HELPERS ====================

// trainee returns the caller's claims, requiring the trainee role.
func (s *AttendanceServiceImpl) trainee(ctx context.Context) (jwt.Claims, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return jwt.Claims{}, err
	}
	if caller.Role != user.RoleOJTTrainee {
		return jwt.Claims{}, user.ErrTraineeAccessRequired
	}
	return caller, nil
}

// supervisorScope returns the supervisor filter for list queries: the
// caller's own ID for supervisors, empty for admins.
func supervisorScope(caller jwt.Claims) (string, error) {
	switch caller.Role {
	case user.RoleOJTSupervisor:
		return caller.UserID, nil
	case user.RoleAdmin:
		return "", nil
	default:
		return "", user.ErrSupervisorAccessRequired
	}
}

// reviewableTrainee loads traineeID and checks the caller may act on them.
func (s *AttendanceServiceImpl) reviewableTrainee(ctx context.Context, caller jwt.Claims, traineeID string) (user.User, error) {
	reviewer := user.User{ID: caller.UserID, Role: caller.Role}

	trainee, err := s.users.GetByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, user.ErrTraineeNotFound
		}
		return user.User{}, fmt.Errorf("failed to get trainee: %w", err)
	}
	if !trainee.IsTrainee() {
		return user.User{}, user.ErrNotATrainee
	}
	if !reviewer.CanReview(trainee) {
		return user.User{}, user.ErrNotYourTrainee
	}
	return trainee, nil
}

// locationText keeps a client-provided location, otherwise resolves one
// from the coordinates.
func (s *AttendanceServiceImpl) locationText(ctx context.Context, lat, lon *float64, provided *string) *string {
	if provided != nil && strings.TrimSpace(*provided) != "" {
		text := strings.TrimSpace(*provided)
		return &text
	}
	if lat == nil || lon == nil {
		return nil
	}
	text := geo.Address(ctx, s.geocoder, *lat, *lon)
	return &text
}

func (s *AttendanceServiceImpl) discardPhoto(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.fileService.DeleteFile(ctx, key); err != nil {
		slog.Warn("failed to remove orphaned attendance photo", "key", key, "error", err)
	}
}

func (s *AttendanceServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		slog.Error("failed to queue notification", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}

func (s *AttendanceServiceImpl) recordAction(action attendance.Action, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, attendance.ErrRequiresPermission):
		outcome = "requires_permission"
	default:
		outcome = "rejected"
	}
	s.metrics.ClockAction(string(action), outcome)
}

func (s *AttendanceServiceImpl) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.CacheLookup(hit)
	}
}

// logAdvisoryMismatch notes when the kiosk's own lateness figures disagree
// with the stored ones.
func logAdvisoryMismatch(req attendance.ClockInRequest, record attendance.AttendanceRecord) {
	if req.LateMinutes != nil && *req.LateMinutes != record.LateMinutes {
		slog.Debug("client late minutes differ from server",
			"trainee_id", record.TraineeID, "client", *req.LateMinutes, "server", record.LateMinutes)
	}
	if req.PenaltyHours != nil && *req.PenaltyHours != record.PenaltyHours {
		slog.Debug("client penalty differs from server",
			"trainee_id", record.TraineeID, "client", *req.PenaltyHours, "server", record.PenaltyHours)
	}
}
