package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
)

const dateLayout = "2006-01-02"

type TimesheetServiceImpl struct {
	tx         database.Transactor
	timesheets timesheet.TimesheetRepository
	records    attendance.AttendanceRepository
	users      user.UserRepository
	schedule   attendance.Schedule
	notifier   notification.Queuer
	now        func() time.Time
}

type Option func(*TimesheetServiceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *TimesheetServiceImpl) { s.now = now }
}

func WithNotifier(n notification.Queuer) Option {
	return func(s *TimesheetServiceImpl) { s.notifier = n }
}

func NewTimesheetService(
	tx database.Transactor,
	timesheets timesheet.TimesheetRepository,
	records attendance.AttendanceRepository,
	users user.UserRepository,
	schedule attendance.Schedule,
	opts ...Option,
) *TimesheetServiceImpl {
	s := &TimesheetServiceImpl{
		tx:         tx,
		timesheets: timesheets,
		records:    records,
		users:      users,
		schedule:   schedule,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ timesheet.TimesheetService = (*TimesheetServiceImpl)(nil)

// List implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) List(ctx context.Context, filter timesheet.TimesheetFilter) ([]timesheet.TimesheetResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case user.RoleOJTTrainee:
		filter.TraineeID = caller.UserID
		filter.SupervisorID = ""
	case user.RoleOJTSupervisor:
		filter.SupervisorID = caller.UserID
	case user.RoleAdmin:
		filter.SupervisorID = ""
	default:
		return nil, user.ErrInsufficientPermissions
	}

	sheets, err := s.timesheets.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}

	resp := make([]timesheet.TimesheetResponse, 0, len(sheets))
	for _, ts := range sheets {
		resp = append(resp, s.toResponse(ts))
	}
	return resp, nil
}

// GetWeek implements timesheet.TimesheetService. Editable timesheets are
// shown with entries recomputed from the latest attendance.
func (s *TimesheetServiceImpl) GetWeek(ctx context.Context, weekStart string) (timesheet.TimesheetResponse, error) {
	caller, err := s.trainee(ctx)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	start, err := s.weekStart(weekStart)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	existing, err := s.timesheets.GetByTraineeAndWeek(ctx, caller.UserID, start)
	if err != nil {
		return timesheet.TimesheetResponse{}, fmt.Errorf("failed to get timesheet: %w", err)
	}
	if existing != nil && !existing.Editable() {
		return s.toResponse(*existing), nil
	}

	ts, err := s.draftFor(ctx, caller.UserID, start, existing)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	return s.toResponse(ts), nil
}

// Get implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) Get(ctx context.Context, id string) (timesheet.TimesheetResponse, error) {
	ts, err := s.load(ctx, id)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	return s.toResponse(ts), nil
}

// load fetches a timesheet the caller may see.
func (s *TimesheetServiceImpl) load(ctx context.Context, id string) (timesheet.Timesheet, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	ts, err := s.timesheets.GetByID(ctx, id)
	if err != nil {
		return timesheet.Timesheet{}, err
	}

	if caller.Role == user.RoleOJTTrainee {
		if ts.TraineeID != caller.UserID {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
		}
		return ts, nil
	}
	if err := s.checkReviewer(ctx, caller, ts.TraineeID); err != nil {
		return timesheet.Timesheet{}, err
	}
	return ts, nil
}

// SaveDraft implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) SaveDraft(ctx context.Context, req timesheet.SaveDraftRequest) (timesheet.TimesheetResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	caller, err := s.trainee(ctx)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	start, err := s.weekStart(req.WeekStart)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	var result timesheet.Timesheet
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.timesheets.LockByTraineeAndWeek(txCtx, caller.UserID, start)
		if err != nil {
			return fmt.Errorf("failed to get timesheet: %w", err)
		}
		if existing != nil && !existing.Editable() {
			return timesheet.ErrTimesheetLocked
		}

		ts, err := s.draftFor(txCtx, caller.UserID, start, existing)
		if err != nil {
			return err
		}
		for _, e := range req.Entries {
			date, _ := time.Parse(dateLayout, e.Date)
			if err := ts.SetTask(date, e.TaskDescription); err != nil {
				return err
			}
		}

		result, err = s.save(txCtx, ts, existing == nil)
		return err
	})
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	return s.toResponse(result), nil
}

// Submit implements timesheet.TimesheetService. Submitting a rejected
// timesheet starts a new review round.
func (s *TimesheetServiceImpl) Submit(ctx context.Context, req timesheet.SubmitTimesheetRequest) (timesheet.TimesheetResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	caller, err := s.trainee(ctx)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	start, err := s.weekStart(req.WeekStart)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	var result timesheet.Timesheet
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.timesheets.LockByTraineeAndWeek(txCtx, caller.UserID, start)
		if err != nil {
			return fmt.Errorf("failed to get timesheet: %w", err)
		}

		var ts timesheet.Timesheet
		if existing != nil && !existing.Editable() {
			ts = *existing
		} else if ts, err = s.draftFor(txCtx, caller.UserID, start, existing); err != nil {
			return err
		}

		if ts.Editable() && len(ts.Entries) == 0 {
			return timesheet.ErrEmptyTimesheet
		}
		if err := ts.Submit(req.Summary, s.now().UTC()); err != nil {
			return err
		}

		result, err = s.save(txCtx, ts, existing == nil)
		return err
	})
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	s.notifySupervisor(ctx, result)
	slog.Info("timesheet submitted",
		"trainee_id", caller.UserID,
		"week_start", start.Format(dateLayout),
		"total_hours", result.TotalHours)

	return s.toResponse(result), nil
}

// Approve implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) Approve(ctx context.Context, id string) (timesheet.TimesheetResponse, error) {
	return s.review(ctx, id, func(ts *timesheet.Timesheet, reviewerID string, at time.Time) error {
		return ts.Approve(reviewerID, at)
	})
}

// Reject implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) Reject(ctx context.Context, req timesheet.RejectTimesheetRequest) (timesheet.TimesheetResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	return s.review(ctx, req.ID, func(ts *timesheet.Timesheet, reviewerID string, at time.Time) error {
		return ts.Reject(reviewerID, req.Reason, at)
	})
}

func (s *TimesheetServiceImpl) review(ctx context.Context, id string, decide func(ts *timesheet.Timesheet, reviewerID string, at time.Time) error) (timesheet.TimesheetResponse, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}
	if caller.Role != user.RoleOJTSupervisor && caller.Role != user.RoleAdmin {
		return timesheet.TimesheetResponse{}, user.ErrSupervisorAccessRequired
	}

	var result timesheet.Timesheet
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		ts, err := s.timesheets.LockByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.checkReviewer(txCtx, caller, ts.TraineeID); err != nil {
			return err
		}
		if err := decide(&ts, caller.UserID, s.now().UTC()); err != nil {
			return err
		}

		// Overtime approved while the sheet waited for review counts toward
		// the reviewed total.
		records, err := s.records.ListByTrainee(txCtx, ts.TraineeID, ts.WeekStart, ts.WeekEnd)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		ts.Refresh(records)

		result, err = s.save(txCtx, ts, false)
		return err
	})
	if err != nil {
		return timesheet.TimesheetResponse{}, err
	}

	s.notifyTrainee(ctx, result, caller.UserID)
	slog.Info("timesheet reviewed", "timesheet_id", result.ID, "status", result.Status, "reviewed_by", caller.UserID)

	return s.toResponse(result), nil
}

// ==================== HELPERS ====================

func (s *TimesheetServiceImpl) trainee(ctx context.Context) (jwt.Claims, error) {
	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return jwt.Claims{}, err
	}
	if caller.Role != user.RoleOJTTrainee {
		return jwt.Claims{}, user.ErrTraineeAccessRequired
	}
	return caller, nil
}

func (s *TimesheetServiceImpl) checkReviewer(ctx context.Context, caller jwt.Claims, traineeID string) error {
	reviewer := user.User{ID: caller.UserID, Role: caller.Role}
	trainee, err := s.users.GetByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.ErrTraineeNotFound
		}
		return fmt.Errorf("failed to get trainee: %w", err)
	}
	if !reviewer.CanReview(trainee) {
		return user.ErrNotYourTrainee
	}
	return nil
}

// weekStart parses a Monday date; empty means the current week.
func (s *TimesheetServiceImpl) weekStart(value string) (time.Time, error) {
	if value == "" {
		start, _ := attendance.WeekOf(s.schedule.DateOf(s.now()))
		return start, nil
	}
	start, err := time.Parse(dateLayout, value)
	if err != nil || start.Weekday() != time.Monday {
		return time.Time{}, timesheet.ErrInvalidWeekStart
	}
	return start, nil
}

// draftFor rebuilds entries from the week's attendance, starting from the
// existing timesheet when there is one.
func (s *TimesheetServiceImpl) draftFor(ctx context.Context, traineeID string, start time.Time, existing *timesheet.Timesheet) (timesheet.Timesheet, error) {
	var ts timesheet.Timesheet
	if existing != nil {
		ts = *existing
	} else {
		draft, err := timesheet.NewDraft(traineeID, start)
		if err != nil {
			return timesheet.Timesheet{}, err
		}
		ts = draft
	}

	records, err := s.records.ListByTrainee(ctx, traineeID, ts.WeekStart, ts.WeekEnd)
	if err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	ts.Refresh(records)
	return ts, nil
}

func (s *TimesheetServiceImpl) save(ctx context.Context, ts timesheet.Timesheet, isNew bool) (timesheet.Timesheet, error) {
	if isNew {
		created, err := s.timesheets.Create(ctx, ts)
		if err != nil {
			return timesheet.Timesheet{}, err
		}
		return created, nil
	}

	if err := s.timesheets.Update(ctx, ts); err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("failed to update timesheet: %w", err)
	}
	if err := s.timesheets.ReplaceEntries(ctx, ts.ID, ts.Entries); err != nil {
		return timesheet.Timesheet{}, fmt.Errorf("failed to save timesheet entries: %w", err)
	}
	return ts, nil
}

func (s *TimesheetServiceImpl) notifySupervisor(ctx context.Context, ts timesheet.Timesheet) {
	if s.notifier == nil {
		return
	}
	trainee, err := s.users.GetByID(ctx, ts.TraineeID)
	if err != nil || trainee.SupervisorID == nil {
		return
	}
	week := ts.WeekStart.Format(dateLayout)
	err = s.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: *trainee.SupervisorID,
		SenderID:    &trainee.ID,
		Type:        notification.TypeTimesheetSubmitted,
		Title:       "Timesheet submitted",
		Message:     fmt.Sprintf("%s submitted the timesheet for the week of %s (%.2f hours).", trainee.FullName, week, ts.TotalHours),
		Data:        map[string]interface{}{"timesheet_id": ts.ID, "week_start": week},
	})
	if err != nil {
		slog.Error("failed to queue notification", "timesheet_id", ts.ID, "error", err)
	}
}

func (s *TimesheetServiceImpl) notifyTrainee(ctx context.Context, ts timesheet.Timesheet, reviewerID string) {
	if s.notifier == nil {
		return
	}
	week := ts.WeekStart.Format(dateLayout)
	req := notification.CreateNotificationRequest{
		RecipientID: ts.TraineeID,
		SenderID:    &reviewerID,
		Data:        map[string]interface{}{"timesheet_id": ts.ID, "week_start": week},
	}
	if ts.Status == timesheet.StatusApproved {
		req.Type = notification.TypeTimesheetApproved
		req.Title = "Timesheet approved"
		req.Message = fmt.Sprintf("Your timesheet for the week of %s was approved.", week)
	} else {
		req.Type = notification.TypeTimesheetRejected
		req.Title = "Timesheet rejected"
		req.Message = fmt.Sprintf("Your timesheet for the week of %s was rejected: %s", week, *ts.RejectionReason)
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		slog.Error("failed to queue notification", "timesheet_id", ts.ID, "error", err)
	}
}

func (s *TimesheetServiceImpl) formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	out := t.In(s.schedule.Location).Format(time.RFC3339)
	return &out
}

func (s *TimesheetServiceImpl) toResponse(ts timesheet.Timesheet) timesheet.TimesheetResponse {
	resp := timesheet.TimesheetResponse{
		ID:              ts.ID,
		TraineeID:       ts.TraineeID,
		WeekStart:       ts.WeekStart.Format(dateLayout),
		WeekEnd:         ts.WeekEnd.Format(dateLayout),
		TotalHours:      ts.TotalHours,
		Status:          ts.Status,
		Summary:         ts.Summary,
		RejectionReason: ts.RejectionReason,
		SubmittedAt:     s.formatTime(ts.SubmittedAt),
		ReviewedBy:      ts.ReviewedBy,
		ReviewedAt:      s.formatTime(ts.ReviewedAt),
	}
	if ts.TraineeName != nil {
		resp.TraineeName = *ts.TraineeName
	}
	for _, e := range ts.Entries {
		resp.Entries = append(resp.Entries, timesheet.EntryResponse{
			Date:             e.Date.Format(dateLayout),
			AttendanceID:     e.AttendanceID,
			Status:           e.Status,
			WorkHours:        e.WorkHours,
			PenaltyHours:     e.PenaltyHours,
			OvertimeHours:    e.OvertimeHours,
			OvertimeApproved: e.OvertimeApproved,
			NetHours:         e.NetHours,
			TaskDescription:  e.TaskDescription,
		})
	}
	return resp
}
