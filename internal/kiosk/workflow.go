package kiosk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
)

const dateLayout = "2006-01-02"

// API is the part of the attendance API the kiosk drives.
type API interface {
	Status(ctx context.Context) (*attendance.StatusResponse, error)
	ClockIn(ctx context.Context, ev Evidence) (*attendance.AttendanceResponse, error)
	ClockOut(ctx context.Context, ev Evidence) (*attendance.AttendanceResponse, error)
	StartBreak(ctx context.Context) (*attendance.AttendanceResponse, error)
	EndBreak(ctx context.Context) (*attendance.AttendanceResponse, error)
	RequestLatePermission(ctx context.Context, date, reason string) (*attendance.LatePermissionResponse, error)
	SubmitTimesheet(ctx context.Context, weekStart, summary string) (*timesheet.TimesheetResponse, error)
	ApproveTimesheet(ctx context.Context, id string) (*timesheet.TimesheetResponse, error)
	RejectTimesheet(ctx context.Context, id, reason string) (*timesheet.TimesheetResponse, error)
}

// Workflow is the kiosk side of the daily attendance cycle. The cached status
// only ever changes by re-fetching it from the server, and only one action
// can be in flight at a time.
type Workflow struct {
	api    API
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	status   *attendance.StatusResponse
	inFlight bool
	notice   *Notice
}

type WorkflowOption func(*Workflow)

func WithWorkflowClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

func WithWorkflowLogger(l *zap.Logger) WorkflowOption {
	return func(w *Workflow) { w.logger = l }
}

func NewWorkflow(api API, opts ...WorkflowOption) *Workflow {
	w := &Workflow{api: api, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Refresh loads the canonical status. On failure the previous copy is kept.
func (w *Workflow) Refresh(ctx context.Context) (*attendance.StatusResponse, error) {
	status, err := w.api.Status(ctx)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
	return status, nil
}

// Status returns the cached status, if any.
func (w *Workflow) Status() (attendance.StatusResponse, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == nil {
		return attendance.StatusResponse{}, false
	}
	return *w.status, true
}

func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// Notice returns the banner to display, dropping an expired success notice.
func (w *Workflow) Notice() *Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.notice.expired(w.now()) {
		w.notice = nil
	}
	if w.notice == nil {
		return nil
	}
	n := *w.notice
	return &n
}

func (w *Workflow) Dismiss() {
	w.mu.Lock()
	w.notice = nil
	w.mu.Unlock()
}

// fail reports an error raised outside the API call, such as a camera
// failure, the same way a failed action is reported.
func (w *Workflow) fail(action string, err error) {
	w.mu.Lock()
	w.notice = errorNotice(action, err)
	w.mu.Unlock()
}

func (w *Workflow) ClockIn(ctx context.Context, ev Evidence) error {
	return w.run(ctx, "clock_in", "Clocked in", func(ctx context.Context, status *attendance.StatusResponse) error {
		if len(ev.Photo) == 0 {
			return ErrPhotoRequired
		}
		if err := guard(status, attendance.ActionClockIn); err != nil {
			return err
		}
		ev.LateMinutes, ev.PenaltyHours = w.lateness(status)
		_, err := w.api.ClockIn(ctx, ev)
		return err
	})
}

func (w *Workflow) ClockOut(ctx context.Context, ev Evidence) error {
	return w.run(ctx, "clock_out", "Clocked out", func(ctx context.Context, status *attendance.StatusResponse) error {
		if len(ev.Photo) == 0 {
			return ErrPhotoRequired
		}
		if err := guard(status, attendance.ActionClockOut); err != nil {
			return err
		}
		_, err := w.api.ClockOut(ctx, ev)
		return err
	})
}

func (w *Workflow) StartBreak(ctx context.Context) error {
	return w.run(ctx, "break_start", "Break started", func(ctx context.Context, status *attendance.StatusResponse) error {
		if err := guard(status, attendance.ActionBreakStart); err != nil {
			return err
		}
		_, err := w.api.StartBreak(ctx)
		return err
	})
}

func (w *Workflow) EndBreak(ctx context.Context) error {
	return w.run(ctx, "break_end", "Break ended", func(ctx context.Context, status *attendance.StatusResponse) error {
		if err := guard(status, attendance.ActionBreakEnd); err != nil {
			return err
		}
		_, err := w.api.EndBreak(ctx)
		return err
	})
}

// RequestLatePermission asks the supervisor to unlock today's clock-in.
func (w *Workflow) RequestLatePermission(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	return w.run(ctx, "late_permission", "Late permission requested. Wait for your supervisor's decision.", func(ctx context.Context, status *attendance.StatusResponse) error {
		if reason == "" {
			return ErrReasonRequired
		}
		date := w.today(status).Format(dateLayout)
		if status != nil && status.Date != "" {
			date = status.Date
		}
		_, err := w.api.RequestLatePermission(ctx, date, reason)
		return err
	})
}

// SubmitTimesheet submits the week starting on weekStart; empty means the
// current week.
func (w *Workflow) SubmitTimesheet(ctx context.Context, weekStart, summary string) error {
	summary = strings.TrimSpace(summary)
	return w.run(ctx, "timesheet_submit", "Timesheet submitted", func(ctx context.Context, status *attendance.StatusResponse) error {
		if summary == "" {
			return ErrSummaryRequired
		}
		if weekStart == "" {
			monday, _ := attendance.WeekOf(w.today(status))
			weekStart = monday.Format(dateLayout)
		}
		_, err := w.api.SubmitTimesheet(ctx, weekStart, summary)
		return err
	})
}

func (w *Workflow) ApproveTimesheet(ctx context.Context, id string) error {
	return w.run(ctx, "timesheet_approve", "Timesheet approved", func(ctx context.Context, _ *attendance.StatusResponse) error {
		_, err := w.api.ApproveTimesheet(ctx, id)
		return err
	})
}

func (w *Workflow) RejectTimesheet(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	return w.run(ctx, "timesheet_reject", "Timesheet rejected", func(ctx context.Context, _ *attendance.StatusResponse) error {
		if reason == "" {
			return ErrReasonRequired
		}
		_, err := w.api.RejectTimesheet(ctx, id, reason)
		return err
	})
}

// run holds the in-flight guard across the call and the status re-fetch that
// follows a success.
func (w *Workflow) run(ctx context.Context, action, success string, call func(context.Context, *attendance.StatusResponse) error) error {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return ErrActionInFlight
	}
	w.inFlight = true
	w.notice = nil
	status := w.status
	w.mu.Unlock()

	err := call(ctx, status)
	if err != nil {
		w.logger.Warn("action failed", zap.String("action", action), zap.Error(err))
		w.mu.Lock()
		w.notice = errorNotice(action, err)
		w.inFlight = false
		w.mu.Unlock()
		return err
	}

	fresh, refreshErr := w.api.Status(ctx)
	if refreshErr != nil {
		w.logger.Warn("status refresh failed", zap.String("action", action), zap.Error(refreshErr))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// fresh is nil when the re-fetch failed; the old copy no longer holds.
	w.status = fresh
	w.notice = &Notice{
		Kind:      NoticeSuccess,
		Action:    action,
		Message:   success,
		ExpiresAt: w.now().Add(SuccessNoticeTTL),
	}
	w.inFlight = false
	w.logger.Info("action completed", zap.String("action", action))
	return nil
}

// guard checks the action against the cached state. Without a cached status
// the server decides.
func guard(status *attendance.StatusResponse, action attendance.Action) error {
	if status == nil {
		return nil
	}
	_, err := attendance.NextState(status.State, action)
	return err
}

// today is the current date on the schedule's calendar, which need not be
// the kiosk machine's zone.
func (w *Workflow) today(status *attendance.StatusResponse) time.Time {
	schedule := attendance.DefaultSchedule()
	if status != nil {
		if s, err := status.Schedule.Schedule(); err == nil {
			schedule = s
		}
	}
	return schedule.DateOf(w.now())
}

// lateness is the advisory value sent with a clock-in; the server recomputes it.
func (w *Workflow) lateness(status *attendance.StatusResponse) (*int, *float64) {
	if status == nil {
		return nil, nil
	}
	schedule, err := status.Schedule.Schedule()
	if err != nil {
		w.logger.Debug("schedule unavailable", zap.Error(err))
		return nil, nil
	}
	late := schedule.LateMinutes(w.now())
	penalty := attendance.PenaltyHours(late)
	return &late, &penalty
}

func errorNotice(action string, err error) *Notice {
	n := &Notice{Kind: NoticeError, Action: action, Message: err.Error()}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		n.Message = apiErr.Message
		if apiErr.RequiresPermission {
			n.RequiresPermission = true
			n.ExistingStatus = apiErr.ExistingStatus
		}
	}
	return n
}
