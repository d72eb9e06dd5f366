package attendance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
)

const expiredReason = "expired"

// AutoCloseOpenAttendance clocks out every record left open on a previous
// day at that day's scheduled end, closing an open break at the same instant.
func (s *AttendanceServiceImpl) AutoCloseOpenAttendance(ctx context.Context) (int, error) {
	today := s.schedule.DateOf(s.now())

	open, err := s.records.ListOpenBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list open attendance: %w", err)
	}

	closed := 0
	for _, stale := range open {
		var record attendance.AttendanceRecord
		err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			r, err := s.records.LockByID(txCtx, stale.ID)
			if err != nil {
				return err
			}
			if r.TimeIn == nil || r.TimeOut != nil {
				return nil
			}

			closeAt := s.schedule.End.On(r.Date, s.schedule.Location)
			if closeAt.Before(*r.TimeIn) {
				closeAt = *r.TimeIn
			}
			if err := r.Apply(attendance.ActionClockOut, closeAt); err != nil {
				return err
			}
			s.schedule.Evaluate(&r)

			if err := s.records.Update(txCtx, r); err != nil {
				return err
			}
			record = r
			return nil
		})
		if err != nil {
			slog.Error("Cron: Failed to auto-close attendance", "attendance_id", stale.ID, "trainee_id", stale.TraineeID, "error", err)
			continue
		}
		if record.ID == "" {
			continue
		}

		closed++
		s.invalidate(ctx, record.TraineeID, record.Date)
		s.notify(ctx, notification.CreateNotificationRequest{
			RecipientID: record.TraineeID,
			Type:        notification.TypeAttendanceAutoClosed,
			Title:       "Attendance auto-closed",
			Message: fmt.Sprintf("You did not clock out on %s. The day was closed at %s.",
				record.Date.Format(dateLayout), s.schedule.End),
			Data: map[string]interface{}{"attendance_id": record.ID, "date": record.Date.Format(dateLayout)},
		})
	}

	return closed, nil
}

// ExpireLatePermissions denies pending requests whose date has passed and
// marks those trainees absent.
func (s *AttendanceServiceImpl) ExpireLatePermissions(ctx context.Context) (int, error) {
	today := s.schedule.DateOf(s.now())

	pending, err := s.permissions.ListPendingBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending late permissions: %w", err)
	}

	expired := 0
	reason := expiredReason
	for _, p := range pending {
		var result attendance.LatePermissionRequest
		err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			decided, err := s.decide(txCtx, p.TraineeID, p.PermissionDate, false, nil, &reason)
			if err != nil {
				return err
			}
			result = decided
			return nil
		})
		if err != nil {
			slog.Error("Cron: Failed to expire late permission", "request_id", p.ID, "trainee_id", p.TraineeID, "error", err)
			continue
		}

		expired++
		s.invalidate(ctx, result.TraineeID, result.PermissionDate)
		s.notifyDecision(ctx, result, nil)
	}

	return expired, nil
}
