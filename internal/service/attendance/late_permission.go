package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
)

// RequestLatePermission implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RequestLatePermission(ctx context.Context, req attendance.RequestLatePermissionRequest) (attendance.LatePermissionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LatePermissionResponse{}, err
	}

	caller, err := s.trainee(ctx)
	if err != nil {
		return attendance.LatePermissionResponse{}, err
	}

	date, _ := time.Parse(dateLayout, req.Date)
	if date.Before(s.schedule.DateOf(s.now())) {
		return attendance.LatePermissionResponse{}, attendance.ErrPermissionDateInPast
	}

	created, err := s.permissions.Create(ctx, attendance.LatePermissionRequest{
		TraineeID:      caller.UserID,
		PermissionDate: date,
		Reason:         strings.TrimSpace(req.Reason),
		Status:         attendance.PermissionPending,
	})
	if err != nil {
		return attendance.LatePermissionResponse{}, err
	}

	s.invalidate(ctx, caller.UserID, date)
	s.notifySupervisor(ctx, caller.UserID, created)
	slog.Info("late permission requested", "trainee_id", caller.UserID, "date", req.Date)

	return s.toPermissionResponse(created), nil
}

func (s *AttendanceServiceImpl) notifySupervisor(ctx context.Context, traineeID string, p attendance.LatePermissionRequest) {
	trainee, err := s.users.GetByID(ctx, traineeID)
	if err != nil {
		slog.Warn("failed to load trainee for notification", "trainee_id", traineeID, "error", err)
		return
	}
	if trainee.SupervisorID == nil {
		return
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		RecipientID: *trainee.SupervisorID,
		SenderID:    &trainee.ID,
		Type:        notification.TypeLatePermissionRequested,
		Title:       "Late permission requested",
		Message:     fmt.Sprintf("%s asks to clock in late on %s: %s", trainee.FullName, p.PermissionDate.Format(dateLayout), p.Reason),
		Data: map[string]interface{}{
			"request_id": p.ID,
			"trainee_id": trainee.ID,
			"date":       p.PermissionDate.Format(dateLayout),
		},
	})
}

// GrantLatePermission implements attendance.AttendanceService. Denial marks
// the trainee absent for the date.
func (s *AttendanceServiceImpl) GrantLatePermission(ctx context.Context, req attendance.GrantLatePermissionRequest) (attendance.LatePermissionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.LatePermissionResponse{}, err
	}

	caller, err := jwt.FromContext(ctx)
	if err != nil {
		return attendance.LatePermissionResponse{}, err
	}
	if _, err := supervisorScope(caller); err != nil {
		return attendance.LatePermissionResponse{}, err
	}
	if _, err := s.reviewableTrainee(ctx, caller, req.TraineeID); err != nil {
		return attendance.LatePermissionResponse{}, err
	}

	date, _ := time.Parse(dateLayout, req.Date)
	approved := *req.Approved

	var result attendance.LatePermissionRequest
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var reason *string
		if !approved && req.DeniedReason != nil && strings.TrimSpace(*req.DeniedReason) != "" {
			r := strings.TrimSpace(*req.DeniedReason)
			reason = &r
		}
		p, err := s.decide(txCtx, req.TraineeID, date, approved, &caller.UserID, reason)
		if err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return attendance.LatePermissionResponse{}, err
	}

	s.invalidate(ctx, req.TraineeID, date)
	s.notifyDecision(ctx, result, &caller.UserID)
	slog.Info("late permission decided",
		"trainee_id", req.TraineeID, "date", req.Date, "status", result.Status, "granted_by", caller.UserID)

	return s.toPermissionResponse(result), nil
}

// decide moves a pending request to approved or denied; it must run inside a
// transaction.
func (s *AttendanceServiceImpl) decide(ctx context.Context, traineeID string, date time.Time, approved bool, decidedBy, deniedReason *string) (attendance.LatePermissionRequest, error) {
	p, err := s.permissions.LockByTraineeAndDate(ctx, traineeID, date)
	if err != nil {
		return attendance.LatePermissionRequest{}, fmt.Errorf("failed to get late permission: %w", err)
	}
	if p == nil {
		return attendance.LatePermissionRequest{}, attendance.ErrPermissionRequestNotFound
	}
	if p.Status != attendance.PermissionPending {
		return attendance.LatePermissionRequest{}, attendance.ErrPermissionAlreadyDecided
	}

	now := s.now().UTC()
	p.DecidedAt = &now
	p.GrantedBy = decidedBy
	if approved {
		p.Status = attendance.PermissionApproved
		p.DeniedReason = nil
	} else {
		p.Status = attendance.PermissionDenied
		p.DeniedReason = deniedReason
		if err := s.markAbsent(ctx, traineeID, date); err != nil {
			return attendance.LatePermissionRequest{}, err
		}
	}

	if err := s.permissions.Update(ctx, *p); err != nil {
		return attendance.LatePermissionRequest{}, fmt.Errorf("failed to update late permission: %w", err)
	}
	return *p, nil
}

// markAbsent records the trainee as absent unless they already clocked in.
func (s *AttendanceServiceImpl) markAbsent(ctx context.Context, traineeID string, date time.Time) error {
	record, err := s.records.LockByTraineeAndDate(ctx, traineeID, date)
	if err != nil {
		return fmt.Errorf("failed to get attendance: %w", err)
	}

	if record == nil {
		_, err := s.records.Create(ctx, attendance.AttendanceRecord{
			TraineeID: traineeID,
			Date:      date,
			Status:    attendance.StatusAbsent,
		})
		if err != nil {
			return fmt.Errorf("failed to mark trainee absent: %w", err)
		}
		return nil
	}

	if record.TimeIn != nil || record.IsAbsent() {
		return nil
	}
	record.Status = attendance.StatusAbsent
	if err := s.records.Update(ctx, *record); err != nil {
		return fmt.Errorf("failed to mark trainee absent: %w", err)
	}
	return nil
}

func (s *AttendanceServiceImpl) notifyDecision(ctx context.Context, p attendance.LatePermissionRequest, decidedBy *string) {
	date := p.PermissionDate.Format(dateLayout)
	req := notification.CreateNotificationRequest{
		RecipientID: p.TraineeID,
		SenderID:    decidedBy,
		Data:        map[string]interface{}{"request_id": p.ID, "date": date},
	}
	if p.Status == attendance.PermissionApproved {
		req.Type = notification.TypeLatePermissionApproved
		req.Title = "Late permission approved"
		req.Message = fmt.Sprintf("You may clock in late on %s.", date)
	} else {
		req.Type = notification.TypeLatePermissionDenied
		req.Title = "Late permission denied"
		req.Message = fmt.Sprintf("Your late permission for %s was denied and you are marked absent.", date)
		if p.DeniedReason != nil {
			req.Message += " Reason: " + *p.DeniedReason
		}
	}
	s.notify(ctx, req)
}

// ListLatePermissions implements attendance.AttendanceService. Trainees see
// their own requests; supervisors see their trainees'.
func (s *AttendanceServiceImpl) ListLatePermissions(ctx context.Context, filter attendance.LatePermissionFilter) ([]attendance.LatePermissionResponse, error) {
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

	requests, err := s.permissions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list late permissions: %w", err)
	}

	resp := make([]attendance.LatePermissionResponse, 0, len(requests))
	for _, p := range requests {
		resp = append(resp, s.toPermissionResponse(p))
	}
	return resp, nil
}
