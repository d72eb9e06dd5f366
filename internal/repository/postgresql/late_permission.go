package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type latePermissionRepository struct {
	db *database.DB
}

func NewLatePermissionRepository(db *database.DB) attendance.LatePermissionRepository {
	return &latePermissionRepository{db: db}
}

const latePermissionColumns = `
	p.id, p.trainee_id, p.permission_date, p.reason, p.status, p.denied_reason,
	p.granted_by, p.decided_at, p.used_at, p.created_at, p.updated_at, u.full_name`

func scanLatePermission(row pgx.Row) (attendance.LatePermissionRequest, error) {
	var p attendance.LatePermissionRequest
	err := row.Scan(
		&p.ID, &p.TraineeID, &p.PermissionDate, &p.Reason, &p.Status, &p.DeniedReason,
		&p.GrantedBy, &p.DecidedAt, &p.UsedAt, &p.CreatedAt, &p.UpdatedAt, &p.TraineeName,
	)
	return p, err
}

// Create implements attendance.LatePermissionRepository.
func (r *latePermissionRepository) Create(ctx context.Context, req attendance.LatePermissionRequest) (attendance.LatePermissionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO late_permission_requests (trainee_id, permission_date, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query, req.TraineeID, req.PermissionDate, req.Reason, req.Status).
		Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.LatePermissionRequest{}, attendance.ErrPermissionAlreadyRequested
		}
		return attendance.LatePermissionRequest{}, fmt.Errorf("failed to create late permission request: %w", err)
	}
	return req, nil
}

// GetByTraineeAndDate implements attendance.LatePermissionRepository.
func (r *latePermissionRepository) GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.LatePermissionRequest, error) {
	return r.find(ctx, traineeID, date, "")
}

// LockByTraineeAndDate implements attendance.LatePermissionRepository.
func (r *latePermissionRepository) LockByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.LatePermissionRequest, error) {
	return r.find(ctx, traineeID, date, " FOR UPDATE OF p")
}

func (r *latePermissionRepository) find(ctx context.Context, traineeID string, date time.Time, suffix string) (*attendance.LatePermissionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + latePermissionColumns + `
		FROM late_permission_requests p
		JOIN users u ON u.id = p.trainee_id
		WHERE p.trainee_id = $1 AND p.permission_date = $2` + suffix

	p, err := scanLatePermission(q.QueryRow(ctx, query, traineeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get late permission request: %w", err)
	}
	return &p, nil
}

// Update implements attendance.LatePermissionRepository.
func (r *latePermissionRepository) Update(ctx context.Context, req attendance.LatePermissionRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE late_permission_requests SET
			reason = $2, status = $3, denied_reason = $4,
			granted_by = $5, decided_at = $6, used_at = $7,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		req.ID, req.Reason, req.Status, req.DeniedReason,
		req.GrantedBy, req.DecidedAt, req.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update late permission request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrPermissionRequestNotFound
	}
	return nil
}

// List implements attendance.LatePermissionRepository.
func (r *latePermissionRepository) List(ctx context.Context, filter attendance.LatePermissionFilter) ([]attendance.LatePermissionRequest, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.TraineeID != "" {
		add("p.trainee_id::text = $%d", filter.TraineeID)
	}
	if filter.SupervisorID != "" {
		add("u.supervisor_id::text = $%d", filter.SupervisorID)
	}
	if filter.Status != "" {
		add("p.status = $%d", filter.Status)
	}
	if filter.Date != "" {
		add("p.permission_date = $%d::date", filter.Date)
	}

	query := `SELECT ` + latePermissionColumns + `
		FROM late_permission_requests p
		JOIN users u ON u.id = p.trainee_id`
	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\t\tORDER BY p.permission_date DESC, p.created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list late permission requests: %w", err)
	}
	defer rows.Close()

	var requests []attendance.LatePermissionRequest
	for rows.Next() {
		p, err := scanLatePermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan late permission request: %w", err)
		}
		requests = append(requests, p)
	}
	return requests, rows.Err()
}

// ListPendingBefore implements attendance.LatePermissionRepository.
func (r *latePermissionRepository) ListPendingBefore(ctx context.Context, date time.Time) ([]attendance.LatePermissionRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + latePermissionColumns + `
		FROM late_permission_requests p
		JOIN users u ON u.id = p.trainee_id
		WHERE p.status = $1 AND p.permission_date < $2
		ORDER BY p.permission_date ASC
	`

	rows, err := q.Query(ctx, query, attendance.PermissionPending, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending late permission requests: %w", err)
	}
	defer rows.Close()

	var requests []attendance.LatePermissionRequest
	for rows.Next() {
		p, err := scanLatePermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan late permission request: %w", err)
		}
		requests = append(requests, p)
	}
	return requests, rows.Err()
}
