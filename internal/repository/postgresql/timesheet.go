package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type timesheetRepository struct {
	db *database.DB
}

func NewTimesheetRepository(db *database.DB) timesheet.TimesheetRepository {
	return &timesheetRepository{db: db}
}

const timesheetColumns = `
	t.id, t.trainee_id, t.week_start, t.week_end, t.total_hours, t.status,
	t.summary, t.rejection_reason, t.submitted_at, t.reviewed_by, t.reviewed_at,
	t.created_at, t.updated_at, u.full_name`

func scanTimesheet(row pgx.Row) (timesheet.Timesheet, error) {
	var ts timesheet.Timesheet
	err := row.Scan(
		&ts.ID, &ts.TraineeID, &ts.WeekStart, &ts.WeekEnd, &ts.TotalHours, &ts.Status,
		&ts.Summary, &ts.RejectionReason, &ts.SubmittedAt, &ts.ReviewedBy, &ts.ReviewedAt,
		&ts.CreatedAt, &ts.UpdatedAt, &ts.TraineeName,
	)
	return ts, err
}

// Create implements timesheet.TimesheetRepository.
func (r *timesheetRepository) Create(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO timesheets (
			trainee_id, week_start, week_end, total_hours, status,
			summary, rejection_reason, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		ts.TraineeID, ts.WeekStart, ts.WeekEnd, ts.TotalHours, ts.Status,
		ts.Summary, ts.RejectionReason, ts.SubmittedAt,
	).Scan(&ts.ID, &ts.CreatedAt, &ts.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetExists
		}
		return timesheet.Timesheet{}, fmt.Errorf("failed to create timesheet: %w", err)
	}

	if err := r.ReplaceEntries(ctx, ts.ID, ts.Entries); err != nil {
		return timesheet.Timesheet{}, err
	}
	for i := range ts.Entries {
		ts.Entries[i].TimesheetID = ts.ID
	}
	return ts, nil
}

// GetByID implements timesheet.TimesheetRepository.
func (r *timesheetRepository) GetByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	return r.getWithEntries(ctx, `WHERE t.id = $1`, id)
}

// LockByID implements timesheet.TimesheetRepository.
func (r *timesheetRepository) LockByID(ctx context.Context, id string) (timesheet.Timesheet, error) {
	return r.getWithEntries(ctx, `WHERE t.id = $1 FOR UPDATE OF t`, id)
}

// GetByTraineeAndWeek implements timesheet.TimesheetRepository.
func (r *timesheetRepository) GetByTraineeAndWeek(ctx context.Context, traineeID string, weekStart time.Time) (*timesheet.Timesheet, error) {
	return r.findByWeek(ctx, traineeID, weekStart, "")
}

// LockByTraineeAndWeek implements timesheet.TimesheetRepository.
func (r *timesheetRepository) LockByTraineeAndWeek(ctx context.Context, traineeID string, weekStart time.Time) (*timesheet.Timesheet, error) {
	return r.findByWeek(ctx, traineeID, weekStart, " FOR UPDATE OF t")
}

func (r *timesheetRepository) findByWeek(ctx context.Context, traineeID string, weekStart time.Time, suffix string) (*timesheet.Timesheet, error) {
	ts, err := r.getWithEntries(ctx, `WHERE t.trainee_id = $1 AND t.week_start = $2`+suffix, traineeID, weekStart)
	if err != nil {
		if errors.Is(err, timesheet.ErrTimesheetNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ts, nil
}

func (r *timesheetRepository) getWithEntries(ctx context.Context, where string, args ...interface{}) (timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timesheetColumns + `
		FROM timesheets t
		JOIN users u ON u.id = t.trainee_id
		` + where

	ts, err := scanTimesheet(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.Timesheet{}, timesheet.ErrTimesheetNotFound
		}
		return timesheet.Timesheet{}, fmt.Errorf("failed to get timesheet: %w", err)
	}

	ts.Entries, err = r.listEntries(ctx, ts.ID)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	return ts, nil
}

func (r *timesheetRepository) listEntries(ctx context.Context, timesheetID string) ([]timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, timesheet_id, date, attendance_id, status, work_hours, penalty_hours,
			   overtime_hours, overtime_approved, net_hours, task_description
		FROM timesheet_entries
		WHERE timesheet_id = $1
		ORDER BY date ASC
	`

	rows, err := q.Query(ctx, query, timesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.Entry
	for rows.Next() {
		var e timesheet.Entry
		if err := rows.Scan(
			&e.ID, &e.TimesheetID, &e.Date, &e.AttendanceID, &e.Status, &e.WorkHours, &e.PenaltyHours,
			&e.OvertimeHours, &e.OvertimeApproved, &e.NetHours, &e.TaskDescription,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Update implements timesheet.TimesheetRepository.
func (r *timesheetRepository) Update(ctx context.Context, ts timesheet.Timesheet) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timesheets SET
			total_hours = $2, status = $3, summary = $4, rejection_reason = $5,
			submitted_at = $6, reviewed_by = $7, reviewed_at = $8,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		ts.ID, ts.TotalHours, ts.Status, ts.Summary, ts.RejectionReason,
		ts.SubmittedAt, ts.ReviewedBy, ts.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update timesheet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timesheet.ErrTimesheetNotFound
	}
	return nil
}

// ReplaceEntries implements timesheet.TimesheetRepository.
func (r *timesheetRepository) ReplaceEntries(ctx context.Context, timesheetID string, entries []timesheet.Entry) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM timesheet_entries WHERE timesheet_id = $1`, timesheetID); err != nil {
		return fmt.Errorf("failed to clear timesheet entries: %w", err)
	}

	query := `
		INSERT INTO timesheet_entries (
			timesheet_id, date, attendance_id, status, work_hours, penalty_hours,
			overtime_hours, overtime_approved, net_hours, task_description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, e := range entries {
		if _, err := q.Exec(ctx, query,
			timesheetID, e.Date, e.AttendanceID, e.Status, e.WorkHours, e.PenaltyHours,
			e.OvertimeHours, e.OvertimeApproved, e.NetHours, e.TaskDescription,
		); err != nil {
			return fmt.Errorf("failed to insert timesheet entry: %w", err)
		}
	}
	return nil
}

// List implements timesheet.TimesheetRepository.
func (r *timesheetRepository) List(ctx context.Context, filter timesheet.TimesheetFilter) ([]timesheet.Timesheet, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.TraineeID != "" {
		conditions = append(conditions, fmt.Sprintf("t.trainee_id::text = $%d", argIdx))
		args = append(args, filter.TraineeID)
		argIdx++
	}
	if filter.SupervisorID != "" {
		conditions = append(conditions, fmt.Sprintf("u.supervisor_id::text = $%d", argIdx))
		args = append(args, filter.SupervisorID)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.WeekStart != "" {
		conditions = append(conditions, fmt.Sprintf("t.week_start = $%d::date", argIdx))
		args = append(args, filter.WeekStart)
	}

	query := `SELECT ` + timesheetColumns + `
		FROM timesheets t
		JOIN users u ON u.id = t.trainee_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.week_start DESC, u.full_name ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	defer rows.Close()

	var sheets []timesheet.Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		sheets = append(sheets, ts)
	}
	return sheets, rows.Err()
}
