package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.trainee_id, a.date, a.time_in, a.time_out, a.break_start, a.break_end,
	a.work_hours, a.overtime_hours, a.overtime_approved, a.overtime_approved_by, a.overtime_approved_at,
	a.late_minutes, a.penalty_hours, a.photo_in, a.photo_out,
	a.latitude_in, a.longitude_in, a.location_in,
	a.latitude_out, a.longitude_out, a.location_out,
	a.face_verified, a.status, a.created_at, a.updated_at, u.full_name`

func scanAttendance(row pgx.Row) (attendance.AttendanceRecord, error) {
	var r attendance.AttendanceRecord
	err := row.Scan(
		&r.ID, &r.TraineeID, &r.Date, &r.TimeIn, &r.TimeOut, &r.BreakStart, &r.BreakEnd,
		&r.WorkHours, &r.OvertimeHours, &r.OvertimeApproved, &r.OvertimeApprovedBy, &r.OvertimeApprovedAt,
		&r.LateMinutes, &r.PenaltyHours, &r.PhotoIn, &r.PhotoOut,
		&r.LatitudeIn, &r.LongitudeIn, &r.LocationIn,
		&r.LatitudeOut, &r.LongitudeOut, &r.LocationOut,
		&r.FaceVerified, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.TraineeName,
	)
	return r, err
}

func collectAttendance(rows pgx.Rows) ([]attendance.AttendanceRecord, error) {
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			trainee_id, date, time_in, time_out, break_start, break_end,
			work_hours, overtime_hours, late_minutes, penalty_hours,
			photo_in, latitude_in, longitude_in, location_in,
			face_verified, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.TraineeID,
		record.Date,
		record.TimeIn,
		record.TimeOut,
		record.BreakStart,
		record.BreakEnd,
		record.WorkHours,
		record.OvertimeHours,
		record.LateMinutes,
		record.PenaltyHours,
		record.PhotoIn,
		record.LatitudeIn,
		record.LongitudeIn,
		record.LocationIn,
		record.FaceVerified,
		record.Status,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	return a.getOne(ctx, `WHERE a.id = $1`, id)
}

// LockByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	return a.getOne(ctx, `WHERE a.id = $1 FOR UPDATE OF a`, id)
}

func (a *attendanceRepository) getOne(ctx context.Context, where string, args ...interface{}) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records a
		JOIN users u ON u.id = a.trainee_id
		` + where

	r, err := scanAttendance(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return r, nil
}

// GetByTraineeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	return a.findByTraineeAndDate(ctx, traineeID, date, false)
}

// LockByTraineeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	return a.findByTraineeAndDate(ctx, traineeID, date, true)
}

func (a *attendanceRepository) findByTraineeAndDate(ctx context.Context, traineeID string, date time.Time, lock bool) (*attendance.AttendanceRecord, error) {
	where := `WHERE a.trainee_id = $1 AND a.date = $2`
	if lock {
		where += ` FOR UPDATE OF a`
	}

	r, err := a.getOne(ctx, where, traineeID, date)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.AttendanceRecord) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records SET
			time_in = $2, time_out = $3, break_start = $4, break_end = $5,
			work_hours = $6, overtime_hours = $7, overtime_approved = $8,
			overtime_approved_by = $9, overtime_approved_at = $10,
			late_minutes = $11, penalty_hours = $12,
			photo_in = $13, photo_out = $14,
			latitude_in = $15, longitude_in = $16, location_in = $17,
			latitude_out = $18, longitude_out = $19, location_out = $20,
			face_verified = $21, status = $22,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		record.ID,
		record.TimeIn, record.TimeOut, record.BreakStart, record.BreakEnd,
		record.WorkHours, record.OvertimeHours, record.OvertimeApproved,
		record.OvertimeApprovedBy, record.OvertimeApprovedAt,
		record.LateMinutes, record.PenaltyHours,
		record.PhotoIn, record.PhotoOut,
		record.LatitudeIn, record.LongitudeIn, record.LocationIn,
		record.LatitudeOut, record.LongitudeOut, record.LocationOut,
		record.FaceVerified, record.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListByTrainee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByTrainee(ctx context.Context, traineeID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records a
		JOIN users u ON u.id = a.trainee_id
		WHERE a.trainee_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, traineeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return collectAttendance(rows)
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date time.Time, supervisorID string) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records a
		JOIN users u ON u.id = a.trainee_id
		WHERE a.date = $1
		  AND ($2 = '' OR u.supervisor_id::text = $2)
		ORDER BY u.full_name ASC
	`

	rows, err := q.Query(ctx, query, date, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date: %w", err)
	}
	return collectAttendance(rows)
}

// ListOpenBefore implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpenBefore(ctx context.Context, date time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_records a
		JOIN users u ON u.id = a.trainee_id
		WHERE a.date < $1
		  AND a.time_in IS NOT NULL
		  AND a.time_out IS NULL
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	return collectAttendance(rows)
}
