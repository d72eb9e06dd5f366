package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AttendanceMaintainer is the part of the attendance service the nightly
// jobs drive.
type AttendanceMaintainer interface {
	AutoCloseOpenAttendance(ctx context.Context) (int, error)
	ExpireLatePermissions(ctx context.Context) (int, error)
}

type AttendanceJobs struct {
	attendance AttendanceMaintainer
	location   *time.Location
	hour       int
	now        func() time.Time
}

// NewAttendanceJobs runs the maintenance jobs during the given local hour of
// the day in loc.
func NewAttendanceJobs(attendance AttendanceMaintainer, loc *time.Location, hour int) *AttendanceJobs {
	return &AttendanceJobs{
		attendance: attendance,
		location:   loc,
		hour:       hour,
		now:        time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_open_attendance", 1*time.Hour, j.AutoCloseOpenAttendance)
	scheduler.AddJob("expire_late_permissions", 1*time.Hour, j.ExpireLatePermissions)
}

func (j *AttendanceJobs) due() bool {
	return j.now().In(j.location).Hour() == j.hour
}

func (j *AttendanceJobs) AutoCloseOpenAttendance(ctx context.Context) error {
	if !j.due() {
		return nil
	}

	slog.Info("Cron: Starting auto-close open attendance job")

	closed, err := j.attendance.AutoCloseOpenAttendance(ctx)
	if err != nil {
		return fmt.Errorf("failed to auto-close attendance: %w", err)
	}

	slog.Info("Cron: Auto-close open attendance completed", "closed", closed)
	return nil
}

func (j *AttendanceJobs) ExpireLatePermissions(ctx context.Context) error {
	if !j.due() {
		return nil
	}

	slog.Info("Cron: Starting expire late permissions job")

	expired, err := j.attendance.ExpireLatePermissions(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire late permissions: %w", err)
	}

	slog.Info("Cron: Expire late permissions completed", "expired", expired)
	return nil
}
