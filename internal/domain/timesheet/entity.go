package timesheet

import (
	"strings"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Timesheet aggregates one trainee's attendance for a Monday-to-Sunday week.
type Timesheet struct {
	ID              string
	TraineeID       string
	WeekStart       time.Time
	WeekEnd         time.Time
	TotalHours      float64
	Status          Status
	Summary         *string
	RejectionReason *string
	SubmittedAt     *time.Time
	ReviewedBy      *string
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Entries []Entry

	// Join
	TraineeName *string
}

// Entry is the daily breakdown row copied from an attendance record.
type Entry struct {
	ID               string
	TimesheetID      string
	Date             time.Time
	AttendanceID     *string
	Status           attendance.Status
	WorkHours        float64
	PenaltyHours     float64
	OvertimeHours    float64
	OvertimeApproved bool
	NetHours         float64
	TaskDescription  *string
}

// Editable reports whether the trainee may still change entries.
func (t *Timesheet) Editable() bool {
	return t.Status == StatusDraft || t.Status == StatusRejected
}

// Submit locks the week for review. A rejected timesheet is resubmitted as a
// new submission and loses its previous review.
func (t *Timesheet) Submit(summary string, at time.Time) error {
	switch t.Status {
	case StatusSubmitted:
		return ErrTimesheetAlreadySubmitted
	case StatusApproved:
		return ErrTimesheetAlreadyApproved
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ErrSummaryRequired
	}

	t.Status = StatusSubmitted
	t.Summary = &summary
	t.SubmittedAt = &at
	t.RejectionReason = nil
	t.ReviewedBy = nil
	t.ReviewedAt = nil
	return nil
}

func (t *Timesheet) Approve(reviewerID string, at time.Time) error {
	if err := t.reviewable(); err != nil {
		return err
	}
	t.Status = StatusApproved
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &at
	return nil
}

// Reject requires a non-blank reason, which is shown to the trainee.
func (t *Timesheet) Reject(reviewerID, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	if err := t.reviewable(); err != nil {
		return err
	}
	t.Status = StatusRejected
	t.RejectionReason = &reason
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &at
	return nil
}

func (t *Timesheet) reviewable() error {
	switch t.Status {
	case StatusSubmitted:
		return nil
	case StatusApproved:
		return ErrTimesheetAlreadyApproved
	default:
		return ErrTimesheetNotSubmitted
	}
}

// Refresh rebuilds the entries from the week's attendance records, keeping
// task descriptions already written for a date, and recomputes the total.
func (t *Timesheet) Refresh(records []attendance.AttendanceRecord) {
	tasks := make(map[string]*string, len(t.Entries))
	for _, e := range t.Entries {
		tasks[dateKey(e.Date)] = e.TaskDescription
	}

	entries := make([]Entry, 0, len(records))
	week := make([]attendance.AttendanceRecord, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.Date.Before(t.WeekStart) || r.Date.After(t.WeekEnd) {
			continue
		}
		week = append(week, *r)
		id := r.ID
		entries = append(entries, Entry{
			TimesheetID:      t.ID,
			Date:             r.Date,
			AttendanceID:     &id,
			Status:           r.Status,
			WorkHours:        r.WorkHours,
			PenaltyHours:     r.PenaltyHours,
			OvertimeHours:    r.OvertimeHours,
			OvertimeApproved: r.OvertimeApproved,
			NetHours:         r.NetHours(),
			TaskDescription:  tasks[dateKey(r.Date)],
		})
	}
	t.Entries = entries
	t.TotalHours = attendance.Summarize(week).NetHours
}

// SetTask sets the task description of the entry on date.
func (t *Timesheet) SetTask(date time.Time, description string) error {
	for i := range t.Entries {
		if dateKey(t.Entries[i].Date) != dateKey(date) {
			continue
		}
		if description = strings.TrimSpace(description); description == "" {
			t.Entries[i].TaskDescription = nil
		} else {
			t.Entries[i].TaskDescription = &description
		}
		return nil
	}
	return ErrEntryNotFound
}

// NewDraft returns an unsaved draft for the week starting at weekStart.
func NewDraft(traineeID string, weekStart time.Time) (Timesheet, error) {
	if weekStart.Weekday() != time.Monday {
		return Timesheet{}, ErrInvalidWeekStart
	}
	start, end := attendance.WeekOf(weekStart)
	return Timesheet{
		TraineeID: traineeID,
		WeekStart: start,
		WeekEnd:   end,
		Status:    StatusDraft,
	}, nil
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
