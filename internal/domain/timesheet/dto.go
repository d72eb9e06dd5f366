package timesheet

import (
	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/validator"
)

type SubmitTimesheetRequest struct {
	WeekStart string `json:"week_start" validate:"required,date"`
	Summary   string `json:"summary" validate:"required,max=5000"`
}

func (r *SubmitTimesheetRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Summary != "" && validator.IsEmpty(r.Summary) {
		errs = append(errs, validator.ValidationError{
			Field:   "summary",
			Message: "summary is required",
		})
	}
	return validator.Merge(validator.Struct(r), errs)
}

type RejectTimesheetRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (r *RejectTimesheetRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Reason != "" && validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	return validator.Merge(validator.Struct(r), errs)
}

type DraftEntryRequest struct {
	Date            string `json:"date" validate:"required,date"`
	TaskDescription string `json:"task_description" validate:"max=2000"`
}

type SaveDraftRequest struct {
	WeekStart string              `json:"week_start" validate:"required,date"`
	Entries   []DraftEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

func (r *SaveDraftRequest) Validate() error {
	return validator.Struct(r)
}

type TimesheetFilter struct {
	TraineeID    string `json:"trainee_id"`
	SupervisorID string `json:"-"`
	Status       string `json:"status" validate:"omitempty,oneof=draft submitted approved rejected"`
	WeekStart    string `json:"week_start" validate:"omitempty,date"`
}

func (f *TimesheetFilter) Validate() error {
	return validator.Struct(f)
}

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

func (f ExportFormat) Valid() bool {
	switch f {
	case ExportCSV, ExportPDF, ExportXLSX:
		return true
	}
	return false
}

// ExportFile is a rendered timesheet ready to be streamed to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type EntryResponse struct {
	Date             string            `json:"date"`
	AttendanceID     *string           `json:"attendance_id"`
	Status           attendance.Status `json:"status"`
	WorkHours        float64           `json:"work_hours"`
	PenaltyHours     float64           `json:"penalty_hours"`
	OvertimeHours    float64           `json:"overtime_hours"`
	OvertimeApproved bool              `json:"overtime_approved"`
	NetHours         float64           `json:"net_hours"`
	TaskDescription  *string           `json:"task_description"`
}

type TimesheetResponse struct {
	ID              string          `json:"id,omitempty"`
	TraineeID       string          `json:"trainee_id"`
	TraineeName     string          `json:"trainee_name,omitempty"`
	WeekStart       string          `json:"week_start"`
	WeekEnd         string          `json:"week_end"`
	TotalHours      float64         `json:"total_hours"`
	Status          Status          `json:"status"`
	Summary         *string         `json:"summary"`
	RejectionReason *string         `json:"rejection_reason"`
	SubmittedAt     *string         `json:"submitted_at"`
	ReviewedBy      *string         `json:"reviewed_by"`
	ReviewedAt      *string         `json:"reviewed_at"`
	Entries         []EntryResponse `json:"entries,omitempty"`
}
