package attendance

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/pkg/validator"
)

const maxPhotoSize = 10 << 20

var allowedPhotoExts = []string{".jpg", ".jpeg", ".png", ".webp"}

// ========================================
// CLOCK ACTION DTOs
// ========================================

type ClockInRequest struct {
	// Values computed by the kiosk; the server recomputes both.
	LateMinutes  *int     `json:"late_minutes,omitempty" validate:"omitempty,gte=0"`
	PenaltyHours *float64 `json:"penalty_hours,omitempty" validate:"omitempty,gte=0"`

	Latitude     *float64              `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64              `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Location     *string               `json:"location,omitempty" validate:"omitempty,max=500"`
	FaceVerified bool                  `json:"face_verified"`
	File         io.Reader             `json:"-"`
	FileHeader   *multipart.FileHeader `json:"-"`
}

func (r *ClockInRequest) Validate() error {
	return validator.Merge(validator.Struct(r), validateEvidence(r.Latitude, r.Longitude, r.FileHeader))
}

type ClockOutRequest struct {
	Latitude     *float64              `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64              `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Location     *string               `json:"location,omitempty" validate:"omitempty,max=500"`
	FaceVerified bool                  `json:"face_verified"`
	File         io.Reader             `json:"-"`
	FileHeader   *multipart.FileHeader `json:"-"`
}

func (r *ClockOutRequest) Validate() error {
	return validator.Merge(validator.Struct(r), validateEvidence(r.Latitude, r.Longitude, r.FileHeader))
}

// validateEvidence checks the mandatory photo and the optional coordinate pair.
func validateEvidence(lat, lon *float64, header *multipart.FileHeader) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if (lat == nil) != (lon == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude and longitude must be provided together",
		})
	}

	if header == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "attendance photo is required",
		})
		return errs
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !validator.IsInSlice(ext, allowedPhotoExts) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "invalid file type: only jpg, jpeg, png, webp allowed",
		})
	} else if header.Size > maxPhotoSize {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "attendance photo size must not exceed 10MB",
		})
	}

	return errs
}

type AttendanceResponse struct {
	ID                 string   `json:"id"`
	TraineeID          string   `json:"trainee_id"`
	TraineeName        string   `json:"trainee_name,omitempty"`
	Date               string   `json:"date"`
	State              State    `json:"state"`
	Status             Status   `json:"status"`
	TimeIn             *string  `json:"time_in"`
	TimeOut            *string  `json:"time_out"`
	BreakStart         *string  `json:"break_start"`
	BreakEnd           *string  `json:"break_end"`
	WorkHours          float64  `json:"work_hours"`
	OvertimeHours      float64  `json:"overtime_hours"`
	OvertimeApproved   bool     `json:"overtime_approved"`
	OvertimeApprovedBy *string  `json:"overtime_approved_by,omitempty"`
	LateMinutes        int      `json:"late_minutes"`
	PenaltyHours       float64  `json:"penalty_hours"`
	NetHours           float64  `json:"net_hours"`
	PhotoIn            *string  `json:"photo_in"`
	PhotoOut           *string  `json:"photo_out"`
	LatitudeIn         *float64 `json:"latitude_in"`
	LongitudeIn        *float64 `json:"longitude_in"`
	LocationIn         *string  `json:"location_in"`
	LatitudeOut        *float64 `json:"latitude_out"`
	LongitudeOut       *float64 `json:"longitude_out"`
	LocationOut        *string  `json:"location_out"`
	FaceVerified       bool     `json:"face_verified"`
}

type ScheduleResponse struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	LunchStart  string  `json:"lunch_start"`
	LunchEnd    string  `json:"lunch_end"`
	TargetHours float64 `json:"target_hours"`
	LateCutoff  string  `json:"late_cutoff"`
	Timezone    string  `json:"timezone"`
}

// Schedule rebuilds the schedule advertised by the server.
func (r ScheduleResponse) Schedule() (Schedule, error) {
	var (
		s   Schedule
		err error
	)
	fields := []struct {
		dst *ClockTime
		raw string
	}{
		{&s.Start, r.Start},
		{&s.End, r.End},
		{&s.LunchStart, r.LunchStart},
		{&s.LunchEnd, r.LunchEnd},
		{&s.LateCutoff, r.LateCutoff},
	}
	for _, f := range fields {
		if *f.dst, err = ParseClockTime(f.raw); err != nil {
			return Schedule{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
	}
	if s.Location, err = time.LoadLocation(r.Timezone); err != nil {
		return Schedule{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	s.TargetHours = r.TargetHours
	return s, s.Validate()
}

// StatusResponse is the canonical view the kiosk re-fetches after every action.
type StatusResponse struct {
	Date               string                  `json:"date"`
	ServerTime         string                  `json:"server_time"`
	State              State                   `json:"state"`
	Record             *AttendanceResponse     `json:"record"`
	LatePermission     *LatePermissionResponse `json:"late_permission"`
	PastCutoff         bool                    `json:"past_cutoff"`
	RequiresPermission bool                    `json:"requires_permission"`
	CanClockIn         bool                    `json:"can_clock_in"`
	Schedule           ScheduleResponse        `json:"schedule"`
}

type HistoryFilter struct {
	TraineeID string `json:"trainee_id" validate:"omitempty,max=64"`
	From      string `json:"from" validate:"omitempty,date"`
	To        string `json:"to" validate:"omitempty,date"`
}

func (f *HistoryFilter) Validate() error {
	return validator.Struct(f)
}

type HistoryResponse struct {
	TraineeID string               `json:"trainee_id"`
	From      string               `json:"from"`
	To        string               `json:"to"`
	Records   []AttendanceResponse `json:"records"`
	Summary   HoursSummary         `json:"summary"`
}

type ListAttendanceFilter struct {
	Date string `json:"date" validate:"omitempty,date"`
}

func (f *ListAttendanceFilter) Validate() error {
	return validator.Struct(f)
}

// ========================================
// LATE PERMISSION DTOs
// ========================================

type RequestLatePermissionRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
	Date   string `json:"date" validate:"required,date"`
}

func (r *RequestLatePermissionRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Reason != "" && validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	return validator.Merge(validator.Struct(r), errs)
}

type GrantLatePermissionRequest struct {
	TraineeID    string  `json:"trainee_id" validate:"required"`
	Date         string  `json:"date" validate:"required,date"`
	Approved     *bool   `json:"approved" validate:"required"`
	DeniedReason *string `json:"denied_reason,omitempty" validate:"omitempty,max=1000"`
}

func (r *GrantLatePermissionRequest) Validate() error {
	return validator.Struct(r)
}

type LatePermissionFilter struct {
	TraineeID    string `json:"trainee_id"`
	SupervisorID string `json:"-"`
	Status       string `json:"status" validate:"omitempty,oneof=pending approved denied"`
	Date         string `json:"date" validate:"omitempty,date"`
}

func (f *LatePermissionFilter) Validate() error {
	return validator.Struct(f)
}

type LatePermissionResponse struct {
	ID             string           `json:"id"`
	TraineeID      string           `json:"trainee_id"`
	TraineeName    string           `json:"trainee_name,omitempty"`
	PermissionDate string           `json:"permission_date"`
	Reason         string           `json:"reason"`
	Status         PermissionStatus `json:"status"`
	DeniedReason   *string          `json:"denied_reason"`
	GrantedBy      *string          `json:"granted_by"`
	DecidedAt      *string          `json:"decided_at"`
	UsedAt         *string          `json:"used_at"`
	CreatedAt      string           `json:"created_at"`
}
