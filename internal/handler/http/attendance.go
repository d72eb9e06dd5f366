package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// maxUploadMemory bounds the multipart form; larger photos are rejected by
// request validation.
const maxUploadMemory = 12 << 20

type AttendanceHandler interface {
	Status(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	ApproveOvertime(w http.ResponseWriter, r *http.Request)
	RequestLatePermission(w http.ResponseWriter, r *http.Request)
	GrantLatePermission(w http.ResponseWriter, r *http.Request)
	ListLatePermissions(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Today implements AttendanceHandler. The data field is null before the
// first clock-in of the day.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetToday(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// History implements AttendanceHandler.
func (h *attendanceHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := attendance.HistoryFilter{
		TraineeID: q.Get("trainee_id"),
		From:      q.Get("from"),
		To:        q.Get("to"),
	}

	result, err := h.attendanceService.GetHistory(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendance.ListAttendanceFilter{Date: r.URL.Query().Get("date")}

	result, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// clockEvidence holds the multipart parts shared by clock-in and clock-out.
type clockEvidence struct {
	data   []byte
	file   multipart.File
	header *multipart.FileHeader
}

// parseEvidence reads the "data" JSON part and the optional "photo" part.
// A missing photo is left to request validation.
func parseEvidence(w http.ResponseWriter, r *http.Request) (*clockEvidence, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return nil, false
	}

	ev := &clockEvidence{data: []byte(r.FormValue("data"))}
	if len(ev.data) == 0 {
		ev.data = []byte("{}")
	}

	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		ev.file, ev.header = file, header
	case err == http.ErrMissingFile:
	default:
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return nil, false
	}
	return ev, true
}

func (ev *clockEvidence) reader() io.Reader {
	if ev.file == nil {
		return nil
	}
	return ev.file
}

func (ev *clockEvidence) Close() {
	if ev.file != nil {
		ev.file.Close()
	}
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	ev, ok := parseEvidence(w, r)
	if !ok {
		return
	}
	defer ev.Close()

	var req attendance.ClockInRequest
	if err := json.Unmarshal(ev.data, &req); err != nil {
		slog.Error("Failed to unmarshal JSON data", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.File = ev.reader()
	req.FileHeader = ev.header

	result, err := h.attendanceService.ClockIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", result)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	ev, ok := parseEvidence(w, r)
	if !ok {
		return
	}
	defer ev.Close()

	var req attendance.ClockOutRequest
	if err := json.Unmarshal(ev.data, &req); err != nil {
		slog.Error("Failed to unmarshal JSON data", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.File = ev.reader()
	req.FileHeader = ev.header

	result, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", result)
}

// StartBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.StartBreak(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Break started", result)
}

// EndBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.EndBreak(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Break ended", result)
}

// ApproveOvertime implements AttendanceHandler.
func (h *attendanceHandlerImpl) ApproveOvertime(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.ApproveOvertime(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Overtime approved", result)
}

// RequestLatePermission implements AttendanceHandler.
func (h *attendanceHandlerImpl) RequestLatePermission(w http.ResponseWriter, r *http.Request) {
	var req attendance.RequestLatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.RequestLatePermission(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Late permission requested", result)
}

// GrantLatePermission implements AttendanceHandler.
func (h *attendanceHandlerImpl) GrantLatePermission(w http.ResponseWriter, r *http.Request) {
	var req attendance.GrantLatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.GrantLatePermission(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Late permission approved"
	if result.Status == attendance.PermissionDenied {
		message = "Late permission denied"
	}
	response.SuccessWithMessage(w, message, result)
}

// ListLatePermissions implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListLatePermissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := attendance.LatePermissionFilter{
		TraineeID: q.Get("trainee_id"),
		Status:    q.Get("status"),
		Date:      q.Get("date"),
	}

	result, err := h.attendanceService.ListLatePermissions(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
