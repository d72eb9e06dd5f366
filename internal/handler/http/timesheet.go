package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
	"github.com/fragranza-olio/ojt-backend/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TimesheetHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Week(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SaveDraft(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type timesheetHandlerImpl struct {
	timesheetService timesheet.TimesheetService
}

func NewTimesheetHandler(timesheetService timesheet.TimesheetService) TimesheetHandler {
	return &timesheetHandlerImpl{timesheetService: timesheetService}
}

// List implements TimesheetHandler.
func (h *timesheetHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := timesheet.TimesheetFilter{
		TraineeID: q.Get("trainee_id"),
		Status:    q.Get("status"),
		WeekStart: q.Get("week_start"),
	}

	result, err := h.timesheetService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Week implements TimesheetHandler.
func (h *timesheetHandlerImpl) Week(w http.ResponseWriter, r *http.Request) {
	result, err := h.timesheetService.GetWeek(r.Context(), r.URL.Query().Get("week_start"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// Get implements TimesheetHandler.
func (h *timesheetHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.timesheetService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// SaveDraft implements TimesheetHandler.
func (h *timesheetHandlerImpl) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req timesheet.SaveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.timesheetService.SaveDraft(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet draft saved", result)
}

// Submit implements TimesheetHandler.
func (h *timesheetHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req timesheet.SubmitTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.timesheetService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet submitted", result)
}

// Approve implements TimesheetHandler.
func (h *timesheetHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.timesheetService.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet approved", result)
}

// Reject implements TimesheetHandler.
func (h *timesheetHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req timesheet.RejectTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.timesheetService.Reject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Timesheet rejected", result)
}

// Export implements TimesheetHandler. The rendered file is streamed as an
// attachment rather than wrapped in the JSON envelope.
func (h *timesheetHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	format := timesheet.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = timesheet.ExportCSV
	}

	file, err := h.timesheetService.Export(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		slog.Error("Failed to write export", "filename", file.Filename, "error", err)
	}
}
