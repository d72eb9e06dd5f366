package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
	"github.com/fragranza-olio/ojt-backend/internal/domain/auth"
	"github.com/fragranza-olio/ojt-backend/internal/domain/timesheet"
)

const codeRequiresPermission = "REQUIRES_PERMISSION"

// APIError is a non-2xx answer from the attendance API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string

	// Set when a clock-in was refused by the late cutoff gate.
	RequiresPermission bool
	ExistingStatus     attendance.PermissionStatus
	Date               string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsRequiresPermission reports whether err is a late cutoff refusal.
func IsRequiresPermission(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RequiresPermission {
		return apiErr, true
	}
	return nil, false
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type permissionData struct {
	RequiresPermission bool   `json:"requires_permission"`
	ExistingStatus     string `json:"existing_status"`
	Date               string `json:"date"`
}

// Evidence accompanies a clock-in or clock-out.
type Evidence struct {
	Photo        []byte
	FaceVerified bool
	Latitude     *float64
	Longitude    *float64
	Location     *string
	LateMinutes  *int
	PenaltyHours *float64
}

type clockData struct {
	LateMinutes  *int     `json:"late_minutes,omitempty"`
	PenaltyHours *float64 `json:"penalty_hours,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Location     *string  `json:"location,omitempty"`
	FaceVerified bool     `json:"face_verified"`
}

// Client talks to the attendance API on behalf of one signed-in trainee.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Login(ctx context.Context, email, password string) (*auth.TokenResponse, error) {
	var out auth.TokenResponse
	req := auth.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Status(ctx context.Context) (*attendance.StatusResponse, error) {
	var out attendance.StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/attendance/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context, from, to string) (*attendance.HistoryResponse, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var out attendance.HistoryResponse
	if err := c.doJSON(ctx, http.MethodGet, "/attendance/history?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClockIn(ctx context.Context, ev Evidence) (*attendance.AttendanceResponse, error) {
	return c.clock(ctx, "/attendance/clock-in", ev)
}

func (c *Client) ClockOut(ctx context.Context, ev Evidence) (*attendance.AttendanceResponse, error) {
	// Lateness only applies to clock-in.
	ev.LateMinutes, ev.PenaltyHours = nil, nil
	return c.clock(ctx, "/attendance/clock-out", ev)
}

func (c *Client) StartBreak(ctx context.Context) (*attendance.AttendanceResponse, error) {
	var out attendance.AttendanceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/attendance/break-start", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EndBreak(ctx context.Context) (*attendance.AttendanceResponse, error) {
	var out attendance.AttendanceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/attendance/break-end", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestLatePermission(ctx context.Context, date, reason string) (*attendance.LatePermissionResponse, error) {
	var out attendance.LatePermissionResponse
	req := attendance.RequestLatePermissionRequest{Date: date, Reason: reason}
	if err := c.doJSON(ctx, http.MethodPost, "/attendance/late-permissions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Week(ctx context.Context, weekStart string) (*timesheet.TimesheetResponse, error) {
	var out timesheet.TimesheetResponse
	path := "/timesheets/week?" + url.Values{"week_start": {weekStart}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitTimesheet(ctx context.Context, weekStart, summary string) (*timesheet.TimesheetResponse, error) {
	var out timesheet.TimesheetResponse
	req := timesheet.SubmitTimesheetRequest{WeekStart: weekStart, Summary: summary}
	if err := c.doJSON(ctx, http.MethodPost, "/timesheets/submit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproveTimesheet(ctx context.Context, id string) (*timesheet.TimesheetResponse, error) {
	var out timesheet.TimesheetResponse
	if err := c.doJSON(ctx, http.MethodPut, "/timesheets/"+url.PathEscape(id)+"/approve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectTimesheet(ctx context.Context, id, reason string) (*timesheet.TimesheetResponse, error) {
	var out timesheet.TimesheetResponse
	req := timesheet.RejectTimesheetRequest{Reason: reason}
	if err := c.doJSON(ctx, http.MethodPut, "/timesheets/"+url.PathEscape(id)+"/reject", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) clock(ctx context.Context, path string, ev Evidence) (*attendance.AttendanceResponse, error) {
	data, err := json.Marshal(clockData{
		LateMinutes:  ev.LateMinutes,
		PenaltyHours: ev.PenaltyHours,
		Latitude:     ev.Latitude,
		Longitude:    ev.Longitude,
		Location:     ev.Location,
		FaceVerified: ev.FaceVerified,
	})
	if err != nil {
		return nil, fmt.Errorf("encode clock data: %w", err)
	}

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("data", string(data)); err != nil {
		return nil, err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="capture.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(ev.Photo); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out attendance.AttendanceResponse
	if err := c.do(ctx, http.MethodPost, path, body, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	if in == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(raw), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, env, decodeErr)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func apiError(status int, env envelope, decodeErr error) *APIError {
	e := &APIError{StatusCode: status, Message: http.StatusText(status)}
	if decodeErr != nil {
		return e
	}
	if env.Error != nil {
		e.Code = env.Error.Code
		e.Details = env.Error.Details
		if env.Error.Message != "" {
			e.Message = env.Error.Message
		}
	} else if env.Message != "" {
		e.Message = env.Message
	}

	if e.Code == codeRequiresPermission && len(env.Data) > 0 {
		var p permissionData
		if err := json.Unmarshal(env.Data, &p); err == nil {
			e.RequiresPermission = p.RequiresPermission
			e.ExistingStatus = attendance.PermissionStatus(p.ExistingStatus)
			e.Date = p.Date
		}
	}
	return e
}
