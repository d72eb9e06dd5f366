package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/notification"
	"github.com/fragranza-olio/ojt-backend/internal/handler/http/response"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// streamPingInterval keeps proxies from closing an idle event stream.
const streamPingInterval = 30 * time.Second

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notificationService notification.Service
	jwtService          jwt.Service
}

func NewNotificationHandler(notificationService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notificationService: notificationService,
		jwtService:          jwtService,
	}
}

// List implements NotificationHandler. Out-of-range paging falls back to the
// service defaults.
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	unreadOnly, _ := strconv.ParseBool(q.Get("unread_only"))

	result, err := h.notificationService.GetNotifications(r.Context(), claims.UserID, page, pageSize, unreadOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// UnreadCount implements NotificationHandler.
func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	count, err := h.notificationService.GetUnreadCount(r.Context(), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, notification.UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead implements NotificationHandler.
func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req notification.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := validator.Struct(&req); err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.notificationService.MarkAsRead(r.Context(), claims.UserID, req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notifications marked as read", nil)
}

// MarkAllAsRead implements NotificationHandler.
func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.notificationService.MarkAllAsRead(r.Context(), claims.UserID); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "All notifications marked as read", nil)
}

// Delete implements NotificationHandler.
func (h *notificationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.notificationService.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notification deleted", nil)
}

// GetSSEToken implements NotificationHandler. The token only opens the event
// stream; it is refused by every other route.
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(claims.UserID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}
	response.Success(w, notification.SSETokenResponse{Token: token, ExpiresIn: expiresIn})
}

// Stream implements NotificationHandler. It authenticates with the token query
// parameter and writes one SSE frame per notification until the client leaves.
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	userID, err := h.jwtService.ValidateSSEToken(r.URL.Query().Get("token"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, unsubscribe := h.notificationService.Subscribe(r.Context(), userID)
	defer unsubscribe()

	writeEvent(w, "", "connected", map[string]string{"status": "connected", "user_id": userID})
	flusher.Flush()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event.Data.ID, event.Event, event.Data)
		case now := <-ping.C:
			writeEvent(w, "", "ping", map[string]int64{"timestamp": now.Unix()})
		case <-r.Context().Done():
			return
		}
		flusher.Flush()
	}
}

// writeEvent writes one SSE frame. Payloads that fail to encode are dropped.
func writeEvent(w io.Writer, id, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
