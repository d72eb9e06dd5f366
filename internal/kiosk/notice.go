package kiosk

import (
	"time"

	"github.com/fragranza-olio/ojt-backend/internal/domain/attendance"
)

// SuccessNoticeTTL is how long a success banner stays up.
const SuccessNoticeTTL = 4 * time.Second

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the banner shown next to the action that produced it.
// Error notices have a zero ExpiresAt and stay until cleared.
type Notice struct {
	Kind    NoticeKind
	Action  string
	Message string

	// Set when the clock-in was refused by the late cutoff; the kiosk then
	// offers the late permission request instead of a retry.
	RequiresPermission bool
	ExistingStatus     attendance.PermissionStatus

	ExpiresAt time.Time
}

// CanRequestPermission reports whether a late permission request would be
// accepted for the refused date. A pending or denied request already exists.
func (n *Notice) CanRequestPermission() bool {
	return n != nil && n.RequiresPermission && n.ExistingStatus == attendance.PermissionNone
}

func (n *Notice) expired(now time.Time) bool {
	return n != nil && !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}
