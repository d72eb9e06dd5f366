package kiosk

import "errors"

var (
	ErrActionInFlight   = errors.New("another action is still in progress")
	ErrPhotoRequired    = errors.New("take a photo before clocking in or out")
	ErrReasonRequired   = errors.New("a reason is required")
	ErrSummaryRequired  = errors.New("a weekly summary is required")
	ErrNoFaceDetected   = errors.New("no face detected, step in front of the camera and try again")
	ErrCaptureCancelled = errors.New("photo capture cancelled")
	ErrInvalidConfig    = errors.New("invalid kiosk configuration")
)
