package kiosk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fragranza-olio/ojt-backend/internal/pkg/geo"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/presence"
)

// CameraOpener acquires the camera for one capture session.
type CameraOpener func() (presence.FrameSource, error)

// Station collects clock evidence (photo and location) and hands it to the
// workflow.
type Station struct {
	workflow    *Workflow
	open        CameraOpener
	detector    *presence.Detector
	resolver    *geo.Resolver
	timeout     time.Duration
	sessionOpts []presence.SessionOption
	logger      *zap.Logger
}

type StationOption func(*Station)

// WithCaptureTimeout bounds how long the kiosk waits for a steady face.
func WithCaptureTimeout(d time.Duration) StationOption {
	return func(s *Station) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithSessionOptions(opts ...presence.SessionOption) StationOption {
	return func(s *Station) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

func WithStationLogger(l *zap.Logger) StationOption {
	return func(s *Station) { s.logger = l }
}

// NewStation wires the capture pipeline. resolver may be nil for kiosks that
// clock without location data.
func NewStation(workflow *Workflow, open CameraOpener, detector *presence.Detector, resolver *geo.Resolver, opts ...StationOption) *Station {
	s := &Station{
		workflow: workflow,
		open:     open,
		detector: detector,
		resolver: resolver,
		timeout:  time.Minute,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Station) ClockIn(ctx context.Context) error {
	ev, err := s.evidence(ctx, "clock_in")
	if err != nil {
		return err
	}
	return s.workflow.ClockIn(ctx, ev)
}

func (s *Station) ClockOut(ctx context.Context) error {
	ev, err := s.evidence(ctx, "clock_out")
	if err != nil {
		return err
	}
	return s.workflow.ClockOut(ctx, ev)
}

// evidence runs a capture session while the location is resolved alongside.
func (s *Station) evidence(ctx context.Context, action string) (Evidence, error) {
	if s.workflow.Busy() {
		return Evidence{}, ErrActionInFlight
	}

	located := make(chan *geo.Location, 1)
	go func() { located <- s.resolver.Resolve(ctx) }()

	capture, err := s.capture(ctx)
	if err != nil {
		s.logger.Warn("capture failed", zap.String("action", action), zap.Error(err))
		s.workflow.fail(action, err)
		return Evidence{}, err
	}

	ev := Evidence{Photo: capture.Photo, FaceVerified: true}
	if loc := <-located; loc != nil {
		lat, lon, addr := loc.Latitude, loc.Longitude, loc.Address
		ev.Latitude, ev.Longitude, ev.Location = &lat, &lon, &addr
	}
	return ev, nil
}

func (s *Station) capture(ctx context.Context) (*presence.Capture, error) {
	source, err := s.open()
	if err != nil {
		if errors.Is(err, presence.ErrCameraUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", presence.ErrCameraUnavailable, err)
	}

	captureCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	capture, err := presence.NewSession(source, s.detector, s.sessionOpts...).Run(captureCtx)
	switch {
	case err == nil:
		return capture, nil
	case ctx.Err() != nil:
		return nil, ErrCaptureCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return nil, ErrNoFaceDetected
	default:
		return nil, err
	}
}
