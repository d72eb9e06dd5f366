package presence

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval paces the detection loop at roughly 30 frames per second.
const DefaultInterval = 33 * time.Millisecond

var ErrCameraUnavailable = errors.New("camera unavailable")

// FrameSource is a live camera. Close releases the device.
type FrameSource interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Session runs the detection loop against one camera until a photo is
// captured, the context is cancelled or the camera fails. The camera is
// closed on every exit path.
type Session struct {
	source   FrameSource
	detector *Detector
	interval time.Duration
	onUpdate func(Update)
	now      func() time.Time
	logger   *zap.Logger
}

type SessionOption func(*Session)

func WithInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithUpdates receives every Update whose Changed flag is set.
func WithUpdates(fn func(Update)) SessionOption {
	return func(s *Session) { s.onUpdate = fn }
}

func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(source FrameSource, detector *Detector, opts ...SessionOption) *Session {
	s := &Session{
		source:   source,
		detector: detector,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until the capture fires. Frames are processed strictly one at a
// time; the loop stops as soon as the capture is taken.
func (s *Session) Run(ctx context.Context) (*Capture, error) {
	defer func() {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("camera close failed", zap.Error(err))
		}
	}()

	var (
		state   SmootherState
		trigger Trigger
		frames  int
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("detection loop cancelled", zap.Int("frames", frames))
			return nil, ctx.Err()
		case <-ticker.C:
		}

		frame, err := s.source.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}
		frames++

		// An empty read counts as a frame without a face and can never be
		// the captured one.
		var f Frame
		if frame != nil {
			bounds := frame.Bounds()
			f = Frame{Result: s.detector.Detect(frame), Width: bounds.Dx(), Height: bounds.Dy()}
		}
		result := f.Result

		var update Update
		state, update = Step(state, f)
		if update.Changed && s.onUpdate != nil {
			s.onUpdate(update)
		}
		if frame == nil {
			trigger.Count = 0
			continue
		}

		var fire bool
		trigger, fire = trigger.Observe(state)
		if !fire {
			continue
		}

		photo, err := EncodeJPEG(frame)
		if err != nil {
			return nil, err
		}
		s.logger.Info("photo captured",
			zap.Int("frames", frames),
			zap.Int("confidence", state.Displayed),
			zap.Int("bytes", len(photo)),
		)
		return &Capture{
			Photo:      photo,
			Confidence: state.Displayed,
			Box:        result.Box,
			TakenAt:    s.now(),
		}, nil
	}
}
