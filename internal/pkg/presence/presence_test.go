package presence

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type modelFunc func(frame image.Image) ([]Candidate, error)

func (f modelFunc) Detect(frame image.Image) ([]Candidate, error) { return f(frame) }

var centered = Box{X: 288, Y: 208, Width: 64, Height: 64}

func face(b Box) Frame {
	return Frame{Result: Result{Detected: true, Confidence: 95, Box: &b}, Width: 640, Height: 480}
}

func noFace() Frame {
	return Frame{Width: 640, Height: 480}
}

func TestDetector_Detect(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))

	t.Run("keeps the best candidate", func(t *testing.T) {
		d := NewDetector(modelFunc(func(image.Image) ([]Candidate, error) {
			return []Candidate{
				{Score: 0.61, Box: Box{X: 1, Width: 10}},
				{Score: 0.934, Box: centered},
				{Score: 0.2},
			}, nil
		}))

		got := d.Detect(frame)

		assert.True(t, got.Detected)
		assert.Equal(t, 93, got.Confidence)
		require.NotNil(t, got.Box)
		assert.Equal(t, centered, *got.Box)
	})

	t.Run("clamps the score", func(t *testing.T) {
		d := NewDetector(modelFunc(func(image.Image) ([]Candidate, error) {
			return []Candidate{{Score: 1.3, Box: centered}}, nil
		}))
		assert.Equal(t, 100, d.Detect(frame).Confidence)
	})

	t.Run("model error is no face", func(t *testing.T) {
		d := NewDetector(modelFunc(func(image.Image) ([]Candidate, error) {
			return nil, errors.New("inference failed")
		}))
		assert.Equal(t, Result{}, d.Detect(frame))
	})

	t.Run("no candidates", func(t *testing.T) {
		d := NewDetector(modelFunc(func(image.Image) ([]Candidate, error) { return nil, nil }))
		assert.Equal(t, Result{}, d.Detect(frame))
		assert.Equal(t, Result{}, d.Detect(nil))
	})
}

func TestTargetScore(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want float64
	}{
		{"centered and large enough", centered, 100},
		{"centered but half width", Box{X: 304, Y: 224, Width: 32, Height: 32}, 85},
		{"in the corner", Box{X: 0, Y: 0, Width: 64, Height: 64}, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TargetScore(tt.box, 640, 480), 1e-9)
		})
	}
}

func TestStep_DebounceIgnoresFlicker(t *testing.T) {
	var s SmootherState
	seq := []Frame{face(centered), noFace(), face(centered), face(centered), noFace(), face(centered), face(centered), noFace()}

	for i, f := range seq {
		var u Update
		s, u = Step(s, f)
		assert.False(t, u.Detected, "frame %d", i)
		assert.False(t, s.Detected, "frame %d", i)
	}
}

func TestStep_FlipsAfterThreeFrames(t *testing.T) {
	var s SmootherState
	var u Update

	s, u = Step(s, face(centered))
	assert.False(t, u.Detected)
	s, u = Step(s, face(centered))
	assert.False(t, u.Detected)
	s, u = Step(s, face(centered))

	assert.True(t, u.Detected)
	assert.True(t, u.Changed)
	assert.InDelta(t, 5.0, s.Smoothed, 1e-9)
	assert.Equal(t, 5, u.Confidence)

	s, u = Step(s, face(centered))
	assert.InDelta(t, 9.75, s.Smoothed, 1e-9)
	assert.Equal(t, 10, u.Confidence)
}

func TestStep_ChangedOnlyWhenDisplayMoves(t *testing.T) {
	s := SmootherState{Smoothed: 42, Displayed: 42, Detected: true}

	s, u := Step(s, noFace())

	assert.True(t, u.Detected, "single miss is debounced")
	assert.False(t, u.Changed)
	assert.Equal(t, 42.0, s.Smoothed)
	assert.Equal(t, 1, s.Disagree)
}

func TestStep_ResetsWhenFaceLost(t *testing.T) {
	s := SmootherState{Smoothed: 87.3, Displayed: 87, Detected: true}

	s, _ = Step(s, noFace())
	s, _ = Step(s, noFace())
	s, u := Step(s, noFace())

	assert.Equal(t, SmootherState{}, s)
	assert.False(t, u.Detected)
	assert.True(t, u.Changed)
	assert.Equal(t, 0, u.Confidence)
	assert.Nil(t, u.Box)
}

func TestTrigger_FiresOnceAfterFiveFrames(t *testing.T) {
	ready := SmootherState{Smoothed: 95, Detected: true}
	var tr Trigger
	var fired int

	for i := 0; i < 50; i++ {
		var fire bool
		tr, fire = tr.Observe(ready)
		if fire {
			fired++
			assert.Equal(t, 4, i)
		}
	}

	assert.Equal(t, 1, fired)
	assert.True(t, tr.Fired)
}

func TestTrigger_ResetsOnDisqualifyingFrame(t *testing.T) {
	ready := SmootherState{Smoothed: 90, Detected: true}
	weak := SmootherState{Smoothed: 89.9, Detected: true}
	var tr Trigger
	var fire bool

	for i := 0; i < 4; i++ {
		tr, fire = tr.Observe(ready)
		require.False(t, fire)
	}
	tr, fire = tr.Observe(weak)
	require.False(t, fire)
	assert.Equal(t, 0, tr.Count)

	for i := 0; i < 4; i++ {
		tr, fire = tr.Observe(ready)
		require.False(t, fire, "frame %d of the fresh run", i)
	}
	tr, fire = tr.Observe(ready)
	assert.True(t, fire)

	_, fire = Trigger{}.Observe(SmootherState{Smoothed: 99})
	assert.False(t, fire, "not detected never counts")
}

type fakeCamera struct {
	mu     sync.Mutex
	frame  image.Image
	err    error
	reads  int
	closed bool
}

func (c *fakeCamera) Read(context.Context) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.frame, c.err
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestSession_Run(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))

	t.Run("captures and stops", func(t *testing.T) {
		cam := &fakeCamera{frame: frame}
		model := modelFunc(func(image.Image) ([]Candidate, error) {
			return []Candidate{{Score: 0.98, Box: centered}}, nil
		})
		taken := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
		var updates int

		s := NewSession(cam, NewDetector(model),
			WithInterval(time.Millisecond),
			WithUpdates(func(Update) { updates++ }),
			WithSessionClock(func() time.Time { return taken }),
		)
		got, err := s.Run(context.Background())

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, got.Confidence, 90)
		assert.Equal(t, taken, got.TakenAt)
		assert.True(t, cam.closed)
		assert.Greater(t, updates, 1)

		readsAtCapture := cam.reads
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, readsAtCapture, cam.reads, "loop halted after capture")

		img, err := jpeg.Decode(bytes.NewReader(got.Photo))
		require.NoError(t, err)
		assert.Equal(t, 640, img.Bounds().Dx())
	})

	t.Run("cancel releases the camera", func(t *testing.T) {
		cam := &fakeCamera{frame: frame}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		s := NewSession(cam, NewDetector(modelFunc(func(image.Image) ([]Candidate, error) { return nil, nil })),
			WithInterval(time.Millisecond))
		got, err := s.Run(ctx)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, cam.closed)
	})

	t.Run("empty frames are skipped", func(t *testing.T) {
		cam := &fakeCamera{}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		s := NewSession(cam, NewDetector(modelFunc(func(image.Image) ([]Candidate, error) {
			t.Error("model called without a frame")
			return nil, nil
		})), WithInterval(time.Millisecond))
		got, err := s.Run(ctx)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Greater(t, cam.reads, 1)
		assert.True(t, cam.closed)
	})

	t.Run("camera failure", func(t *testing.T) {
		cam := &fakeCamera{err: errors.New("device busy")}

		s := NewSession(cam, NewDetector(nil), WithInterval(time.Millisecond))
		_, err := s.Run(context.Background())

		assert.ErrorIs(t, err, ErrCameraUnavailable)
		assert.True(t, cam.closed)
	})
}
