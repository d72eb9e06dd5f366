package presence

const (
	// CaptureThreshold is the smoothed confidence a frame must reach to count.
	CaptureThreshold = 90.0
	// CaptureFrames is the run of qualifying frames that fires the capture.
	CaptureFrames = 5
)

// Trigger counts consecutive qualifying frames and fires once per session.
type Trigger struct {
	Count int
	Fired bool
}

// Observe returns the next trigger state and whether the capture fires on
// this frame. A non-qualifying frame resets the count to zero.
func (t Trigger) Observe(s SmootherState) (Trigger, bool) {
	if t.Fired {
		return t, false
	}
	if !s.Detected || s.Smoothed < CaptureThreshold {
		t.Count = 0
		return t, false
	}
	t.Count++
	if t.Count >= CaptureFrames {
		t.Fired = true
		return t, true
	}
	return t, false
}
