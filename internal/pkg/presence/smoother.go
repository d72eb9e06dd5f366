package presence

import "math"

const (
	// DebounceFrames is how many consecutive disagreeing frames flip Detected.
	DebounceFrames = 3
	// SmoothingFactor is the EMA step toward the target score.
	SmoothingFactor = 0.05
	// MinFaceWidthRatio is the face width, relative to the frame, that earns
	// the full size score.
	MinFaceWidthRatio = 0.10
)

// SmootherState is owned by the detection loop and threaded through Step.
// The zero value is the clean baseline of a new session.
type SmootherState struct {
	Smoothed  float64 // running confidence, 0-100
	Displayed int     // last emitted rounded confidence
	Detected  bool    // debounced presence
	Disagree  int     // consecutive raw frames disagreeing with Detected
}

// Frame is what the smoother needs to know about one processed frame.
type Frame struct {
	Result Result
	Width  int
	Height int
}

// Update is emitted after every Step. Changed reports whether Detected or
// Displayed differ from the previous state, so callers can skip redraws.
type Update struct {
	Detected   bool
	Confidence int
	Box        *Box
	Changed    bool
}

// Step advances the smoother by one frame.
func Step(s SmootherState, f Frame) (SmootherState, Update) {
	prev := s

	if f.Result.Detected != s.Detected {
		s.Disagree++
		if s.Disagree >= DebounceFrames {
			s.Detected = f.Result.Detected
			s.Disagree = 0
		}
	} else {
		s.Disagree = 0
	}

	switch {
	case prev.Detected && !s.Detected:
		s = SmootherState{}
	case s.Detected && f.Result.Detected && f.Result.Box != nil:
		target := TargetScore(*f.Result.Box, f.Width, f.Height)
		s.Smoothed += SmoothingFactor * (target - s.Smoothed)
	}

	s.Displayed = int(math.Round(s.Smoothed))

	u := Update{
		Detected:   s.Detected,
		Confidence: s.Displayed,
		Changed:    s.Displayed != prev.Displayed || s.Detected != prev.Detected,
	}
	if s.Detected {
		u.Box = f.Result.Box
	}
	return s, u
}

// TargetScore rates how well a face is framed: 50 + 30*size + 20*position.
func TargetScore(box Box, width, height int) float64 {
	return 50 + 30*sizeScore(box, width) + 20*positionScore(box, width, height)
}

func sizeScore(box Box, width int) float64 {
	if width <= 0 || box.Width <= 0 {
		return 0
	}
	ratio := float64(box.Width) / float64(width)
	if ratio >= MinFaceWidthRatio {
		return 1
	}
	return ratio / MinFaceWidthRatio
}

func positionScore(box Box, width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	halfW, halfH := float64(width)/2, float64(height)/2
	cx, cy := box.Center()
	dx := (cx - halfW) / halfW
	dy := (cy - halfH) / halfH
	return math.Max(0, 1-math.Hypot(dx, dy))
}
