// Package presence decides, frame by frame, whether a face is in front of the
// camera and when the view is steady enough to take the attendance photo.
package presence

import (
	"image"
	"math"
)

// Box is a face bounding box in frame pixel coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the box midpoint.
func (b Box) Center() (float64, float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// Candidate is one raw detection reported by a Model. Score is in [0, 1].
type Candidate struct {
	Score float64
	Box   Box
}

// Model runs face detection on a single frame.
type Model interface {
	Detect(frame image.Image) ([]Candidate, error)
}

// Result is the per-frame detection outcome. Confidence is 0-100.
type Result struct {
	Detected   bool `json:"detected"`
	Confidence int  `json:"confidence"`
	Box        *Box `json:"box"`
}

// Detector keeps only the best-scoring candidate of each frame.
type Detector struct {
	model Model
}

func NewDetector(model Model) *Detector {
	return &Detector{model: model}
}

// Detect never fails: a model error or an empty frame is reported as no face.
func (d *Detector) Detect(frame image.Image) Result {
	if d == nil || d.model == nil || frame == nil {
		return Result{}
	}

	candidates, err := d.model.Detect(frame)
	if err != nil || len(candidates) == 0 {
		return Result{}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	confidence := int(math.Round(best.Score * 100))
	if confidence <= 0 {
		return Result{}
	}
	if confidence > 100 {
		confidence = 100
	}

	box := best.Box
	return Result{Detected: true, Confidence: confidence, Box: &box}
}
