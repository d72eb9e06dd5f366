package presence

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// JPEGQuality is used for every captured photo.
const JPEGQuality = 80

// Capture is the photo taken when the trigger fires.
type Capture struct {
	Photo      []byte
	Confidence int
	Box        *Box
	TakenAt    time.Time
}

// EncodeJPEG copies the frame and encodes it at JPEGQuality.
func EncodeJPEG(frame image.Image) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("encode capture: empty frame")
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, imaging.Clone(frame), imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	return buf.Bytes(), nil
}
