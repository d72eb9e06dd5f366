// Package opencv backs the presence detector with OpenCV: the Res10 SSD face
// model through the DNN module and a local webcam through VideoCapture.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/fragranza-olio/ojt-backend/internal/pkg/presence"
)

const (
	blobSize = 300
	// Candidates below this score are dropped before they reach the adapter.
	minScore = 0.2
)

// FaceModel is a Caffe SSD face detector (res10_300x300_ssd_iter_140000).
// It is safe to share between goroutines; inference is serialized.
type FaceModel struct {
	mu  sync.Mutex
	net gocv.Net
}

// LoadFaceModel reads the deploy prototxt and the caffemodel weights.
func LoadFaceModel(prototxt, weights string) (*FaceModel, error) {
	net := gocv.ReadNetFromCaffe(prototxt, weights)
	if net.Empty() {
		return nil, fmt.Errorf("load face model from %s: empty network", weights)
	}
	return &FaceModel{net: net}, nil
}

func (m *FaceModel) Detect(frame image.Image) ([]presence.Candidate, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(blobSize, blobSize), gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	m.mu.Lock()
	m.net.SetInput(blob, "")
	prob := m.net.Forward("")
	m.mu.Unlock()
	defer prob.Close()

	cols, rows := float32(mat.Cols()), float32(mat.Rows())
	var out []presence.Candidate
	// Output rows are [image_id, label, score, left, top, right, bottom].
	for i := 0; i+6 < prob.Total(); i += 7 {
		score := prob.GetFloatAt(0, i+2)
		if score < minScore {
			continue
		}
		left := int(prob.GetFloatAt(0, i+3) * cols)
		top := int(prob.GetFloatAt(0, i+4) * rows)
		right := int(prob.GetFloatAt(0, i+5) * cols)
		bottom := int(prob.GetFloatAt(0, i+6) * rows)
		if right <= left || bottom <= top {
			continue
		}
		out = append(out, presence.Candidate{
			Score: float64(score),
			Box:   presence.Box{X: left, Y: top, Width: right - left, Height: bottom - top},
		})
	}
	return out, nil
}

func (m *FaceModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

var errEmptyFrame = errors.New("empty frame")

// Camera reads frames from a local video device.
type Camera struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenCamera opens the device; a denied or missing camera is reported as
// presence.ErrCameraUnavailable.
func OpenCamera(device int) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", presence.ErrCameraUnavailable, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %d not opened", presence.ErrCameraUnavailable, device)
	}
	return &Camera{capture: capture, mat: gocv.NewMat()}, nil
}

func (c *Camera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, errEmptyFrame
	}
	return c.mat.ToImage()
}

func (c *Camera) Close() error {
	if err := c.mat.Close(); err != nil {
		return err
	}
	return c.capture.Close()
}
