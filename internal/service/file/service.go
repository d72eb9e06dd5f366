package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/fragranza-olio/ojt-backend/internal/pkg/storage"
)

const (
	maxPhotoEdge = 1280
	jpegQuality  = 80
)

var (
	ErrUnsupportedType = errors.New("invalid file type: only jpg, jpeg, png, webp allowed")
	ErrInvalidImage    = errors.New("file is not a readable image")
)

var photoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type FileService interface {
	// UploadAttendancePhoto normalizes a clock-in/out photo to JPEG and stores it.
	UploadAttendancePhoto(ctx context.Context, traineeID string, date time.Time, action string, file io.Reader, filename string) (string, error)

	DeleteFile(ctx context.Context, key string) error
	GetFileURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{storage: storage}
}

// UploadAttendancePhoto stores the photo as
// attendance/{date}/{traineeID}-{action}-{uuid}.jpg.
func (s *fileServiceImpl) UploadAttendancePhoto(ctx context.Context, traineeID string, date time.Time, action string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !photoExts[ext] {
		return "", ErrUnsupportedType
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	normalized, err := NormalizePhoto(raw)
	if err != nil {
		return "", err
	}

	key := path.Join("attendance", date.Format("2006-01-02"),
		fmt.Sprintf("%s-%s-%s.jpg", traineeID, action, uuid.NewString()))

	stored, err := s.storage.Upload(ctx, bytes.NewReader(normalized), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance photo: %w", err)
	}
	return stored, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func (s *fileServiceImpl) GetFileURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, key, expiry)
}

// NormalizePhoto decodes jpeg/png/webp, applies EXIF orientation, fits the
// image inside 1280x1280 and re-encodes it as JPEG quality 80.
func NormalizePhoto(raw []byte) ([]byte, error) {
	img, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = imaging.Fit(img, maxPhotoEdge, maxPhotoEdge, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty file")
	}
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(http.DetectContentType(head), "webp") {
		return webp.Decode(bytes.NewReader(raw))
	}
	return imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
}
