// Package camera provides frame sources: a live webcam and a directory
// replay for development without hardware.
package camera

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Webcam captures frames from a local video device.
type Webcam struct {
	mu  sync.Mutex
	dev *gocv.VideoCapture
}

// NewWebcam opens a video capture device.
//
// Arguments:
// - device: Device index, usually 0.
// - width: Requested capture width in pixels; 0 keeps the driver default.
// - height: Requested capture height in pixels; 0 keeps the driver default.
//
// Returns:
// - *Webcam: The opened device.
// - error: Error when the device cannot be opened.
func NewWebcam(device, width, height int) (*Webcam, error) {
	dev, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "open video device %d", device)
	}
	if width > 0 {
		dev.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		dev.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &Webcam{dev: dev}, nil
}

// Capture reads one frame off the device.
//
// Arguments:
// - ctx: Checked before touching the device.
//
// Returns:
// - image.Image: The captured frame.
// - error: Error when the device is closed or the read fails.
func (w *Webcam) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return nil, errors.New("webcam is closed")
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := w.dev.Read(&mat); !ok || mat.Empty() {
		return nil, errors.New("webcam read produced no frame")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	return img, nil
}

// Close releases the device. Safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return nil
	}
	err := w.dev.Close()
	w.dev = nil
	return err
}
