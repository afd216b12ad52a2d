// Package detections decodes raw detector output into scored boxes and
// prunes the duplicates.
package detections

import (
	"fmt"

	"github.com/lastchair/go-vision/images"
)

// Detection is one decoded object.
type Detection struct {
	// ClassID indexes Classes.
	ClassID int `json:"classId"`
	// Confidence is the decode-mode dependent score in [0,1].
	Confidence float32 `json:"confidence"`
	// Box is normalized to the frame the input tensor was built from.
	Box images.Box `json:"box"`
}

// String renders a compact form for logs.
func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f @ (%.3f, %.3f) %.3fx%.3f",
		ClassName(d.ClassID), d.Confidence, d.Box.X, d.Box.Y, d.Box.W, d.Box.H)
}
