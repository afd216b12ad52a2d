package winner

import (
	"context"
	"image"
)

// Camera supplies frames to a session. Implementations decide what a frame
// is: a live capture, a file off disk, a replayed fixture.
type Camera interface {
	// Capture produces the next frame. A nil frame with a nil error means
	// the source has nothing more to give.
	Capture(ctx context.Context) (image.Image, error)
}
