package camera

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/lastchair/go-vision/images"
	"github.com/lastchair/go-vision/util"
)

// Sequence replays a fixed list of frames in order. Once the frames run out
// every further capture returns a nil frame and no error, which a session
// treats as the source having nothing more to give.
type Sequence struct {
	mu     sync.Mutex
	frames []image.Image
	next   int
}

// NewSequence builds a replay source over the given frames.
func NewSequence(frames ...image.Image) *Sequence {
	return &Sequence{frames: frames}
}

// Capture hands out the next frame, or nil once exhausted.
func (s *Sequence) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return nil, nil
	}
	frame := s.frames[s.next]
	s.next++
	return frame, nil
}

// Remaining reports how many frames are left to capture.
func (s *Sequence) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) - s.next
}

// SequenceFromDir loads every image file in dir, in frame order, and wraps
// them in a replay source.
//
// Arguments:
// - dir: Directory of image files, typically frame-N.jpg extractions.
// - maxDim: When positive, frames larger than maxDim on either side are
//   scaled down to fit it.
//
// Returns:
// - *Sequence: The replay source.
// - error: Error when the directory is unreadable, empty, or a file does
//   not decode.
func SequenceFromDir(dir string, maxDim int) (*Sequence, error) {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, errors.Wrap(err, "load frame files")
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no image files in %s", dir)
	}

	frames := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, _, err := images.Decode(f.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", f.Path)
		}
		if maxDim > 0 {
			img = images.Fit(img, maxDim, maxDim)
		}
		frames = append(frames, img)
	}
	return NewSequence(frames...), nil
}
