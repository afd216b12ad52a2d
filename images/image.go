package images

import (
	"bytes"
	"image"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// Image is an encoded image plus the metadata consumers need without
// decoding it.
type Image struct {
	// Format of the encoded bytes.
	Format ImageFormat `json:"format" yaml:"format"`
	// Data holds the encoded bytes.
	Data []byte `json:"data" yaml:"data"`
	// Width in pixels.
	Width int `json:"width" yaml:"width"`
	// Height in pixels.
	Height int `json:"height" yaml:"height"`
}

// NewImage encodes img into the requested format and records its pixel
// dimensions.
//
// Arguments:
// - img: Image to encode.
// - format: One of FormatJPEG, FormatPNG, FormatWebP.
// - quality: Quality for the lossy formats, 1-100; out-of-range values fall
//   back to the encoder default.
//
// Returns:
// - *Image: The encoded value.
// - error: Error when img is nil, the format is unsupported, or encoding
//   fails.
func NewImage(img image.Image, format ImageFormat, quality int) (*Image, error) {
	if img == nil {
		return nil, errors.New("new image: nil image")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJPEG:
		data, err = EncodeJPEG(img, quality)
	case FormatPNG:
		var buf bytes.Buffer
		err = png.Encode(&buf, img)
		data = buf.Bytes()
	case FormatWebP:
		q := float32(quality)
		if quality < 1 || quality > 100 {
			q = 90
		}
		var buf bytes.Buffer
		err = webp.Encode(&buf, img, &webp.Options{Quality: q})
		data = buf.Bytes()
	default:
		return nil, errors.Errorf("new image: unsupported format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", format)
	}

	b := img.Bounds()
	return &Image{Format: format, Data: data, Width: b.Dx(), Height: b.Dy()}, nil
}
