package images

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImageFormat identifies a supported encoded image format.
type ImageFormat string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
)

// Decode decodes raw JPEG, PNG, or WebP bytes.
//
// Arguments:
// - data: Encoded image bytes.
//
// Returns:
// - image.Image: The decoded image.
// - ImageFormat: The detected format.
// - error: Error when the bytes are empty or not a supported image.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if len(data) == 0 {
		return nil, "", errors.New("decode: empty image data")
	}
	if isWebP(data) {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", errors.Wrap(err, "decode webp")
		}
		return img, FormatWebP, nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	return img, ImageFormat(format), nil
}

// isWebP reports whether data starts with a RIFF/WEBP container header.
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// Crop extracts rect from img. The rectangle is clamped to the image bounds
// first; a rectangle that leaves nothing to crop is an error.
//
// Arguments:
// - img: Source image.
// - rect: Region to extract, in the source's coordinate space.
//
// Returns:
// - image.Image: The cropped region.
// - error: Error when img is nil or rect misses the image entirely.
func Crop(img image.Image, rect image.Rectangle) (image.Image, error) {
	if img == nil {
		return nil, errors.New("crop: nil image")
	}
	clamped := rect.Intersect(img.Bounds())
	if clamped.Empty() {
		return nil, errors.Errorf("crop: rectangle %v lies outside image bounds %v", rect, img.Bounds())
	}
	return imaging.Crop(img, clamped), nil
}

// Fit scales img down so both dimensions fit within maxWidth x maxHeight,
// preserving aspect ratio. Images already inside the bounds are returned
// untouched.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}

// Resize scales img to exactly width x height with Lanczos resampling. The
// aspect ratio is not preserved.
func Resize(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// EncodeJPEG encodes img as JPEG.
//
// Arguments:
// - img: Image to encode.
// - quality: JPEG quality 1-100; out-of-range values fall back to the
//   encoder default.
//
// Returns:
// - []byte: The encoded bytes.
// - error: Error when img is nil or encoding fails.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("encode jpeg: nil image")
	}
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// Save writes img to path; the file extension selects the encoder.
//
// Arguments:
// - img: Image to write.
// - path: Destination file.
//
// Returns:
// - error: Error when img is nil, the extension is unsupported, or the
//   write fails.
func Save(img image.Image, path string) error {
	if img == nil {
		return errors.New("save: nil image")
	}
	return errors.Wrapf(imaging.Save(img, path), "save %s", path)
}
