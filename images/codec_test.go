package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPattern builds a small gradient image so encoders have real content
// to work with.
func testPattern(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testPattern(64, 48), &jpeg.Options{Quality: 90}),
		"encoding the fixture should succeed")

	img, format, err := Decode(buf.Bytes())
	require.NoError(t, err, "JPEG bytes should decode")
	assert.Equal(t, FormatJPEG, format, "format should be detected as JPEG")
	assert.Equal(t, 64, img.Bounds().Dx(), "width should survive the round trip")
	assert.Equal(t, 48, img.Bounds().Dy(), "height should survive the round trip")
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testPattern(32, 32)),
		"encoding the fixture should succeed")

	img, format, err := Decode(buf.Bytes())
	require.NoError(t, err, "PNG bytes should decode")
	assert.Equal(t, FormatPNG, format, "format should be detected as PNG")
	assert.Equal(t, 32, img.Bounds().Dx(), "width should survive the round trip")
}

func TestDecodeWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, testPattern(40, 30), &webp.Options{Lossless: true}),
		"encoding the fixture should succeed")

	img, format, err := Decode(buf.Bytes())
	require.NoError(t, err, "WebP bytes should decode")
	assert.Equal(t, FormatWebP, format, "format should be detected as WebP")
	assert.Equal(t, 40, img.Bounds().Dx(), "width should survive the round trip")
	assert.Equal(t, 30, img.Bounds().Dy(), "height should survive the round trip")
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, _, err := Decode(nil)
	assert.Error(t, err, "empty input should not decode")

	_, _, err = Decode([]byte("definitely not an image"))
	assert.Error(t, err, "garbage input should not decode")
}

func TestCrop(t *testing.T) {
	src := testPattern(100, 80)

	t.Run("interior region", func(t *testing.T) {
		out, err := Crop(src, image.Rect(10, 10, 60, 50))
		require.NoError(t, err, "interior crop should succeed")
		assert.Equal(t, 50, out.Bounds().Dx(), "cropped width should match the rectangle")
		assert.Equal(t, 40, out.Bounds().Dy(), "cropped height should match the rectangle")
	})

	t.Run("rectangle clamped to bounds", func(t *testing.T) {
		out, err := Crop(src, image.Rect(-20, -20, 30, 30))
		require.NoError(t, err, "partially outside crop should clamp, not fail")
		assert.Equal(t, 30, out.Bounds().Dx(), "width should be the in-bounds part")
		assert.Equal(t, 30, out.Bounds().Dy(), "height should be the in-bounds part")
	})

	t.Run("rectangle entirely outside", func(t *testing.T) {
		_, err := Crop(src, image.Rect(500, 500, 600, 600))
		assert.Error(t, err, "a crop with no overlap should fail")
	})

	t.Run("nil image", func(t *testing.T) {
		_, err := Crop(nil, image.Rect(0, 0, 10, 10))
		assert.Error(t, err, "nil source should fail")
	})
}

func TestFit(t *testing.T) {
	big := testPattern(800, 600)
	small := testPattern(100, 50)

	fitted := Fit(big, 400, 400)
	assert.Equal(t, 400, fitted.Bounds().Dx(), "long side should shrink to the limit")
	assert.Equal(t, 300, fitted.Bounds().Dy(), "aspect ratio should be preserved")

	same := Fit(small, 400, 400)
	assert.Equal(t, image.Image(small), same, "images inside the bounds should pass through untouched")
}

func TestResize(t *testing.T) {
	out := Resize(testPattern(100, 50), 50, 25)
	assert.Equal(t, 50, out.Bounds().Dx(), "width should match the request")
	assert.Equal(t, 25, out.Bounds().Dy(), "height should match the request")

	squashed := Resize(testPattern(100, 50), 30, 30)
	assert.Equal(t, 30, squashed.Bounds().Dx(), "resize is exact, not aspect preserving")
	assert.Equal(t, 30, squashed.Bounds().Dy(), "resize is exact, not aspect preserving")
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(testPattern(64, 48), 85)
	require.NoError(t, err, "encoding should succeed")
	require.NotEmpty(t, data, "encoder should produce bytes")

	img, format, err := Decode(data)
	require.NoError(t, err, "encoded bytes should decode")
	assert.Equal(t, FormatJPEG, format, "bytes should be JPEG")
	assert.Equal(t, 64, img.Bounds().Dx(), "width should survive the round trip")
	assert.Equal(t, 48, img.Bounds().Dy(), "height should survive the round trip")

	_, err = EncodeJPEG(testPattern(8, 8), 0)
	assert.NoError(t, err, "out-of-range quality should fall back to the default")

	_, err = EncodeJPEG(nil, 85)
	assert.Error(t, err, "nil image should fail")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, Save(testPattern(32, 24), path), "saving a JPEG should succeed")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "the file should exist")
	img, format, err := Decode(data)
	require.NoError(t, err, "the file should hold a decodable image")
	assert.Equal(t, FormatJPEG, format, "the extension should pick the encoder")
	assert.Equal(t, 32, img.Bounds().Dx(), "width should survive the save")

	assert.Error(t, Save(nil, path), "nil image should fail")
	assert.Error(t, Save(testPattern(8, 8), filepath.Join(t.TempDir(), "frame.xyz")),
		"unknown extension should fail")
}

func TestNewImage(t *testing.T) {
	src := testPattern(60, 40)

	for _, format := range []ImageFormat{FormatJPEG, FormatPNG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			enc, err := NewImage(src, format, 90)
			require.NoError(t, err, "encoding should succeed")
			assert.Equal(t, format, enc.Format, "value should record the format")
			assert.Equal(t, 60, enc.Width, "value should record the width")
			assert.Equal(t, 40, enc.Height, "value should record the height")

			img, got, err := Decode(enc.Data)
			require.NoError(t, err, "payload should decode")
			assert.Equal(t, format, got, "payload should be the requested format")
			assert.Equal(t, 60, img.Bounds().Dx(), "payload should keep the dimensions")
		})
	}

	_, err := NewImage(nil, FormatJPEG, 90)
	assert.Error(t, err, "nil image should fail")

	_, err = NewImage(src, ImageFormat("tiff"), 90)
	assert.Error(t, err, "unsupported format should fail")
}
