package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number parsed from the file name, or -1 when the
	// name carries none.
	Frame int
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files named frame-N.<ext> are ordered by N; anything else sorts after
// them by path. Non-image files are ignored.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, readErr
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Frame: frameNumber(file.Name()),
			})
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		fi, fj := images[i].Frame, images[j].Frame
		switch {
		case fi >= 0 && fj >= 0:
			return fi < fj
		case fi >= 0:
			return true
		case fj >= 0:
			return false
		default:
			return images[i].Path < images[j].Path
		}
	})

	return images, nil
}

// frameNumber extracts N from a frame-N file name, or -1.
func frameNumber(name string) int {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	rest, ok := strings.CutPrefix(stem, "frame-")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
