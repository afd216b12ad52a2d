// Package providers - shared library discovery.
package providers

import (
	"os"
	"runtime"
)

// SharedLibPath resolves the onnxruntime shared library for the current
// platform. The ONNXRUNTIME_LIB_PATH environment variable wins when set.
//
// Returns:
// - string: Path handed to ort.SetSharedLibraryPath.
func SharedLibPath() string {
	if p := os.Getenv("ONNXRUNTIME_LIB_PATH"); p != "" {
		return p
	}
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "/opt/homebrew/lib/libonnxruntime.dylib"
		}
		return "/usr/local/lib/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "/usr/lib/aarch64-linux-gnu/libonnxruntime.so"
		}
		return "/usr/lib/libonnxruntime.so"
	}
}
