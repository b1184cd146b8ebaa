package onnx

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/krau/plantclassifier/config"
)

var pathOnce sync.Once
var libPath string

func LibPath() string {
	pathOnce.Do(func() {
		libPath = resolve(config.C().Libonnx, runtime.GOOS)
		if libPath == "" {
			slog.Error("ONNX Runtime library path could not be determined for this OS")
		} else {
			slog.Info("Using ONNX Runtime library", slog.String("path", libPath))
		}
	})
	return libPath
}

// resolve returns the configured library as given, leaving bare sonames and
// versioned names to the dynamic loader's search path. Without one, the
// built-in locations are tried in order.
func resolve(configured, goos string) string {
	if configured != "" {
		return configured
	}
	return firstExisting(candidates(goos))
}

// candidates lists library locations in the order they should be tried.
func candidates(goos string) []string {
	var paths []string
	switch goos {
	case "linux":
		paths = append(paths,
			filepath.Join("onnxlibs", "libonnxruntime.so"),
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		)
	case "darwin":
		paths = append(paths,
			filepath.Join("onnxlibs", "libonnxruntime.dylib"),
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
		)
	case "windows":
		paths = append(paths, filepath.Join("onnxlibs", "onnxruntime.dll"), "onnxruntime.dll")
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
