// Package resources loads and caches the images and preset file used by the
// confetti system. It has no Ebitengine dependency so headless tools can use it.
package resources

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // Register PNG decoder
	"os"

	"github.com/decker502/konfetti/pkg/config"
	"github.com/decker502/konfetti/pkg/embedded"
)

// ResourceManager is responsible for centralized management of confetti resources.
// It provides loading and caching for bitmap images and the preset configuration,
// ensuring that resources are decoded only once and reused.
//
// Images are kept as decoded image.Image values: bitmap confetti is rescaled on
// the CPU per particle, and the canvas converts the result to a GPU image when
// it is drawn.
//
// Resources are read from the embedded file system once embedded.Init has been
// called, and from the working directory otherwise (tools and tests).
//
// Thread Safety Note:
// This implementation is NOT thread-safe. For the single-threaded game loop,
// no synchronization is needed.
//
// Usage:
//
//	rm := NewResourceManager()
//	img, err := rm.LoadImage("assets/images/star.png")
//	if err != nil {
//	    log.Printf("Failed to load image: %v", err)
//	}
type ResourceManager struct {
	imageCache map[string]image.Image // Cache for decoded images: path -> Image

	confettiConfig *config.ConfettiConfig // Parsed preset configuration
}

// NewResourceManager creates and initializes a new ResourceManager instance.
func NewResourceManager() *ResourceManager {
	return &ResourceManager{
		imageCache: make(map[string]image.Image),
	}
}

// readFile reads a resource from the embedded file system. Paths that were not
// embedded (a user supplied preset file, or tests running without embedded
// resources) are read from disk.
func readFile(path string) ([]byte, error) {
	if embedded.Exists(path) {
		return embedded.ReadFile(path)
	}
	return os.ReadFile(path)
}

// LoadImage loads an image file from the specified path and caches it for future use.
// If the image has already been loaded, it returns the cached version.
// Supported formats: PNG (via image/png decoder).
//
// Error handling:
//   - Returns an error if the file does not exist or cannot be read.
//   - Returns an error if the image format is not supported or the file is corrupted.
func (rm *ResourceManager) LoadImage(path string) (image.Image, error) {
	if cachedImage, exists := rm.imageCache[path]; exists {
		return cachedImage, nil
	}

	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	rm.imageCache[path] = img
	return img, nil
}

// GetImage retrieves a previously loaded image from the cache.
// If the image has not been loaded yet, it returns nil.
func (rm *ResourceManager) GetImage(path string) image.Image {
	return rm.imageCache[path]
}

// LoadConfettiConfig loads and validates the preset configuration, then
// preloads every image it references so the first burst does not stall.
func (rm *ResourceManager) LoadConfettiConfig(path string) (*config.ConfettiConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read confetti config %s: %w", path, err)
	}

	cfg, err := config.ParseConfettiConfig(data)
	if err != nil {
		return nil, err
	}

	for id, imagePath := range cfg.Images {
		if _, err := rm.LoadImage(imagePath); err != nil {
			return nil, fmt.Errorf("image '%s': %w", id, err)
		}
	}

	rm.confettiConfig = cfg
	return cfg, nil
}

// GetConfettiConfig returns the last loaded preset configuration, or nil.
func (rm *ResourceManager) GetConfettiConfig() *config.ConfettiConfig {
	return rm.confettiConfig
}
