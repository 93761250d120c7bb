package render

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Dimensions holds the intrinsic pixel size of one image asset.
type Dimensions struct {
	Width  int
	Height int
}

// ImageIndex maps slug/filename pairs to image dimensions, read from a
// per-slug asset directory layout (<assetsDir>/<slug>/<file>). Dimensions
// are decoded from image headers ahead of render time so rendered pages
// can reserve layout space before images load.
type ImageIndex struct {
	assetsDir string

	mu   sync.RWMutex
	dims map[string]map[string]Dimensions
}

func NewImageIndex(assetsDir string) *ImageIndex {
	return &ImageIndex{
		assetsDir: assetsDir,
		dims:      make(map[string]map[string]Dimensions),
	}
}

// Refresh rescans the asset directory. Files that do not decode as images
// are skipped with a warning. An unset or missing directory leaves the
// index empty.
func (ix *ImageIndex) Refresh() error {
	if ix.assetsDir == "" {
		return nil
	}

	slugDirs, err := os.ReadDir(ix.assetsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read assets directory: %w", err)
	}

	dims := make(map[string]map[string]Dimensions)

	for _, slugDir := range slugDirs {
		if !slugDir.IsDir() {
			continue
		}

		slug := slugDir.Name()
		files, err := os.ReadDir(filepath.Join(ix.assetsDir, slug))
		if err != nil {
			return fmt.Errorf("failed to read assets for '%s': %w", slug, err)
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}

			path := filepath.Join(ix.assetsDir, slug, file.Name())
			d, err := decodeDimensions(path)
			if err != nil {
				slog.Warn("Skipping undecodable image asset", "path", path, "error", err)
				continue
			}

			if dims[slug] == nil {
				dims[slug] = make(map[string]Dimensions)
			}
			dims[slug][file.Name()] = d
		}
	}

	ix.mu.Lock()
	ix.dims = dims
	ix.mu.Unlock()

	return nil
}

// Lookup returns the dimensions recorded for an asset, if any.
func (ix *ImageIndex) Lookup(slug, filename string) (Dimensions, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	d, ok := ix.dims[slug][filename]
	return d, ok
}

func decodeDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, err
	}

	return Dimensions{Width: config.Width, Height: config.Height}, nil
}
