package render

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultOverlays maps the built-in overlay names to their asset files
var DefaultOverlays = map[string]string{
	"bear":  "emoji_bear.png",
	"tiger": "emoji_tiger.png",
	"koala": "emoji_koala.png",
}

// Manifest is the YAML document listing overlay assets
//
//	overlays:
//	  bear: emoji_bear.png
//	  panda: animals/panda.png
type Manifest struct {
	Overlays map[string]string `yaml:"overlays"`
}

// OverlaySet holds decoded overlay images by lowercase name. It is read-only after loading.
type OverlaySet struct {
	images map[string]image.Image
}

// NewOverlaySet wraps already decoded overlays
func NewOverlaySet(images map[string]image.Image) *OverlaySet {
	set := &OverlaySet{images: make(map[string]image.Image, len(images))}
	for name, img := range images {
		set.images[strings.ToLower(name)] = img
	}
	return set
}

// LoadOverlays decodes every asset named by the manifest (or DefaultOverlays when
// manifestPath is empty). Relative asset paths resolve against dir. Missing or
// undecodable assets are logged and skipped; only a broken manifest is an error.
func LoadOverlays(dir, manifestPath string, logger *slog.Logger) (*OverlaySet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries := DefaultOverlays
	if manifestPath != "" {
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("read overlay manifest: %w", err)
		}
		var m Manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse overlay manifest: %w", err)
		}
		entries = m.Overlays
	}

	images := make(map[string]image.Image, len(entries))
	for name, file := range entries {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, file)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("overlay asset unavailable",
				slog.String("overlay", name),
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}

		img, _, err := Decode(data)
		if err != nil {
			logger.Warn("overlay asset undecodable",
				slog.String("overlay", name),
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}

		images[name] = img
	}

	set := NewOverlaySet(images)
	logger.Info("overlays loaded", slog.Any("names", set.Names()))
	return set, nil
}

// Get returns the overlay for name, if loaded
func (s *OverlaySet) Get(name string) (image.Image, bool) {
	if s == nil {
		return nil, false
	}
	img, ok := s.images[strings.ToLower(name)]
	return img, ok
}

// Has reports whether an overlay is loaded
func (s *OverlaySet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names lists loaded overlays in sorted order
func (s *OverlaySet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.images))
	for name := range s.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
