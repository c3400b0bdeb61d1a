// Package checks holds the domain checks run by the batch runner and the
// adapters for the external tools they drive.
package checks

import (
	"fmt"
	"sort"

	"github.com/printgate/printgate/internal/engine"
)

// Tools are the external command overrides; nil selects the default.
type Tools struct {
	Repair    []string
	Orient    []string
	Thumbnail []string
}

// Settings configure check construction.
type Settings struct {
	OutputDir     string
	Images        ImageSettings
	ThumbnailSize int
	Tools         Tools
	ImageKitURL   string
	Uploader      Uploader // overrides the ImageKit uploader when set
}

// Definition describes a check and the artifacts it applies to.
type Definition struct {
	Name         string
	Title        string // report heading
	Extensions   []string
	MaxArtifacts int // default cap, 0 = unlimited
	New          func(Settings) engine.Check
}

func commandOr(cmd, def []string) Tool {
	if len(cmd) > 0 {
		return Tool{Command: cmd}
	}
	return Tool{Command: def}
}

var definitions = map[string]Definition{
	"corruption": {
		Name:       "corruption",
		Title:      "STL corruption check summary",
		Extensions: []string{".stl"},
		New: func(s Settings) engine.Check {
			return &Corruption{Repairer: AdmeshRepairer{Tool: commandOr(s.Tools.Repair, DefaultRepairCommand)}, OutputDir: s.OutputDir}
		},
	},
	"rotation": {
		Name:         "rotation",
		Title:        "STL rotation check summary",
		Extensions:   []string{".stl"},
		MaxArtifacts: RotationCap,
		New: func(s Settings) engine.Check {
			size := s.ThumbnailSize
			if size <= 0 {
				size = 300
			}
			return &Rotation{
				Orienter:    CommandOrienter{Tool: Tool{Command: s.Tools.Orient}},
				Thumbnailer: CommandThumbnailer{Tool: commandOr(s.Tools.Thumbnail, DefaultThumbnailCommand), Size: size},
				OutputDir:   s.OutputDir,
				Images:      s.Images,
			}
		},
	},
	"metadata": {
		Name:       "metadata",
		Title:      "Metadata check summary",
		Extensions: []string{".metadata.yml"},
		New:        func(Settings) engine.Check { return Metadata{} },
	},
	"upload": {
		Name:       "upload",
		Title:      "Image upload summary",
		Extensions: []string{".png"},
		New: func(s Settings) engine.Check {
			up := s.Uploader
			if up == nil {
				up = ImageKitFromEnv(s.ImageKitURL)
			}
			return &Upload{Uploader: up}
		},
	},
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	d, ok := definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown check %q (available: %v)", name, Names())
	}
	return d, nil
}

// Names lists the registered checks in sorted order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for n := range definitions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
