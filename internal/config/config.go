package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for printgate. Pointer
// fields distinguish "unset" from zero values so files can be layered.
type FileConfig struct {
	Threads         *int    `yaml:"threads"`
	MaxArtifacts    *int    `yaml:"max_artifacts"`
	Extensions      *string `yaml:"extensions"`
	Include         *string `yaml:"include"`
	Exclude         *string `yaml:"exclude"`
	DefaultExcludes *bool   `yaml:"default_excludes"`
	FailOnError     *bool   `yaml:"fail_on_error"`
	NoColor         *bool   `yaml:"no_color"`

	// Labels used by the aggregation step.
	ReadyLabel  *string           `yaml:"ready_label"`
	ErrorLabels map[string]string `yaml:"error_labels"`

	Image    *ImageConfig    `yaml:"image"`
	Tools    *ToolsConfig    `yaml:"tools"`
	ImageKit *ImageKitConfig `yaml:"imagekit"`
}

// ImageConfig controls thumbnail rendering and the public URLs they get.
type ImageConfig struct {
	URLEndpoint *string `yaml:"url_endpoint"`
	Subfolder   *string `yaml:"subfolder"`
	Size        *int    `yaml:"size"`
}

// ToolsConfig overrides the external commands used by the checks. Arguments
// may contain {input}, {output} and {size} placeholders.
type ToolsConfig struct {
	Repair    []string `yaml:"repair"`
	Orient    []string `yaml:"orient"`
	Thumbnail []string `yaml:"thumbnail"`
}

// ImageKitConfig holds non-secret ImageKit settings. Keys come from the
// environment.
type ImageKitConfig struct {
	UploadURL *string `yaml:"upload_url"`
}

const DefaultThumbnailSize = 300

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LocalNames are searched in order by LoadLocal.
var LocalNames = []string{".printgate.yml", ".printgate.yaml", "printgate.yml", "printgate.yaml"}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns the global config location, or "" when no config
// directory can be determined.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "printgate", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// ErrorLabel returns the label configured for check, looking at the local
// file first.
func ErrorLabel(check string, layers ...FileConfig) string {
	for _, fc := range layers {
		if l, ok := fc.ErrorLabels[check]; ok {
			return l
		}
	}
	return ""
}

// GetImage returns the image settings with the thumbnail size defaulted.
func (fc FileConfig) GetImage() ImageConfig {
	var ic ImageConfig
	if fc.Image != nil {
		ic = *fc.Image
	}
	if ic.Size == nil {
		size := DefaultThumbnailSize
		ic.Size = &size
	}
	return ic
}

func (ic ImageConfig) GetURLEndpoint() string {
	if ic.URLEndpoint == nil {
		return ""
	}
	return *ic.URLEndpoint
}

func (ic ImageConfig) GetSubfolder() string {
	if ic.Subfolder == nil {
		return ""
	}
	return *ic.Subfolder
}

// GetTools returns the tool overrides; unset commands are nil.
func (fc FileConfig) GetTools() ToolsConfig {
	if fc.Tools == nil {
		return ToolsConfig{}
	}
	return *fc.Tools
}

func (fc FileConfig) GetImageKitUploadURL() string {
	if fc.ImageKit == nil || fc.ImageKit.UploadURL == nil {
		return ""
	}
	return *fc.ImageKit.UploadURL
}

// Starter is the content written by "printgate config init".
const Starter = `# printgate configuration
threads: 0            # 0 = number of CPUs
max_artifacts: 40     # 0 = unlimited
default_excludes: true
fail_on_error: false
ready_label: "Ready for review"
error_labels:
  corruption: "Issue: Corrupt STL"
  rotation: "Issue: STL rotation"
  metadata: "Issue: Metadata"
image:
  url_endpoint: "https://ik.imagekit.io/example"
  subfolder: "pr"
  size: 300
tools:
  repair: ["admesh", "--write-ascii-stl={output}", "{input}"]
  thumbnail: ["stl-thumb", "{input}", "{output}", "-a", "fxaa", "-s", "{size}"]
  # orient must print {"rotation_angle": <radians>, "objects": <n>} and write
  # the reoriented mesh to {output}
  orient: []
`
