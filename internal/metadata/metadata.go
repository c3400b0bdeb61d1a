// Package metadata reads the .metadata.yml file that accompanies every
// submitted design.
package metadata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the metadata file in each design folder.
const FileName = ".metadata.yml"

// File is the metadata of one design.
type File struct {
	Title                string   `yaml:"title" json:"title"`
	Description          string   `yaml:"description" json:"description"`
	PrinterCompatibility []string `yaml:"printer_compatibility" json:"printer_compatibility"`
	CAD                  []string `yaml:"cad" json:"cad"`
	Images               []string `yaml:"images" json:"images"`
}

// Load parses the metadata file at path.
func Load(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}
