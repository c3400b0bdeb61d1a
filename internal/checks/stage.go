package checks

import (
	"fmt"
	"os"
	"path/filepath"
)

// staged is a temporary output file that is either promoted to its final
// location or removed.
type staged struct {
	path  string
	final string
}

// stage creates an empty temporary file next to final, or in the system temp
// directory when final is empty.
func stage(final, name string) (*staged, error) {
	dir := ""
	if final != "" {
		dir = filepath.Dir(final)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return &staged{path: f.Name(), final: final}, nil
}

// promote moves the staged file to its final location.
func (s *staged) promote() error {
	if s.final == "" {
		return nil
	}
	info, err := os.Stat(s.path)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("tool did not write %s", s.final)
	}
	return os.Rename(s.path, s.final)
}

// discard removes the temporary file if it still exists.
func (s *staged) discard() { _ = os.Remove(s.path) }
