package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/printgate/printgate/internal/types"
)

// Sink appends report rows to a file as outcomes arrive. The file is created
// (or truncated) on the first Append, so a batch without outcomes leaves no
// report behind. Once closed, the file content equals Table.Render over the
// same outcomes.
//
// A Sink is not safe for concurrent use; feed it from engine.Config.OnOutcome.
type Sink struct {
	path   string
	table  Table
	f      *os.File
	opened bool
	outs   []types.Outcome
	err    error
}

// NewSink returns a sink writing table to path.
func NewSink(path string, table Table) *Sink {
	return &Sink{path: path, table: table}
}

// Append writes the row for o. After the first write error every further call
// is a no-op returning that error.
func (s *Sink) Append(o types.Outcome) error {
	if s.err != nil {
		return s.err
	}
	if s.f == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			s.err = fmt.Errorf("create report directory: %w", err)
			return s.err
		}
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			s.err = fmt.Errorf("open report: %w", err)
			return s.err
		}
		s.f = f
		s.opened = true
		if _, err := s.f.WriteString(s.table.Header()); err != nil {
			s.err = err
			return err
		}
	}
	s.outs = append(s.outs, o)
	if _, err := s.f.WriteString(s.table.Row(o)); err != nil {
		s.err = err
	}
	return s.err
}

// Written reports whether the sink created its file.
func (s *Sink) Written() bool { return s.opened }

// Close writes the exception footer and closes the file.
func (s *Sink) Close() error {
	if s.f == nil {
		return s.err
	}
	if s.err == nil {
		if footer := s.table.Footer(s.outs); footer != "" {
			_, s.err = s.f.WriteString(footer)
		}
	}
	if err := s.f.Close(); err != nil && s.err == nil {
		s.err = err
	}
	s.f = nil
	return s.err
}
