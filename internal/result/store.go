// Package result persists the outcome of one job so that a later pipeline
// stage can find it by job name alone.
//
// Each job owns one directory under the store root holding three plain-text
// records: the severity token, the error label and the job identifier.
package result

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/printgate/printgate/internal/types"
)

const (
	FileResult     = "result"
	FileErrorLabel = "error_label"
	FileJobID      = "job_id"
)

// ErrNoResult is returned by Read when a job directory exists but holds no
// result record.
var ErrNoResult = errors.New("job has no result record")

// Store reads and writes job results under a base directory.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) BaseDir() string { return s.baseDir }

// Dir returns the location of job's records.
func (s *Store) Dir(job string) string {
	return filepath.Join(s.baseDir, job)
}

// ValidateJobName rejects names that would escape the store root.
func ValidateJobName(job string) error {
	switch {
	case strings.TrimSpace(job) == "":
		return fmt.Errorf("job name is empty")
	case job == "." || job == "..":
		return fmt.Errorf("invalid job name %q", job)
	case strings.ContainsAny(job, `/\`) || strings.ContainsRune(job, 0):
		return fmt.Errorf("job name %q must not contain path separators", job)
	}
	return nil
}

// Write stores r under r.Name, replacing each record atomically. The severity
// record is written last so a reader never sees a result without its label
// and id.
func (s *Store) Write(r types.JobResult) error {
	if err := ValidateJobName(r.Name); err != nil {
		return err
	}
	dir := s.Dir(r.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}
	records := []struct{ name, value string }{
		{FileErrorLabel, r.ErrorLabel},
		{FileJobID, r.JobID},
		{FileResult, r.Severity.String()},
	}
	for _, rec := range records {
		if err := writeAtomic(filepath.Join(dir, rec.name), rec.value); err != nil {
			return fmt.Errorf("write %s for job %s: %w", rec.name, r.Name, err)
		}
	}
	return nil
}

// Read loads the result of job. It returns (nil, nil) when the job has no
// directory at all, ErrNoResult when the directory lacks a result record, and
// an error for unreadable records or an unknown severity token. Missing label
// and id records read as empty strings.
func (s *Store) Read(job string) (*types.JobResult, error) {
	if err := ValidateJobName(job); err != nil {
		return nil, err
	}
	dir := s.Dir(job)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	token, err := readRecord(filepath.Join(dir, FileResult))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", job, ErrNoResult)
	}
	if err != nil {
		return nil, err
	}
	sev, err := types.ParseSeverity(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job, err)
	}
	label, err := readOptional(filepath.Join(dir, FileErrorLabel))
	if err != nil {
		return nil, err
	}
	id, err := readOptional(filepath.Join(dir, FileJobID))
	if err != nil {
		return nil, err
	}
	return &types.JobResult{Name: job, Severity: sev, ErrorLabel: label, JobID: id}, nil
}

func readRecord(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readOptional(path string) (string, error) {
	v, err := readRecord(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	return v, err
}

func writeAtomic(path, value string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
