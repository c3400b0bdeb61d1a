// Package aggregate reduces the persisted results of every job of one
// pipeline run into a pull request comment and a label decision.
//
// Discovery of job locations (a Lister) and interpretation of what is found
// there (Collect) are separate steps; the registry they produce is the only
// input to Aggregate.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/github"
	"github.com/printgate/printgate/internal/result"
	"github.com/printgate/printgate/internal/types"
)

// JobRef names one job of the run. ID is a fallback for results persisted
// without a job identifier.
type JobRef struct {
	Name string
	ID   string
}

// Lister enumerates the jobs of the run being aggregated.
type Lister interface {
	ListJobs(ctx context.Context) ([]JobRef, error)
}

// DirLister lists the sub-directories of the store root, sorted by name.
type DirLister struct {
	Dir string
}

func (l DirLister) ListJobs(context.Context) ([]JobRef, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read job directory: %w", err)
	}
	var refs []JobRef
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			refs = append(refs, JobRef{Name: e.Name()})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// RunJobsClient is the GitHub capability APILister needs.
type RunJobsClient interface {
	ListRunJobs(ctx context.Context, runID int64) ([]github.Job, error)
}

// APILister lists the jobs of a workflow run through the GitHub API, in API
// order. Matrix and reusable-workflow jobs ("name / step") are reduced to
// their first segment; duplicates keep their first position.
type APILister struct {
	Client RunJobsClient
	RunID  int64
}

func (l APILister) ListJobs(ctx context.Context) ([]JobRef, error) {
	jobs, err := l.Client.ListRunJobs(ctx, l.RunID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var refs []JobRef
	for _, j := range jobs {
		name := strings.TrimSpace(strings.SplitN(j.Name, "/", 2)[0])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		refs = append(refs, JobRef{Name: name, ID: strconv.FormatInt(j.ID, 10)})
	}
	return refs, nil
}

// State classifies a registry entry.
type State int

const (
	StateAbsent State = iota
	StatePresent
	StateUnreadable
)

func (s State) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateUnreadable:
		return "unreadable"
	default:
		return "absent"
	}
}

// Entry is what Collect found for one job. Result is set only for
// StatePresent, Err only for StateUnreadable.
type Entry struct {
	Ref    JobRef
	State  State
	Result types.JobResult
	Err    error
}

// Registry holds one entry per listed job, in listing order.
type Registry []Entry

// Present returns the results of all present jobs in registry order.
func (r Registry) Present() []types.JobResult {
	var out []types.JobResult
	for _, e := range r {
		if e.State == StatePresent {
			out = append(out, e.Result)
		}
	}
	return out
}

// Collect lists the run's jobs and reads each job's result from store. Only a
// listing failure is returned; a job whose records are missing or unreadable
// is logged and recorded as absent or unreadable.
func Collect(ctx context.Context, l Lister, store *result.Store) (Registry, error) {
	refs, err := l.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	reg := make(Registry, 0, len(refs))
	for _, ref := range refs {
		log := logrus.WithField("job", ref.Name)
		e := Entry{Ref: ref}
		res, err := store.Read(ref.Name)
		switch {
		case errors.Is(err, result.ErrNoResult):
			log.Info("job directory has no result, skipping")
		case err != nil:
			e.State = StateUnreadable
			e.Err = err
			log.WithError(err).Warn("could not read job result, treating as absent")
		case res == nil:
			log.Info("job produced no result")
		default:
			e.State = StatePresent
			e.Result = *res
			if e.Result.JobID == "" {
				e.Result.JobID = ref.ID
			}
			log.Debugf("job result %s", res.Severity)
		}
		reg = append(reg, e)
	}
	return reg, nil
}
