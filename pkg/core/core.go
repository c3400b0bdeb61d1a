package core

import (
	"context"

	"github.com/printgate/printgate/internal/aggregate"
	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/result"
	"github.com/printgate/printgate/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.Config
type Check = engine.Check
type FuncCheck = engine.FuncCheck
type Verdict = engine.Verdict
type Result = engine.Result
type Artifact = types.Artifact
type Column = types.Column
type Outcome = types.Outcome
type Severity = types.Severity
type JobResult = types.JobResult
type AggregateReport = types.AggregateReport
type AggregateOptions = aggregate.Options

const (
	Success   = types.SevSuccess
	Warning   = types.SevWarning
	Failure   = types.SevFailure
	Exception = types.SevException
)

// Scan discovers artifacts under cfg.Root and runs chk over them.
func Scan(ctx context.Context, cfg Config, chk Check) (Result, error) {
	return engine.Scan(ctx, cfg, chk)
}

// Merge returns the most severe of sevs, Success for none.
func Merge(sevs ...Severity) Severity { return types.Merge(sevs...) }

// Persist records r under dir so that a later Aggregate call can read it.
func Persist(dir string, r JobResult) error {
	return result.NewStore(dir).Write(r)
}

// Aggregate reads every job result persisted under dir and returns the merged
// report together with the rendered PR comment.
func Aggregate(ctx context.Context, dir string, opts AggregateOptions) (AggregateReport, string, error) {
	store := result.NewStore(dir)
	reg, err := aggregate.Collect(ctx, aggregate.DirLister{Dir: dir}, store)
	if err != nil {
		return AggregateReport{}, "", err
	}
	rep := aggregate.Aggregate(reg, opts)
	return rep, aggregate.Comment(rep), nil
}
