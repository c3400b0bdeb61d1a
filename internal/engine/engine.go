package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/printgate/printgate/internal/types"
)

// Config controls artifact selection and batch parallelism.
type Config struct {
	Root            string
	Extensions      []string // case-insensitive suffix filter, e.g. ".stl"
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxArtifacts    int // 0 = unlimited
	DefaultExcludes bool
	Threads         int // 0 = GOMAXPROCS

	// OnOutcome, when set, receives every outcome exactly once and in input
	// order, as soon as all earlier outcomes are complete. It is called from
	// the goroutine running the batch.
	OnOutcome func(types.Outcome)
}

// Result is the reduced outcome of one batch.
type Result struct {
	Check     string
	Outcomes  []types.Outcome // same order as the input artifacts
	Severity  types.Severity
	Skipped   bool // no artifacts were discovered
	Duration  time.Duration
	Discovery Discovery
}

// Counts returns the number of outcomes per severity.
func (r Result) Counts() map[types.Severity]int {
	counts := map[types.Severity]int{}
	for _, o := range r.Outcomes {
		counts[o.Severity]++
	}
	return counts
}

func determineWorkers(threads, items int) int {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > items {
		threads = items
	}
	if threads < 1 {
		threads = 1
	}
	return threads
}

// Scan discovers artifacts under cfg.Root and runs chk over them. Only a
// discovery failure is returned as an error; per-artifact problems are part
// of the Result.
func Scan(ctx context.Context, cfg Config, chk Check) (Result, error) {
	d, err := Discover(cfg)
	if err != nil {
		return Result{Check: chk.Name()}, err
	}
	res := Run(ctx, cfg, chk, d.Artifacts)
	res.Discovery = d
	return res, nil
}

// Run invokes chk once per artifact on a pool of cfg.Threads workers and waits
// for all of them. A slow artifact only occupies its own worker. Outcomes are
// collected in input order regardless of completion order, and the batch
// severity is the merge of all outcome severities. An empty artifact list
// yields a Skipped result.
func Run(ctx context.Context, cfg Config, chk Check, arts []types.Artifact) Result {
	res := Result{Check: chk.Name()}
	if len(arts) == 0 {
		res.Skipped = true
		return res
	}
	started := time.Now()

	type indexed struct {
		idx int
		out types.Outcome
	}
	workers := determineWorkers(cfg.Threads, len(arts))
	jobs := make(chan int)
	done := make(chan indexed, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				done <- indexed{idx: i, out: Invoke(ctx, chk, arts[i])}
			}
		}()
	}
	go func() {
		for i := range arts {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		close(done)
	}()

	res.Outcomes = make([]types.Outcome, len(arts))
	pending := make(map[int]types.Outcome)
	next := 0
	for r := range done {
		pending[r.idx] = r.out
		for {
			o, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			res.Outcomes[next] = o
			if cfg.OnOutcome != nil {
				cfg.OnOutcome(o)
			}
			next++
		}
	}

	res.Severity = types.MergeOutcomes(res.Outcomes)
	res.Duration = time.Since(started)
	return res
}
