package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/types"
)

// Check validates a single artifact. Implementations report problems they
// found through the returned Verdict; an error means the check itself could
// not run.
type Check interface {
	Name() string
	Columns() []types.Column
	Run(ctx context.Context, a types.Artifact) (Verdict, error)
}

// Verdict is what a check reports on normal completion.
type Verdict struct {
	Severity types.Severity
	Values   map[string]string
	Detail   string
}

// FuncCheck adapts a plain function to the Check interface.
type FuncCheck struct {
	ID   string
	Cols []types.Column
	Fn   func(ctx context.Context, a types.Artifact) (Verdict, error)
}

func (c FuncCheck) Name() string            { return c.ID }
func (c FuncCheck) Columns() []types.Column { return c.Cols }
func (c FuncCheck) Run(ctx context.Context, a types.Artifact) (Verdict, error) {
	return c.Fn(ctx, a)
}

// Invoke runs chk against a and always returns an Outcome. Errors and panics
// raised by the check, or by anything it calls, become SevException outcomes
// carrying the failure text in Detail.
func Invoke(ctx context.Context, chk Check, a types.Artifact) (out types.Outcome) {
	out = types.Outcome{Artifact: a, Check: chk.Name()}
	entry := logrus.WithFields(logrus.Fields{"check": chk.Name(), "artifact": a.Path})

	defer func() {
		if r := recover(); r != nil {
			out.Severity = types.SevException
			out.Values = nil
			out.Detail = fmt.Sprintf("panic: %v", r)
			entry.Errorf("check panicked: %v", r)
		}
	}()

	entry.Info("checking")
	v, err := chk.Run(ctx, a)
	if err != nil {
		out.Severity = types.SevException
		out.Detail = err.Error()
		entry.WithError(err).Error("a fatal error occurred during checking")
		return out
	}

	out.Severity = v.Severity
	out.Values = cloneValues(v.Values)
	out.Detail = v.Detail
	if out.Severity == types.SevException && out.Detail == "" {
		out.Detail = "check reported an exception without details"
	}
	switch out.Severity {
	case types.SevSuccess:
		entry.Info("no issues found")
	case types.SevWarning:
		entry.Warn("check produced a warning")
	default:
		entry.Errorf("check result: %s", out.Severity)
	}
	return out
}

func cloneValues(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
