// Package core provides a small, stable facade over printgate's internal
// engine for external integrations: run a check over a directory, persist the
// job result and aggregate the results of a pipeline run.
//
// Example:
//
//	chk := core.FuncCheck{ID: "size", Fn: myCheck}
//	res, err := core.Scan(ctx, core.Config{Root: "designs", Extensions: []string{".stl"}}, chk)
//	if err != nil { /* handle */ }
//	_ = core.Persist("results", core.JobResult{Name: "size", Severity: res.Severity})
package core
