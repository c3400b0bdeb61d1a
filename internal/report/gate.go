package report

import "github.com/printgate/printgate/internal/types"

// ShouldFail reports whether a run with merged severity sev must end with a
// non-zero exit. Only callers that opted in with failOnError ever fail.
func ShouldFail(sev types.Severity, failOnError bool) bool {
	return failOnError && sev > types.SevSuccess
}
