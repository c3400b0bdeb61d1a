// Package engine contains the batch core of printgate. It discovers the
// artifacts a check applies to, invokes the check for each of them on a pool of
// workers, and reduces the per-artifact outcomes to one batch severity. This
// package is internal; external consumers should use the facade in pkg/core.
package engine
