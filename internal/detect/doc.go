// Package detect picks the chapter pages out of an already-extracted list of
// image candidates. It scores every candidate, groups them by URL lineage and
// orientation-invariant size, rates each group and returns the winning
// selection together with a per-candidate audit trail.
//
// The package performs no I/O and never mutates its input; every call builds
// its own temporary state, so concurrent calls need no locking.
package detect
