// Package staging owns the per-run scratch directories that hold converted
// JPEGs before muxing, plus maintenance helpers for leftovers of runs that
// were killed before they could clean up.
package staging
