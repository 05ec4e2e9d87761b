// Package feedwise implements the concurrent pet-food analysis engine: it
// fans out per-product scoring calls to a slow remote scoring service under
// a staggered submission policy, tracks live progress for polling callers,
// substitutes deterministic fallback scores for failed calls, and aggregates
// the results into two tie-break-stable rankings plus an anonymous display
// mapping.
package feedwise
