// Package types defines the shared data model for the feedwise analysis
// engine: pet profiles, candidate products, normalized score records, and
// the progress snapshots observed by polling callers.
package types
