// Package gitstate models normalized repository state. Raw inspection
// summaries are sanitized into RepositoryState values with guaranteed
// invariants, and remote URLs are parsed into structured form for hosting
// provider detection.
package gitstate
