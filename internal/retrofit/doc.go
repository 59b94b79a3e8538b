// Package retrofit brings existing directories under project management. An
// assessment lists which expected components a directory is missing, and
// applying a retrofit injects templates for the missing files without ever
// overwriting existing content or mutating repository state.
package retrofit
