// Package gitinspect reads repository state by shelling out to the git
// binary. Every lookup degrades to a safe default when the repository is
// missing, the command fails, or the output cannot be parsed; results are
// memoized per method with class-specific expirations so repeated probes of
// the same repository stay cheap.
package gitinspect
