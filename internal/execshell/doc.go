// Package execshell provides structured helpers for invoking the git binary.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions dlt uses to run git
// in a testable manner. Execute methods are strict and surface typed failures;
// Query methods implement the read-only contract where a non-zero exit is
// reported through the result rather than an error.
package execshell
