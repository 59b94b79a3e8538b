package execshell

import (
	"fmt"
	"strings"
)

const (
	toolNotFoundErrorTemplateConstant     = "%s executable not found: %s"
	toolNotFoundUnknownCauseConstant      = "executable missing from PATH"
	commandFailedErrorTemplateConstant    = "%s %s failed with exit code %d%s"
	commandExecutionErrorTemplateConstant = "%s %s could not be executed: %s"
	errorArgumentsJoinSeparatorConstant   = " "
	errorStandardErrorSuffixTemplate      = ": %s"
)

// ToolNotFoundError indicates the external executable is absent from the execution environment.
type ToolNotFoundError struct {
	Tool  CommandName
	Cause error
}

// Error describes the missing executable.
func (notFoundError ToolNotFoundError) Error() string {
	causeDescription := toolNotFoundUnknownCauseConstant
	if notFoundError.Cause != nil {
		causeDescription = notFoundError.Cause.Error()
	}
	return fmt.Sprintf(toolNotFoundErrorTemplateConstant, notFoundError.Tool, causeDescription)
}

// Unwrap exposes the underlying lookup failure.
func (notFoundError ToolNotFoundError) Unwrap() error {
	return notFoundError.Cause
}

// CommandFailedError indicates the tool ran but returned a non-zero exit status.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including its argument vector and captured error text.
func (failedError CommandFailedError) Error() string {
	standardErrorSuffix := ""
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(errorStandardErrorSuffixTemplate, trimmedStandardError)
	}
	return fmt.Sprintf(
		commandFailedErrorTemplateConstant,
		failedError.Command.Name,
		strings.Join(failedError.Command.Details.Arguments, errorArgumentsJoinSeparatorConstant),
		failedError.Result.ExitCode,
		standardErrorSuffix,
	)
}

// CommandExecutionError indicates the process could not be run at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	causeDescription := unknownFailureMessageConstant
	if executionError.Cause != nil {
		causeDescription = executionError.Cause.Error()
	}
	return fmt.Sprintf(
		commandExecutionErrorTemplateConstant,
		executionError.Command.Name,
		strings.Join(executionError.Command.Details.Arguments, errorArgumentsJoinSeparatorConstant),
		causeDescription,
	)
}

// Unwrap exposes the underlying process error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}
