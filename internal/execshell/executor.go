package execshell

import (
	"context"
	"errors"
	"os/exec"

	"go.uber.org/zap"
)

const (
	gitToolNameConstant                        = "git"
	loggerNotConfiguredMessageConstant         = "logger not configured"
	commandRunnerNotConfiguredMessageConstant  = "command runner not configured"
	commandArgumentsRequiredMessageConstant    = "command arguments required"
	logFieldCommandNameConstant                = "command_name"
	logFieldCommandArgumentsConstant           = "command_arguments"
	logFieldWorkingDirectoryConstant           = "working_directory"
	logFieldExitCodeConstant                   = "exit_code"
)

// CommandName identifies a supported executable.
type CommandName string

// CommandGit names the git executable.
const CommandGit CommandName = CommandName(gitToolNameConstant)

// CommandDetails describes a single tool invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with specific invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Sentinel construction errors.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	ErrCommandArgumentsRequired   = errors.New(commandArgumentsRequiredMessageConstant)
)

// ShellExecutor coordinates command execution, logging, and failure classification.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	formatter CommandMessageFormatter
	observer  CommandEventObserver
}

// NewShellExecutor constructs a ShellExecutor with the provided logger, runner, and optional observers.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	var observer CommandEventObserver = noopCommandEventObserver{}
	for _, candidateObserver := range observers {
		if candidateObserver != nil {
			observer = candidateObserver
			break
		}
	}

	return &ShellExecutor{
		logger:    logger,
		runner:    runner,
		formatter: CommandMessageFormatter{},
		observer:  observer,
	}, nil
}

// ExecuteGit runs git with the provided details and fails on non-zero exits.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// QueryGit runs git with the provided details without treating non-zero exits as failures.
func (executor *ShellExecutor) QueryGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Query(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the command strictly: a non-zero exit code is reported as CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executionResult, runError := executor.run(executionContext, command)
	if runError != nil {
		return ExecutionResult{}, runError
	}

	if executionResult.ExitCode != 0 {
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	return executionResult, nil
}

// Query runs the command in the read-only mode: non-zero exits are returned inside the result.
func (executor *ShellExecutor) Query(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	return executor.run(executionContext, command)
}

func (executor *ShellExecutor) run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(command.Details.Arguments) == 0 {
		return ExecutionResult{}, ErrCommandArgumentsRequired
	}

	executor.observer.CommandStarted(command)
	executor.logger.Debug(
		executor.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		classifiedError := executor.classifyRunError(command, runError)
		executor.observer.CommandExecutionFailed(command, classifiedError)
		executor.logger.Debug(
			executor.formatter.BuildExecutionFailureMessage(command, classifiedError),
			zap.String(logFieldCommandNameConstant, string(command.Name)),
			zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		)
		return ExecutionResult{}, classifiedError
	}

	executor.observer.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			executor.formatter.BuildFailureMessage(command, executionResult),
			zap.String(logFieldCommandNameConstant, string(command.Name)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return executionResult, nil
	}

	executor.logger.Debug(
		executor.formatter.BuildSuccessMessage(command),
		zap.String(logFieldCommandNameConstant, string(command.Name)),
	)
	return executionResult, nil
}

func (executor *ShellExecutor) classifyRunError(command ShellCommand, runError error) error {
	if errors.Is(runError, exec.ErrNotFound) {
		return ToolNotFoundError{Tool: command.Name, Cause: runError}
	}
	return CommandExecutionError{Command: command, Cause: runError}
}
