// Package commit implements the guided conventional commit subcommand.
package commit

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/dependencies"
	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/gitinspect"
	"github.com/duggerlink/dlt/internal/gitstate"
	"github.com/duggerlink/dlt/internal/ui"
	"github.com/duggerlink/dlt/internal/utils"
	"github.com/duggerlink/dlt/internal/utils/flags"
	pathutils "github.com/duggerlink/dlt/internal/utils/path"
)

const (
	commandUseConstant   = "commit [path]"
	commandShortConstant = "Stage all changes and record a conventional commit"
	commandLongConstant  = "commit shows the repository status, prompts for a conventional commit message, and records the commit after confirmation. The working tree is staged in full before committing."

	branchLineTemplateConstant       = "Branch:    %s\n"
	worktreeLineTemplateConstant     = "Worktree:  %s\n"
	untrackedLineTemplateConstant    = "Untracked: %d\n"
	cleanTreeMessageConstant         = "Working tree is clean; nothing to commit.\n"
	dryRunMessageTemplateConstant    = "Dry run: would commit %q\n"
	abortedMessageConstant           = "Commit aborted.\n"
	committedMessageTemplateConstant = "Committed %s as %q\n"

	notRepositoryErrorTemplateConstant   = "%s is not a git repository"
	resolveWorkingDirectoryErrorTemplate = "resolve working directory: %w"

	stageArgumentConstant     = "add"
	stageAllFlagConstant      = "--all"
	commitArgumentConstant    = "commit"
	commitMessageFlagConstant = "-m"

	statusOnlyFlagNameConstant  = "status"
	statusOnlyFlagUsageConstant = "Show the repository status without committing"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// GitCommandExecutor combines the read-only queries the status display needs
// with the strict execution the staging and commit steps need.
type GitCommandExecutor interface {
	QueryGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandBuilder assembles the commit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	GitExecutor                  GitCommandExecutor
	WorkingDirectory             string

	statusOnlyEnabled bool
}

// Build constructs the cobra command for guided committing.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	flags.BindExecutionFlags(command, flags.ExecutionDefaults{}, flags.ExecutionFlagDefinitions{
		DryRun: flags.ExecutionFlagDefinition{
			Name:    flags.DryRunFlagName,
			Usage:   flags.DryRunFlagUsage,
			Enabled: true,
		},
		AssumeYes: flags.ExecutionFlagDefinition{
			Name:      flags.AssumeYesFlagName,
			Shorthand: flags.AssumeYesFlagShorthand,
			Usage:     flags.AssumeYesFlagUsage,
			Enabled:   true,
		},
	})
	flags.AddToggleFlag(command.Flags(), &builder.statusOnlyEnabled, statusOnlyFlagNameConstant, "", false, statusOnlyFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryPath, pathError := builder.resolveRepositoryPath(arguments)
	if pathError != nil {
		return pathError
	}

	logger := resolveLogger(builder.LoggerProvider)
	gitExecutor, executorError := builder.resolveGitExecutor(logger)
	if executorError != nil {
		return executorError
	}

	inspector, inspectorError := dependencies.ResolveInspector(nil, repositoryPath, gitExecutor, gitinspect.InspectorOptions{})
	if inspectorError != nil {
		return inspectorError
	}

	repositoryState := gitstate.NewRepositoryState(inspector.Summarize(command.Context()))
	if !repositoryState.IsGitRepo {
		return fmt.Errorf(notRepositoryErrorTemplateConstant, repositoryPath)
	}

	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	worktreeStatus := repositoryState.Worktree()
	fmt.Fprintf(outputWriter, branchLineTemplateConstant, repositoryState.Branch)
	fmt.Fprintf(outputWriter, worktreeLineTemplateConstant, worktreeStatus.Label)
	fmt.Fprintf(outputWriter, untrackedLineTemplateConstant, worktreeStatus.UntrackedCount)

	if builder.statusOnlyEnabled {
		return nil
	}

	if repositoryState.IsClean() {
		fmt.Fprint(outputWriter, cleanTreeMessageConstant)
		return nil
	}

	messagePrompter := NewMessagePrompter(command.InOrStdin(), outputWriter)
	commitMessage, promptError := messagePrompter.PromptMessage()
	if promptError != nil {
		return promptError
	}

	dryRunRequested, _ := command.Flags().GetBool(flags.DryRunFlagName)
	if dryRunRequested {
		fmt.Fprintf(outputWriter, dryRunMessageTemplateConstant, commitMessage)
		return nil
	}

	assumeYes, _ := command.Flags().GetBool(flags.AssumeYesFlagName)
	if !assumeYes {
		confirmed, confirmError := messagePrompter.Confirm(commitMessage)
		if confirmError != nil {
			return confirmError
		}
		if !confirmed {
			fmt.Fprint(outputWriter, abortedMessageConstant)
			return nil
		}
	}

	if stageError := builder.stageAll(command.Context(), gitExecutor, repositoryPath); stageError != nil {
		return stageError
	}
	if commitError := builder.recordCommit(command.Context(), gitExecutor, repositoryPath, commitMessage); commitError != nil {
		return commitError
	}

	inspector.ClearCaches()
	fmt.Fprintf(outputWriter, committedMessageTemplateConstant, inspector.LastCommitHash(command.Context()), commitMessage)
	return nil
}

func (builder *CommandBuilder) stageAll(executionContext context.Context, gitExecutor GitCommandExecutor, repositoryPath string) error {
	_, stageError := gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{stageArgumentConstant, stageAllFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	return stageError
}

func (builder *CommandBuilder) recordCommit(executionContext context.Context, gitExecutor GitCommandExecutor, repositoryPath string, commitMessage string) error {
	_, commitError := gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{commitArgumentConstant, commitMessageFlagConstant, commitMessage},
		WorkingDirectory: repositoryPath,
	})
	return commitError
}

func (builder *CommandBuilder) resolveGitExecutor(logger *zap.Logger) (GitCommandExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	observers := []execshell.CommandEventObserver{}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		observers = append(observers, ui.NewConsoleCommandEventLogger(logger, ui.ConsoleCommandEventLoggerOptions{DowngradeFailures: true}))
	}
	return dependencies.ResolveShellExecutor(nil, logger, observers...)
}

func (builder *CommandBuilder) resolveRepositoryPath(arguments []string) (string, error) {
	if len(arguments) > 0 {
		sanitizedPaths := pathutils.NewRepositoryPathSanitizer().Sanitize(arguments)
		if len(sanitizedPaths) > 0 {
			return sanitizedPaths[0], nil
		}
	}
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(resolveWorkingDirectoryErrorTemplate, workingDirectoryError)
	}
	return workingDirectory, nil
}

func resolveLogger(loggerProvider LoggerProvider) *zap.Logger {
	if loggerProvider != nil {
		if providedLogger := loggerProvider(); providedLogger != nil {
			return providedLogger
		}
	}
	return zap.NewNop()
}
