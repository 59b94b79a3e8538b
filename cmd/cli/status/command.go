// Package status implements the read-only repository status subcommand.
package status

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/dependencies"
	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/gitinspect"
	"github.com/duggerlink/dlt/internal/gitstate"
	"github.com/duggerlink/dlt/internal/ui"
	flagutils "github.com/duggerlink/dlt/internal/utils/flags"
	pathutils "github.com/duggerlink/dlt/internal/utils/path"
)

const (
	commandUseConstant   = "status [path]"
	commandShortConstant = "Report repository state for a project directory"
	commandLongConstant  = "status inspects the directory with read-only git commands and prints the normalized repository record. Outside a repository every field carries its documented default."

	jsonFlagNameConstant  = "json"
	jsonFlagUsageConstant = "Emit the state record as JSON"

	remoteFlagUsageConstant = "Remote whose URL is reported"

	pathLineTemplateConstant      = "Path:      %s\n"
	summaryLineTemplateConstant   = "State:     %s\n"
	commitLineTemplateConstant    = "Commit:    %s\n"
	remoteLineTemplateConstant    = "Remote:    %s (%s)\n"
	rawRemoteLineTemplateConstant = "Remote:    %s\n"
	untrackedLineTemplateConstant = "Untracked: %s\n"
	jsonIndentConstant            = "  "

	resolveWorkingDirectoryErrorTemplate = "resolve working directory: %w"
	encodeRecordErrorTemplateConstant    = "encode state record: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandConfiguration stores configurable defaults for the status command.
type CommandConfiguration struct {
	Remote string `mapstructure:"remote"`
}

// DefaultConfigurationValues exposes the configuration defaults keyed under
// the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	return map[string]any{
		configurationPrefix + ".remote": "origin",
	}
}

// stateRecord is the JSON projection of a repository state.
type stateRecord struct {
	IsGitRepo      bool     `json:"is_git_repo"`
	Branch         string   `json:"branch"`
	IsDirty        bool     `json:"is_dirty"`
	CommitHash     string   `json:"commit_hash"`
	UntrackedFiles []string `json:"untracked_files"`
	CommitCount    int      `json:"commit_count"`
	RemoteURL      *string  `json:"remote_url"`
}

// CommandBuilder assembles the status cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	Inspector                    *gitinspect.Inspector
	GitExecutor                  gitinspect.GitExecutor
	WorkingDirectory             string

	jsonOutputEnabled bool
}

// Build constructs the cobra command for repository status reporting.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	flagutils.AddToggleFlag(command.Flags(), &builder.jsonOutputEnabled, jsonFlagNameConstant, "", false, jsonFlagUsageConstant)
	command.Flags().String(flagutils.RemoteFlagName, "", remoteFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	repositoryPath, pathError := builder.resolveRepositoryPath(arguments)
	if pathError != nil {
		return pathError
	}

	logger := resolveLogger(builder.LoggerProvider)
	inspector, inspectorError := builder.resolveInspector(logger, repositoryPath)
	if inspectorError != nil {
		return inspectorError
	}

	remoteName := builder.resolveRemoteName(command)
	inspectionSummary := inspector.Summarize(command.Context())
	if inspectionSummary.IsGitRepo && remoteName != "" {
		remoteAddress, remoteConfigured := inspector.RemoteURL(command.Context(), remoteName)
		inspectionSummary.RemoteURL = nil
		if remoteConfigured {
			inspectionSummary.RemoteURL = &remoteAddress
		}
	}
	repositoryState := gitstate.NewRepositoryState(inspectionSummary)

	if builder.jsonOutputEnabled {
		return writeRecord(command, repositoryState)
	}
	writeText(command, repositoryPath, repositoryState)
	return nil
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

func (builder *CommandBuilder) resolveInspector(logger *zap.Logger, repositoryPath string) (*gitinspect.Inspector, error) {
	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		observers := []execshell.CommandEventObserver{}
		if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
			observers = append(observers, ui.NewConsoleCommandEventLogger(logger, ui.ConsoleCommandEventLoggerOptions{DowngradeFailures: true}))
		}
		shellExecutor, executorError := dependencies.ResolveShellExecutor(nil, logger, observers...)
		if executorError != nil {
			return nil, executorError
		}
		gitExecutor = shellExecutor
	}
	return dependencies.ResolveInspector(builder.Inspector, repositoryPath, gitExecutor, gitinspect.InspectorOptions{})
}

func (builder *CommandBuilder) resolveRemoteName(command *cobra.Command) string {
	remoteFlagValue, _ := command.Flags().GetString(flagutils.RemoteFlagName)
	if len(remoteFlagValue) > 0 {
		return remoteFlagValue
	}
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Remote
	}
	return ""
}

func writeRecord(command *cobra.Command, repositoryState gitstate.RepositoryState) error {
	outputRecord := stateRecord{
		IsGitRepo:      repositoryState.IsGitRepo,
		Branch:         repositoryState.Branch,
		IsDirty:        repositoryState.IsDirty,
		CommitHash:     repositoryState.CommitHash,
		UntrackedFiles: repositoryState.UntrackedFiles,
		CommitCount:    repositoryState.CommitCount,
		RemoteURL:      repositoryState.RemoteURL,
	}
	recordEncoder := json.NewEncoder(command.OutOrStdout())
	recordEncoder.SetIndent("", jsonIndentConstant)
	if encodeError := recordEncoder.Encode(outputRecord); encodeError != nil {
		return fmt.Errorf(encodeRecordErrorTemplateConstant, encodeError)
	}
	return nil
}

func writeText(command *cobra.Command, repositoryPath string, repositoryState gitstate.RepositoryState) {
	outputWriter := command.OutOrStdout()
	fmt.Fprintf(outputWriter, pathLineTemplateConstant, repositoryPath)
	fmt.Fprintf(outputWriter, summaryLineTemplateConstant, repositoryState.StatusSummary())
	if !repositoryState.IsGitRepo {
		return
	}
	if len(repositoryState.ShortHash()) > 0 {
		fmt.Fprintf(outputWriter, commitLineTemplateConstant, repositoryState.ShortHash())
	}
	if remoteInfo, remoteResolved := repositoryState.Remote(); remoteResolved {
		fmt.Fprintf(outputWriter, remoteLineTemplateConstant, remoteInfo.URL, remoteInfo.Provider)
	} else if repositoryState.RemoteURL != nil {
		fmt.Fprintf(outputWriter, rawRemoteLineTemplateConstant, *repositoryState.RemoteURL)
	}
	if len(repositoryState.UntrackedFiles) > 0 {
		for _, untrackedFile := range repositoryState.UntrackedFiles {
			fmt.Fprintf(outputWriter, untrackedLineTemplateConstant, untrackedFile)
		}
	}
}

func resolveLogger(loggerProvider LoggerProvider) *zap.Logger {
	if loggerProvider == nil {
		return zap.NewNop()
	}
	logger := loggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
