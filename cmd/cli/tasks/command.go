// Package tasks implements the task annotation report subcommand.
package tasks

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/manifest"
	taskscan "github.com/duggerlink/dlt/internal/tasks"
	pathutils "github.com/duggerlink/dlt/internal/utils/path"
)

const (
	commandUseConstant   = "tasks [path]"
	commandShortConstant = "Report task annotations found in source files"
	commandLongConstant  = "tasks scans a project tree for TODO, FIXME, NOTE, HACK, and XXX annotations and renders a markdown report grouped by tag."

	extensionsFlagNameConstant  = "extensions"
	extensionsFlagUsageConstant = "File extensions to scan (overrides the manifest task_scan settings)"
	skipFlagNameConstant        = "skip"
	skipFlagUsageConstant       = "Directory names to skip while scanning (overrides the manifest task_scan settings)"

	resolveWorkingDirectoryErrorTemplate = "resolve working directory: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandConfiguration stores configurable defaults for the tasks command.
type CommandConfiguration struct {
	Extensions      []string `mapstructure:"extensions"`
	SkipDirectories []string `mapstructure:"skip_directories"`
}

// DefaultConfigurationValues exposes the configuration defaults keyed under
// the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	return map[string]any{
		configurationPrefix + ".extensions":       []string{},
		configurationPrefix + ".skip_directories": []string{},
	}
}

// CommandBuilder assembles the tasks cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	WorkingDirectory      string
}

// Build constructs the cobra command for annotation reporting.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().StringSlice(extensionsFlagNameConstant, nil, extensionsFlagUsageConstant)
	command.Flags().StringSlice(skipFlagNameConstant, nil, skipFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	projectPath, pathError := builder.resolveProjectPath(arguments)
	if pathError != nil {
		return pathError
	}

	logger := resolveLogger(builder.LoggerProvider)
	scannerOptions := builder.resolveScannerOptions(command, projectPath)

	taskScanner, scannerError := taskscan.NewScanner(logger, scannerOptions)
	if scannerError != nil {
		return scannerError
	}

	foundAnnotations, scanError := taskScanner.Scan(projectPath)
	if scanError != nil {
		return scanError
	}

	fmt.Fprint(command.OutOrStdout(), taskscan.RenderMarkdown(foundAnnotations))
	return nil
}

// resolveScannerOptions layers flag values over configuration values over the
// project manifest's task_scan settings.
func (builder *CommandBuilder) resolveScannerOptions(command *cobra.Command, projectPath string) taskscan.ScannerOptions {
	scannerOptions := builder.manifestScannerOptions(projectPath)

	if builder.ConfigurationProvider != nil {
		configuration := builder.ConfigurationProvider()
		if len(configuration.Extensions) > 0 {
			scannerOptions.Extensions = configuration.Extensions
		}
		if len(configuration.SkipDirectories) > 0 {
			scannerOptions.SkipDirectories = configuration.SkipDirectories
		}
	}

	if flagExtensions, _ := command.Flags().GetStringSlice(extensionsFlagNameConstant); len(flagExtensions) > 0 {
		scannerOptions.Extensions = flagExtensions
	}
	if flagSkipDirectories, _ := command.Flags().GetStringSlice(skipFlagNameConstant); len(flagSkipDirectories) > 0 {
		scannerOptions.SkipDirectories = flagSkipDirectories
	}

	return scannerOptions
}

func (builder *CommandBuilder) manifestScannerOptions(projectPath string) taskscan.ScannerOptions {
	manifestPath := filepath.Join(projectPath, manifest.ManifestFileName)
	if _, statError := os.Stat(manifestPath); statError != nil {
		defaultManifest := manifest.Default(filepath.Base(projectPath))
		return taskscan.ScannerOptions{
			Extensions:      defaultManifest.TaskScan.Extensions,
			SkipDirectories: defaultManifest.TaskScan.SkipDirectories,
		}
	}

	schemaValidator, validatorError := manifest.NewSchemaValidator()
	if validatorError != nil {
		return taskscan.ScannerOptions{}
	}
	loadedManifest, loadError := manifest.Load(manifestPath, schemaValidator)
	if loadError != nil {
		return taskscan.ScannerOptions{}
	}
	return taskscan.ScannerOptions{
		Extensions:      loadedManifest.TaskScan.Extensions,
		SkipDirectories: loadedManifest.TaskScan.SkipDirectories,
	}
}

func (builder *CommandBuilder) resolveProjectPath(arguments []string) (string, error) {
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
