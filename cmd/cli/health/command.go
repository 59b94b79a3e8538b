// Package health implements the project health scoring subcommand.
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/dependencies"
	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/gitinspect"
	"github.com/duggerlink/dlt/internal/gitstate"
	"github.com/duggerlink/dlt/internal/manifest"
	"github.com/duggerlink/dlt/internal/project"
	"github.com/duggerlink/dlt/internal/tasks"
	"github.com/duggerlink/dlt/internal/ui"
	pathutils "github.com/duggerlink/dlt/internal/utils/path"
)

const (
	commandUseConstant   = "health [path]"
	commandShortConstant = "Score project hygiene for a directory"
	commandLongConstant  = "health evaluates repository cleanliness, manifest presence, gitignore coverage, and open task annotations into a 0-100 score."

	thresholdFlagNameConstant  = "threshold"
	thresholdFlagUsageConstant = "Score required to report the project as healthy (0 uses the manifest value)"

	gitignoreFileNameConstant = ".gitignore"

	projectLineTemplateConstant      = "Project:      %s\n"
	capabilitiesLineTemplateConstant = "Capabilities: %s\n"
	scoreLineTemplateConstant        = "Score:        %d/100 (threshold %d)\n"
	verdictLineTemplateConstant      = "Verdict:      %s\n"
	findingLineTemplateConstant      = "  - %s\n"
	findingsHeaderConstant           = "Findings:\n"
	healthyVerdictConstant           = "healthy"
	unhealthyVerdictConstant         = "unhealthy"
	noCapabilitiesPlaceholder        = "none detected"
	capabilitiesJoinSeparator        = ", "

	resolveWorkingDirectoryErrorTemplate = "resolve working directory: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandConfiguration stores configurable defaults for the health command.
type CommandConfiguration struct {
	Threshold int `mapstructure:"threshold"`
}

// DefaultConfigurationValues exposes the configuration defaults keyed under
// the provided prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	return map[string]any{
		configurationPrefix + ".threshold": 0,
	}
}

// CommandBuilder assembles the health cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	GitExecutor                  gitinspect.GitExecutor
	WorkingDirectory             string
}

// Build constructs the cobra command for project health evaluation.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().Int(thresholdFlagNameConstant, 0, thresholdFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	projectPath, pathError := builder.resolveProjectPath(arguments)
	if pathError != nil {
		return pathError
	}

	logger := resolveLogger(builder.LoggerProvider)
	inspector, inspectorError := builder.resolveInspector(logger, projectPath)
	if inspectorError != nil {
		return inspectorError
	}

	repositoryState := gitstate.NewRepositoryState(inspector.Summarize(command.Context()))

	projectManifest, manifestPresent, manifestError := builder.loadManifest(projectPath)
	if manifestError != nil {
		return manifestError
	}

	taskScanner, scannerError := tasks.NewScanner(logger, tasks.ScannerOptions{
		Extensions:      projectManifest.TaskScan.Extensions,
		SkipDirectories: projectManifest.TaskScan.SkipDirectories,
	})
	if scannerError != nil {
		return scannerError
	}
	foundAnnotations, scanError := taskScanner.Scan(projectPath)
	if scanError != nil {
		return scanError
	}

	detectedCapabilities := project.DetectCapabilities(command.Context(), logger, projectPath, inspector)
	evaluatedProject := project.NewProject(projectManifest.Name, projectPath, detectedCapabilities).WithState(repositoryState)

	healthReport := project.NewHealthScorer().Score(project.HealthInputs{
		State:           repositoryState,
		HasManifest:     manifestPresent,
		HasGitignore:    fileExists(filepath.Join(projectPath, gitignoreFileNameConstant)),
		OpenAnnotations: len(foundAnnotations),
	})

	healthThreshold := builder.resolveThreshold(command, projectManifest)
	builder.writeReport(command, evaluatedProject, healthReport, healthThreshold)
	return nil
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

func (builder *CommandBuilder) resolveInspector(logger *zap.Logger, projectPath string) (*gitinspect.Inspector, error) {
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
	return dependencies.ResolveInspector(nil, projectPath, gitExecutor, gitinspect.InspectorOptions{})
}

func (builder *CommandBuilder) loadManifest(projectPath string) (manifest.Manifest, bool, error) {
	manifestPath := filepath.Join(projectPath, manifest.ManifestFileName)
	if !fileExists(manifestPath) {
		return manifest.Default(filepath.Base(projectPath)), false, nil
	}
	schemaValidator, validatorError := manifest.NewSchemaValidator()
	if validatorError != nil {
		return manifest.Manifest{}, false, validatorError
	}
	loadedManifest, loadError := manifest.Load(manifestPath, schemaValidator)
	if loadError != nil {
		return manifest.Manifest{}, false, loadError
	}
	return loadedManifest, true, nil
}

func (builder *CommandBuilder) resolveThreshold(command *cobra.Command, projectManifest manifest.Manifest) int {
	thresholdFlagValue, _ := command.Flags().GetInt(thresholdFlagNameConstant)
	if thresholdFlagValue > 0 {
		return thresholdFlagValue
	}
	if builder.ConfigurationProvider != nil {
		if configuredThreshold := builder.ConfigurationProvider().Threshold; configuredThreshold > 0 {
			return configuredThreshold
		}
	}
	return projectManifest.EffectiveHealthThreshold()
}

func (builder *CommandBuilder) writeReport(command *cobra.Command, evaluatedProject project.Project, healthReport project.HealthReport, healthThreshold int) {
	outputWriter := command.OutOrStdout()

	capabilitiesText := noCapabilitiesPlaceholder
	if len(evaluatedProject.Capabilities) > 0 {
		capabilitiesText = strings.Join(evaluatedProject.Capabilities, capabilitiesJoinSeparator)
	}

	verdictText := unhealthyVerdictConstant
	if healthReport.IsHealthy(healthThreshold) {
		verdictText = healthyVerdictConstant
	}

	fmt.Fprintf(outputWriter, projectLineTemplateConstant, evaluatedProject.Name)
	fmt.Fprintf(outputWriter, capabilitiesLineTemplateConstant, capabilitiesText)
	fmt.Fprintf(outputWriter, scoreLineTemplateConstant, healthReport.Score, healthThreshold)
	fmt.Fprintf(outputWriter, verdictLineTemplateConstant, verdictText)
	if len(healthReport.Findings) > 0 {
		fmt.Fprint(outputWriter, findingsHeaderConstant)
		for _, reportedFinding := range healthReport.Findings {
			fmt.Fprintf(outputWriter, findingLineTemplateConstant, reportedFinding)
		}
	}
}

func fileExists(filePath string) bool {
	fileInformation, statError := os.Stat(filePath)
	return statError == nil && !fileInformation.IsDir()
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
