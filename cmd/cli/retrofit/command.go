// Package retrofit implements the scaffolding injection subcommand.
package retrofit

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/dependencies"
	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/gitinspect"
	"github.com/duggerlink/dlt/internal/retrofit"
	"github.com/duggerlink/dlt/internal/ui"
	"github.com/duggerlink/dlt/internal/utils/flags"
	pathutils "github.com/duggerlink/dlt/internal/utils/path"
)

const (
	commandUseConstant   = "retrofit [path]"
	commandShortConstant = "Inject missing project scaffolding into a directory"
	commandLongConstant  = "retrofit assesses a directory for expected project components and injects the missing manifest and gitignore files. Existing files are never modified and repositories are never initialized."

	assessmentPathTemplateConstant    = "Assessment for %s\n"
	existingLineTemplateConstant      = "  existing: %s\n"
	missingLineTemplateConstant       = "  missing:  %s\n"
	recommendationTemplateConstant    = "  advice:   %s\n"
	nothingMissingMessageConstant     = "Nothing to retrofit.\n"
	dryRunPreviewTemplateConstant     = "Dry run: would inject %s\n"
	createdFileTemplateConstant       = "Created %s\n"
	componentListSeparatorConstant    = ", "
	noComponentsPlaceholderConstant   = "none"
	injectableComponentsJoinConstant  = ", "
	repositoryComponentNameConstant   = "repository"
	resolveWorkingDirectoryErrorsText = "resolve working directory: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the retrofit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	GitExecutor                  gitinspect.GitExecutor
	WorkingDirectory             string
}

// Build constructs the cobra command for scaffolding injection.
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
	})

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

	retrofitEngine, engineError := retrofit.NewEngine(logger, inspector)
	if engineError != nil {
		return engineError
	}

	outputWriter := command.OutOrStdout()
	directoryAssessment := retrofitEngine.Assess(command.Context(), projectPath)
	writeAssessment(outputWriter, directoryAssessment)

	if !directoryAssessment.NeedsRetrofit() {
		fmt.Fprint(outputWriter, nothingMissingMessageConstant)
		return nil
	}

	dryRunRequested, _ := command.Flags().GetBool(flags.DryRunFlagName)
	if dryRunRequested {
		fmt.Fprintf(outputWriter, dryRunPreviewTemplateConstant, strings.Join(injectableComponents(directoryAssessment), injectableComponentsJoinConstant))
		return nil
	}

	applyResult, applyError := retrofitEngine.Apply(command.Context(), projectPath)
	if applyError != nil {
		return applyError
	}
	for _, createdFile := range applyResult.CreatedFiles {
		fmt.Fprintf(outputWriter, createdFileTemplateConstant, createdFile)
	}
	return nil
}

func writeAssessment(outputWriter io.Writer, directoryAssessment retrofit.Assessment) {
	fmt.Fprintf(outputWriter, assessmentPathTemplateConstant, directoryAssessment.ProjectPath)
	fmt.Fprintf(outputWriter, existingLineTemplateConstant, joinComponents(directoryAssessment.ExistingComponents))
	fmt.Fprintf(outputWriter, missingLineTemplateConstant, joinComponents(directoryAssessment.MissingComponents))
	for _, operatorRecommendation := range directoryAssessment.Recommendations {
		fmt.Fprintf(outputWriter, recommendationTemplateConstant, operatorRecommendation)
	}
}

// injectableComponents filters out components the engine only advises on.
func injectableComponents(directoryAssessment retrofit.Assessment) []string {
	injectable := []string{}
	for _, missingComponent := range directoryAssessment.MissingComponents {
		if missingComponent == repositoryComponentNameConstant {
			continue
		}
		injectable = append(injectable, missingComponent)
	}
	return injectable
}

func joinComponents(componentNames []string) string {
	if len(componentNames) == 0 {
		return noComponentsPlaceholderConstant
	}
	return strings.Join(componentNames, componentListSeparatorConstant)
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
		return "", fmt.Errorf(resolveWorkingDirectoryErrorsText, workingDirectoryError)
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

func resolveLogger(loggerProvider LoggerProvider) *zap.Logger {
	if loggerProvider != nil {
		if providedLogger := loggerProvider(); providedLogger != nil {
			return providedLogger
		}
	}
	return zap.NewNop()
}
