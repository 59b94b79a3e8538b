package retrofit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/manifest"
)

const (
	gitignoreFileNameConstant       = ".gitignore"
	manifestComponentNameConstant   = "manifest"
	gitignoreComponentNameConstant  = "gitignore"
	repositoryComponentNameConstant = "repository"

	manifestTemplateNameConstant = "manifest"
	manifestTemplateConstant     = `name: {{ .ProjectName }}
version: {{ .Version }}
health_threshold: {{ .HealthThreshold }}
`
	gitignoreTemplateNameConstant = "gitignore"
	gitignoreTemplateConstant     = `# Build artifacts
bin/
dist/

# Editor state
.idea/
.vscode/

# Environment
.env
`

	initializeRepositoryAdviceConstant = "run 'git init' to bring this directory under version control"

	renderTemplateErrorTemplateConstant = "render %s template: %w"
	writeComponentErrorTemplateConstant = "write %s: %w"
	componentFieldNameConstant          = "component"
	projectPathFieldNameConstant        = "path"
	componentInjectedMessageConstant    = "Injected missing component"
	defaultManifestVersionConstant      = "0.1.0"
)

// ErrEngineLoggerNotConfigured indicates the engine was constructed without
// a logger.
var ErrEngineLoggerNotConfigured = errors.New("retrofit engine logger not configured")

// ErrRepositoryProberNotConfigured indicates the engine was constructed
// without a repository prober.
var ErrRepositoryProberNotConfigured = errors.New("retrofit repository prober not configured")

// RepositoryProber answers whether a directory sits inside a git repository.
type RepositoryProber interface {
	IsRepository(executionContext context.Context) bool
}

// Assessment reports which expected components a directory already has and
// which a retrofit would add. Recommendations describe actions the engine
// deliberately leaves to the operator.
type Assessment struct {
	ProjectPath        string
	ExistingComponents []string
	MissingComponents  []string
	Recommendations    []string
}

// NeedsRetrofit reports whether applying would change the directory.
func (assessment Assessment) NeedsRetrofit() bool {
	for _, missingComponent := range assessment.MissingComponents {
		if missingComponent != repositoryComponentNameConstant {
			return true
		}
	}
	return false
}

// ApplyResult lists the files an apply pass created.
type ApplyResult struct {
	CreatedFiles []string
}

type manifestTemplateData struct {
	ProjectName     string
	Version         string
	HealthThreshold int
}

// Engine assesses directories and injects missing project scaffolding.
type Engine struct {
	logger            *zap.Logger
	repositoryProber  RepositoryProber
	manifestTemplate  *template.Template
	gitignoreTemplate *template.Template
}

// NewEngine builds a retrofit engine.
func NewEngine(logger *zap.Logger, repositoryProber RepositoryProber) (*Engine, error) {
	if logger == nil {
		return nil, ErrEngineLoggerNotConfigured
	}
	if repositoryProber == nil {
		return nil, ErrRepositoryProberNotConfigured
	}

	return &Engine{
		logger:            logger,
		repositoryProber:  repositoryProber,
		manifestTemplate:  template.Must(template.New(manifestTemplateNameConstant).Parse(manifestTemplateConstant)),
		gitignoreTemplate: template.Must(template.New(gitignoreTemplateNameConstant).Parse(gitignoreTemplateConstant)),
	}, nil
}

// Assess inspects the directory for the expected components. A missing
// repository is reported and turned into a recommendation; the engine never
// initializes repositories itself.
func (engine *Engine) Assess(executionContext context.Context, projectPath string) Assessment {
	directoryAssessment := Assessment{
		ProjectPath:        projectPath,
		ExistingComponents: []string{},
		MissingComponents:  []string{},
		Recommendations:    []string{},
	}

	if engine.repositoryProber.IsRepository(executionContext) {
		directoryAssessment.ExistingComponents = append(directoryAssessment.ExistingComponents, repositoryComponentNameConstant)
	} else {
		directoryAssessment.MissingComponents = append(directoryAssessment.MissingComponents, repositoryComponentNameConstant)
		directoryAssessment.Recommendations = append(directoryAssessment.Recommendations, initializeRepositoryAdviceConstant)
	}

	if fileExists(filepath.Join(projectPath, manifest.ManifestFileName)) {
		directoryAssessment.ExistingComponents = append(directoryAssessment.ExistingComponents, manifestComponentNameConstant)
	} else {
		directoryAssessment.MissingComponents = append(directoryAssessment.MissingComponents, manifestComponentNameConstant)
	}

	if fileExists(filepath.Join(projectPath, gitignoreFileNameConstant)) {
		directoryAssessment.ExistingComponents = append(directoryAssessment.ExistingComponents, gitignoreComponentNameConstant)
	} else {
		directoryAssessment.MissingComponents = append(directoryAssessment.MissingComponents, gitignoreComponentNameConstant)
	}

	return directoryAssessment
}

// Apply injects templates for the components the assessment found missing.
// Existing files are never touched and repository initialization is never
// performed.
func (engine *Engine) Apply(executionContext context.Context, projectPath string) (ApplyResult, error) {
	directoryAssessment := engine.Assess(executionContext, projectPath)
	applyResult := ApplyResult{CreatedFiles: []string{}}

	for _, missingComponent := range directoryAssessment.MissingComponents {
		switch missingComponent {
		case manifestComponentNameConstant:
			manifestPath := filepath.Join(projectPath, manifest.ManifestFileName)
			renderedManifest, renderError := engine.renderManifest(filepath.Base(projectPath))
			if renderError != nil {
				return applyResult, renderError
			}
			if writeError := writeNewFile(manifestPath, renderedManifest); writeError != nil {
				return applyResult, fmt.Errorf(writeComponentErrorTemplateConstant, manifestPath, writeError)
			}
			applyResult.CreatedFiles = append(applyResult.CreatedFiles, manifestPath)
			engine.logger.Info(componentInjectedMessageConstant,
				zap.String(componentFieldNameConstant, manifestComponentNameConstant),
				zap.String(projectPathFieldNameConstant, projectPath),
			)
		case gitignoreComponentNameConstant:
			gitignorePath := filepath.Join(projectPath, gitignoreFileNameConstant)
			var renderedGitignore strings.Builder
			if renderError := engine.gitignoreTemplate.Execute(&renderedGitignore, nil); renderError != nil {
				return applyResult, fmt.Errorf(renderTemplateErrorTemplateConstant, gitignoreComponentNameConstant, renderError)
			}
			if writeError := writeNewFile(gitignorePath, renderedGitignore.String()); writeError != nil {
				return applyResult, fmt.Errorf(writeComponentErrorTemplateConstant, gitignorePath, writeError)
			}
			applyResult.CreatedFiles = append(applyResult.CreatedFiles, gitignorePath)
			engine.logger.Info(componentInjectedMessageConstant,
				zap.String(componentFieldNameConstant, gitignoreComponentNameConstant),
				zap.String(projectPathFieldNameConstant, projectPath),
			)
		}
	}

	return applyResult, nil
}

func (engine *Engine) renderManifest(projectName string) (string, error) {
	templateData := manifestTemplateData{
		ProjectName:     projectName,
		Version:         defaultManifestVersionConstant,
		HealthThreshold: manifest.Default(projectName).EffectiveHealthThreshold(),
	}
	var renderedManifest strings.Builder
	if renderError := engine.manifestTemplate.Execute(&renderedManifest, templateData); renderError != nil {
		return "", fmt.Errorf(renderTemplateErrorTemplateConstant, manifestComponentNameConstant, renderError)
	}
	return renderedManifest.String(), nil
}

func fileExists(filePath string) bool {
	fileInformation, statError := os.Stat(filePath)
	return statError == nil && !fileInformation.IsDir()
}

// writeNewFile creates the file only when it does not already exist.
func writeNewFile(filePath string, fileContents string) error {
	fileHandle, openError := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if openError != nil {
		return openError
	}
	defer fileHandle.Close()
	_, writeError := fileHandle.WriteString(fileContents)
	return writeError
}
