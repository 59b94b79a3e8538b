package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFileName is the manifest file looked up in a project root.
	ManifestFileName = "dugger.yaml"

	defaultManifestVersionConstant = "0.1.0"
	defaultHealthThresholdConstant = 70
	readManifestErrorTemplate      = "read manifest %s: %w"
	decodeManifestErrorTemplate    = "decode manifest %s: %w"
)

// defaultTaskScanExtensions lists file extensions scanned for task
// annotations when the manifest does not override them.
var defaultTaskScanExtensions = []string{".go", ".py", ".sh", ".md", ".yaml", ".yml"}

// defaultTaskScanSkipDirectories lists directories excluded from task
// scanning when the manifest does not override them.
var defaultTaskScanSkipDirectories = []string{".git", "vendor", "node_modules", "__pycache__", ".venv"}

// TaskScanSettings tunes the task annotation scanner.
type TaskScanSettings struct {
	Extensions      []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	SkipDirectories []string `yaml:"skip_directories,omitempty" json:"skip_directories,omitempty"`
}

// Manifest is the decoded dugger.yaml project manifest.
type Manifest struct {
	Name            string           `yaml:"name" json:"name"`
	Version         string           `yaml:"version" json:"version"`
	Description     string           `yaml:"description,omitempty" json:"description,omitempty"`
	Capabilities    []string         `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	HealthThreshold int              `yaml:"health_threshold,omitempty" json:"health_threshold,omitempty"`
	TaskScan        TaskScanSettings `yaml:"task_scan,omitempty" json:"task_scan,omitempty"`
}

// Default returns the manifest applied to projects without a dugger.yaml.
func Default(projectName string) Manifest {
	return Manifest{
		Name:            projectName,
		Version:         defaultManifestVersionConstant,
		HealthThreshold: defaultHealthThresholdConstant,
		TaskScan: TaskScanSettings{
			Extensions:      append([]string{}, defaultTaskScanExtensions...),
			SkipDirectories: append([]string{}, defaultTaskScanSkipDirectories...),
		},
	}
}

// Load reads, decodes, and validates the manifest at the provided path.
func Load(manifestPath string, schemaValidator *SchemaValidator) (Manifest, error) {
	manifestContents, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return Manifest{}, fmt.Errorf(readManifestErrorTemplate, manifestPath, readError)
	}

	manifestDecoder := yaml.NewDecoder(bytes.NewReader(manifestContents))
	manifestDecoder.KnownFields(true)
	var decodedManifest Manifest
	if decodeError := manifestDecoder.Decode(&decodedManifest); decodeError != nil {
		return Manifest{}, fmt.Errorf(decodeManifestErrorTemplate, manifestPath, decodeError)
	}

	if validationError := schemaValidator.Validate(decodedManifest); validationError != nil {
		return Manifest{}, validationError
	}

	return decodedManifest.withDefaults(), nil
}

// EffectiveHealthThreshold reports the configured health threshold.
func (projectManifest Manifest) EffectiveHealthThreshold() int {
	return projectManifest.HealthThreshold
}

func (projectManifest Manifest) withDefaults() Manifest {
	resolvedManifest := projectManifest
	if resolvedManifest.HealthThreshold == 0 {
		resolvedManifest.HealthThreshold = defaultHealthThresholdConstant
	}
	if len(resolvedManifest.TaskScan.Extensions) == 0 {
		resolvedManifest.TaskScan.Extensions = append([]string{}, defaultTaskScanExtensions...)
	}
	if len(resolvedManifest.TaskScan.SkipDirectories) == 0 {
		resolvedManifest.TaskScan.SkipDirectories = append([]string{}, defaultTaskScanSkipDirectories...)
	}
	return resolvedManifest
}
