package project

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	goModuleMarkerConstant         = "go.mod"
	pythonRequirementsConstant     = "requirements.txt"
	pythonProjectMarkerConstant    = "pyproject.toml"
	dockerfileMarkerConstant       = "Dockerfile"
	makefileMarkerConstant         = "Makefile"
	goCapabilityNameConstant       = "go"
	pythonCapabilityNameConstant   = "python"
	dockerCapabilityNameConstant   = "docker"
	makeCapabilityNameConstant     = "make"
	gitCapabilityNameConstant      = "git"
	capabilitiesFieldNameConstant  = "capabilities"
	projectPathFieldNameConstant   = "path"
	detectionDoneMessageConstant   = "Capability detection completed"
)

// RepositoryProber answers whether a directory sits inside a git repository.
type RepositoryProber interface {
	IsRepository(executionContext context.Context) bool
}

// capabilityMarkers maps marker files to the capability they indicate.
var capabilityMarkers = []struct {
	markerFileName string
	capabilityName string
}{
	{markerFileName: goModuleMarkerConstant, capabilityName: goCapabilityNameConstant},
	{markerFileName: pythonRequirementsConstant, capabilityName: pythonCapabilityNameConstant},
	{markerFileName: pythonProjectMarkerConstant, capabilityName: pythonCapabilityNameConstant},
	{markerFileName: dockerfileMarkerConstant, capabilityName: dockerCapabilityNameConstant},
	{markerFileName: makefileMarkerConstant, capabilityName: makeCapabilityNameConstant},
}

// DetectCapabilities probes the project directory for toolchain markers and
// repository presence. Each capability appears at most once.
func DetectCapabilities(executionContext context.Context, logger *zap.Logger, projectPath string, repositoryProber RepositoryProber) []string {
	detectedCapabilities := []string{}
	seenCapabilities := map[string]struct{}{}

	for _, markerProbe := range capabilityMarkers {
		if _, alreadySeen := seenCapabilities[markerProbe.capabilityName]; alreadySeen {
			continue
		}
		if _, statError := os.Stat(filepath.Join(projectPath, markerProbe.markerFileName)); statError != nil {
			continue
		}
		seenCapabilities[markerProbe.capabilityName] = struct{}{}
		detectedCapabilities = append(detectedCapabilities, markerProbe.capabilityName)
	}

	if repositoryProber != nil && repositoryProber.IsRepository(executionContext) {
		detectedCapabilities = append(detectedCapabilities, gitCapabilityNameConstant)
	}

	if logger != nil {
		logger.Debug(detectionDoneMessageConstant,
			zap.String(projectPathFieldNameConstant, projectPath),
			zap.Strings(capabilitiesFieldNameConstant, detectedCapabilities),
		)
	}
	return detectedCapabilities
}
