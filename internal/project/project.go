package project

import (
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/duggerlink/dlt/internal/gitstate"
)

var projectValidator = validator.New(validator.WithRequiredStructEnabled())

// Project describes one managed project directory.
type Project struct {
	Name         string            `validate:"required"`
	Path         string            `validate:"required"`
	Capabilities []string          `validate:"dive,lowercase,min=1"`
	Metadata     map[string]string `validate:"-"`
	State        *gitstate.RepositoryState
}

// NewProject builds a project rooted at the provided path. Capabilities are
// lower-cased and blank entries dropped; a blank name falls back to the path
// base name.
func NewProject(projectName string, projectPath string, capabilities []string) Project {
	resolvedName := strings.TrimSpace(projectName)
	if len(resolvedName) == 0 {
		resolvedName = filepath.Base(projectPath)
	}

	normalizedCapabilities := []string{}
	for _, capabilityName := range capabilities {
		trimmedCapability := strings.ToLower(strings.TrimSpace(capabilityName))
		if len(trimmedCapability) > 0 {
			normalizedCapabilities = append(normalizedCapabilities, trimmedCapability)
		}
	}

	return Project{
		Name:         resolvedName,
		Path:         projectPath,
		Capabilities: normalizedCapabilities,
		Metadata:     map[string]string{},
	}
}

// Validate re-checks the structural invariants NewProject guarantees.
func (managedProject Project) Validate() error {
	return projectValidator.Struct(managedProject)
}

// HasCapability reports whether the project declares the named capability.
// The comparison is case-insensitive.
func (managedProject Project) HasCapability(capabilityName string) bool {
	normalizedCapability := strings.ToLower(strings.TrimSpace(capabilityName))
	for _, declaredCapability := range managedProject.Capabilities {
		if declaredCapability == normalizedCapability {
			return true
		}
	}
	return false
}

// WithState returns a copy of the project carrying the provided repository
// state.
func (managedProject Project) WithState(repositoryState gitstate.RepositoryState) Project {
	updatedProject := managedProject
	updatedProject.State = &repositoryState
	return updatedProject
}
