package project

import (
	"fmt"

	"github.com/duggerlink/dlt/internal/gitstate"
)

const (
	repositoryWeightConstant      = 20
	cleanlinessWeightConstant     = 30
	manifestWeightConstant        = 25
	gitignoreWeightConstant       = 10
	annotationsWeightConstant     = 15
	annotationPenaltyStepConstant = 3

	missingRepositoryFindingConstant = "directory is not a git repository"
	dirtyWorktreeFindingConstant     = "working tree has uncommitted changes"
	missingManifestFindingConstant   = "project manifest is missing"
	missingGitignoreFindingConstant  = "no .gitignore present"
	openAnnotationsFindingTemplate   = "%d unresolved task annotations"
)

// HealthInputs carries the signals the scorer weighs.
type HealthInputs struct {
	State           gitstate.RepositoryState
	HasManifest     bool
	HasGitignore    bool
	OpenAnnotations int
}

// HealthReport is the scored outcome of a health evaluation.
type HealthReport struct {
	Score    int
	Findings []string
}

// IsHealthy reports whether the score meets the provided threshold.
func (report HealthReport) IsHealthy(healthThreshold int) bool {
	return report.Score >= healthThreshold
}

// HealthScorer computes a 0-100 project health score from weighted hygiene
// signals. Repository presence and cleanliness dominate; manifest, gitignore
// and unresolved task annotations make up the rest.
type HealthScorer struct{}

// NewHealthScorer builds a scorer.
func NewHealthScorer() *HealthScorer {
	return &HealthScorer{}
}

// Score evaluates the inputs into a report. Findings name every signal that
// lost points, worst first.
func (scorer *HealthScorer) Score(inputs HealthInputs) HealthReport {
	healthScore := 0
	findings := []string{}

	if inputs.State.IsGitRepo {
		healthScore += repositoryWeightConstant
		if inputs.State.IsClean() {
			healthScore += cleanlinessWeightConstant
		} else {
			findings = append(findings, dirtyWorktreeFindingConstant)
		}
	} else {
		findings = append(findings, missingRepositoryFindingConstant)
	}

	if inputs.HasManifest {
		healthScore += manifestWeightConstant
	} else {
		findings = append(findings, missingManifestFindingConstant)
	}

	if inputs.HasGitignore {
		healthScore += gitignoreWeightConstant
	} else {
		findings = append(findings, missingGitignoreFindingConstant)
	}

	healthScore += annotationScore(inputs.OpenAnnotations)
	if inputs.OpenAnnotations > 0 {
		findings = append(findings, fmt.Sprintf(openAnnotationsFindingTemplate, inputs.OpenAnnotations))
	}

	return HealthReport{Score: healthScore, Findings: findings}
}

// annotationScore grants the full annotation weight for a quiet tree and
// removes points per open annotation down to zero.
func annotationScore(openAnnotations int) int {
	if openAnnotations <= 0 {
		return annotationsWeightConstant
	}
	penalizedScore := annotationsWeightConstant - openAnnotations*annotationPenaltyStepConstant
	if penalizedScore < 0 {
		return 0
	}
	return penalizedScore
}
