package gitstate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/duggerlink/dlt/internal/gitinspect"
)

const (
	detachedHeadOutputConstant       = "HEAD"
	detachedBranchNameConstant       = "detached"
	unknownBranchNameConstant        = "unknown"
	nonRepositoryBranchNameConstant  = "none"
	minimumCommitHashLengthConstant  = 7
	notRepositoryDescriptionConstant = "not a git repository"
	cleanWorktreeLabelConstant       = "clean"
	dirtyWorktreeLabelConstant       = "dirty"
	statusSummaryTemplateConstant    = "branch %s, %s, %d commits"
	untrackedSuffixTemplateConstant  = " (%d untracked)"
)

// mainBranchNames lists branch names treated as primary integration branches.
var mainBranchNames = []string{"main", "master", "develop"}

var stateValidator = validator.New(validator.WithRequiredStructEnabled())

// RepositoryState is the normalized snapshot of one repository. Values are
// produced by NewRepositoryState and satisfy the declared validation tags by
// construction.
type RepositoryState struct {
	IsGitRepo      bool     `validate:"-"`
	Branch         string   `validate:"required"`
	IsDirty        bool     `validate:"-"`
	CommitHash     string   `validate:"omitempty,hexadecimal,min=7,lowercase"`
	UntrackedFiles []string `validate:"dive,min=1"`
	CommitCount    int      `validate:"min=0"`
	RemoteURL      *string  `validate:"omitempty,min=1"`
}

// BranchInfo reports branch facts for display surfaces.
type BranchInfo struct {
	Name       string
	IsDetached bool
	IsMain     bool
}

// RemoteInfo reports structured remote provenance for display surfaces.
type RemoteInfo struct {
	URL        string
	Host       string
	Owner      string
	Repository string
	Provider   RemoteProvider
}

// WorktreeStatus reports working tree facts for display surfaces.
type WorktreeStatus struct {
	IsDirty        bool
	UntrackedCount int
	Label          string
}

// NewRepositoryState sanitizes an inspection summary into a repository state.
// A summary is always normalized, never rejected: malformed fields fall back
// to their documented defaults.
func NewRepositoryState(inspectionSummary gitinspect.Summary) RepositoryState {
	if !inspectionSummary.IsGitRepo {
		return RepositoryState{
			IsGitRepo:      false,
			Branch:         nonRepositoryBranchNameConstant,
			IsDirty:        false,
			CommitHash:     "",
			UntrackedFiles: []string{},
			CommitCount:    0,
			RemoteURL:      nil,
		}
	}

	return RepositoryState{
		IsGitRepo:      true,
		Branch:         normalizeBranchName(inspectionSummary.Branch),
		IsDirty:        inspectionSummary.IsDirty,
		CommitHash:     normalizeCommitHash(inspectionSummary.CommitHash),
		UntrackedFiles: normalizeUntrackedFiles(inspectionSummary.UntrackedFiles),
		CommitCount:    clampCommitCount(inspectionSummary.CommitCount),
		RemoteURL:      normalizeRemoteURL(inspectionSummary.RemoteURL),
	}
}

// Validate re-checks the structural invariants NewRepositoryState guarantees.
func (state RepositoryState) Validate() error {
	return stateValidator.Struct(state)
}

// HasChanges reports whether the working tree differs from HEAD, counting
// untracked files.
func (state RepositoryState) HasChanges() bool {
	return state.IsDirty || len(state.UntrackedFiles) > 0
}

// IsClean reports whether the working tree matches HEAD with nothing
// untracked.
func (state RepositoryState) IsClean() bool {
	return !state.HasChanges()
}

// IsMainBranch reports whether the checked-out branch is a primary
// integration branch.
func (state RepositoryState) IsMainBranch() bool {
	for _, mainBranchName := range mainBranchNames {
		if state.Branch == mainBranchName {
			return true
		}
	}
	return false
}

// IsDetached reports whether the repository is in detached HEAD state.
func (state RepositoryState) IsDetached() bool {
	return state.Branch == detachedBranchNameConstant
}

// HasCommits reports whether the repository history contains at least one
// commit.
func (state RepositoryState) HasCommits() bool {
	return state.CommitCount > 0 && len(state.CommitHash) > 0
}

// ShortHash reports the abbreviated commit hash, or an empty string when no
// commit is known.
func (state RepositoryState) ShortHash() string {
	if len(state.CommitHash) < minimumCommitHashLengthConstant {
		return ""
	}
	return state.CommitHash[:minimumCommitHashLengthConstant]
}

// Branching reports branch facts for display surfaces.
func (state RepositoryState) Branching() BranchInfo {
	return BranchInfo{
		Name:       state.Branch,
		IsDetached: state.IsDetached(),
		IsMain:     state.IsMainBranch(),
	}
}

// Remote reports structured remote provenance. The second return value is
// false when no remote is configured or the URL cannot be parsed.
func (state RepositoryState) Remote() (RemoteInfo, bool) {
	if state.RemoteURL == nil {
		return RemoteInfo{}, false
	}
	parsedRemote, parseError := ParseRemoteURL(*state.RemoteURL)
	if parseError != nil {
		return RemoteInfo{}, false
	}
	return RemoteInfo{
		URL:        *state.RemoteURL,
		Host:       parsedRemote.Host,
		Owner:      parsedRemote.Owner,
		Repository: parsedRemote.Repository,
		Provider:   parsedRemote.Provider(),
	}, true
}

// Worktree reports working tree facts for display surfaces.
func (state RepositoryState) Worktree() WorktreeStatus {
	worktreeLabel := cleanWorktreeLabelConstant
	if state.HasChanges() {
		worktreeLabel = dirtyWorktreeLabelConstant
	}
	return WorktreeStatus{
		IsDirty:        state.IsDirty,
		UntrackedCount: len(state.UntrackedFiles),
		Label:          worktreeLabel,
	}
}

// StatusSummary renders a one-line human-readable description of the state.
func (state RepositoryState) StatusSummary() string {
	if !state.IsGitRepo {
		return notRepositoryDescriptionConstant
	}
	summaryLine := fmt.Sprintf(statusSummaryTemplateConstant, state.Branch, state.Worktree().Label, state.CommitCount)
	if len(state.UntrackedFiles) > 0 {
		summaryLine += fmt.Sprintf(untrackedSuffixTemplateConstant, len(state.UntrackedFiles))
	}
	return summaryLine
}

func normalizeBranchName(branchName string) string {
	trimmedBranch := strings.TrimSpace(branchName)
	if len(trimmedBranch) == 0 {
		return unknownBranchNameConstant
	}
	if trimmedBranch == detachedHeadOutputConstant {
		return detachedBranchNameConstant
	}
	return trimmedBranch
}

func normalizeCommitHash(commitHash string) string {
	loweredHash := strings.ToLower(strings.TrimSpace(commitHash))
	if len(loweredHash) < minimumCommitHashLengthConstant {
		return ""
	}
	for _, hashCharacter := range loweredHash {
		isDigit := hashCharacter >= '0' && hashCharacter <= '9'
		isHexLetter := hashCharacter >= 'a' && hashCharacter <= 'f'
		if !isDigit && !isHexLetter {
			return ""
		}
	}
	return loweredHash
}

func normalizeUntrackedFiles(untrackedFiles []string) []string {
	normalizedFiles := []string{}
	for _, untrackedFile := range untrackedFiles {
		trimmedFile := strings.TrimSpace(untrackedFile)
		if len(trimmedFile) > 0 {
			normalizedFiles = append(normalizedFiles, trimmedFile)
		}
	}
	return normalizedFiles
}

func clampCommitCount(commitCount int) int {
	if commitCount < 0 {
		return 0
	}
	return commitCount
}

func normalizeRemoteURL(remoteURL *string) *string {
	if remoteURL == nil {
		return nil
	}
	trimmedURL := strings.TrimSpace(*remoteURL)
	if len(trimmedURL) == 0 {
		return nil
	}
	return &trimmedURL
}
