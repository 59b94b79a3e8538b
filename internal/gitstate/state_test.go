package gitstate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duggerlink/dlt/internal/gitinspect"
	"github.com/duggerlink/dlt/internal/gitstate"
)

const (
	testFullCommitHashConstant  = "A1B2C3D4E5F6A7B8A1B2C3D4E5F6A7B8A1B2C3D4"
	testShortCommitHashConstant = "a1b2c3d"
	testGitHubRemoteConstant    = "git@github.com:duggerlink/dlt.git"
	testGitLabRemoteConstant    = "https://gitlab.com/duggerlink/dlt.git"
)

func stringPointer(value string) *string {
	return &value
}

func repositorySummary(mutators ...func(*gitinspect.Summary)) gitinspect.Summary {
	baseSummary := gitinspect.Summary{
		IsGitRepo:      true,
		Branch:         "main",
		IsDirty:        false,
		CommitHash:     testFullCommitHashConstant,
		UntrackedFiles: []string{},
		CommitCount:    12,
		RemoteURL:      stringPointer(testGitHubRemoteConstant),
	}
	for _, mutate := range mutators {
		mutate(&baseSummary)
	}
	return baseSummary
}

func TestNewRepositoryStateNormalization(testInstance *testing.T) {
	testCases := []struct {
		name          string
		summary       gitinspect.Summary
		expectedState gitstate.RepositoryState
	}{
		{
			name: "non_repository_forces_defaults",
			summary: gitinspect.Summary{
				IsGitRepo:      false,
				Branch:         "main",
				IsDirty:        true,
				CommitHash:     testFullCommitHashConstant,
				UntrackedFiles: []string{"stray.txt"},
				CommitCount:    9,
				RemoteURL:      stringPointer(testGitHubRemoteConstant),
			},
			expectedState: gitstate.RepositoryState{
				IsGitRepo:      false,
				Branch:         "none",
				IsDirty:        false,
				CommitHash:     "",
				UntrackedFiles: []string{},
				CommitCount:    0,
				RemoteURL:      nil,
			},
		},
		{
			name: "detached_head_marker_becomes_detached",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.Branch = "HEAD"
			}),
			expectedState: gitstate.RepositoryState{
				IsGitRepo:      true,
				Branch:         "detached",
				CommitHash:     "a1b2c3d4e5f6a7b8a1b2c3d4e5f6a7b8a1b2c3d4",
				UntrackedFiles: []string{},
				CommitCount:    12,
				RemoteURL:      stringPointer(testGitHubRemoteConstant),
			},
		},
		{
			name: "blank_branch_becomes_unknown",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.Branch = "   "
			}),
			expectedState: gitstate.RepositoryState{
				IsGitRepo:      true,
				Branch:         "unknown",
				CommitHash:     "a1b2c3d4e5f6a7b8a1b2c3d4e5f6a7b8a1b2c3d4",
				UntrackedFiles: []string{},
				CommitCount:    12,
				RemoteURL:      stringPointer(testGitHubRemoteConstant),
			},
		},
		{
			name: "malformed_fields_fall_back",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.CommitHash = "xyz123"
				summary.UntrackedFiles = []string{" notes.txt ", "   ", "docs/plan.md"}
				summary.CommitCount = -4
				summary.RemoteURL = stringPointer("   ")
			}),
			expectedState: gitstate.RepositoryState{
				IsGitRepo:      true,
				Branch:         "main",
				CommitHash:     "",
				UntrackedFiles: []string{"notes.txt", "docs/plan.md"},
				CommitCount:    0,
				RemoteURL:      nil,
			},
		},
		{
			name: "upper_case_hash_is_lowered",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.CommitHash = " " + testFullCommitHashConstant + " "
			}),
			expectedState: gitstate.RepositoryState{
				IsGitRepo:      true,
				Branch:         "main",
				CommitHash:     "a1b2c3d4e5f6a7b8a1b2c3d4e5f6a7b8a1b2c3d4",
				UntrackedFiles: []string{},
				CommitCount:    12,
				RemoteURL:      stringPointer(testGitHubRemoteConstant),
			},
		},
		{
			name: "abbreviated_hash_is_accepted",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.CommitHash = testShortCommitHashConstant
			}),
			expectedState: gitstate.RepositoryState{
				IsGitRepo:      true,
				Branch:         "main",
				CommitHash:     testShortCommitHashConstant,
				UntrackedFiles: []string{},
				CommitCount:    12,
				RemoteURL:      stringPointer(testGitHubRemoteConstant),
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repositoryState := gitstate.NewRepositoryState(testCase.summary)
			require.Equal(testInstance, testCase.expectedState, repositoryState)
			require.NoError(testInstance, repositoryState.Validate())
		})
	}
}

func TestRepositoryStateDerivedQueries(testInstance *testing.T) {
	testCases := []struct {
		name               string
		summary            gitinspect.Summary
		expectedHasChanges bool
		expectedClean      bool
		expectedMainBranch bool
		expectedDetached   bool
		expectedHasCommits bool
	}{
		{
			name:               "clean_main_branch",
			summary:            repositorySummary(),
			expectedHasChanges: false,
			expectedClean:      true,
			expectedMainBranch: true,
			expectedHasCommits: true,
		},
		{
			name: "untracked_files_count_as_changes",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.UntrackedFiles = []string{"notes.txt"}
			}),
			expectedHasChanges: true,
			expectedClean:      false,
			expectedMainBranch: true,
			expectedHasCommits: true,
		},
		{
			name: "dirty_feature_branch",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.Branch = "feature/login"
				summary.IsDirty = true
			}),
			expectedHasChanges: true,
			expectedClean:      false,
			expectedMainBranch: false,
			expectedHasCommits: true,
		},
		{
			name: "develop_counts_as_main",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.Branch = "develop"
			}),
			expectedClean:      true,
			expectedMainBranch: true,
			expectedHasCommits: true,
		},
		{
			name: "detached_head_without_history",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.Branch = "HEAD"
				summary.CommitHash = ""
				summary.CommitCount = 0
			}),
			expectedClean:    true,
			expectedDetached: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repositoryState := gitstate.NewRepositoryState(testCase.summary)
			require.Equal(testInstance, testCase.expectedHasChanges, repositoryState.HasChanges())
			require.Equal(testInstance, testCase.expectedClean, repositoryState.IsClean())
			require.Equal(testInstance, testCase.expectedMainBranch, repositoryState.IsMainBranch())
			require.Equal(testInstance, testCase.expectedDetached, repositoryState.IsDetached())
			require.Equal(testInstance, testCase.expectedHasCommits, repositoryState.HasCommits())
		})
	}
}

func TestRepositoryStateShortHash(testInstance *testing.T) {
	repositoryState := gitstate.NewRepositoryState(repositorySummary())
	require.Equal(testInstance, "a1b2c3d", repositoryState.ShortHash())

	emptyHashState := gitstate.NewRepositoryState(repositorySummary(func(summary *gitinspect.Summary) {
		summary.CommitHash = ""
	}))
	require.Equal(testInstance, "", emptyHashState.ShortHash())
}

func TestRepositoryStateBranching(testInstance *testing.T) {
	repositoryState := gitstate.NewRepositoryState(repositorySummary(func(summary *gitinspect.Summary) {
		summary.Branch = "HEAD"
	}))

	branchInfo := repositoryState.Branching()

	require.Equal(testInstance, gitstate.BranchInfo{Name: "detached", IsDetached: true, IsMain: false}, branchInfo)
}

func TestRepositoryStateRemote(testInstance *testing.T) {
	testCases := []struct {
		name             string
		remoteURL        *string
		expectedInfo     gitstate.RemoteInfo
		expectedResolved bool
	}{
		{
			name:      "github_ssh_remote",
			remoteURL: stringPointer(testGitHubRemoteConstant),
			expectedInfo: gitstate.RemoteInfo{
				URL:        testGitHubRemoteConstant,
				Host:       "github.com",
				Owner:      "duggerlink",
				Repository: "dlt",
				Provider:   gitstate.RemoteProviderGitHub,
			},
			expectedResolved: true,
		},
		{
			name:      "gitlab_https_remote",
			remoteURL: stringPointer(testGitLabRemoteConstant),
			expectedInfo: gitstate.RemoteInfo{
				URL:        testGitLabRemoteConstant,
				Host:       "gitlab.com",
				Owner:      "duggerlink",
				Repository: "dlt",
				Provider:   gitstate.RemoteProviderGitLab,
			},
			expectedResolved: true,
		},
		{
			name:             "missing_remote",
			remoteURL:        nil,
			expectedResolved: false,
		},
		{
			name:             "unparseable_remote",
			remoteURL:        stringPointer("not-a-remote"),
			expectedResolved: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repositoryState := gitstate.NewRepositoryState(repositorySummary(func(summary *gitinspect.Summary) {
				summary.RemoteURL = testCase.remoteURL
			}))

			remoteInfo, remoteResolved := repositoryState.Remote()

			require.Equal(testInstance, testCase.expectedResolved, remoteResolved)
			if testCase.expectedResolved {
				require.Equal(testInstance, testCase.expectedInfo, remoteInfo)
			}
		})
	}
}

func TestRepositoryStateStatusSummary(testInstance *testing.T) {
	testCases := []struct {
		name            string
		summary         gitinspect.Summary
		expectedSummary string
	}{
		{
			name:            "not_a_repository",
			summary:         gitinspect.Summary{IsGitRepo: false},
			expectedSummary: "not a git repository",
		},
		{
			name:            "clean_repository",
			summary:         repositorySummary(),
			expectedSummary: "branch main, clean, 12 commits",
		},
		{
			name: "dirty_repository_with_untracked_files",
			summary: repositorySummary(func(summary *gitinspect.Summary) {
				summary.IsDirty = true
				summary.UntrackedFiles = []string{"notes.txt", "docs/plan.md"}
			}),
			expectedSummary: "branch main, dirty, 12 commits (2 untracked)",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repositoryState := gitstate.NewRepositoryState(testCase.summary)
			require.Equal(testInstance, testCase.expectedSummary, repositoryState.StatusSummary())
		})
	}
}

func TestRepositoryStateWorktree(testInstance *testing.T) {
	dirtyState := gitstate.NewRepositoryState(repositorySummary(func(summary *gitinspect.Summary) {
		summary.UntrackedFiles = []string{"notes.txt"}
	}))
	require.Equal(testInstance, gitstate.WorktreeStatus{IsDirty: false, UntrackedCount: 1, Label: "dirty"}, dirtyState.Worktree())

	cleanState := gitstate.NewRepositoryState(repositorySummary())
	require.Equal(testInstance, gitstate.WorktreeStatus{IsDirty: false, UntrackedCount: 0, Label: "clean"}, cleanState.Worktree())
}
