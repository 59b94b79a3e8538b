package gitinspect_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/gitinspect"
)

const (
	testRepositoryPathConstant            = "/workspace/example"
	testRepositoryProbeCommandConstant    = "rev-parse --git-dir"
	testBranchCommandConstant             = "rev-parse --abbrev-ref HEAD"
	testHashCommandConstant               = "rev-parse HEAD"
	testDirtyCommandConstant              = "status --porcelain --untracked-files=no"
	testStatusCommandConstant             = "status --porcelain"
	testUntrackedCommandConstant          = "status --porcelain --untracked-files=normal"
	testStagedDiffCommandConstant         = "diff --cached --name-only"
	testUnstagedDiffCommandConstant       = "diff --name-only"
	testCommitCountCommandConstant        = "rev-list HEAD --count"
	testOriginRemoteCommandConstant       = "remote get-url origin"
	testUpstreamRemoteCommandConstant     = "remote get-url upstream"
	testExampleBranchNameConstant         = "feature/login"
	testExampleCommitHashConstant         = "a1b2c3d4e5f6a7b8a1b2c3d4e5f6a7b8a1b2c3d4"
	testExampleRemoteURLConstant          = "git@github.com:duggerlink/dlt.git"
	testMissingRepositoryExitCodeConstant = 128
)

type scriptedGitExecutor struct {
	responses        map[string]execshell.ExecutionResult
	executionErrors  map[string]error
	recordedCommands []string
}

func (executor *scriptedGitExecutor) QueryGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	commandKey := strings.Join(details.Arguments, " ")
	executor.recordedCommands = append(executor.recordedCommands, commandKey)
	if executionError, errorScripted := executor.executionErrors[commandKey]; errorScripted {
		return execshell.ExecutionResult{}, executionError
	}
	if scriptedResult, resultScripted := executor.responses[commandKey]; resultScripted {
		return scriptedResult, nil
	}
	return execshell.ExecutionResult{ExitCode: testMissingRepositoryExitCodeConstant}, nil
}

func (executor *scriptedGitExecutor) commandCount(commandKey string) int {
	matchingCommands := 0
	for _, recordedCommand := range executor.recordedCommands {
		if recordedCommand == commandKey {
			matchingCommands++
		}
	}
	return matchingCommands
}

func successfulResult(standardOutput string) execshell.ExecutionResult {
	return execshell.ExecutionResult{StandardOutput: standardOutput, ExitCode: 0}
}

func newTestInspector(testInstance *testing.T, gitExecutor gitinspect.GitExecutor) *gitinspect.Inspector {
	testInstance.Helper()
	inspectorInstance, creationError := gitinspect.NewInspector(testRepositoryPathConstant, gitExecutor, gitinspect.InspectorOptions{})
	require.NoError(testInstance, creationError)
	return inspectorInstance
}

func TestNewInspectorValidation(testInstance *testing.T) {
	testCases := []struct {
		name           string
		repositoryPath string
		gitExecutor    gitinspect.GitExecutor
		expectedError  error
	}{
		{
			name:           "missing_repository_path",
			repositoryPath: "  ",
			gitExecutor:    &scriptedGitExecutor{},
			expectedError:  gitinspect.ErrRepositoryPathRequired,
		},
		{
			name:           "missing_git_executor",
			repositoryPath: testRepositoryPathConstant,
			gitExecutor:    nil,
			expectedError:  gitinspect.ErrGitExecutorNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			inspectorInstance, creationError := gitinspect.NewInspector(testCase.repositoryPath, testCase.gitExecutor, gitinspect.InspectorOptions{})
			require.Nil(testInstance, inspectorInstance)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestIsRepositoryProbesEveryCall(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testRepositoryProbeCommandConstant: successfulResult(".git"),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	require.True(testInstance, inspectorInstance.IsRepository(context.Background()))
	require.True(testInstance, inspectorInstance.IsRepository(context.Background()))
	require.Equal(testInstance, 2, gitExecutor.commandCount(testRepositoryProbeCommandConstant))
}

func TestIsRepositoryReportsFalseOutsideRepository(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	require.False(testInstance, inspectorInstance.IsRepository(context.Background()))
}

func TestCurrentBranch(testInstance *testing.T) {
	testCases := []struct {
		name           string
		branchResult   execshell.ExecutionResult
		executionError error
		expectedBranch string
	}{
		{
			name:           "named_branch",
			branchResult:   successfulResult(testExampleBranchNameConstant + "\n"),
			expectedBranch: testExampleBranchNameConstant,
		},
		{
			name:           "detached_head_marker",
			branchResult:   successfulResult("HEAD\n"),
			expectedBranch: "HEAD",
		},
		{
			name:           "failed_lookup_reports_unknown",
			branchResult:   execshell.ExecutionResult{ExitCode: testMissingRepositoryExitCodeConstant},
			expectedBranch: "unknown",
		},
		{
			name:           "executor_error_reports_unknown",
			executionError: errors.New("tool missing"),
			expectedBranch: "unknown",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{
				responses:       map[string]execshell.ExecutionResult{testBranchCommandConstant: testCase.branchResult},
				executionErrors: map[string]error{},
			}
			if testCase.executionError != nil {
				gitExecutor.executionErrors[testBranchCommandConstant] = testCase.executionError
			}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			require.Equal(testInstance, testCase.expectedBranch, inspectorInstance.CurrentBranch(context.Background()))
		})
	}
}

func TestCurrentBranchMemoizesLookups(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testBranchCommandConstant: successfulResult(testExampleBranchNameConstant),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	require.Equal(testInstance, testExampleBranchNameConstant, inspectorInstance.CurrentBranch(context.Background()))
	require.Equal(testInstance, testExampleBranchNameConstant, inspectorInstance.CurrentBranch(context.Background()))
	require.Equal(testInstance, 1, gitExecutor.commandCount(testBranchCommandConstant))
}

func TestLastCommitHash(testInstance *testing.T) {
	testCases := []struct {
		name         string
		hashResult   execshell.ExecutionResult
		expectedHash string
	}{
		{
			name:         "existing_commit",
			hashResult:   successfulResult(testExampleCommitHashConstant + "\n"),
			expectedHash: testExampleCommitHashConstant,
		},
		{
			name:         "unborn_branch_reports_empty",
			hashResult:   execshell.ExecutionResult{StandardError: "fatal: ambiguous argument", ExitCode: testMissingRepositoryExitCodeConstant},
			expectedHash: "",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{testHashCommandConstant: testCase.hashResult}}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			require.Equal(testInstance, testCase.expectedHash, inspectorInstance.LastCommitHash(context.Background()))
		})
	}
}

func TestIsDirty(testInstance *testing.T) {
	testCases := []struct {
		name             string
		includeUntracked bool
		statusOutput     map[string]execshell.ExecutionResult
		expectedDirty    bool
		expectedCommand  string
	}{
		{
			name:             "tracked_changes_without_untracked_scan",
			includeUntracked: false,
			statusOutput:     map[string]execshell.ExecutionResult{testDirtyCommandConstant: successfulResult(" M main.go\n")},
			expectedDirty:    true,
			expectedCommand:  testDirtyCommandConstant,
		},
		{
			name:             "clean_tree_without_untracked_scan",
			includeUntracked: false,
			statusOutput:     map[string]execshell.ExecutionResult{testDirtyCommandConstant: successfulResult("")},
			expectedDirty:    false,
			expectedCommand:  testDirtyCommandConstant,
		},
		{
			name:             "untracked_entries_count_when_included",
			includeUntracked: true,
			statusOutput:     map[string]execshell.ExecutionResult{testStatusCommandConstant: successfulResult("?? notes.txt\n")},
			expectedDirty:    true,
			expectedCommand:  testStatusCommandConstant,
		},
		{
			name:             "failed_lookup_reports_clean",
			includeUntracked: true,
			statusOutput:     map[string]execshell.ExecutionResult{},
			expectedDirty:    false,
			expectedCommand:  testStatusCommandConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{responses: testCase.statusOutput}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			require.Equal(testInstance, testCase.expectedDirty, inspectorInstance.IsDirty(context.Background(), testCase.includeUntracked))
			require.Equal(testInstance, 1, gitExecutor.commandCount(testCase.expectedCommand))
		})
	}
}

func TestIsDirtyCachesPerUntrackedScope(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testDirtyCommandConstant:  successfulResult(""),
		testStatusCommandConstant: successfulResult("?? notes.txt"),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	require.False(testInstance, inspectorInstance.IsDirty(context.Background(), false))
	require.True(testInstance, inspectorInstance.IsDirty(context.Background(), true))
	require.True(testInstance, inspectorInstance.IsDirty(context.Background(), true))
	require.Equal(testInstance, 1, gitExecutor.commandCount(testDirtyCommandConstant))
	require.Equal(testInstance, 1, gitExecutor.commandCount(testStatusCommandConstant))
}

func TestUntrackedFiles(testInstance *testing.T) {
	testCases := []struct {
		name          string
		statusResult  execshell.ExecutionResult
		expectedPaths []string
	}{
		{
			name:          "mixed_status_output",
			statusResult:  successfulResult(" M cmd/main.go\n?? notes.txt\n?? docs/plan.md\nA  added.go\n"),
			expectedPaths: []string{"notes.txt", "docs/plan.md"},
		},
		{
			name:          "clean_tree",
			statusResult:  successfulResult(""),
			expectedPaths: []string{},
		},
		{
			name:          "failed_lookup_reports_empty",
			statusResult:  execshell.ExecutionResult{ExitCode: testMissingRepositoryExitCodeConstant},
			expectedPaths: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{testUntrackedCommandConstant: testCase.statusResult}}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			require.Equal(testInstance, testCase.expectedPaths, inspectorInstance.UntrackedFiles(context.Background()))
		})
	}
}

func TestChangedFiles(testInstance *testing.T) {
	testCases := []struct {
		name          string
		staged        bool
		diffResults   map[string]execshell.ExecutionResult
		expectedPaths []string
	}{
		{
			name:          "unstaged_changes",
			staged:        false,
			diffResults:   map[string]execshell.ExecutionResult{testUnstagedDiffCommandConstant: successfulResult("main.go\ninternal/app.go\n")},
			expectedPaths: []string{"main.go", "internal/app.go"},
		},
		{
			name:          "staged_changes",
			staged:        true,
			diffResults:   map[string]execshell.ExecutionResult{testStagedDiffCommandConstant: successfulResult("main.go\n")},
			expectedPaths: []string{"main.go"},
		},
		{
			name:   "empty_staged_set_falls_back_to_unstaged",
			staged: true,
			diffResults: map[string]execshell.ExecutionResult{
				testStagedDiffCommandConstant:   successfulResult(""),
				testUnstagedDiffCommandConstant: successfulResult("README.md\n"),
			},
			expectedPaths: []string{"README.md"},
		},
		{
			name:          "failed_lookup_reports_empty",
			staged:        false,
			diffResults:   map[string]execshell.ExecutionResult{},
			expectedPaths: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{responses: testCase.diffResults}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			require.Equal(testInstance, testCase.expectedPaths, inspectorInstance.ChangedFiles(context.Background(), testCase.staged))
		})
	}
}

func TestChangedFilesFallbackRecordsBothLookups(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testStagedDiffCommandConstant:   successfulResult(""),
		testUnstagedDiffCommandConstant: successfulResult("README.md"),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	require.Equal(testInstance, []string{"README.md"}, inspectorInstance.ChangedFiles(context.Background(), true))
	require.Equal(testInstance, 1, gitExecutor.commandCount(testStagedDiffCommandConstant))
	require.Equal(testInstance, 1, gitExecutor.commandCount(testUnstagedDiffCommandConstant))

	require.Equal(testInstance, []string{"README.md"}, inspectorInstance.ChangedFiles(context.Background(), false))
	require.Equal(testInstance, 1, gitExecutor.commandCount(testUnstagedDiffCommandConstant))
}

func TestCommitCount(testInstance *testing.T) {
	testCases := []struct {
		name          string
		countResult   execshell.ExecutionResult
		expectedCount int
	}{
		{
			name:          "populated_history",
			countResult:   successfulResult("42\n"),
			expectedCount: 42,
		},
		{
			name:          "unparseable_output_reports_zero",
			countResult:   successfulResult("not-a-number"),
			expectedCount: 0,
		},
		{
			name:          "failed_lookup_reports_zero",
			countResult:   execshell.ExecutionResult{ExitCode: testMissingRepositoryExitCodeConstant},
			expectedCount: 0,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{testCommitCountCommandConstant: testCase.countResult}}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			require.Equal(testInstance, testCase.expectedCount, inspectorInstance.CommitCount(context.Background()))
		})
	}
}

func TestRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name               string
		remoteName         string
		remoteResults      map[string]execshell.ExecutionResult
		expectedURL        string
		expectedConfigured bool
	}{
		{
			name:               "configured_origin",
			remoteName:         "origin",
			remoteResults:      map[string]execshell.ExecutionResult{testOriginRemoteCommandConstant: successfulResult(testExampleRemoteURLConstant + "\n")},
			expectedURL:        testExampleRemoteURLConstant,
			expectedConfigured: true,
		},
		{
			name:               "blank_name_resolves_to_origin",
			remoteName:         "  ",
			remoteResults:      map[string]execshell.ExecutionResult{testOriginRemoteCommandConstant: successfulResult(testExampleRemoteURLConstant)},
			expectedURL:        testExampleRemoteURLConstant,
			expectedConfigured: true,
		},
		{
			name:               "alternate_remote",
			remoteName:         "upstream",
			remoteResults:      map[string]execshell.ExecutionResult{testUpstreamRemoteCommandConstant: successfulResult("https://github.com/upstream/dlt.git")},
			expectedURL:        "https://github.com/upstream/dlt.git",
			expectedConfigured: true,
		},
		{
			name:               "missing_remote_reports_unconfigured",
			remoteName:         "origin",
			remoteResults:      map[string]execshell.ExecutionResult{testOriginRemoteCommandConstant: {StandardError: "error: No such remote 'origin'", ExitCode: 2}},
			expectedURL:        "",
			expectedConfigured: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			gitExecutor := &scriptedGitExecutor{responses: testCase.remoteResults}
			inspectorInstance := newTestInspector(testInstance, gitExecutor)

			remoteAddress, remoteConfigured := inspectorInstance.RemoteURL(context.Background(), testCase.remoteName)
			require.Equal(testInstance, testCase.expectedURL, remoteAddress)
			require.Equal(testInstance, testCase.expectedConfigured, remoteConfigured)
		})
	}
}

func TestSummarizeOutsideRepository(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	repositorySummary := inspectorInstance.Summarize(context.Background())

	require.Equal(testInstance, gitinspect.Summary{
		IsGitRepo:      false,
		Branch:         "none",
		IsDirty:        false,
		CommitHash:     "",
		UntrackedFiles: []string{},
		CommitCount:    0,
		RemoteURL:      nil,
	}, repositorySummary)
	require.Equal(testInstance, []string{testRepositoryProbeCommandConstant}, gitExecutor.recordedCommands)
}

func TestSummarizeInsideRepository(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testRepositoryProbeCommandConstant: successfulResult(".git"),
		testBranchCommandConstant:          successfulResult(testExampleBranchNameConstant),
		testStatusCommandConstant:          successfulResult("?? notes.txt"),
		testHashCommandConstant:            successfulResult(testExampleCommitHashConstant),
		testUntrackedCommandConstant:       successfulResult("?? notes.txt"),
		testCommitCountCommandConstant:     successfulResult("7"),
		testOriginRemoteCommandConstant:    successfulResult(testExampleRemoteURLConstant),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	repositorySummary := inspectorInstance.Summarize(context.Background())

	require.True(testInstance, repositorySummary.IsGitRepo)
	require.Equal(testInstance, testExampleBranchNameConstant, repositorySummary.Branch)
	require.True(testInstance, repositorySummary.IsDirty)
	require.Equal(testInstance, testExampleCommitHashConstant, repositorySummary.CommitHash)
	require.Equal(testInstance, []string{"notes.txt"}, repositorySummary.UntrackedFiles)
	require.Equal(testInstance, 7, repositorySummary.CommitCount)
	require.NotNil(testInstance, repositorySummary.RemoteURL)
	require.Equal(testInstance, testExampleRemoteURLConstant, *repositorySummary.RemoteURL)
}

func TestClearCachesForcesFreshLookups(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testBranchCommandConstant: successfulResult(testExampleBranchNameConstant),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)

	inspectorInstance.CurrentBranch(context.Background())
	inspectorInstance.ClearCaches()
	inspectorInstance.CurrentBranch(context.Background())

	require.Equal(testInstance, 2, gitExecutor.commandCount(testBranchCommandConstant))
}

func TestCacheStatisticsReportsEveryLookup(testInstance *testing.T) {
	gitExecutor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		testBranchCommandConstant: successfulResult(testExampleBranchNameConstant),
	}}
	inspectorInstance := newTestInspector(testInstance, gitExecutor)
	inspectorInstance.CurrentBranch(context.Background())

	cacheStatistics := inspectorInstance.CacheStatistics()

	require.Len(testInstance, cacheStatistics, 7)
	require.Equal(testInstance, 1, cacheStatistics["current_branch"].EntryCount)
	require.Equal(testInstance, 0, cacheStatistics["remote_url"].EntryCount)
}
