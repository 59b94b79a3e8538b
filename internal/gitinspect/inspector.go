package gitinspect

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/memocache"
)

const (
	statusCacheTimeToLiveConstant    = 30 * time.Second
	referenceCacheTimeToLiveConstant = 60 * time.Second
	remoteCacheTimeToLiveConstant    = 120 * time.Second

	gitRevParseCommandConstant         = "rev-parse"
	gitStatusCommandConstant           = "status"
	gitDiffCommandConstant             = "diff"
	gitRevListCommandConstant          = "rev-list"
	gitRemoteCommandConstant           = "remote"
	gitDirectoryFlagConstant           = "--git-dir"
	gitPorcelainFlagConstant           = "--porcelain"
	gitAbbreviatedReferenceConstant    = "--abbrev-ref"
	gitHeadReferenceConstant           = "HEAD"
	gitCachedFlagConstant              = "--cached"
	gitNameOnlyFlagConstant            = "--name-only"
	gitCountFlagConstant               = "--count"
	gitGetURLSubcommandConstant        = "get-url"
	gitUntrackedFilesNoFlagConstant    = "--untracked-files=no"
	gitUntrackedFilesNormalConstant    = "--untracked-files=normal"
	untrackedEntryPrefixConstant       = "??"
	unknownBranchPlaceholderConstant   = "unknown"
	nonRepositoryBranchNameConstant    = "none"
	defaultRemoteNameConstant          = "origin"
	branchCacheStatisticsNameConstant  = "current_branch"
	hashCacheStatisticsNameConstant    = "last_commit_hash"
	dirtyCacheStatisticsNameConstant   = "is_dirty"
	untrackedCacheStatisticsConstant   = "untracked_files"
	changedCacheStatisticsNameConstant = "changed_files"
	countCacheStatisticsNameConstant   = "commit_count"
	remoteCacheStatisticsNameConstant  = "remote_url"
)

// ErrGitExecutorNotConfigured indicates the inspector was constructed without
// a git executor.
var ErrGitExecutorNotConfigured = errors.New("git executor not configured")

// ErrRepositoryPathRequired indicates the inspector was constructed without a
// repository path.
var ErrRepositoryPathRequired = errors.New("repository path required")

// InspectorOptions tunes optional inspector behavior.
type InspectorOptions struct {
	// CommandTimeout bounds each git subprocess when positive. Zero leaves
	// subprocess lifetimes to the caller's context.
	CommandTimeout time.Duration
	// Clock overrides the time source used for cache expirations.
	Clock Clock
}

// Summary aggregates the repository facts reported by Inspector.Summarize.
type Summary struct {
	IsGitRepo      bool
	Branch         string
	IsDirty        bool
	CommitHash     string
	UntrackedFiles []string
	CommitCount    int
	RemoteURL      *string
}

type remoteLookup struct {
	url        string
	configured bool
}

// Inspector answers questions about a single repository working tree by
// running git commands in its directory.
type Inspector struct {
	repositoryPath string
	gitExecutor    GitExecutor
	commandTimeout time.Duration

	branchCache    *memocache.ExpiringCache[string]
	hashCache      *memocache.ExpiringCache[string]
	dirtyCache     *memocache.ExpiringCache[bool]
	untrackedCache *memocache.ExpiringCache[[]string]
	changedCache   *memocache.ExpiringCache[[]string]
	countCache     *memocache.ExpiringCache[int]
	remoteCache    *memocache.ExpiringCache[remoteLookup]
}

// NewInspector builds an inspector rooted at the provided repository path.
func NewInspector(repositoryPath string, gitExecutor GitExecutor, options InspectorOptions) (*Inspector, error) {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return nil, ErrRepositoryPathRequired
	}
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	resolvedClock := options.Clock
	if resolvedClock == nil {
		resolvedClock = SystemClock{}
	}
	clockFunction := resolvedClock.Now

	return &Inspector{
		repositoryPath: repositoryPath,
		gitExecutor:    gitExecutor,
		commandTimeout: options.CommandTimeout,
		branchCache:    memocache.NewExpiringCache[string](referenceCacheTimeToLiveConstant, clockFunction),
		hashCache:      memocache.NewExpiringCache[string](referenceCacheTimeToLiveConstant, clockFunction),
		dirtyCache:     memocache.NewExpiringCache[bool](statusCacheTimeToLiveConstant, clockFunction),
		untrackedCache: memocache.NewExpiringCache[[]string](statusCacheTimeToLiveConstant, clockFunction),
		changedCache:   memocache.NewExpiringCache[[]string](referenceCacheTimeToLiveConstant, clockFunction),
		countCache:     memocache.NewExpiringCache[int](referenceCacheTimeToLiveConstant, clockFunction),
		remoteCache:    memocache.NewExpiringCache[remoteLookup](remoteCacheTimeToLiveConstant, clockFunction),
	}, nil
}

// RepositoryPath reports the working tree directory this inspector probes.
func (inspector *Inspector) RepositoryPath() string {
	return inspector.repositoryPath
}

// IsRepository reports whether the inspector's path sits inside a git
// repository. The probe is never cached so repository creation or removal is
// observed immediately.
func (inspector *Inspector) IsRepository(executionContext context.Context) bool {
	_, querySucceeded := inspector.queryOutput(executionContext, []string{gitRevParseCommandConstant, gitDirectoryFlagConstant})
	return querySucceeded
}

// CurrentBranch reports the checked-out branch name, the literal HEAD marker
// when the repository is in detached state, or an unknown placeholder when the
// lookup fails.
func (inspector *Inspector) CurrentBranch(executionContext context.Context) string {
	branchName, _ := inspector.branchCache.Do(memocache.CallKey(), func() (string, error) {
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, []string{gitRevParseCommandConstant, gitAbbreviatedReferenceConstant, gitHeadReferenceConstant})
		if !querySucceeded || len(commandOutput) == 0 {
			return unknownBranchPlaceholderConstant, nil
		}
		return commandOutput, nil
	})
	return branchName
}

// LastCommitHash reports the full hash of the current HEAD commit, or an empty
// string when the repository has no commits or the lookup fails.
func (inspector *Inspector) LastCommitHash(executionContext context.Context) string {
	commitHash, _ := inspector.hashCache.Do(memocache.CallKey(), func() (string, error) {
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, []string{gitRevParseCommandConstant, gitHeadReferenceConstant})
		if !querySucceeded {
			return "", nil
		}
		return commandOutput, nil
	})
	return commitHash
}

// IsDirty reports whether the working tree has uncommitted changes. Untracked
// files count as dirt only when includeUntracked is true. Failed lookups
// report a clean tree.
func (inspector *Inspector) IsDirty(executionContext context.Context, includeUntracked bool) bool {
	dirtyState, _ := inspector.dirtyCache.Do(memocache.CallKey(includeUntracked), func() (bool, error) {
		statusArguments := []string{gitStatusCommandConstant, gitPorcelainFlagConstant}
		if !includeUntracked {
			statusArguments = append(statusArguments, gitUntrackedFilesNoFlagConstant)
		}
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, statusArguments)
		if !querySucceeded {
			return false, nil
		}
		return len(commandOutput) > 0, nil
	})
	return dirtyState
}

// UntrackedFiles lists paths git reports as untracked, in porcelain order.
// Failed lookups report an empty list.
func (inspector *Inspector) UntrackedFiles(executionContext context.Context) []string {
	untrackedPaths, _ := inspector.untrackedCache.Do(memocache.CallKey(), func() ([]string, error) {
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, []string{gitStatusCommandConstant, gitPorcelainFlagConstant, gitUntrackedFilesNormalConstant})
		if !querySucceeded {
			return []string{}, nil
		}
		return parseUntrackedEntries(commandOutput), nil
	})
	return untrackedPaths
}

// ChangedFiles lists modified paths. When staged is true the staged set is
// reported, falling back to the unstaged set when nothing is staged. Failed
// lookups report an empty list.
func (inspector *Inspector) ChangedFiles(executionContext context.Context, staged bool) []string {
	changedPaths, _ := inspector.changedCache.Do(memocache.CallKey(staged), func() ([]string, error) {
		diffArguments := []string{gitDiffCommandConstant, gitNameOnlyFlagConstant}
		if staged {
			diffArguments = []string{gitDiffCommandConstant, gitCachedFlagConstant, gitNameOnlyFlagConstant}
		}
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, diffArguments)
		if !querySucceeded {
			return []string{}, nil
		}
		changedEntries := parseChangedEntries(commandOutput)
		if staged && len(changedEntries) == 0 {
			return inspector.ChangedFiles(executionContext, false), nil
		}
		return changedEntries, nil
	})
	return changedPaths
}

// CommitCount reports the number of commits reachable from HEAD, or zero when
// the repository has no commits or the lookup fails.
func (inspector *Inspector) CommitCount(executionContext context.Context) int {
	commitCount, _ := inspector.countCache.Do(memocache.CallKey(), func() (int, error) {
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, []string{gitRevListCommandConstant, gitHeadReferenceConstant, gitCountFlagConstant})
		if !querySucceeded {
			return 0, nil
		}
		parsedCount, parseError := strconv.Atoi(commandOutput)
		if parseError != nil || parsedCount < 0 {
			return 0, nil
		}
		return parsedCount, nil
	})
	return commitCount
}

// RemoteURL reports the URL configured for the named remote. The second
// return value is false when the remote is not configured or the lookup
// fails. An empty remote name resolves to origin.
func (inspector *Inspector) RemoteURL(executionContext context.Context, remoteName string) (string, bool) {
	resolvedRemoteName := strings.TrimSpace(remoteName)
	if len(resolvedRemoteName) == 0 {
		resolvedRemoteName = defaultRemoteNameConstant
	}
	lookupResult, _ := inspector.remoteCache.Do(memocache.CallKey(resolvedRemoteName), func() (remoteLookup, error) {
		commandOutput, querySucceeded := inspector.queryOutput(executionContext, []string{gitRemoteCommandConstant, gitGetURLSubcommandConstant, resolvedRemoteName})
		if !querySucceeded || len(commandOutput) == 0 {
			return remoteLookup{}, nil
		}
		return remoteLookup{url: commandOutput, configured: true}, nil
	})
	return lookupResult.url, lookupResult.configured
}

// Summarize aggregates the individual lookups into a single record. When the
// path is not a repository every field carries its documented default and no
// further git commands run.
func (inspector *Inspector) Summarize(executionContext context.Context) Summary {
	if !inspector.IsRepository(executionContext) {
		return Summary{
			IsGitRepo:      false,
			Branch:         nonRepositoryBranchNameConstant,
			IsDirty:        false,
			CommitHash:     "",
			UntrackedFiles: []string{},
			CommitCount:    0,
			RemoteURL:      nil,
		}
	}

	repositorySummary := Summary{
		IsGitRepo:      true,
		Branch:         inspector.CurrentBranch(executionContext),
		IsDirty:        inspector.IsDirty(executionContext, true),
		CommitHash:     inspector.LastCommitHash(executionContext),
		UntrackedFiles: inspector.UntrackedFiles(executionContext),
		CommitCount:    inspector.CommitCount(executionContext),
	}
	remoteAddress, remoteConfigured := inspector.RemoteURL(executionContext, defaultRemoteNameConstant)
	if remoteConfigured {
		repositorySummary.RemoteURL = &remoteAddress
	}
	return repositorySummary
}

// ClearCaches drops every memoized lookup so the next calls observe the
// repository afresh.
func (inspector *Inspector) ClearCaches() {
	inspector.branchCache.Clear()
	inspector.hashCache.Clear()
	inspector.dirtyCache.Clear()
	inspector.untrackedCache.Clear()
	inspector.changedCache.Clear()
	inspector.countCache.Clear()
	inspector.remoteCache.Clear()
}

// CacheStatistics reports per-lookup cache contents keyed by lookup name.
func (inspector *Inspector) CacheStatistics() map[string]memocache.Statistics {
	return map[string]memocache.Statistics{
		branchCacheStatisticsNameConstant:  inspector.branchCache.Stats(),
		hashCacheStatisticsNameConstant:    inspector.hashCache.Stats(),
		dirtyCacheStatisticsNameConstant:   inspector.dirtyCache.Stats(),
		untrackedCacheStatisticsConstant:   inspector.untrackedCache.Stats(),
		changedCacheStatisticsNameConstant: inspector.changedCache.Stats(),
		countCacheStatisticsNameConstant:   inspector.countCache.Stats(),
		remoteCacheStatisticsNameConstant:  inspector.remoteCache.Stats(),
	}
}

func (inspector *Inspector) queryOutput(executionContext context.Context, commandArguments []string) (string, bool) {
	boundedContext := executionContext
	if inspector.commandTimeout > 0 {
		timedContext, cancelFunction := context.WithTimeout(executionContext, inspector.commandTimeout)
		defer cancelFunction()
		boundedContext = timedContext
	}

	executionResult, executionError := inspector.gitExecutor.QueryGit(boundedContext, execshell.CommandDetails{
		Arguments:        commandArguments,
		WorkingDirectory: inspector.repositoryPath,
	})
	if executionError != nil || executionResult.ExitCode != 0 {
		return "", false
	}
	return strings.TrimSpace(executionResult.StandardOutput), true
}

func parseUntrackedEntries(statusOutput string) []string {
	untrackedEntries := []string{}
	for _, outputLine := range strings.Split(statusOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if !strings.HasPrefix(trimmedLine, untrackedEntryPrefixConstant) {
			continue
		}
		entryPath := strings.TrimSpace(trimmedLine[len(untrackedEntryPrefixConstant):])
		if len(entryPath) > 0 {
			untrackedEntries = append(untrackedEntries, entryPath)
		}
	}
	return untrackedEntries
}

func parseChangedEntries(diffOutput string) []string {
	changedEntries := []string{}
	for _, outputLine := range strings.Split(diffOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) > 0 {
			changedEntries = append(changedEntries, trimmedLine)
		}
	}
	return changedEntries
}
