package retrofit_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/cmd/cli/retrofit"
	"github.com/duggerlink/dlt/internal/execshell"
)

type scriptedGitExecutor struct {
	responses map[string]execshell.ExecutionResult
}

func (executor *scriptedGitExecutor) QueryGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	if scriptedResult, resultScripted := executor.responses[strings.Join(details.Arguments, " ")]; resultScripted {
		return scriptedResult, nil
	}
	return execshell.ExecutionResult{ExitCode: 128}, nil
}

func insideRepositoryResponses() map[string]execshell.ExecutionResult {
	return map[string]execshell.ExecutionResult{
		"rev-parse --git-dir": {StandardOutput: ".git"},
	}
}

func executeRetrofitCommand(testInstance *testing.T, projectPath string, responses map[string]execshell.ExecutionResult, arguments ...string) string {
	testInstance.Helper()

	builder := retrofit.CommandBuilder{
		LoggerProvider:   func() *zap.Logger { return zap.NewNop() },
		GitExecutor:      &scriptedGitExecutor{responses: responses},
		WorkingDirectory: projectPath,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetErr(&outputBuffer)
	command.SetArgs(arguments)
	require.NoError(testInstance, command.Execute())
	return outputBuffer.String()
}

func TestRetrofitCommandDryRunPreviewsInjection(testInstance *testing.T) {
	projectPath := testInstance.TempDir()

	commandOutput := executeRetrofitCommand(testInstance, projectPath, map[string]execshell.ExecutionResult{}, "--dry-run")

	require.Contains(testInstance, commandOutput, "missing:  repository, manifest, gitignore")
	require.Contains(testInstance, commandOutput, "run 'git init'")
	require.Contains(testInstance, commandOutput, "Dry run: would inject manifest, gitignore")
	require.NoFileExists(testInstance, filepath.Join(projectPath, "dugger.yaml"))
	require.NoFileExists(testInstance, filepath.Join(projectPath, ".gitignore"))
}

func TestRetrofitCommandInjectsMissingComponents(testInstance *testing.T) {
	projectPath := testInstance.TempDir()

	commandOutput := executeRetrofitCommand(testInstance, projectPath, insideRepositoryResponses())

	require.Contains(testInstance, commandOutput, "existing: repository")
	require.Contains(testInstance, commandOutput, "Created "+filepath.Join(projectPath, "dugger.yaml"))
	require.Contains(testInstance, commandOutput, "Created "+filepath.Join(projectPath, ".gitignore"))
	require.FileExists(testInstance, filepath.Join(projectPath, "dugger.yaml"))
	require.FileExists(testInstance, filepath.Join(projectPath, ".gitignore"))
}

func TestRetrofitCommandLeavesManagedDirectoryAlone(testInstance *testing.T) {
	projectPath := testInstance.TempDir()
	manifestPath := filepath.Join(projectPath, "dugger.yaml")
	gitignorePath := filepath.Join(projectPath, ".gitignore")
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte("name: kept\nversion: 1.0.0\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(gitignorePath, []byte("bin/\n"), 0o644))

	commandOutput := executeRetrofitCommand(testInstance, projectPath, insideRepositoryResponses())

	require.Contains(testInstance, commandOutput, "existing: repository, manifest, gitignore")
	require.Contains(testInstance, commandOutput, "missing:  none")
	require.Contains(testInstance, commandOutput, "Nothing to retrofit.")

	keptManifest, readError := os.ReadFile(manifestPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "name: kept\nversion: 1.0.0\n", string(keptManifest))
}
