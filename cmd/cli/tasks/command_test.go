package tasks_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/cmd/cli/tasks"
)

const (
	annotatedGoSourceConstant = `package sample

// TODO: add retry budget
// FIXME: leaks the connection on timeout
`
	annotatedPythonSourceConstant = `# NOTE: mirrors the shell wrapper
print("ok")
`
	restrictiveManifestConstant = `name: example
version: 1.0.0
task_scan:
  extensions:
    - .py
`
)

func writeProjectTree(testInstance *testing.T) string {
	testInstance.Helper()
	projectPath := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(projectPath, "main.go"), []byte(annotatedGoSourceConstant), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(projectPath, "helper.py"), []byte(annotatedPythonSourceConstant), 0o644))
	return projectPath
}

func executeTasksCommand(testInstance *testing.T, builder tasks.CommandBuilder, arguments ...string) string {
	testInstance.Helper()
	if builder.LoggerProvider == nil {
		builder.LoggerProvider = func() *zap.Logger { return zap.NewNop() }
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

func TestTasksCommandReportsAnnotations(testInstance *testing.T) {
	projectPath := writeProjectTree(testInstance)

	commandOutput := executeTasksCommand(testInstance, tasks.CommandBuilder{WorkingDirectory: projectPath})

	require.Contains(testInstance, commandOutput, "# Task annotations")
	require.Contains(testInstance, commandOutput, "## FIXME (1)")
	require.Contains(testInstance, commandOutput, "## TODO (1)")
	require.Contains(testInstance, commandOutput, "## NOTE (1)")
	require.Contains(testInstance, commandOutput, "`main.go:3` add retry budget")
	require.Contains(testInstance, commandOutput, "`helper.py:1` mirrors the shell wrapper")
	require.Less(testInstance, strings.Index(commandOutput, "## FIXME"), strings.Index(commandOutput, "## TODO"))
}

func TestTasksCommandHonorsManifestExtensions(testInstance *testing.T) {
	projectPath := writeProjectTree(testInstance)
	require.NoError(testInstance, os.WriteFile(filepath.Join(projectPath, "dugger.yaml"), []byte(restrictiveManifestConstant), 0o644))

	commandOutput := executeTasksCommand(testInstance, tasks.CommandBuilder{WorkingDirectory: projectPath})

	require.Contains(testInstance, commandOutput, "## NOTE (1)")
	require.NotContains(testInstance, commandOutput, "## TODO")
	require.NotContains(testInstance, commandOutput, "## FIXME")
}

func TestTasksCommandExtensionsFlagOverridesManifest(testInstance *testing.T) {
	projectPath := writeProjectTree(testInstance)
	require.NoError(testInstance, os.WriteFile(filepath.Join(projectPath, "dugger.yaml"), []byte(restrictiveManifestConstant), 0o644))

	commandOutput := executeTasksCommand(testInstance, tasks.CommandBuilder{WorkingDirectory: projectPath}, "--extensions", ".go")

	require.Contains(testInstance, commandOutput, "## TODO (1)")
	require.Contains(testInstance, commandOutput, "## FIXME (1)")
	require.NotContains(testInstance, commandOutput, "## NOTE")
}

func TestTasksCommandEmptyTree(testInstance *testing.T) {
	projectPath := testInstance.TempDir()

	commandOutput := executeTasksCommand(testInstance, tasks.CommandBuilder{WorkingDirectory: projectPath})

	require.Contains(testInstance, commandOutput, "No task annotations found.")
}

func TestTasksCommandConfigurationFallback(testInstance *testing.T) {
	projectPath := writeProjectTree(testInstance)

	builder := tasks.CommandBuilder{
		WorkingDirectory: projectPath,
		ConfigurationProvider: func() tasks.CommandConfiguration {
			return tasks.CommandConfiguration{Extensions: []string{".py"}}
		},
	}
	commandOutput := executeTasksCommand(testInstance, builder)

	require.Contains(testInstance, commandOutput, "## NOTE (1)")
	require.NotContains(testInstance, commandOutput, "## TODO")
}
