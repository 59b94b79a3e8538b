// Package dependencies resolves shared collaborator defaults for CLI
// commands, letting tests substitute fakes through builder fields.
package dependencies

import (
	"go.uber.org/zap"

	"github.com/duggerlink/dlt/internal/execshell"
	"github.com/duggerlink/dlt/internal/gitinspect"
)

// ResolveShellExecutor returns the provided executor or constructs a
// shell-backed default.
func ResolveShellExecutor(existing *execshell.ShellExecutor, logger *zap.Logger, observers ...execshell.CommandEventObserver) (*execshell.ShellExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, observers...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveInspector returns an inspector over the provided git executor or the
// existing instance when one was supplied.
func ResolveInspector(existing *gitinspect.Inspector, repositoryPath string, gitExecutor gitinspect.GitExecutor, options gitinspect.InspectorOptions) (*gitinspect.Inspector, error) {
	if existing != nil {
		return existing, nil
	}
	return gitinspect.NewInspector(repositoryPath, gitExecutor, options)
}
