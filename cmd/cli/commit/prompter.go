package commit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	typePromptTemplateConstant        = "Commit type [%s] (default %s): "
	scopePromptConstant               = "Scope (optional): "
	descriptionPromptConstant         = "Description: "
	confirmPromptTemplateConstant     = "Commit with message %q? [y/N]: "
	affirmativeShortResponseConstant  = "y"
	affirmativeLongResponseConstant   = "yes"
	commitTypeSeparatorConstant       = ", "
	defaultCommitTypeConstant         = "chore"
	scopedMessageTemplateConstant     = "%s(%s): %s"
	unscopedMessageTemplateConstant   = "%s: %s"
	unknownCommitTypeErrorTemplate    = "unknown commit type %q, expected one of: %s"
	emptyDescriptionErrorTextConstant = "commit description must not be empty"
)

// conventionalCommitTypes lists the accepted message prefixes in the order
// they are offered to the operator.
var conventionalCommitTypes = []string{"feat", "fix", "docs", "refactor", "test", "chore"}

// ErrEmptyCommitDescription indicates the operator submitted a blank description.
var ErrEmptyCommitDescription = errors.New(emptyDescriptionErrorTextConstant)

// MessagePrompter collects the pieces of a conventional commit message from
// an interactive reader.
type MessagePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewMessagePrompter constructs a prompter from the provided reader and writer.
func NewMessagePrompter(input io.Reader, output io.Writer) *MessagePrompter {
	return &MessagePrompter{reader: bufio.NewReader(input), writer: output}
}

// PromptMessage asks for type, scope, and description and assembles the
// conventional commit message.
func (prompter *MessagePrompter) PromptMessage() (string, error) {
	commitType, typeError := prompter.promptCommitType()
	if typeError != nil {
		return "", typeError
	}

	commitScope, scopeError := prompter.promptLine(scopePromptConstant)
	if scopeError != nil {
		return "", scopeError
	}

	commitDescription, descriptionError := prompter.promptLine(descriptionPromptConstant)
	if descriptionError != nil {
		return "", descriptionError
	}
	if len(commitDescription) == 0 {
		return "", ErrEmptyCommitDescription
	}

	if len(commitScope) > 0 {
		return fmt.Sprintf(scopedMessageTemplateConstant, commitType, commitScope, commitDescription), nil
	}
	return fmt.Sprintf(unscopedMessageTemplateConstant, commitType, commitDescription), nil
}

// Confirm writes the confirmation prompt and interprets affirmative responses (y/yes).
func (prompter *MessagePrompter) Confirm(commitMessage string) (bool, error) {
	response, readError := prompter.promptLine(fmt.Sprintf(confirmPromptTemplateConstant, commitMessage))
	if readError != nil {
		return false, readError
	}

	switch strings.ToLower(response) {
	case affirmativeShortResponseConstant, affirmativeLongResponseConstant:
		return true, nil
	default:
		return false, nil
	}
}

func (prompter *MessagePrompter) promptCommitType() (string, error) {
	typePrompt := fmt.Sprintf(typePromptTemplateConstant, strings.Join(conventionalCommitTypes, commitTypeSeparatorConstant), defaultCommitTypeConstant)
	commitType, readError := prompter.promptLine(typePrompt)
	if readError != nil {
		return "", readError
	}
	if len(commitType) == 0 {
		return defaultCommitTypeConstant, nil
	}

	normalizedType := strings.ToLower(commitType)
	for _, knownCommitType := range conventionalCommitTypes {
		if normalizedType == knownCommitType {
			return knownCommitType, nil
		}
	}
	return "", fmt.Errorf(unknownCommitTypeErrorTemplate, commitType, strings.Join(conventionalCommitTypes, commitTypeSeparatorConstant))
}

func (prompter *MessagePrompter) promptLine(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}
	return strings.TrimSpace(response), nil
}
