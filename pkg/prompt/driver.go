// Package prompt acquires placeholder values from the operator. The
// actual terminal interaction sits behind the Driver interface so the
// resolver can be tested with a fake.
package prompt

import (
	stderrors "errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	"github.com/arthur-debert/secretpipe/pkg/errors"
)

// Driver abstracts interactive input so render logic can be tested
// without a real terminal and callers can swap implementations.
type Driver interface {
	// Input reads a visible value from standard input.
	Input(message string) (string, error)
	// Password reads a value from the controlling terminal without echo.
	Password(message string) (string, error)
}

type surveyDriver struct{}

// NewSurveyDriver creates the interactive terminal driver.
func NewSurveyDriver() Driver {
	return &surveyDriver{}
}

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func (d *surveyDriver) Input(message string) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: message + ":",
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err, message)
	}
	return out, nil
}

func (d *surveyDriver) Password(message string) (string, error) {
	var out string
	prompt := &survey.Password{
		Message: message + ":",
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err, message)
	}
	return out, nil
}

func translateSurveyErr(err error, message string) error {
	if stderrors.Is(err, terminal.InterruptErr) {
		return errors.Wrapf(err, errors.ErrPromptFailed, "prompt %q interrupted", message)
	}
	return errors.Wrapf(err, errors.ErrPromptFailed, "cannot read input for %q", message)
}
