package actions

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// ErrInteractiveDisabled is returned when a prompt is needed but cannot be shown
var ErrInteractiveDisabled = errors.New("confirmation required: rerun with --yes")

// interactive reports whether prompts may be shown
func interactive() bool {
	if os.Getenv("CRYPTA_NO_INTERACTIVE") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Confirmer asks the user a yes/no question
type Confirmer func(message string) (bool, error)

// promptConfirm asks on the terminal, defaulting to no
func promptConfirm(message string) (bool, error) {
	if !interactive() {
		return false, ErrInteractiveDisabled
	}

	var ok bool
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, fmt.Errorf("canceled")
		}
		return false, err
	}
	return ok, nil
}
