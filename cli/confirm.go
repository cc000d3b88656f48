package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ssh/terminal"
)

// confirmed asks the user to confirm an action unless --yes was given. When
// stdin is not a terminal, there is no one to ask and the action is refused.
func confirmed(c *cli.Context, message string) (bool, error) {
	if c.Bool(flagYes) {
		return true, nil
	}
	if !terminal.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.Errorf(
			"refusing to proceed without confirmation; use --%s to confirm "+
				"non-interactively",
			flagYes,
		)
	}
	var confirmed bool
	if err := survey.AskOne(
		&survey.Confirm{
			Message: message,
		},
		&confirmed,
	); err != nil {
		return false, errors.Wrap(err, "error confirming action")
	}
	fmt.Fprintln(c.App.Writer)
	return confirmed, nil
}
