package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ssh/terminal"
)

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Log in to GuestFlow",
	Description: "Exchanges an email and password for tokens, which are kept in " +
		"~/.guestflow/credentials. The API address is saved for later commands.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     flagEmail,
			Aliases:  []string{"e"},
			Usage:    "Log in with the specified email address (required)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    flagPassword,
			Aliases: []string{"p"},
			Usage: "Specify the password non-interactively; if omitted, you will " +
				"be prompted for it",
		},
	},
	Action: login,
}

var logoutCommand = &cli.Command{
	Name:   "logout",
	Usage:  "Log out of GuestFlow",
	Action: logout,
}

var whoamiCommand = &cli.Command{
	Name:  "whoami",
	Usage: "Show the currently logged in user",
	Flags: []cli.Flag{
		cliFlagOutput,
	},
	Action: whoami,
}

func login(c *cli.Context) error {
	email := strings.TrimSpace(c.String(flagEmail))
	password := c.String(flagPassword)

	if password == "" {
		if !terminal.IsTerminal(int(os.Stdin.Fd())) {
			return errors.Errorf(
				"no password was specified; use --%s when not running in a terminal",
				flagPassword,
			)
		}
		for password == "" {
			if err := survey.AskOne(
				&survey.Password{
					Message: "Password",
				},
				&password,
			); err != nil {
				return err
			}
		}
	}

	address, err := getAPIAddress(c)
	if err != nil {
		return err
	}
	s, err := newAPISession(c)
	if err != nil {
		return err
	}
	if err = s.manager.Login(c.Context, email, password); err != nil {
		return err
	}

	if err = saveConfig(&config{APIAddress: address}); err != nil {
		return errors.Wrap(err, "error persisting configuration")
	}

	user := s.manager.User()
	fmt.Fprintf(
		c.App.Writer,
		"You are logged in to %s as %s (%s).\n",
		address,
		user.Email,
		user.Role,
	)
	return nil
}

func logout(c *cli.Context) error {
	s, err := newAPISession(c)
	if err != nil {
		return err
	}
	s.manager.Logout()
	fmt.Fprintln(c.App.Writer, "You are logged out.")
	return nil
}

func whoami(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	user := s.manager.User()
	return printOutput(
		c.App.Writer,
		output,
		user,
		func() *uitable.Table {
			table := uitable.New()
			table.AddRow("ID", "EMAIL", "ROLE", "RESTAURANT", "ACTIVE")
			table.AddRow(
				user.ID,
				user.Email,
				user.Role,
				deref(user.RestaurantID),
				user.IsActive,
			)
			return table
		},
	)
}
