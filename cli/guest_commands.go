package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var guestCommand = &cli.Command{
	Name:    "guest",
	Aliases: []string{"guests"},
	Usage:   "Manage the guest directory",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Add a guest",
			Flags: []cli.Flag{
				cliFlagFile("guest"),
				&cli.StringFlag{
					Name:  flagPhone,
					Usage: "The guest's phone number (required unless --file is used)",
				},
				&cli.StringFlag{
					Name:    flagName,
					Aliases: []string{"n"},
					Usage:   "The guest's name",
				},
				&cli.StringFlag{
					Name:  flagBirthday,
					Usage: "The guest's birthday, e.g. 1990-05-17",
				},
			},
			Action: guestCreate,
		},
		{
			Name:  "get",
			Usage: "Retrieve a guest",
			Flags: []cli.Flag{
				cliFlagID("Retrieve the specified guest (required)"),
				cliFlagOutput,
			},
			Action: guestGet,
		},
		{
			Name:  "list",
			Usage: "Retrieve many guests",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagSearch,
					Aliases: []string{"q"},
					Usage:   "Only retrieve guests whose name or phone matches",
				},
				&cli.IntFlag{
					Name:  flagPage,
					Usage: "Retrieve the specified page of results",
				},
				&cli.IntFlag{
					Name:  flagLimit,
					Usage: "Retrieve at most the specified number of guests",
					Value: 50,
				},
				cliFlagOutput,
			},
			Action: guestList,
		},
		{
			Name:  "update",
			Usage: "Update a guest",
			Flags: []cli.Flag{
				cliFlagID("Update the specified guest (required)"),
				cliFlagFile("guest"),
				&cli.StringFlag{
					Name:  flagPhone,
					Usage: "Change the guest's phone number",
				},
				&cli.StringFlag{
					Name:    flagName,
					Aliases: []string{"n"},
					Usage:   "Change the guest's name",
				},
				&cli.StringFlag{
					Name:  flagBirthday,
					Usage: "Change the guest's birthday",
				},
			},
			Action: guestUpdate,
		},
	},
}

func guestCreate(c *cli.Context) error {
	input := core.GuestCreateInput{}
	if filename := c.String(flagFile); filename != "" {
		if err := readInputFile(filename, "guest-create", &input); err != nil {
			return err
		}
	} else {
		input.Phone = c.String(flagPhone)
		input.Name = stringFlagPtr(c, flagName)
		input.Birthday = stringFlagPtr(c, flagBirthday)
		if input.Phone == "" {
			return errors.Errorf("a phone number is required; use --%s", flagPhone)
		}
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var guest core.Guest
	if err = s.manager.Do(c.Context, func(token string) error {
		guest, err = s.client.Core().Guests().Create(c.Context, token, input)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Created guest %q.\n", guest.ID)
	return nil
}

func guestList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var guests core.GuestList
	if err = s.manager.Do(c.Context, func(token string) error {
		guests, err = s.client.Core().Guests().List(
			c.Context,
			token,
			core.GuestsSelector{
				Search: c.String(flagSearch),
				Page:   c.Int(flagPage),
				Limit:  c.Int(flagLimit),
			},
		)
		return err
	}); err != nil {
		return err
	}

	if len(guests.Items) == 0 {
		fmt.Fprintln(c.App.Writer, "No guests found.")
		return nil
	}

	return printOutput(
		c.App.Writer,
		output,
		guests,
		func() *uitable.Table {
			table := uitable.New()
			table.AddRow("ID", "NAME", "PHONE", "VISITS", "LAST VISIT")
			for _, guest := range guests.Items {
				table.AddRow(
					guest.ID,
					deref(guest.Name),
					guest.Phone,
					guest.VisitCount,
					formatTimePtr(guest.LastVisitAt),
				)
			}
			table.AddRow()
			table.AddRow("", fmt.Sprintf("Total: %d", guests.Total))
			return table
		},
	)
}

func guestGet(c *cli.Context) error {
	id := c.String(flagID)
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var guest core.Guest
	if err = s.manager.Do(c.Context, func(token string) error {
		guest, err = s.client.Core().Guests().Get(c.Context, token, id)
		return err
	}); err != nil {
		return err
	}

	return printOutput(
		c.App.Writer,
		output,
		guest,
		func() *uitable.Table {
			table := uitable.New()
			table.AddRow("ID", "NAME", "PHONE", "BIRTHDAY", "VISITS", "FIRST VISIT")
			table.AddRow(
				guest.ID,
				deref(guest.Name),
				guest.Phone,
				deref(guest.Birthday),
				guest.VisitCount,
				formatTimePtr(guest.FirstVisitAt),
			)
			return table
		},
	)
}

func guestUpdate(c *cli.Context) error {
	id := c.String(flagID)
	input := core.GuestUpdateInput{}
	if filename := c.String(flagFile); filename != "" {
		if err := readInputFile(filename, "guest-update", &input); err != nil {
			return err
		}
	} else {
		input.Phone = stringFlagPtr(c, flagPhone)
		input.Name = stringFlagPtr(c, flagName)
		input.Birthday = stringFlagPtr(c, flagBirthday)
		if input.Phone == nil && input.Name == nil && input.Birthday == nil {
			return errors.Errorf("nothing to update; use --%s or flags", flagFile)
		}
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	if err = s.manager.Do(c.Context, func(token string) error {
		_, err := s.client.Core().Guests().Update(c.Context, token, id, input)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Updated guest %q.\n", id)
	return nil
}

// stringFlagPtr returns nil for a flag that was not set.
func stringFlagPtr(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	val := c.String(name)
	return &val
}

// intFlagPtr returns nil for a flag that was not set.
func intFlagPtr(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	val := c.Int(name)
	return &val
}
