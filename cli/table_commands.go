package main

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var tableCommand = &cli.Command{
	Name:    "table",
	Aliases: []string{"tables"},
	Usage:   "Manage the floor plan",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Add a table",
			Flags: []cli.Flag{
				cliFlagFile("table"),
				&cli.StringFlag{
					Name:    flagName,
					Aliases: []string{"n"},
					Usage:   "The table's name (required unless --file is used)",
				},
				&cli.IntFlag{
					Name:  flagCapacity,
					Usage: "The number of seats at the table",
				},
				&cli.IntFlag{
					Name:  flagOrder,
					Usage: "The table's position in listings",
				},
			},
			Action: tableCreate,
		},
		{
			Name:  "delete",
			Usage: "Delete a table",
			Flags: []cli.Flag{
				cliFlagID("Delete the specified table (required)"),
				cliFlagYes,
			},
			Action: tableDelete,
		},
		{
			Name:  "get",
			Usage: "Retrieve a table",
			Flags: []cli.Flag{
				cliFlagID("Retrieve the specified table (required)"),
				cliFlagOutput,
			},
			Action: tableGet,
		},
		{
			Name:  "list",
			Usage: "Retrieve all tables",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: tableList,
		},
		{
			Name:  "update",
			Usage: "Update a table",
			Flags: []cli.Flag{
				cliFlagID("Update the specified table (required)"),
				cliFlagFile("table"),
				&cli.StringFlag{
					Name:    flagName,
					Aliases: []string{"n"},
					Usage:   "Change the table's name",
				},
				&cli.IntFlag{
					Name:  flagCapacity,
					Usage: "Change the number of seats at the table",
				},
				&cli.IntFlag{
					Name:  flagOrder,
					Usage: "Change the table's position in listings",
				},
			},
			Action: tableUpdate,
		},
	},
}

func tablesTable(tables ...core.Table) *uitable.Table {
	table := uitable.New()
	table.AddRow("ID", "NAME", "SEATS", "ORDER")
	for _, t := range tables {
		table.AddRow(t.ID, t.Name, derefInt(t.Capacity), t.SortOrder)
	}
	return table
}

func tableCreate(c *cli.Context) error {
	input := core.TableCreateInput{}
	if filename := c.String(flagFile); filename != "" {
		if err := readInputFile(filename, "table-create", &input); err != nil {
			return err
		}
	} else {
		input.Name = c.String(flagName)
		input.Capacity = intFlagPtr(c, flagCapacity)
		input.SortOrder = intFlagPtr(c, flagOrder)
		if input.Name == "" {
			return errors.Errorf("a table name is required; use --%s", flagName)
		}
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var table core.Table
	if err = s.manager.Do(c.Context, func(token string) error {
		table, err = s.client.Core().Tables().Create(c.Context, token, input)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Created table %q.\n", table.ID)
	return nil
}

func tableList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var tables core.TableList
	if err = s.manager.Do(c.Context, func(token string) error {
		tables, err = s.client.Core().Tables().List(c.Context, token)
		return err
	}); err != nil {
		return err
	}

	if len(tables.Items) == 0 {
		fmt.Fprintln(c.App.Writer, "No tables found.")
		return nil
	}

	return printOutput(
		c.App.Writer,
		output,
		tables,
		func() *uitable.Table {
			return tablesTable(tables.Items...)
		},
	)
}

func tableGet(c *cli.Context) error {
	id := c.String(flagID)
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var table core.Table
	if err = s.manager.Do(c.Context, func(token string) error {
		table, err = s.client.Core().Tables().Get(c.Context, token, id)
		return err
	}); err != nil {
		return err
	}

	return printOutput(
		c.App.Writer,
		output,
		table,
		func() *uitable.Table {
			return tablesTable(table)
		},
	)
}

func tableUpdate(c *cli.Context) error {
	id := c.String(flagID)
	input := core.TableUpdateInput{}
	if filename := c.String(flagFile); filename != "" {
		if err := readInputFile(filename, "table-update", &input); err != nil {
			return err
		}
	} else {
		input.Name = stringFlagPtr(c, flagName)
		input.Capacity = intFlagPtr(c, flagCapacity)
		input.SortOrder = intFlagPtr(c, flagOrder)
		if input.Name == nil && input.Capacity == nil && input.SortOrder == nil {
			return errors.Errorf("nothing to update; use --%s or flags", flagFile)
		}
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	if err = s.manager.Do(c.Context, func(token string) error {
		_, err := s.client.Core().Tables().Update(c.Context, token, id, input)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Updated table %q.\n", id)
	return nil
}

func tableDelete(c *cli.Context) error {
	id := c.String(flagID)

	confirmed, err := confirmed(c, "This action cannot be undone. Are you sure?")
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	if err = s.manager.Do(c.Context, func(token string) error {
		return s.client.Core().Tables().Delete(c.Context, token, id)
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Table %q deleted.\n", id)
	return nil
}
