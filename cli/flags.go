package main

import "github.com/urfave/cli/v2"

const (
	flagAt       = "at"
	flagBirthday = "birthday"
	flagBuffer   = "buffer"
	flagCapacity = "capacity"
	flagDate     = "date"
	flagDuration = "duration"
	flagEmail    = "email"
	flagFile     = "file"
	flagFrom     = "from"
	flagGuest    = "guest"
	flagGuests   = "guests"
	flagID       = "id"
	flagInsecure = "insecure"
	flagLimit    = "limit"
	flagName     = "name"
	flagOrder    = "order"
	flagOutput   = "output"
	flagPage     = "page"
	flagPassword = "password"
	flagPhone    = "phone"
	flagSearch   = "search"
	flagServer   = "server"
	flagSource   = "source"
	flagStatus   = "status"
	flagTable    = "table"
	flagTo       = "to"
	flagYes      = "yes"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage: "Return output in the specified format; supported formats: table, " +
			"yaml, json",
		Value: "table",
	}
	cliFlagYes = &cli.BoolFlag{
		Name:    flagYes,
		Aliases: []string{"y"},
		Usage:   "Non-interactively confirm the action",
	}
)

func cliFlagID(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     flagID,
		Aliases:  []string{"i"},
		Usage:    usage,
		Required: true,
	}
}

func cliFlagFile(kind string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    flagFile,
		Aliases: []string{"f"},
		Usage: "A YAML or JSON file that describes the " + kind + "; other " +
			"flags describing the " + kind + " are ignored when this is used",
		TakesFile: true,
	}
}
