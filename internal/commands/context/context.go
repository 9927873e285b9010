package context

import (
	"github.com/urfave/cli/v2"
)

// Command returns the context command
func Command() *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "Manage keyring contexts",
		Description: `A context names a remote node endpoint. Commands use the current
context unless --endpoint is given.`,
		Subcommands: []*cli.Command{
			createCommand(),
			useCommand(),
			listCommand(),
			setCommand(),
			showCommand(),
		},
	}
}
