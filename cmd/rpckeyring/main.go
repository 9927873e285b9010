package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/commands/accounts"
	"github.com/yourorg/rpckeyring/internal/commands/context"
	"github.com/yourorg/rpckeyring/internal/commands/sign"
	"github.com/yourorg/rpckeyring/internal/middleware"
)

var version = "dev"

func newApp() *cli.App {
	// -v belongs to --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Print the version",
	}

	return &cli.App{
		Name:    "rpckeyring",
		Usage:   "Sign with accounts held by a remote JSON-RPC node",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Usage:   "Node JSON-RPC endpoint (overrides the current context)",
				EnvVars: []string{"RPCKEYRING_ENDPOINT"},
			},
		},
		Before: middleware.ChainBeforeFuncs(
			middleware.LoggerBeforeFunc,
			middleware.ConfigBeforeFunc,
		),
		Commands: []*cli.Command{
			context.Command(),
			accounts.Command(),
			sign.Command(),
		},
		ExitErrHandler: middleware.ExitErrHandler,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
