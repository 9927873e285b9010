package context

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
	"github.com/yourorg/rpckeyring/internal/middleware"
	"go.uber.org/zap"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List all contexts",
		Action: contextListAction,
	}
}

func contextListAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Debug("Listing contexts", zap.Int("count", len(cfg.Contexts)))

	if len(cfg.Contexts) == 0 {
		fmt.Fprintln(c.App.Writer, "No contexts configured")
		fmt.Fprintln(c.App.Writer, "\nTo create a context, run:")
		fmt.Fprintln(c.App.Writer, "  rpckeyring context create --name default --use")
		return nil
	}

	table := tablewriter.NewWriter(c.App.Writer)
	table.Header("CURRENT", "NAME", "ENDPOINT", "DEFAULT ACCOUNT")

	for _, name := range cfg.Names() {
		ctx := cfg.Contexts[name]

		current := ""
		if name == cfg.CurrentContext {
			current = "*"
		}

		account := ctx.DefaultAccount
		if account == "" {
			account = "-"
		}

		table.Append([]string{
			current,
			name,
			ctx.KeyringEndpoint(),
			account,
		})
	}

	table.Render()
	return nil
}
