package context

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
	"github.com/yourorg/rpckeyring/internal/middleware"
	"go.uber.org/zap"
)

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new context",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Context name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "node-endpoint",
				Usage: "JSON-RPC endpoint of the signing node",
				Value: config.DefaultEndpoint,
			},
			&cli.StringFlag{
				Name:  "default-account",
				Usage: "Account used when --from is omitted",
			},
			&cli.BoolFlag{
				Name:  "use",
				Usage: "Switch to the new context",
			},
		},
		Action: contextCreateAction,
	}
}

func contextCreateAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	name := c.String("name")
	if _, exists := cfg.Contexts[name]; exists {
		return fmt.Errorf("context '%s' already exists", name)
	}

	account := c.String("default-account")
	if account != "" && !common.IsHexAddress(account) {
		return fmt.Errorf("invalid default account: %s", account)
	}

	cfg.Contexts[name] = &config.Context{
		Endpoint:       c.String("node-endpoint"),
		DefaultAccount: account,
	}
	if c.Bool("use") || cfg.CurrentContext == "" {
		cfg.CurrentContext = name
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	log.Info("Created context", zap.String("name", name), zap.String("endpoint", c.String("node-endpoint")))
	fmt.Fprintf(c.App.Writer, "Context '%s' created\n", name)
	if cfg.CurrentContext == name {
		fmt.Fprintf(c.App.Writer, "Switched to context '%s'\n", name)
	}
	return nil
}
