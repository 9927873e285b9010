package context

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
	"github.com/yourorg/rpckeyring/internal/middleware"
	"go.uber.org/zap"
)

func setCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Set context properties",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "node-endpoint",
				Usage: "Set the JSON-RPC endpoint of the signing node",
			},
			&cli.StringFlag{
				Name:  "default-account",
				Usage: "Set the account used when --from is omitted",
			},
		},
		Action: contextSetAction,
	}
}

func contextSetAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, err := cfg.Current()
	if err != nil {
		return err
	}

	updated := false

	if endpoint := c.String("node-endpoint"); endpoint != "" {
		ctx.Endpoint = endpoint
		updated = true
		log.Info("Updated endpoint", zap.String("endpoint", endpoint))
	}

	if account := c.String("default-account"); account != "" {
		if !common.IsHexAddress(account) {
			return fmt.Errorf("invalid default account: %s", account)
		}
		ctx.DefaultAccount = account
		updated = true
		log.Info("Updated default account", zap.String("account", account))
	}

	if !updated {
		return fmt.Errorf("no values provided to update")
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Context '%s' updated\n", cfg.CurrentContext)
	return nil
}
