package context

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
	"gopkg.in/yaml.v3"
)

func showCommand() *cli.Command {
	return &cli.Command{
		Name:   "show",
		Usage:  "Show current context details",
		Action: contextShowAction,
	}
}

func contextShowAction(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, err := cfg.Current()
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"current-context": cfg.CurrentContext,
		"context":         ctx.ToMap(),
	}

	encoder := yaml.NewEncoder(c.App.Writer)
	defer encoder.Close()

	return encoder.Encode(data)
}
