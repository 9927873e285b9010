package context

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/config"
)

func useCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Switch the current context",
		ArgsUsage: "<name>",
		Action:    contextUseAction,
	}
}

func contextUseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one context name")
	}
	name := c.Args().First()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, exists := cfg.Contexts[name]; !exists {
		return fmt.Errorf("context '%s' not found", name)
	}
	cfg.CurrentContext = name

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Switched to context '%s'\n", name)
	return nil
}
