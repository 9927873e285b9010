package accounts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/eth"
	"github.com/yourorg/rpckeyring/internal/middleware"
	"go.uber.org/zap"
)

// Command returns the accounts command
func Command() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "Inspect the accounts held by the remote node",
		Subcommands: []*cli.Command{
			listCommand(),
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the accounts the node signs for",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "network",
				Usage: "Also show the chain the node is connected to",
			},
		},
		Action: accountsListAction,
	}
}

func accountsListAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	kr, err := middleware.NewKeyring(c)
	if err != nil {
		return err
	}
	defer kr.Close()

	endpoint := kr.Serialize().Endpoint
	if c.Bool("network") {
		info, err := eth.GetNetworkInfo(c.Context, endpoint)
		if err != nil {
			log.Warn("Failed to get network info", zap.String("endpoint", endpoint), zap.Error(err))
		} else {
			fmt.Fprintf(c.App.Writer, "Network: %s\n", info)
		}
	}

	accounts, err := kr.GetAccounts(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	log.Debug("Listed accounts", zap.String("endpoint", endpoint), zap.Int("count", len(accounts)))

	if len(accounts) == 0 {
		fmt.Fprintf(c.App.Writer, "No accounts available at %s\n", endpoint)
		return nil
	}

	defaultAccount := ""
	if currentCtx, err := middleware.GetCurrentContext(c); err == nil {
		defaultAccount = currentCtx.DefaultAccount
	}

	table := tablewriter.NewWriter(c.App.Writer)
	table.Header("INDEX", "ADDRESS", "DEFAULT")

	for i, addr := range accounts {
		isDefault := ""
		if strings.EqualFold(addr.Hex(), defaultAccount) {
			isDefault = "*"
		}
		table.Append([]string{
			strconv.Itoa(i),
			addr.Hex(),
			isDefault,
		})
	}

	table.Render()
	return nil
}
