package sign

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/urfave/cli/v2"
	"github.com/yourorg/rpckeyring/internal/keyring"
	"github.com/yourorg/rpckeyring/internal/middleware"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var fromFlag = &cli.StringFlag{
	Name:  "from",
	Usage: "Signing account (uses the context default account if not provided)",
}

// Command returns the sign command
func Command() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Sign with an account held by the remote node",
		Subcommands: []*cli.Command{
			txCommand(),
			messageCommand(),
			personalCommand(),
			typedDataCommand(),
		},
	}
}

func txCommand() *cli.Command {
	return &cli.Command{
		Name:  "tx",
		Usage: "Sign a legacy transaction",
		Description: `Submits the transaction to the node for signing, waits for the signed
encoding and prints its signature and raw bytes. The node may also broadcast it.`,
		Flags: []cli.Flag{
			fromFlag,
			&cli.StringFlag{
				Name:  "to",
				Usage: "Recipient address (omit for contract creation)",
			},
			&cli.Uint64Flag{
				Name:  "nonce",
				Usage: "Transaction nonce",
			},
			&cli.StringFlag{
				Name:  "gas-price",
				Usage: "Gas price in wei (decimal or 0x hex)",
				Value: "0",
			},
			&cli.Uint64Flag{
				Name:  "gas-limit",
				Usage: "Gas limit",
				Value: 21000,
			},
			&cli.StringFlag{
				Name:  "value",
				Usage: "Value in wei (decimal or 0x hex)",
				Value: "0",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Call data (0x hex)",
			},
		},
		Action: signTxAction,
	}
}

func messageCommand() *cli.Command {
	return &cli.Command{
		Name:      "message",
		Usage:     "Sign hex data with eth_sign",
		ArgsUsage: "<0x data>",
		Flags:     []cli.Flag{fromFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one hex data argument")
			}
			data, err := hexutil.Decode(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid data: %w", err)
			}
			return signAndPrint(c, func(kr keyring.Keyring, from common.Address) ([]byte, error) {
				return kr.SignMessage(c.Context, from, data)
			})
		},
	}
}

func personalCommand() *cli.Command {
	return &cli.Command{
		Name:      "personal",
		Usage:     "Sign a text message with personal_sign",
		ArgsUsage: "<message>",
		Flags:     []cli.Flag{fromFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one message argument")
			}
			message := []byte(c.Args().First())
			return signAndPrint(c, func(kr keyring.Keyring, from common.Address) ([]byte, error) {
				return kr.SignPersonalMessage(c.Context, from, message)
			})
		},
	}
}

func typedDataCommand() *cli.Command {
	return &cli.Command{
		Name:  "typed-data",
		Usage: "Sign EIP-712 typed data read from a JSON file",
		Flags: []cli.Flag{
			fromFlag,
			&cli.PathFlag{
				Name:     "file",
				Usage:    "Path to the typed data JSON document",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			typedData, err := loadTypedData(c.Path("file"))
			if err != nil {
				return err
			}
			return signAndPrint(c, func(kr keyring.Keyring, from common.Address) ([]byte, error) {
				return kr.SignTypedData(c.Context, from, typedData)
			})
		},
	}
}

type signatureOutput struct {
	From      string `yaml:"from"`
	Signature string `yaml:"signature"`
}

type txOutput struct {
	From   string `yaml:"from"`
	Sender string `yaml:"sender"`
	Hash   string `yaml:"hash"`
	V      string `yaml:"v"`
	R      string `yaml:"r"`
	S      string `yaml:"s"`
	Raw    string `yaml:"raw"`
}

func signTxAction(c *cli.Context) error {
	log := middleware.GetLogger(c)

	tx, err := transactionFromFlags(c)
	if err != nil {
		return err
	}

	from, err := resolveFrom(c)
	if err != nil {
		return err
	}

	kr, err := middleware.NewKeyring(c)
	if err != nil {
		return err
	}
	defer kr.Close()

	log.Info("Signing transaction", zap.String("from", from.Hex()), zap.Uint64("nonce", tx.Nonce))

	signed, err := kr.SignTransaction(c.Context, from, tx)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	sender, err := signed.Sender()
	if err != nil {
		return fmt.Errorf("failed to recover sender: %w", err)
	}

	return printYAML(c, txOutput{
		From:   from.Hex(),
		Sender: sender.Hex(),
		Hash:   signed.Signed().Hash().Hex(),
		V:      hexutil.EncodeBig(signed.V),
		R:      hexutil.EncodeBig(signed.R),
		S:      hexutil.EncodeBig(signed.S),
		Raw:    hexutil.Encode(raw),
	})
}

func signAndPrint(c *cli.Context, sign func(keyring.Keyring, common.Address) ([]byte, error)) error {
	from, err := resolveFrom(c)
	if err != nil {
		return err
	}

	kr, err := middleware.NewKeyring(c)
	if err != nil {
		return err
	}
	defer kr.Close()

	sig, err := sign(kr, from)
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}

	return printYAML(c, signatureOutput{
		From:      from.Hex(),
		Signature: hexutil.Encode(sig),
	})
}

func transactionFromFlags(c *cli.Context) (*keyring.Transaction, error) {
	gasPrice, err := parseWei("gas-price", c.String("gas-price"))
	if err != nil {
		return nil, err
	}
	value, err := parseWei("value", c.String("value"))
	if err != nil {
		return nil, err
	}

	tx := &keyring.Transaction{
		Nonce:    c.Uint64("nonce"),
		GasPrice: gasPrice,
		GasLimit: c.Uint64("gas-limit"),
		Value:    value,
	}

	if to := c.String("to"); to != "" {
		if !common.IsHexAddress(to) {
			return nil, fmt.Errorf("invalid recipient address: %s", to)
		}
		addr := common.HexToAddress(to)
		tx.To = &addr
	}

	if data := c.String("data"); data != "" {
		tx.Data, err = hexutil.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
	}
	return tx, nil
}

func resolveFrom(c *cli.Context) (common.Address, error) {
	from := c.String("from")
	if from == "" {
		if currentCtx, err := middleware.GetCurrentContext(c); err == nil {
			from = currentCtx.DefaultAccount
		}
	}
	if from == "" {
		return common.Address{}, fmt.Errorf("--from is required (or set a default with 'rpckeyring context set --default-account')")
	}
	if !common.IsHexAddress(from) {
		return common.Address{}, fmt.Errorf("invalid account address: %s", from)
	}
	return common.HexToAddress(from), nil
}

func parseWei(name, s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %s", name, s)
	}
	return v, nil
}

func loadTypedData(path string) (apitypes.TypedData, error) {
	var typedData apitypes.TypedData

	data, err := os.ReadFile(path)
	if err != nil {
		return typedData, fmt.Errorf("failed to read typed data: %w", err)
	}
	if err := json.Unmarshal(data, &typedData); err != nil {
		return typedData, fmt.Errorf("failed to parse typed data: %w", err)
	}
	return typedData, nil
}

func printYAML(c *cli.Context, v interface{}) error {
	encoder := yaml.NewEncoder(c.App.Writer)
	defer encoder.Close()
	return encoder.Encode(v)
}
