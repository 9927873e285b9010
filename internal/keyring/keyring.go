// Package keyring exposes a remote JSON-RPC node's accounts through the
// keyring interface a wallet uses for local keys. The node does all signing;
// no private key ever reaches this process.
package keyring

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/yourorg/rpckeyring/internal/config"
)

const (
	// Type identifies this keyring kind.
	Type = "RPC Passthrough"

	// DefaultEndpoint is used when no endpoint is configured.
	DefaultEndpoint = config.DefaultEndpoint
)

// Options is the keyring's entire persisted state.
type Options struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

func (o Options) withDefaults() Options {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	return o
}

// Keyring is the account keyring abstraction a wallet signs through.
type Keyring interface {
	// Type returns the keyring kind
	Type() string

	// Serialize returns the state needed to rebuild the keyring
	Serialize() Options

	// Deserialize reconfigures the keyring from serialized state
	Deserialize(ctx context.Context, opts Options) error

	// AddAccounts creates n new accounts
	AddAccounts(n int) ([]common.Address, error)

	// GetAccounts returns the accounts the keyring can sign for
	GetAccounts(ctx context.Context) ([]common.Address, error)

	// RemoveAccount forgets an account
	RemoveAccount(address common.Address) error

	// SignTransaction signs tx in place and returns it
	SignTransaction(ctx context.Context, address common.Address, tx *Transaction) (*Transaction, error)

	// SignMessage signs raw data (eth_sign)
	SignMessage(ctx context.Context, address common.Address, data []byte) ([]byte, error)

	// SignPersonalMessage signs an EIP-191 personal message
	SignPersonalMessage(ctx context.Context, address common.Address, message []byte) ([]byte, error)

	// SignTypedData signs EIP-712 typed data
	SignTypedData(ctx context.Context, address common.Address, typedData apitypes.TypedData) ([]byte, error)

	// ExportAccount returns the private key of an account
	ExportAccount(address common.Address) (string, error)
}
