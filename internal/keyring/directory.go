package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yourorg/rpckeyring/internal/node"
)

// Caller performs a single JSON-RPC call. *node.Client implements it.
type Caller interface {
	Call(ctx context.Context, result interface{}, method string, params ...interface{}) error
}

// Directory lists the accounts the remote node will sign for.
type Directory struct {
	caller Caller
}

// NewDirectory creates a directory backed by caller.
func NewDirectory(caller Caller) *Directory {
	return &Directory{caller: caller}
}

// ListAccounts returns the node's accounts in the order the node reports
// them. Nothing is cached; the node may lock or unlock accounts at any time.
//
// An error reported by the node comes back as a *node.Error (use errors.As);
// it is not a signing rejection. Failures to reach the node wrap
// ErrConnectivity.
func (d *Directory) ListAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := d.caller.Call(ctx, &accounts, "eth_accounts"); err != nil {
		var nodeErr *node.Error
		if errors.As(err, &nodeErr) {
			return nil, fmt.Errorf("failed to list accounts: %w", nodeErr)
		}
		return nil, classify("failed to list accounts", err)
	}
	if accounts == nil {
		accounts = []common.Address{}
	}
	return accounts, nil
}
