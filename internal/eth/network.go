package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// NetworkInfo contains information about the connected network
type NetworkInfo struct {
	ChainID   *big.Int
	ChainName string
}

// GetChainID retrieves the chain ID from an RPC endpoint
func GetChainID(ctx context.Context, rpcURL string) (*big.Int, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID, nil
}

// GetNetworkInfo retrieves information about the connected network
func GetNetworkInfo(ctx context.Context, rpcURL string) (*NetworkInfo, error) {
	chainID, err := GetChainID(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &NetworkInfo{
		ChainID:   chainID,
		ChainName: ChainName(chainID.Uint64()),
	}, nil
}

// ChainName returns a display name for well-known chain IDs
func ChainName(chainID uint64) string {
	switch chainID {
	case 1:
		return "Ethereum Mainnet"
	case 11155111:
		return "Sepolia Testnet"
	case 17000:
		return "Holesky Testnet"
	case 1337, 31337:
		return "Local Network"
	case 8453:
		return "Base Mainnet"
	case 84532:
		return "Base Sepolia"
	default:
		return fmt.Sprintf("Chain %d", chainID)
	}
}

// String formats the network for display
func (n *NetworkInfo) String() string {
	return fmt.Sprintf("%s (%s)", n.ChainName, n.ChainID)
}
