package keyring

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Transaction is the caller-owned transaction handed to SignTransaction.
// SignTransaction fills V, R and S in place and leaves every other field as
// the caller set it.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       *common.Address // nil means contract creation
	Value    *big.Int
	Data     []byte

	V, R, S *big.Int
}

// IsSigned reports whether signature components are present.
func (tx *Transaction) IsSigned() bool {
	return tx.V != nil && tx.R != nil && tx.S != nil
}

// Signed returns the go-ethereum form of tx, including any signature.
func (tx *Transaction) Signed() *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: orZero(tx.GasPrice),
		Gas:      tx.GasLimit,
		To:       tx.To,
		Value:    orZero(tx.Value),
		Data:     common.CopyBytes(tx.Data),
		V:        orZero(tx.V),
		R:        orZero(tx.R),
		S:        orZero(tx.S),
	})
}

// MarshalBinary returns the canonical encoding of the signed transaction, as
// it would be broadcast.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	if !tx.IsSigned() {
		return nil, fmt.Errorf("transaction is not signed")
	}
	return tx.Signed().MarshalBinary()
}

// Sender recovers the address that produced the signature.
func (tx *Transaction) Sender() (common.Address, error) {
	if !tx.IsSigned() {
		return common.Address{}, fmt.Errorf("transaction is not signed")
	}
	signed := tx.Signed()
	return types.Sender(types.LatestSignerForChainID(signed.ChainId()), signed)
}

// sendTxArgs is the eth_sendTransaction parameter object.
type sendTxArgs struct {
	From     common.Address  `json:"from"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Gas      hexutil.Uint64  `json:"gas"`
	To       *common.Address `json:"to,omitempty"`
	Value    *hexutil.Big    `json:"value"`
	Data     hexutil.Bytes   `json:"data"`
}

func newSendTxArgs(from common.Address, tx *Transaction) *sendTxArgs {
	data := tx.Data
	if data == nil {
		data = []byte{}
	}
	return &sendTxArgs{
		From:     from,
		Nonce:    hexutil.Uint64(tx.Nonce),
		GasPrice: (*hexutil.Big)(orZero(tx.GasPrice)),
		Gas:      hexutil.Uint64(tx.GasLimit),
		To:       tx.To,
		Value:    (*hexutil.Big)(orZero(tx.Value)),
		Data:     data,
	}
}

// decodeRaw parses the node's raw signed transaction and checks that it
// describes the same legacy transaction the caller submitted, signed by from.
func decodeRaw(raw []byte, from common.Address, want *Transaction) (*types.Transaction, error) {
	decoded := new(types.Transaction)
	if err := decoded.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingMismatch, err)
	}
	if decoded.Type() != types.LegacyTxType {
		return nil, fmt.Errorf("%w: expected legacy transaction, got type %d", ErrEncodingMismatch, decoded.Type())
	}

	switch {
	case decoded.Nonce() != want.Nonce:
		return nil, fmt.Errorf("%w: nonce %d, requested %d", ErrEncodingMismatch, decoded.Nonce(), want.Nonce)
	case decoded.GasPrice().Cmp(orZero(want.GasPrice)) != 0:
		return nil, fmt.Errorf("%w: gas price %s, requested %s", ErrEncodingMismatch, decoded.GasPrice(), orZero(want.GasPrice))
	case decoded.Gas() != want.GasLimit:
		return nil, fmt.Errorf("%w: gas limit %d, requested %d", ErrEncodingMismatch, decoded.Gas(), want.GasLimit)
	case !sameRecipient(decoded.To(), want.To):
		return nil, fmt.Errorf("%w: recipient differs", ErrEncodingMismatch)
	case decoded.Value().Cmp(orZero(want.Value)) != 0:
		return nil, fmt.Errorf("%w: value %s, requested %s", ErrEncodingMismatch, decoded.Value(), orZero(want.Value))
	case !bytes.Equal(decoded.Data(), want.Data):
		return nil, fmt.Errorf("%w: data differs", ErrEncodingMismatch)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(decoded.ChainId()), decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid signature: %w", ErrEncodingMismatch, err)
	}
	if sender != from {
		return nil, fmt.Errorf("%w: signed by %s, requested %s", ErrEncodingMismatch, sender.Hex(), from.Hex())
	}
	return decoded, nil
}

// mergeSignature copies the signature of signed into tx.
func mergeSignature(tx *Transaction, signed *types.Transaction) {
	v, r, s := signed.RawSignatureValues()
	tx.V = new(big.Int).Set(v)
	tx.R = new(big.Int).Set(r)
	tx.S = new(big.Int).Set(s)
}

func sameRecipient(a, b *common.Address) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
