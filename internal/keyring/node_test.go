package keyring_test

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/rpckeyring/internal/retry"
)

var testChainID = big.NewInt(1337)

// fakeNode is an in-process JSON-RPC node that signs with throwaway keys.
type fakeNode struct {
	keys  map[common.Address]*ecdsa.PrivateKey
	order []common.Address

	mu        sync.Mutex
	raw       map[common.Hash][]byte
	rawMisses int  // first N raw lookups fail
	rawNull   bool // misses answer with an empty result instead of an error
	rawCalls  int
	locked    map[common.Address]bool
	tamper    func(tx *types.LegacyTx)
	dynamic   bool
	signAs    common.Address // when set, transactions are signed with this account's key
}

func newFakeNode(t *testing.T, n int) *fakeNode {
	t.Helper()
	node := &fakeNode{
		keys:   make(map[common.Address]*ecdsa.PrivateKey),
		raw:    make(map[common.Hash][]byte),
		locked: make(map[common.Address]bool),
	}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		addr := crypto.PubkeyToAddress(key.PublicKey)
		node.keys[addr] = key
		node.order = append(node.order, addr)
	}
	return node
}

// serve starts the node over HTTP and returns its endpoint.
func (n *fakeNode) serve(t *testing.T) string {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", &ethService{node: n}))
	require.NoError(t, srv.RegisterName("personal", &personalService{node: n}))

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return ts.URL
}

func (n *fakeNode) key(addr common.Address) (*ecdsa.PrivateKey, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	key, ok := n.keys[addr]
	if !ok {
		return nil, errors.New("unknown account")
	}
	if n.locked[addr] {
		return nil, errors.New("authentication needed: password or unlock")
	}
	return key, nil
}

func (n *fakeNode) rawLookups() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rawCalls
}

func signHash(key *ecdsa.PrivateKey, hash []byte) (hexutil.Bytes, error) {
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

type sendArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	Data     hexutil.Bytes   `json:"data"`
}

type ethService struct {
	node *fakeNode
}

func (s *ethService) Accounts() []common.Address {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return append([]common.Address(nil), s.node.order...)
}

func (s *ethService) SendTransaction(args sendArgs) (common.Hash, error) {
	key, err := s.node.key(args.From)
	if err != nil {
		return common.Hash{}, err
	}
	if s.node.signAs != (common.Address{}) {
		if key, err = s.node.key(s.node.signAs); err != nil {
			return common.Hash{}, err
		}
	}

	legacy := &types.LegacyTx{
		Nonce:    uint64(args.Nonce),
		GasPrice: args.GasPrice.ToInt(),
		Gas:      uint64(args.Gas),
		To:       args.To,
		Value:    args.Value.ToInt(),
		Data:     args.Data,
	}
	if s.node.tamper != nil {
		s.node.tamper(legacy)
	}

	var txdata types.TxData = legacy
	if s.node.dynamic {
		txdata = &types.DynamicFeeTx{
			ChainID:   testChainID,
			Nonce:     legacy.Nonce,
			GasTipCap: legacy.GasPrice,
			GasFeeCap: legacy.GasPrice,
			Gas:       legacy.Gas,
			To:        legacy.To,
			Value:     legacy.Value,
			Data:      legacy.Data,
		}
	}

	signed, err := types.SignNewTx(key, types.LatestSignerForChainID(testChainID), txdata)
	if err != nil {
		return common.Hash{}, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}

	s.node.mu.Lock()
	s.node.raw[signed.Hash()] = raw
	s.node.mu.Unlock()
	return signed.Hash(), nil
}

func (s *ethService) GetRawTransactionByHash(hash common.Hash) (hexutil.Bytes, error) {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()

	s.node.rawCalls++
	if s.node.rawCalls <= s.node.rawMisses {
		if s.node.rawNull {
			return nil, nil
		}
		return nil, errors.New("transaction not found")
	}
	raw, ok := s.node.raw[hash]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	return raw, nil
}

func (s *ethService) Sign(addr common.Address, data hexutil.Bytes) (hexutil.Bytes, error) {
	key, err := s.node.key(addr)
	if err != nil {
		return nil, err
	}
	return signHash(key, accounts.TextHash(data))
}

func (s *ethService) SignTypedData(addr common.Address, typedData apitypes.TypedData) (hexutil.Bytes, error) {
	key, err := s.node.key(addr)
	if err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, err
	}
	return signHash(key, hash)
}

type personalService struct {
	node *fakeNode
}

func (s *personalService) Sign(data hexutil.Bytes, addr common.Address) (hexutil.Bytes, error) {
	key, err := s.node.key(addr)
	if err != nil {
		return nil, err
	}
	return signHash(key, accounts.TextHash(data))
}

// waitRecorder hands out timers that fire immediately and remembers the
// requested waits.
type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *waitRecorder) newTimer() retry.Timer {
	return &instantTimer{rec: r}
}

func (r *waitRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

type instantTimer struct {
	rec *waitRecorder
	c   chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.rec.mu.Lock()
	t.rec.waits = append(t.rec.waits, d)
	t.rec.mu.Unlock()

	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}

// recoverSigner returns the address behind a 65-byte [R || S || V] signature
// with V in {27, 28}.
func recoverSigner(t *testing.T, hash []byte, sig []byte) common.Address {
	t.Helper()
	require.Len(t, sig, crypto.SignatureLength)

	normalized := common.CopyBytes(sig)
	normalized[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(hash, normalized)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}
