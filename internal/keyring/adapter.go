package keyring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/yourorg/rpckeyring/internal/logger"
	"github.com/yourorg/rpckeyring/internal/node"
	"github.com/yourorg/rpckeyring/internal/retry"
	"go.uber.org/zap"
)

var _ Keyring = (*Adapter)(nil)

var (
	errRawNotFound   = errors.New("raw transaction not found")
	errKeyringClosed = errors.New("keyring is closed")
)

// ReconfigureFunc is called after the adapter switched to a new endpoint.
type ReconfigureFunc func(prev, next Options)

// Adapter is a Keyring whose accounts live on a remote node.
type Adapter struct {
	policy   retry.Policy
	newTimer func() retry.Timer
	ids      node.IDGenerator
	log      logger.Logger

	mu        sync.RWMutex
	opts      Options
	conn      *connection
	listeners map[uint64]ReconfigureFunc
	nextID    uint64
}

// connection pairs a node client with a count of the calls using it, so a
// replaced connection is closed only after those calls return.
type connection struct {
	client *node.Client
	dir    *Directory
	active sync.WaitGroup
}

func (c *connection) release() {
	c.active.Done()
}

func (c *connection) drainAndClose() {
	c.active.Wait()
	c.client.Close()
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		a.log = l
	}
}

// WithRetryPolicy overrides the raw transaction retrieval policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(a *Adapter) {
		a.policy = p
	}
}

// WithTimer sets the factory for timers used between retrieval attempts.
// Each SignTransaction call gets its own timer.
func WithTimer(newTimer func() retry.Timer) Option {
	return func(a *Adapter) {
		a.newTimer = newTimer
	}
}

// WithIDGenerator sets the request id source shared by every connection the
// adapter opens.
func WithIDGenerator(ids node.IDGenerator) Option {
	return func(a *Adapter) {
		a.ids = ids
	}
}

// New creates an adapter and connects it to opts.Endpoint. Without WithLogger
// the adapter logs to the logger carried by ctx.
func New(ctx context.Context, opts Options, options ...Option) (*Adapter, error) {
	a := &Adapter{
		policy:    retry.DefaultPolicy,
		ids:       &node.SequentialIDs{},
		listeners: make(map[uint64]ReconfigureFunc),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.FromContext(ctx)
	}
	if err := a.policy.Validate(); err != nil {
		return nil, err
	}

	if err := a.Deserialize(ctx, opts); err != nil {
		return nil, err
	}
	return a, nil
}

// Type returns the keyring kind.
func (a *Adapter) Type() string {
	return Type
}

// Serialize returns the configured endpoint.
func (a *Adapter) Serialize() Options {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.opts
}

// Deserialize connects to opts.Endpoint and makes it the adapter's
// connection. Calls already running finish on the previous connection, which
// is closed once they are done.
func (a *Adapter) Deserialize(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()

	client, err := node.Dial(ctx, opts.Endpoint, node.WithIDGenerator(a.ids), node.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	next := &connection{client: client, dir: NewDirectory(client)}

	a.mu.Lock()
	prevOpts, prev := a.opts, a.conn
	a.opts, a.conn = opts, next
	listeners := make([]ReconfigureFunc, 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	if prev != nil {
		go prev.drainAndClose()
	}

	a.log.Info("Keyring endpoint configured", zap.String("endpoint", opts.Endpoint))
	for _, fn := range listeners {
		fn(prevOpts, opts)
	}
	return nil
}

// OnReconfigure registers fn to run after every successful Deserialize. The
// returned function removes the registration.
func (a *Adapter) OnReconfigure(fn ReconfigureFunc) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextID
	a.nextID++
	a.listeners[id] = fn

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

// Close closes the current connection after in-flight calls return.
// Deserialize reopens the adapter.
func (a *Adapter) Close() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()

	if conn != nil {
		conn.drainAndClose()
	}
}

func (a *Adapter) acquire() (*connection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.conn == nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, errKeyringClosed)
	}
	a.conn.active.Add(1)
	return a.conn, nil
}

// AddAccounts is not supported: accounts are managed by the remote node.
func (a *Adapter) AddAccounts(n int) ([]common.Address, error) {
	return nil, fmt.Errorf("add accounts: %w", ErrUnsupportedOperation)
}

// GetAccounts returns the accounts the remote node signs for.
func (a *Adapter) GetAccounts(ctx context.Context) ([]common.Address, error) {
	conn, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer conn.release()

	return conn.dir.ListAccounts(ctx)
}

// RemoveAccount is not supported: accounts are managed by the remote node.
func (a *Adapter) RemoveAccount(address common.Address) error {
	return fmt.Errorf("remove account %s: %w", address.Hex(), ErrUnsupportedOperation)
}

// ExportAccount is not supported: the keyring never holds key material.
func (a *Adapter) ExportAccount(address common.Address) (string, error) {
	return "", fmt.Errorf("export account %s: %w", address.Hex(), ErrUnsupportedOperation)
}

// SignTransaction has the node sign tx on behalf of address and merges the
// resulting signature into tx. Only V, R and S are taken from the node.
//
// The node is asked to send the transaction, then polled for the raw signed
// bytes; a node may accept a transaction before it can return it by hash.
func (a *Adapter) SignTransaction(ctx context.Context, address common.Address, tx *Transaction) (*Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}

	conn, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer conn.release()

	log := a.log.With(zap.String("from", address.Hex()), zap.Uint64("nonce", tx.Nonce))

	var hash common.Hash
	if err := conn.client.Call(ctx, &hash, "eth_sendTransaction", newSendTxArgs(address, tx)); err != nil {
		log.Warn("Failed to submit transaction", zap.Error(err))
		return nil, classify("failed to submit transaction", err)
	}
	if hash == (common.Hash{}) {
		return nil, fmt.Errorf("failed to submit transaction: %w: empty transaction hash", ErrRemoteSignRejected)
	}
	log = log.With(zap.String("hash", hash.Hex()))
	log.Debug("Transaction accepted by node")

	raw, err := a.fetchRawTransaction(ctx, conn, hash, log)
	if err != nil {
		return nil, err
	}

	signed, err := decodeRaw(raw, address, tx)
	if err != nil {
		log.Error("Remote transaction does not match request", zap.Error(err))
		return nil, err
	}

	mergeSignature(tx, signed)
	log.Info("Transaction signed by remote node")
	return tx, nil
}

func (a *Adapter) fetchRawTransaction(ctx context.Context, conn *connection, hash common.Hash, log logger.Logger) ([]byte, error) {
	var raw hexutil.Bytes
	fetch := func(ctx context.Context) error {
		var out hexutil.Bytes
		if err := conn.client.Call(ctx, &out, "eth_getRawTransactionByHash", hash); err != nil {
			return err
		}
		if len(out) == 0 {
			return errRawNotFound
		}
		raw = out
		return nil
	}

	opts := []retry.Option{
		retry.WithNotify(func(attempt int, err error, next time.Duration) {
			log.Warn("Signed transaction not available yet",
				zap.Int("attempt", attempt),
				zap.Duration("retryIn", next),
				zap.Error(err))
		}),
	}
	if a.newTimer != nil {
		opts = append(opts, retry.WithTimer(a.newTimer()))
	}

	if err := retry.Do(ctx, a.policy, fetch, opts...); err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			log.Error("Gave up waiting for signed transaction", zap.Error(err))
			return nil, fmt.Errorf("%w: transaction %s: %v", ErrSignatureUnavailable, hash.Hex(), err)
		}
		return nil, classify("failed to retrieve signed transaction", err)
	}
	return raw, nil
}

// SignMessage asks the node to sign data with eth_sign.
func (a *Adapter) SignMessage(ctx context.Context, address common.Address, data []byte) ([]byte, error) {
	return a.sign(ctx, "failed to sign message", "eth_sign", address, hexutil.Bytes(data))
}

// SignPersonalMessage asks the node to sign message with personal_sign.
func (a *Adapter) SignPersonalMessage(ctx context.Context, address common.Address, message []byte) ([]byte, error) {
	return a.sign(ctx, "failed to sign personal message", "personal_sign", hexutil.Bytes(message), address)
}

// SignTypedData asks the node to sign EIP-712 typed data.
func (a *Adapter) SignTypedData(ctx context.Context, address common.Address, typedData apitypes.TypedData) ([]byte, error) {
	return a.sign(ctx, "failed to sign typed data", "eth_signTypedData", address, typedData)
}

func (a *Adapter) sign(ctx context.Context, op, method string, params ...interface{}) ([]byte, error) {
	conn, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer conn.release()

	var sig hexutil.Bytes
	if err := conn.client.Call(ctx, &sig, method, params...); err != nil {
		a.log.Warn("Signing request failed", zap.String("method", method), zap.Error(err))
		return nil, classify(op, err)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("%s: %w: empty signature", op, ErrRemoteSignRejected)
	}
	return sig, nil
}
