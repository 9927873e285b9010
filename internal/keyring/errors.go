package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourorg/rpckeyring/internal/node"
)

var (
	// ErrConnectivity means the remote node could not be reached.
	ErrConnectivity = errors.New("remote node unreachable")

	// ErrRemoteSignRejected means the node explicitly refused the request,
	// for example because the account is unknown or locked.
	ErrRemoteSignRejected = errors.New("remote node rejected signing request")

	// ErrSignatureUnavailable means the node accepted the transaction but
	// never produced its raw signed form within the retrieval policy.
	ErrSignatureUnavailable = errors.New("signed transaction not available from remote node")

	// ErrUnsupportedOperation is returned for operations that would need
	// local key material.
	ErrUnsupportedOperation = errors.New("not supported on this keyring")

	// ErrEncodingMismatch means the node's raw transaction does not describe
	// the transaction the caller asked to sign.
	ErrEncodingMismatch = errors.New("remote transaction encoding does not match request")
)

// classify wraps an error from the node client into the keyring taxonomy.
// Node-side errors become ErrRemoteSignRejected and keep the *node.Error in
// the chain; context errors pass through untouched.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var nodeErr *node.Error
	if errors.As(err, &nodeErr) {
		return fmt.Errorf("%s: %w: %w", op, ErrRemoteSignRejected, nodeErr)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrConnectivity, err)
}
