package keyring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/rpckeyring/internal/keyring"
	"github.com/yourorg/rpckeyring/internal/node"
)

type stubCaller struct {
	err error
}

func (s *stubCaller) Call(context.Context, interface{}, string, ...interface{}) error {
	return s.err
}

func TestDirectory_ListAccounts_Errors(t *testing.T) {
	t.Run("Node error", func(t *testing.T) {
		dir := keyring.NewDirectory(&stubCaller{err: &node.Error{Code: -32601, Message: "method not found"}})

		_, err := dir.ListAccounts(context.Background())
		require.Error(t, err)

		var nodeErr *node.Error
		require.ErrorAs(t, err, &nodeErr)
		assert.Equal(t, -32601, nodeErr.Code)
		assert.NotErrorIs(t, err, keyring.ErrRemoteSignRejected)
		assert.NotErrorIs(t, err, keyring.ErrConnectivity)
	})

	t.Run("Transport failure", func(t *testing.T) {
		dir := keyring.NewDirectory(&stubCaller{err: errors.New("connection refused")})

		_, err := dir.ListAccounts(context.Background())
		assert.ErrorIs(t, err, keyring.ErrConnectivity)
	})

	t.Run("Null result", func(t *testing.T) {
		accs, err := keyring.NewDirectory(&stubCaller{}).ListAccounts(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, accs)
		assert.Empty(t, accs)
	})
}
