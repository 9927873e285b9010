package keyring

import (
	"context"
	"fmt"

	"github.com/yourorg/rpckeyring/internal/config"
)

// FromContext creates an adapter from the context configuration. An empty
// endpoint falls back to DefaultEndpoint.
func FromContext(ctx context.Context, cfgCtx *config.Context, opts ...Option) (*Adapter, error) {
	if cfgCtx == nil {
		return nil, fmt.Errorf("no context configured")
	}
	return New(ctx, Options{Endpoint: cfgCtx.KeyringEndpoint()}, opts...)
}
