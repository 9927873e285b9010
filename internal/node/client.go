package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yourorg/rpckeyring/internal/logger"
	"go.uber.org/zap"
)

// ErrTransport marks failures to deliver a request or read its response.
// Errors reported by the node itself are returned as *Error instead.
var ErrTransport = errors.New("node transport failure")

// Client issues JSON-RPC calls against one remote node. It is safe for
// concurrent use; every call carries its own request id.
type Client struct {
	endpoint string
	provider Provider
	ids      IDGenerator
	log      logger.Logger
}

type clientOptions struct {
	ids        IDGenerator
	log        logger.Logger
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*clientOptions)

// WithIDGenerator sets the request id source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(o *clientOptions) {
		o.ids = ids
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) {
		o.log = l
	}
}

// WithHTTPClient sets the http client used for http(s) endpoints.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

func buildOptions(opts []Option) *clientOptions {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.ids == nil {
		o.ids = &SequentialIDs{}
	}
	if o.log == nil {
		o.log = logger.GetLogger()
	}
	return o
}

// Dial connects to endpoint.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	p, err := NewProvider(ctx, endpoint, o.httpClient)
	if err != nil {
		return nil, err
	}
	return newClient(endpoint, p, o), nil
}

// NewClient wraps an existing provider.
func NewClient(endpoint string, p Provider, opts ...Option) *Client {
	return newClient(endpoint, p, buildOptions(opts))
}

func newClient(endpoint string, p Provider, o *clientOptions) *Client {
	return &Client{
		endpoint: endpoint,
		provider: p,
		ids:      o.ids,
		log:      o.log.With(zap.String("endpoint", endpoint)),
	}
}

// Endpoint returns the address the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call invokes method with positional params and decodes the result into
// result. A null result leaves result untouched. Node-side errors are
// returned as *Error; anything else wraps ErrTransport.
func (c *Client) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	req := newRequest(c.ids.NextID(), method, params)
	c.log.Debug("Sending request", zap.String("method", method), zap.Uint64("id", req.ID))

	resp, err := c.provider.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}
	// A null id is only acceptable on an error response.
	nullError := resp.ID == nil && resp.Error != nil
	if !nullError && (resp.ID == nil || *resp.ID != req.ID) {
		return fmt.Errorf("%w: %s: response id %s does not match request id %d", ErrTransport, method, resp.idString(), req.ID)
	}
	if resp.Error != nil {
		c.log.Debug("Node returned error",
			zap.String("method", method),
			zap.Uint64("id", req.ID),
			zap.Int("code", resp.Error.Code),
			zap.String("message", resp.Error.Message))
		return resp.Error
	}

	if result == nil || !hasResult(resp.Result) {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%w: %s: failed to decode result: %w", ErrTransport, method, err)
	}
	return nil
}

// Close releases the underlying provider.
func (c *Client) Close() {
	c.provider.Close()
}
