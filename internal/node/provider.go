package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

const maxErrorBody = 4 << 10

// Provider delivers a single request envelope to the remote node and returns
// its response envelope. Node-side errors come back inside the Response; the
// returned error is reserved for delivery failures.
type Provider interface {
	Send(ctx context.Context, req *Request) (*Response, error)
	Close()
}

// HTTPProvider posts envelopes to an http(s) endpoint.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider creates a provider for endpoint. A nil client means http.DefaultClient.
func NewHTTPProvider(endpoint string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{
		endpoint: endpoint,
		client:   client,
	}
}

// Send posts req and decodes the response envelope.
func (p *HTTPProvider) Send(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, fmt.Errorf("unexpected http status %s: %s", httpResp.Status, strings.TrimSpace(string(snippet)))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// Close releases idle connections.
func (p *HTTPProvider) Close() {
	p.client.CloseIdleConnections()
}

// gethProvider carries envelopes over a go-ethereum rpc.Client, which is
// used for websocket and IPC endpoints. The client numbers requests on the
// wire itself, so the envelope id is echoed back unchanged.
type gethProvider struct {
	client *rpc.Client
}

func (p *gethProvider) Send(ctx context.Context, req *Request) (*Response, error) {
	id := req.ID
	resp := &Response{JSONRPC: jsonrpcVersion, ID: &id}

	var raw json.RawMessage
	err := p.client.CallContext(ctx, &raw, req.Method, req.Params...)
	switch {
	case err == nil:
		resp.Result = raw
		return resp, nil
	case errors.Is(err, rpc.ErrNoResult):
		return resp, nil
	}

	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return nil, err
	}
	resp.Error = &Error{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		resp.Error.Data = dataErr.ErrorData()
	}
	return resp, nil
}

func (p *gethProvider) Close() {
	p.client.Close()
}

// NewProvider picks a provider for endpoint: http(s) URLs get an
// HTTPProvider, everything else (ws, wss, IPC paths) a go-ethereum client.
func NewProvider(ctx context.Context, endpoint string, httpClient *http.Client) (Provider, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPProvider(endpoint, httpClient), nil
	case "ws", "wss", "":
		c, err := rpc.DialContext(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
		}
		return &gethProvider{client: c}, nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}
