package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/bchsol/CryptoDragon/internal/crypto"
	"github.com/bchsol/CryptoDragon/internal/domain"
)

const submitPath = "/api/v1/relay"

// Client is the HTTP client for the relay service that executes signed
// forwarder requests on the user's behalf and pays the gas.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       *crypto.HMACAuth // nil when the relay is unauthenticated
}

// NewClient creates a relay Client. auth may be nil for relays that do not
// meter submissions.
func NewClient(baseURL string, auth *crypto.HMACAuth) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		auth: auth,
	}
}

// wireRequest is the JSON form of a forwarder request. Numeric fields are
// strings to preserve uint256 precision.
type wireRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Gas   string `json:"gas"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"` // 0x-prefixed hex
}

type wireEnvelope struct {
	Request   wireRequest `json:"request"`
	Signature string      `json:"signature"` // 0x-prefixed hex
}

type wireResult struct {
	Accepted bool   `json:"accepted"`
	TxHash   string `json:"txHash"`
	TaskID   string `json:"taskId"`
	Message  string `json:"message"`
}

// Submit posts a signed envelope to the relay and returns its
// acknowledgement. Transport failures, relay rejections, and on-chain
// reverts reported by the relay all surface as ErrRelayRejected; the caller
// does not distinguish them.
func (c *Client) Submit(ctx context.Context, env domain.SignedEnvelope) (domain.RelayResult, error) {
	req := env.Request
	body := wireEnvelope{
		Request: wireRequest{
			From:  req.From.Hex(),
			To:    req.To.Hex(),
			Value: req.Value.String(),
			Gas:   fmt.Sprintf("%d", req.Gas),
			Nonce: req.Nonce.String(),
			Data:  hexutil.Encode(req.Data),
		},
		Signature: hexutil.Encode(env.Signature),
	}

	respBody, err := c.post(ctx, submitPath, body)
	if err != nil {
		return domain.RelayResult{}, fmt.Errorf("relay: submit: %w", err)
	}

	var result wireResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.RelayResult{}, fmt.Errorf("relay: decode response: %w", err)
	}
	if !result.Accepted {
		return domain.RelayResult{}, fmt.Errorf("relay: %w: %s", domain.ErrRelayRejected, result.Message)
	}

	return domain.RelayResult{
		TxHash:  result.TxHash,
		TaskID:  result.TaskID,
		Message: result.Message,
	}, nil
}

// post builds, authenticates, sends, and reads a relay request, returning
// the raw response body.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.auth != nil {
		for k, v := range c.auth.Headers(http.MethodPost, path, string(jsonBody)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrRelayRejected, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Compile-time interface check.
var _ domain.RelayTransport = (*Client)(nil)
