package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sigweihq/x402chat/pkg/constants"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/utils"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

// Caller performs JSON HTTP calls and reports failures as *ResponseError, so a 402
// from a paid endpoint reaches HandleFlow as a structured challenge
type Caller struct {
	client  *http.Client
	headers map[string]string
	network string
	asset   wallet.Asset
}

// CallerOption configures a Caller
type CallerOption func(*Caller)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) CallerOption {
	return func(c *Caller) {
		c.client = client
	}
}

// WithHeaders adds headers to every request
func WithHeaders(headers map[string]string) CallerOption {
	return func(c *Caller) {
		c.headers = headers
	}
}

// WithNetwork selects which accepted payment option to use when a 402 lists several
func WithNetwork(network string) CallerOption {
	return func(c *Caller) {
		c.network = network
	}
}

// WithAsset sets the asset whose decimals convert a standard 402's smallest-unit amount.
// Without it, USDC on the selected option's network is used.
func WithAsset(asset wallet.Asset) CallerOption {
	return func(c *Caller) {
		c.asset = asset
	}
}

// NewCaller creates a caller
func NewCaller(opts ...CallerOption) *Caller {
	c := &Caller{
		client:  utils.CreateHTTPClientWithTimeouts(),
		network: constants.NetworkBaseSepolia,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends body as JSON and decodes a 2xx response into out (when non-nil)
func (c *Caller) Do(ctx context.Context, method, url string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, int64(constants.MaxResponseBodySize)))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Caller) responseError(status int, body []byte) *ResponseError {
	if status != http.StatusPaymentRequired {
		return &ResponseError{
			StatusCode: status,
			Message:    fmt.Sprintf("request failed with status %d: %s", status, string(body)),
		}
	}

	return &ResponseError{
		StatusCode: status,
		Data:       c.decodeChallenge(body),
		Message:    "402 Payment Required",
	}
}

// decodeChallenge accepts both the standard x402 body and a flat challenge object
func (c *Caller) decodeChallenge(body []byte) *types.ChallengeData {
	var standard types.PaymentRequiredResponse
	if err := json.Unmarshal(body, &standard); err == nil && len(standard.Accepts) > 0 {
		data := ChallengeDataFromRequirements(selectRequirements(standard.Accepts, c.network), c.asset)
		data.Message = standard.Error
		return &data
	}

	var flat types.ChallengeData
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil
	}
	return &flat
}

// JSONCall returns a call for HandleFlow that sends body to url and decodes the response as T
func JSONCall[T any](c *Caller, method, url string, body any) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var out T
		if err := c.Do(ctx, method, url, body, &out); err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}
