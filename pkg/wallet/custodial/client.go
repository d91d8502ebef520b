// Package custodial pays from wallets whose keys are held by a remote wallet service
package custodial

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/utils"
)

// DefaultBaseURL is the same-origin API surface of the chat application
const DefaultBaseURL = "http://localhost:3000/api"

// Client talks to the wallet service endpoints:
// /cdp/create-wallet, /cdp/balance, /cdp/transfer, /cdp/fund-wallet
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeaders adds headers (e.g. Authorization) to every request
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		c.headers = headers
	}
}

// NewClient creates a wallet service client
// An empty or insecure baseURL falls back to DefaultBaseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" || utils.ValidateServiceURL(baseURL) != nil {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: utils.CreateHTTPClientWithTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateWallet provisions a new custodial wallet
func (c *Client) CreateWallet(ctx context.Context) (*types.WalletInfo, error) {
	var info types.WalletInfo
	err := httpRequest(ctx, c.httpClient, http.MethodPost,
		fmt.Sprintf("%s/cdp/create-wallet", c.baseURL), nil, c.headers, &info)
	if err != nil {
		return nil, fmt.Errorf("failed to create custodial wallet: %w", err)
	}
	if info.ID == "" || info.Address == "" {
		return nil, fmt.Errorf("failed to create custodial wallet: incomplete wallet info")
	}
	return &info, nil
}

// GetBalance returns the settlement-asset balance of walletID in human units
func (c *Client) GetBalance(ctx context.Context, walletID string) (string, error) {
	var resp types.BalanceResponse
	err := httpRequest(ctx, c.httpClient, http.MethodPost,
		fmt.Sprintf("%s/cdp/balance", c.baseURL),
		types.BalanceRequest{WalletID: walletID}, c.headers, &resp)
	if err != nil {
		return "", err
	}
	return resp.Balance, nil
}

// Transfer moves amount of the settlement asset from walletID to recipient
// A non-2xx response is returned as *HTTPError
func (c *Client) Transfer(ctx context.Context, walletID, recipient, amount string) (*types.TransferResponse, error) {
	var resp types.TransferResponse
	err := httpRequest(ctx, c.httpClient, http.MethodPost,
		fmt.Sprintf("%s/cdp/transfer", c.baseURL),
		types.TransferRequest{WalletID: walletID, Recipient: recipient, Amount: amount}, c.headers, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// FundWallet requests testnet funds for walletAddress
func (c *Client) FundWallet(ctx context.Context, walletAddress string) error {
	var resp types.FundWalletResponse
	err := httpRequest(ctx, c.httpClient, http.MethodPost,
		fmt.Sprintf("%s/cdp/fund-wallet", c.baseURL),
		types.FundWalletRequest{WalletAddress: walletAddress}, c.headers, &resp)
	if err != nil {
		return fmt.Errorf("failed to fund custodial wallet: %w", err)
	}
	return nil
}
