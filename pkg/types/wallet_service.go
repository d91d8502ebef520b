package types

import x402types "github.com/coinbase/x402/go/pkg/types"

// BalanceRequest is the body of POST /cdp/balance
type BalanceRequest struct {
	WalletID string `json:"walletId"`
}

// BalanceResponse is returned by POST /cdp/balance
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// TransferRequest is the body of POST /cdp/transfer
type TransferRequest struct {
	WalletID  string `json:"walletId"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// TransferResponse is returned by POST /cdp/transfer
type TransferResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
	Network         string `json:"network,omitempty"`
}

// FundWalletRequest is the body of POST /cdp/fund-wallet
type FundWalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// FundWalletResponse is returned by POST /cdp/fund-wallet
type FundWalletResponse struct {
	Success bool `json:"success"`
}

// PaymentRequiredResponse is the standard x402 402 body listing accepted payment options
type PaymentRequiredResponse struct {
	X402Version int                             `json:"x402Version"`
	Error       string                          `json:"error,omitempty"`
	Accepts     []x402types.PaymentRequirements `json:"accepts"`
}
