package chains

import "context"

// Design inspired by renproject/multichain, narrowed to what payment settlement needs
// https://github.com/renproject/multichain

// ChainAdapter provides chain-specific operations used around settlement
type ChainAdapter interface {
	// Network returns the network name (e.g., "base-sepolia", "solana-devnet")
	Network() string

	// AddressValidator returns the address rules for this chain
	AddressValidator() AddressValidator

	// RPCClient returns the RPC client for this chain, or nil when the chain is validation-only
	RPCClient() RPCClient
}

// AddressValidator checks recipient addresses before any network call is made
type AddressValidator interface {
	// ValidateAddress returns an error when addr is not a well-formed address for the chain
	ValidateAddress(addr string) error

	// AddressesEqual compares two addresses using chain-specific rules
	// For EVM: case-insensitive (due to EIP-55 checksumming)
	// For SVM: case-sensitive (base58 encoding)
	AddressesEqual(addr1, addr2 string) bool
}

// RPCClient handles blockchain RPC operations
type RPCClient interface {
	// GetTransactionReceipt retrieves a transaction receipt with failover
	GetTransactionReceipt(ctx context.Context, txHash string) (TransactionReceipt, error)

	// IsHealthy performs a health check on the RPC endpoint
	IsHealthy(endpoint string) bool
}

// TransactionReceipt is a chain-agnostic transaction receipt
type TransactionReceipt interface {
	// IsSuccessful returns whether the transaction succeeded
	IsSuccessful() bool

	// GetTransferEvent returns transfer event data if present
	GetTransferEvent() (*TransferEvent, error)
}

// TransferEvent represents a token transfer event
type TransferEvent struct {
	From  string // Sender wallet address
	To    string // Recipient wallet address
	Value string // Smallest-unit amount
	Asset string // Token contract address
}
