package wallet

import (
	"context"
	"math/big"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/constants"
	"github.com/sigweihq/x402chat/pkg/types"
)

// Kind tags a wallet backend variant
type Kind string

const (
	KindExtension Kind = "extension"
	KindCustodial Kind = "custodial"
	KindSmart     Kind = "smart"
)

// Identity is the backend-specific handle a payment is made from
type Identity struct {
	Address  string // Paying address
	WalletID string // Custodial wallet handle; empty for extension wallets
	Network  string // Network the wallet lives on; empty means the backend default
}

// Backend is the capability every wallet variant implements.
//
// GetBalance returns the settlement-asset balance in human units. Implementations
// degrade lookup failures to "0"; the error return exists for backends that need to
// report an inconsistent identity.
//
// Transfer never returns failures as errors: every outcome, including a rejected
// recipient address, is reported through the PaymentResult.
type Backend interface {
	Kind() Kind
	GetBalance(ctx context.Context, id Identity) (string, error)
	Transfer(ctx context.Context, id Identity, recipient, amount string) types.PaymentResult
}

// ChainReader is the read side of an EVM node used by the on-chain backends
// Implemented by *evm.RPCClient
type ChainReader interface {
	BalanceOf(ctx context.Context, asset, owner string) (*big.Int, error)
	WaitForReceipt(ctx context.Context, txHash string) (chains.TransactionReceipt, error)
}

// Asset describes the settlement asset
type Asset struct {
	Address  string
	Decimals int32
	Symbol   string
}

// DefaultAsset returns USDC on the given network
func DefaultAsset(network string) Asset {
	return Asset{
		Address:  constants.NetworkToUSDCAddress[network],
		Decimals: constants.USDCDecimals,
		Symbol:   constants.USDCSymbol,
	}
}
