// Package extension pays from a browser-extension style signer (e.g. MetaMask)
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/chains/evm"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/utils"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

// Backend implements wallet.Backend over an interactive signer.
// Transfers block on user approval inside the provider; no timeout is imposed here.
type Backend struct {
	provider  wallet.Provider
	chain     wallet.ChainReader
	addresses chains.AddressValidator
	asset     wallet.Asset
	chainID   int64
	logger    *slog.Logger
}

// Config holds the collaborators of an extension-wallet backend
type Config struct {
	Provider wallet.Provider    // Signer; receives chain switch and eth_sendTransaction
	Chain    wallet.ChainReader // Node used for balances and receipts; transfers fail without it
	Asset    wallet.Asset
	ChainID  int64
	Logger   *slog.Logger
}

// New creates an extension-wallet backend
func New(cfg Config) *Backend {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		provider:  cfg.Provider,
		chain:     cfg.Chain,
		addresses: evm.NewAddressValidator(),
		asset:     cfg.Asset,
		chainID:   cfg.ChainID,
		logger:    logger,
	}
}

var errNotConfigured = errors.New("extension wallet is not configured")

var _ wallet.Backend = (*Backend)(nil)

// Kind implements wallet.Backend
func (b *Backend) Kind() wallet.Kind {
	return wallet.KindExtension
}

// GetBalance implements wallet.Backend. Without a chain reader the balance is read
// through the provider.
func (b *Backend) GetBalance(ctx context.Context, id wallet.Identity) (string, error) {
	var balance *big.Int
	var err error
	switch {
	case b.chain != nil:
		balance, err = b.chain.BalanceOf(ctx, b.asset.Address, id.Address)
	case b.provider != nil:
		balance, err = wallet.CallBalanceOf(ctx, b.provider, b.asset, id.Address)
	default:
		err = errNotConfigured
	}
	if err != nil {
		b.logger.Warn("failed to read extension wallet balance", "address", id.Address, "error", err)
		return "0", nil
	}
	return utils.FormatUnits(balance, b.asset.Decimals), nil
}

// Transfer implements wallet.Backend
func (b *Backend) Transfer(ctx context.Context, id wallet.Identity, recipient, amount string) types.PaymentResult {
	if err := b.addresses.ValidateAddress(recipient); err != nil {
		return types.NewPaymentFailure(fmt.Sprintf("invalid recipient address: %v", err))
	}

	units, err := utils.ParseUnits(amount, b.asset.Decimals)
	if err != nil {
		return types.NewPaymentFailure(err.Error())
	}

	if b.provider == nil || b.chain == nil {
		return types.NewPaymentFailure(errNotConfigured.Error())
	}

	// Best-effort: a wallet already on the right chain may still report a failed switch
	if b.chainID != 0 {
		if err := wallet.SwitchChain(ctx, b.provider, b.chainID); err != nil {
			b.logger.Warn("chain switch failed, attempting transfer anyway", "chain_id", b.chainID, "error", err)
		}
	}

	tx, err := wallet.NewTransferTx(id.Address, b.asset, recipient, units, 0)
	if err != nil {
		return types.NewPaymentFailure(err.Error())
	}

	txHash, err := wallet.SendTransaction(ctx, b.provider, tx)
	if err != nil {
		return types.NewPaymentFailure(err.Error())
	}

	receipt, err := b.chain.WaitForReceipt(ctx, txHash)
	if err != nil {
		return types.NewPaymentFailure(err.Error())
	}
	if receipt == nil || !receipt.IsSuccessful() {
		return types.NewPaymentFailure("Transaction failed")
	}

	b.logger.Info("extension wallet transfer confirmed", "tx_hash", txHash, "recipient", recipient, "amount", amount)
	return types.NewPaymentSuccess(txHash)
}
