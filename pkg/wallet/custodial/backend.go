package custodial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/chains/evm"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

const transferFailed = "Transfer failed"

// Backend implements wallet.Backend over the wallet service
type Backend struct {
	client   *Client
	registry *chains.Registry
	logger   *slog.Logger
}

// NewBackend creates a custodial backend. Recipients are validated with the registry
// adapter for the wallet's network; without one, EVM address rules apply.
func NewBackend(client *Client, registry *chains.Registry, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{client: client, registry: registry, logger: logger}
}

var _ wallet.Backend = (*Backend)(nil)

// Kind implements wallet.Backend
func (b *Backend) Kind() wallet.Kind {
	return wallet.KindCustodial
}

// Client returns the underlying wallet service client
func (b *Backend) Client() *Client {
	return b.client
}

// GetBalance implements wallet.Backend
func (b *Backend) GetBalance(ctx context.Context, id wallet.Identity) (string, error) {
	balance, err := b.client.GetBalance(ctx, id.WalletID)
	if err != nil {
		b.logger.Warn("failed to get custodial wallet balance", "wallet_id", id.WalletID, "error", err)
		return "0", nil
	}
	if balance == "" {
		return "0", nil
	}
	return balance, nil
}

// Transfer implements wallet.Backend
func (b *Backend) Transfer(ctx context.Context, id wallet.Identity, recipient, amount string) types.PaymentResult {
	if err := b.validatorFor(id.Network).ValidateAddress(recipient); err != nil {
		return types.NewPaymentFailure(fmt.Sprintf("invalid recipient address: %v", err))
	}

	resp, err := b.client.Transfer(ctx, id.WalletID, recipient, amount)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			if reason := httpErr.Reason(); reason != "" {
				return types.NewPaymentFailure(reason)
			}
			return types.NewPaymentFailure(transferFailed)
		}
		return types.NewPaymentFailure(err.Error())
	}

	if !resp.Success {
		if resp.Error != "" {
			return types.NewPaymentFailure(resp.Error)
		}
		return types.NewPaymentFailure(transferFailed)
	}

	b.logger.Info("custodial transfer completed", "wallet_id", id.WalletID, "tx_hash", resp.TransactionHash, "network", resp.Network)
	return types.NewPaymentSuccess(resp.TransactionHash)
}

func (b *Backend) validatorFor(network string) chains.AddressValidator {
	if b.registry != nil && network != "" {
		if adapter, err := b.registry.Get(network); err == nil {
			return adapter.AddressValidator()
		}
	}
	return evm.NewAddressValidator()
}
