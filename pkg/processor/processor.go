package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/utils"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

// WalletNotFound is the failure reported when a payment context has no usable wallet
const WalletNotFound = "wallet not found"

// PaymentProcessor dispatches balance checks and payments to the wallet backend
// selected by a payment context
type PaymentProcessor struct {
	backends map[wallet.Kind]wallet.Backend
	logger   *slog.Logger
}

// NewPaymentProcessor creates a payment processor over the given backends
// A later backend of the same kind replaces an earlier one
func NewPaymentProcessor(logger *slog.Logger, backends ...wallet.Backend) *PaymentProcessor {
	if logger == nil {
		logger = slog.Default()
	}

	p := &PaymentProcessor{
		backends: make(map[wallet.Kind]wallet.Backend, len(backends)),
		logger:   logger,
	}
	for _, b := range backends {
		if b != nil {
			p.backends[b.Kind()] = b
		}
	}
	return p
}

// Resolve selects the backend kind and identity described by a payment context
func Resolve(pc types.PaymentContext) (wallet.Kind, wallet.Identity, error) {
	switch pc.WalletType {
	case types.WalletTypeMetaMask:
		if pc.UserAddress != "" {
			return wallet.KindExtension, wallet.Identity{Address: pc.UserAddress}, nil
		}
	case types.WalletTypeCDP:
		if info := pc.SmartWalletInfo; info != nil && info.Address != "" {
			return wallet.KindSmart, wallet.Identity{
				Address:  info.Address,
				WalletID: info.ID,
				Network:  info.Network,
			}, nil
		}
		if info := pc.WalletInfo; info != nil && info.ID != "" {
			return wallet.KindCustodial, wallet.Identity{
				Address:  info.Address,
				WalletID: info.ID,
				Network:  info.Network,
			}, nil
		}
	}
	return "", wallet.Identity{}, &ContextError{WalletType: pc.WalletType}
}

func (p *PaymentProcessor) backendFor(pc types.PaymentContext) (wallet.Backend, wallet.Identity, error) {
	kind, id, err := Resolve(pc)
	if err != nil {
		return nil, wallet.Identity{}, err
	}

	backend, ok := p.backends[kind]
	if !ok {
		return nil, wallet.Identity{}, fmt.Errorf("no %s wallet backend configured", kind)
	}
	return backend, id, nil
}

// CheckBalance returns the settlement-asset balance of the context's wallet
// Returns a *ContextError when the context has no identity for its wallet type
func (p *PaymentProcessor) CheckBalance(ctx context.Context, pc types.PaymentContext) (string, error) {
	backend, id, err := p.backendFor(pc)
	if err != nil {
		return "", err
	}

	balance, err := backend.GetBalance(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to check %s wallet balance: %w", backend.Kind(), err)
	}
	return balance, nil
}

// ValidateSufficientBalance reports whether the context's wallet holds at least required.
// Any failure to confirm the balance counts as insufficient.
func (p *PaymentProcessor) ValidateSufficientBalance(ctx context.Context, pc types.PaymentContext, required string) bool {
	balance, err := p.CheckBalance(ctx, pc)
	if err != nil {
		p.logger.Warn("balance check failed, treating as insufficient", "wallet_type", pc.WalletType, "error", err)
		return false
	}

	ok, err := utils.IsSufficient(balance, required)
	if err != nil {
		p.logger.Warn("balance comparison failed, treating as insufficient", "balance", balance, "required", required, "error", err)
		return false
	}
	return ok
}

// MakePayment settles details from the context's wallet. It never returns an error;
// every failure is reported in the result.
func (p *PaymentProcessor) MakePayment(ctx context.Context, details types.PaymentDetails, pc types.PaymentContext) types.PaymentResult {
	backend, id, err := p.backendFor(pc)
	if err != nil {
		p.logger.Warn("no wallet available for payment", "wallet_type", pc.WalletType, "error", err)
		return types.NewPaymentFailure(WalletNotFound)
	}

	if err := details.Validate(); err != nil {
		return types.NewPaymentFailure(fmt.Sprintf("invalid payment details: %v", err))
	}

	p.logger.Info("Starting payment",
		"wallet", backend.Kind(),
		"recipient", details.Recipient,
		"amount", details.Amount,
		"transaction_id", details.TransactionID)

	result := backend.Transfer(ctx, id, details.Recipient, details.Amount)
	if result.Success && result.TransactionHash == "" {
		return types.NewPaymentFailure("settlement returned no transaction hash")
	}

	if result.Success {
		p.logger.Info("Payment settled", "wallet", backend.Kind(), "tx_hash", result.TransactionHash)
	} else {
		p.logger.Warn("Payment failed", "wallet", backend.Kind(), "error", result.Error)
	}
	return result
}
