package x402

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

// Orchestrator is the balance check and payment surface the handler drives
// Implemented by *processor.PaymentProcessor
type Orchestrator interface {
	ValidateSufficientBalance(ctx context.Context, pc types.PaymentContext, required string) bool
	MakePayment(ctx context.Context, details types.PaymentDetails, pc types.PaymentContext) types.PaymentResult
}

// PaymentHandler settles one challenge: balance check, then payment
type PaymentHandler struct {
	orchestrator Orchestrator
	registry     *chains.Registry
	asset        wallet.Asset
	logger       *slog.Logger
}

// HandlerOption configures a PaymentHandler
type HandlerOption func(*PaymentHandler)

// WithSettlementAsset sets the asset settlements are verified against.
// Without it, USDC on the settlement's network is used.
func WithSettlementAsset(asset wallet.Asset) HandlerOption {
	return func(h *PaymentHandler) {
		h.asset = asset
	}
}

// NewPaymentHandler creates a payment handler. The registry is used to verify
// settlements on chain and may be nil.
func NewPaymentHandler(orchestrator Orchestrator, registry *chains.Registry, logger *slog.Logger, opts ...HandlerOption) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &PaymentHandler{
		orchestrator: orchestrator,
		registry:     registry,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlePayment runs the balance check and then the payment. An insufficient balance
// blocks the payment. A panicking backend is reported as a failed result.
func (h *PaymentHandler) HandlePayment(ctx context.Context, details types.PaymentDetails, pc types.PaymentContext) (result types.PaymentResult) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("payment panicked", "panic", r)
			if err, ok := r.(error); ok {
				result = types.NewPaymentFailure(err.Error())
				return
			}
			result = types.NewPaymentFailure(defaultSettlementFailure)
		}
	}()

	if !h.orchestrator.ValidateSufficientBalance(ctx, pc, details.Amount) {
		return types.NewPaymentFailure(fmt.Sprintf("Insufficient USDC balance. Required: %s USDC", details.Amount))
	}

	return h.orchestrator.MakePayment(ctx, details, pc)
}

// ValidatePayment reports whether txHash is an acceptable settlement proof on network.
// With an RPC-capable adapter registered the transaction must exist and have succeeded;
// otherwise any non-empty hash is accepted.
func (h *PaymentHandler) ValidatePayment(ctx context.Context, network, txHash string) bool {
	if txHash == "" {
		return false
	}

	rpc := h.rpcFor(network)
	if rpc == nil {
		return true
	}

	receipt, err := rpc.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		h.logger.Warn("failed to fetch settlement receipt", "network", network, "tx_hash", txHash, "error", err)
		return false
	}
	if receipt == nil {
		return true // Skip verification if no endpoints
	}
	return receipt.IsSuccessful()
}

// VerifySettlement checks that txHash transferred details.Amount of the settlement
// asset to details.Recipient
func (h *PaymentHandler) VerifySettlement(ctx context.Context, network, txHash string, details types.PaymentDetails) error {
	if txHash == "" {
		return fmt.Errorf("no transaction hash in settlement")
	}

	requirements, err := RequirementsFor(details, network, "", h.asset)
	if err != nil {
		return fmt.Errorf("failed to build payment requirements: %w", err)
	}

	adapter, err := h.adapterFor(network)
	if err != nil {
		return err
	}
	rpc := adapter.RPCClient()
	if rpc == nil {
		return fmt.Errorf("network %s does not support settlement verification", network)
	}

	receipt, err := rpc.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return fmt.Errorf("failed to get transaction receipt: %w", err)
	}
	if receipt == nil {
		h.logger.Warn("skipping settlement verification, no RPC endpoints", "network", network)
		return nil
	}

	return chains.VerifyTransfer(receipt, adapter.AddressValidator(), chains.TransferEvent{
		To:    requirements.PayTo,
		Value: requirements.MaxAmountRequired,
		Asset: requirements.Asset,
	})
}

func (h *PaymentHandler) adapterFor(network string) (chains.ChainAdapter, error) {
	if h.registry == nil {
		return nil, fmt.Errorf("chain registry not initialized")
	}
	return h.registry.Get(network)
}

func (h *PaymentHandler) rpcFor(network string) chains.RPCClient {
	adapter, err := h.adapterFor(network)
	if err != nil {
		return nil
	}
	return adapter.RPCClient()
}

// RetryAfterPayment re-invokes call once a payment has produced settlement proof
func RetryAfterPayment[T any](ctx context.Context, call func(context.Context) (T, error), payment types.PaymentResult) (T, error) {
	if !payment.Success || payment.TransactionHash == "" {
		var zero T
		return zero, ErrPaymentNotSuccessful
	}
	return call(ctx)
}
