package x402

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sigweihq/x402chat/pkg/metrics"
	"github.com/sigweihq/x402chat/pkg/processor"
	"github.com/sigweihq/x402chat/pkg/types"
)

// AuthorizeFunc asks the user to approve a payment. It may block for as long as the
// caller's UI needs; the flow imposes no timeout of its own.
type AuthorizeFunc func(ctx context.Context, details types.PaymentDetails) (bool, error)

// State is a step of the payment flow, reported in debug logs
type State string

const (
	StateRequesting            State = "requesting"
	StatePaymentChallenge      State = "payment_challenge"
	StateAwaitingAuthorization State = "awaiting_authorization"
	StateCancelled             State = "cancelled"
	StateSettling              State = "settling"
	StateSettlementFailed      State = "settlement_failed"
	StateRetrying              State = "retrying"
	StateSuccess               State = "success"
	StateFailure               State = "failure"
)

// Controller runs the probe, challenge, pay and retry sequence around a call
type Controller struct {
	handler      *PaymentHandler
	defaults     Defaults
	logger       *slog.Logger
	metrics      metrics.Recorder
	retryContext func(context.Context, types.PaymentResult) context.Context
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Controller) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithDefaults sets the values used for fields a challenge leaves out
func WithDefaults(d Defaults) Option {
	return func(c *Controller) {
		c.defaults = d
	}
}

// WithRetryContext derives the retry's context from the settlement result.
// This is where payment proof can be attached to the retried call.
func WithRetryContext(fn func(context.Context, types.PaymentResult) context.Context) Option {
	return func(c *Controller) {
		c.retryContext = fn
	}
}

// NewController creates a flow controller settling challenges through handler
func NewController(handler *PaymentHandler, opts ...Option) *Controller {
	c := &Controller{
		handler:  handler,
		defaults: DefaultDefaults(),
		logger:   slog.Default(),
		metrics:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleFlow invokes call and, when it fails with a payment-required challenge, obtains
// authorization, settles the payment from pc and invokes call exactly once more.
//
// Errors that are not challenges are returned unchanged. The retried call's outcome is
// returned verbatim and is never treated as a new challenge. A nil authorize pays
// without asking.
func HandleFlow[T any](
	ctx context.Context,
	c *Controller,
	pc types.PaymentContext,
	call func(context.Context) (T, error),
	authorize AuthorizeFunc,
) (T, error) {
	var zero T
	logger := c.logger.With("flow_id", uuid.NewString())
	labels := map[string]string{"wallet": walletLabel(pc)}

	logger.Debug("x402 flow", "state", StateRequesting)
	result, err := call(ctx)
	if err == nil {
		logger.Debug("x402 flow", "state", StateSuccess)
		return result, nil
	}

	challenge, ok := ParseChallenge(err, c.defaults)
	if !ok {
		c.metrics.IncCounter(metrics.EventPassthroughError, labels)
		return zero, err
	}

	details := challenge.PaymentRequired
	c.metrics.IncCounter(metrics.EventChallenge, labels)
	logger.Info("payment required",
		"state", StatePaymentChallenge,
		"amount", details.Amount,
		"recipient", details.Recipient,
		"transaction_id", details.TransactionID,
		"message", challenge.Message)

	if authorize != nil {
		logger.Debug("x402 flow", "state", StateAwaitingAuthorization)
		approved, err := authorize(ctx, details)
		if err != nil {
			return zero, err
		}
		if !approved {
			logger.Info("payment declined", "state", StateCancelled)
			c.metrics.IncCounter(metrics.EventCancelled, labels)
			return zero, ErrPaymentCancelled
		}
	}

	logger.Debug("x402 flow", "state", StateSettling)
	start := time.Now()
	payment := c.handler.HandlePayment(ctx, details, pc)
	c.metrics.ObserveLatency(metrics.OperationSettlement, time.Since(start), labels)

	if !payment.Success {
		logger.Warn("payment settlement failed", "state", StateSettlementFailed, "error", payment.Error)
		c.metrics.IncCounter(metrics.EventSettlementFailed, labels)
		return zero, &SettlementError{Reason: payment.Error}
	}
	c.metrics.IncCounter(metrics.EventSettled, labels)

	retryCtx := ctx
	if c.retryContext != nil {
		retryCtx = c.retryContext(ctx, payment)
	}

	logger.Info("payment settled, retrying request", "state", StateRetrying, "tx_hash", payment.TransactionHash)
	result, err = RetryAfterPayment(retryCtx, call, payment)
	if err != nil {
		logger.Warn("retried request failed", "state", StateFailure, "error", err)
		c.metrics.IncCounter(metrics.EventRetryFailed, labels)
		return zero, err
	}

	logger.Debug("x402 flow", "state", StateSuccess)
	return result, nil
}

func walletLabel(pc types.PaymentContext) string {
	kind, _, err := processor.Resolve(pc)
	if err != nil {
		return "unknown"
	}
	return string(kind)
}
