package x402

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/x402chat/pkg/metrics"
	"github.com/sigweihq/x402chat/pkg/processor"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/wallet"
	"github.com/sigweihq/x402chat/pkg/wallet/wallettest"
)

const settlementHash = "0xdead000000000000000000000000000000000000000000000000000000000000"

type answer struct {
	Text string `json:"text"`
}

var payingContext = types.PaymentContext{
	WalletType:  types.WalletTypeMetaMask,
	UserAddress: "0x3333333333333333333333333333333333333333",
}

// eventLog records the order in which collaborators are invoked
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) count(event string) int {
	n := 0
	for _, e := range l.list() {
		if e == event {
			n++
		}
	}
	return n
}

type countingRecorder struct {
	mu        sync.Mutex
	counts    map[string]int
	latencies int
}

func (r *countingRecorder) IncCounter(name string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[name+"/"+labels["wallet"]]++
}

func (r *countingRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies++
}

func newFlow(t *testing.T, backend *wallettest.Backend, opts ...Option) *Controller {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	proc := processor.NewPaymentProcessor(logger, backend)
	handler := NewPaymentHandler(proc, nil, logger)
	return NewController(handler, append([]Option{WithLogger(logger)}, opts...)...)
}

func challengeError() error {
	return NewPaymentRequiredError(types.ChallengeData{
		Amount:      "0.1",
		Recipient:   "0x1111111111111111111111111111111111111111",
		Description: "Query",
	})
}

func approve(log *eventLog, decision bool) AuthorizeFunc {
	return func(ctx context.Context, details types.PaymentDetails) (bool, error) {
		log.add("authorize")
		return decision, nil
	}
}

func TestHandleFlowEndToEnd(t *testing.T) {
	log := &eventLog{}
	backend := &wallettest.Backend{
		KindValue: wallet.KindExtension,
		Balance:   "5.0",
		Result:    types.NewPaymentSuccess(settlementHash),
		OnCall:    log.add,
	}
	c := newFlow(t, backend)

	calls := 0
	call := func(ctx context.Context) (answer, error) {
		calls++
		log.add("call")
		if calls == 1 {
			return answer{}, challengeError()
		}
		return answer{Text: "answer"}, nil
	}

	var authorized types.PaymentDetails
	authorize := func(ctx context.Context, details types.PaymentDetails) (bool, error) {
		authorized = details
		log.add("authorize")
		return true, nil
	}

	result, err := HandleFlow(context.Background(), c, payingContext, call, authorize)
	require.NoError(t, err)
	assert.Equal(t, answer{Text: "answer"}, result)

	assert.Equal(t, []string{"call", "authorize", "balance", "transfer", "call"}, log.list())
	assert.Equal(t, types.PaymentDetails{
		Amount:      "0.1",
		Recipient:   "0x1111111111111111111111111111111111111111",
		Description: "Query",
	}, authorized)

	transfers := backend.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "0.1", transfers[0].Amount)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", transfers[0].Recipient)
}

func TestHandleFlowRetriesAtMostOnce(t *testing.T) {
	log := &eventLog{}
	backend := &wallettest.Backend{
		KindValue: wallet.KindExtension,
		Balance:   "5.0",
		Result:    types.NewPaymentSuccess(settlementHash),
		OnCall:    log.add,
	}
	c := newFlow(t, backend)

	calls := 0
	call := func(ctx context.Context) (answer, error) {
		calls++
		return answer{}, challengeError()
	}

	_, err := HandleFlow(context.Background(), c, payingContext, call, nil)
	require.Error(t, err)

	assert.Equal(t, 2, calls)
	assert.Len(t, backend.Transfers(), 1)

	// The retried call's error is returned verbatim
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 402, respErr.StatusCode)
	assert.NotErrorIs(t, err, ErrPaymentCancelled)
}

func TestHandleFlowCancelled(t *testing.T) {
	log := &eventLog{}
	backend := &wallettest.Backend{
		KindValue: wallet.KindExtension,
		Balance:   "5.0",
		Result:    types.NewPaymentSuccess(settlementHash),
		OnCall:    log.add,
	}
	c := newFlow(t, backend)

	calls := 0
	call := func(ctx context.Context) (answer, error) {
		calls++
		return answer{}, challengeError()
	}

	_, err := HandleFlow(context.Background(), c, payingContext, call, approve(log, false))
	assert.ErrorIs(t, err, ErrPaymentCancelled)
	assert.EqualError(t, err, "Payment cancelled by user")

	assert.Equal(t, 1, calls)
	assert.Empty(t, backend.Transfers())
	assert.Zero(t, log.count("balance"))
}

func TestHandleFlowPassesThroughUnrelatedErrors(t *testing.T) {
	backend := &wallettest.Backend{KindValue: wallet.KindExtension, Balance: "5.0"}
	c := newFlow(t, backend)

	original := errors.New("plain unrelated error")
	calls := 0
	call := func(ctx context.Context) (answer, error) {
		calls++
		return answer{}, original
	}

	authorizeCalled := false
	authorize := func(ctx context.Context, details types.PaymentDetails) (bool, error) {
		authorizeCalled = true
		return true, nil
	}

	_, err := HandleFlow(context.Background(), c, payingContext, call, authorize)
	assert.Same(t, original, err)
	assert.Equal(t, 1, calls)
	assert.False(t, authorizeCalled)
	assert.Zero(t, backend.BalanceCalls())
}

func TestHandleFlowSucceedsWithoutPayment(t *testing.T) {
	backend := &wallettest.Backend{KindValue: wallet.KindExtension}
	c := newFlow(t, backend)

	result, err := HandleFlow(context.Background(), c, payingContext, func(ctx context.Context) (answer, error) {
		return answer{Text: "free"}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "free", result.Text)
	assert.Zero(t, backend.BalanceCalls())
	assert.Empty(t, backend.Transfers())
}

func TestHandleFlowSettlementFailures(t *testing.T) {
	tests := []struct {
		name          string
		backend       *wallettest.Backend
		pc            types.PaymentContext
		expectedError string
		transfers     int
	}{
		{
			name: "transfer fails",
			backend: &wallettest.Backend{
				KindValue: wallet.KindExtension,
				Balance:   "5.0",
				Result:    types.NewPaymentFailure("User rejected the request."),
			},
			pc:            payingContext,
			expectedError: "User rejected the request.",
			transfers:     1,
		},
		{
			name: "transfer fails without reason",
			backend: &wallettest.Backend{
				KindValue: wallet.KindExtension,
				Balance:   "5.0",
				Result:    types.PaymentResult{Success: false},
			},
			pc:            payingContext,
			expectedError: "Payment failed",
			transfers:     1,
		},
		{
			name:          "insufficient balance blocks transfer",
			backend:       &wallettest.Backend{KindValue: wallet.KindExtension, Balance: "0.05"},
			pc:            payingContext,
			expectedError: "Insufficient USDC balance. Required: 0.1 USDC",
		},
		{
			name:          "balance lookup error blocks transfer",
			backend:       &wallettest.Backend{KindValue: wallet.KindExtension, BalanceErr: errors.New("rpc down")},
			pc:            payingContext,
			expectedError: "Insufficient USDC balance. Required: 0.1 USDC",
		},
		{
			name:          "no wallet identity",
			backend:       &wallettest.Backend{KindValue: wallet.KindExtension, Balance: "5.0"},
			pc:            types.PaymentContext{WalletType: types.WalletTypeMetaMask},
			expectedError: "Insufficient USDC balance. Required: 0.1 USDC",
		},
		{
			name: "backend panics",
			backend: &wallettest.Backend{
				KindValue: wallet.KindExtension,
				Balance:   "5.0",
				PanicWith: errors.New("provider disconnected"),
			},
			pc:            payingContext,
			expectedError: "provider disconnected",
			transfers:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFlow(t, tt.backend)

			calls := 0
			call := func(ctx context.Context) (answer, error) {
				calls++
				return answer{}, challengeError()
			}

			_, err := HandleFlow(context.Background(), c, tt.pc, call, nil)
			var settlementErr *SettlementError
			require.ErrorAs(t, err, &settlementErr)
			assert.EqualError(t, err, tt.expectedError)
			assert.Equal(t, 1, calls, "no retry after a failed settlement")
			assert.Len(t, tt.backend.Transfers(), tt.transfers)
		})
	}
}

func TestHandleFlowAuthorizeError(t *testing.T) {
	backend := &wallettest.Backend{KindValue: wallet.KindExtension, Balance: "5.0"}
	c := newFlow(t, backend)

	dialogErr := errors.New("dialog closed")
	_, err := HandleFlow(context.Background(), c, payingContext, func(ctx context.Context) (answer, error) {
		return answer{}, challengeError()
	}, func(ctx context.Context, details types.PaymentDetails) (bool, error) {
		return false, dialogErr
	})

	assert.ErrorIs(t, err, dialogErr)
	assert.Empty(t, backend.Transfers())
}

func TestHandleFlowMessageChallengeUsesDefaults(t *testing.T) {
	backend := &wallettest.Backend{
		KindValue: wallet.KindExtension,
		Balance:   "5.0",
		Result:    types.NewPaymentSuccess(settlementHash),
	}
	c := newFlow(t, backend, WithDefaults(Defaults{Amount: "0.2", Recipient: "0x4444444444444444444444444444444444444444"}))

	calls := 0
	_, err := HandleFlow(context.Background(), c, payingContext, func(ctx context.Context) (answer, error) {
		calls++
		if calls == 1 {
			return answer{}, errors.New("MCP tool failed: 402 Payment Required")
		}
		return answer{Text: "ok"}, nil
	}, nil)
	require.NoError(t, err)

	transfers := backend.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "0.2", transfers[0].Amount)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", transfers[0].Recipient)
}

type proofKey struct{}

func TestHandleFlowRetryContextHook(t *testing.T) {
	backend := &wallettest.Backend{
		KindValue: wallet.KindExtension,
		Balance:   "5.0",
		Result:    types.NewPaymentSuccess(settlementHash),
	}
	c := newFlow(t, backend, WithRetryContext(func(ctx context.Context, payment types.PaymentResult) context.Context {
		return context.WithValue(ctx, proofKey{}, payment.TransactionHash)
	}))

	var proofs []any
	_, err := HandleFlow(context.Background(), c, payingContext, func(ctx context.Context) (answer, error) {
		proofs = append(proofs, ctx.Value(proofKey{}))
		if len(proofs) == 1 {
			return answer{}, challengeError()
		}
		return answer{}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, settlementHash}, proofs)
}

func TestHandleFlowRecordsMetrics(t *testing.T) {
	rec := &countingRecorder{}
	backend := &wallettest.Backend{
		KindValue: wallet.KindExtension,
		Balance:   "5.0",
		Result:    types.NewPaymentSuccess(settlementHash),
	}
	c := newFlow(t, backend, WithMetrics(rec))

	_, err := HandleFlow(context.Background(), c, payingContext, func(ctx context.Context) (answer, error) {
		return answer{}, challengeError()
	}, nil)
	require.Error(t, err)

	assert.Equal(t, 1, rec.counts[metrics.EventChallenge+"/extension"])
	assert.Equal(t, 1, rec.counts[metrics.EventSettled+"/extension"])
	assert.Equal(t, 1, rec.counts[metrics.EventRetryFailed+"/extension"])
	assert.Equal(t, 1, rec.latencies)
}

func TestRetryAfterPayment(t *testing.T) {
	calls := 0
	call := func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}

	_, err := RetryAfterPayment(context.Background(), call, types.NewPaymentFailure("nope"))
	assert.ErrorIs(t, err, ErrPaymentNotSuccessful)

	_, err = RetryAfterPayment(context.Background(), call, types.PaymentResult{Success: true})
	assert.ErrorIs(t, err, ErrPaymentNotSuccessful)
	assert.Zero(t, calls)

	out, err := RetryAfterPayment(context.Background(), call, types.NewPaymentSuccess(settlementHash))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
}
