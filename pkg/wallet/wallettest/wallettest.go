// Package wallettest provides in-memory fakes of wallet collaborators for tests
package wallettest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

// Call records one provider request
type Call struct {
	Method string
	Params []any
}

// Provider is a scripted wallet.Provider. Methods without a handler fail.
type Provider struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]func(params []any) (any, error)
}

var _ wallet.Provider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{handlers: make(map[string]func(params []any) (any, error))}
}

// Handle scripts the response to method
func (p *Provider) Handle(method string, fn func(params []any) (any, error)) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[method] = fn
	return p
}

// Request implements wallet.Provider
func (p *Provider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Method: method, Params: params})
	fn, ok := p.handlers[method]
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("method %s not supported", method)
	}

	result, err := fn(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// Calls returns the recorded requests
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallCount returns how many times method was requested
func (p *Provider) CallCount(method string) int {
	count := 0
	for _, c := range p.Calls() {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Receipt is a fixed chains.TransactionReceipt
type Receipt struct {
	Success bool
	Event   *chains.TransferEvent
}

func (r *Receipt) IsSuccessful() bool { return r.Success }

func (r *Receipt) GetTransferEvent() (*chains.TransferEvent, error) {
	if r.Event == nil {
		return nil, fmt.Errorf("no transfer event found")
	}
	return r.Event, nil
}

// Chain is a scripted wallet.ChainReader
type Chain struct {
	mu           sync.Mutex
	Balance      *big.Int
	BalanceErr   error
	Receipt      chains.TransactionReceipt
	ReceiptErr   error
	balanceCalls int
	receiptCalls int
}

var _ wallet.ChainReader = (*Chain)(nil)

func (c *Chain) BalanceOf(ctx context.Context, asset, owner string) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceCalls++
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	if c.Balance == nil {
		return big.NewInt(0), nil
	}
	return c.Balance, nil
}

func (c *Chain) WaitForReceipt(ctx context.Context, txHash string) (chains.TransactionReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptCalls++
	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}
	return c.Receipt, nil
}

// BalanceCalls returns how many balance reads were made
func (c *Chain) BalanceCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceCalls
}

// ReceiptCalls returns how many receipt waits were made
func (c *Chain) ReceiptCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiptCalls
}

// Backend is a scripted wallet.Backend
type Backend struct {
	mu         sync.Mutex
	KindValue  wallet.Kind
	Balance    string
	BalanceErr error
	Result     types.PaymentResult
	PanicWith  any
	OnCall     func(op string) // Invoked with "balance" or "transfer" before responding
	identities []wallet.Identity
	transfers  []types.PaymentDetails
	balances   int
}

var _ wallet.Backend = (*Backend)(nil)

func (b *Backend) Kind() wallet.Kind {
	return b.KindValue
}

func (b *Backend) GetBalance(ctx context.Context, id wallet.Identity) (string, error) {
	b.mu.Lock()
	b.balances++
	b.identities = append(b.identities, id)
	b.mu.Unlock()

	if b.OnCall != nil {
		b.OnCall("balance")
	}
	if b.BalanceErr != nil {
		return "", b.BalanceErr
	}
	return b.Balance, nil
}

func (b *Backend) Transfer(ctx context.Context, id wallet.Identity, recipient, amount string) types.PaymentResult {
	b.mu.Lock()
	b.transfers = append(b.transfers, types.PaymentDetails{Recipient: recipient, Amount: amount})
	b.identities = append(b.identities, id)
	b.mu.Unlock()

	if b.OnCall != nil {
		b.OnCall("transfer")
	}
	if b.PanicWith != nil {
		panic(b.PanicWith)
	}
	return b.Result
}

// BalanceCalls returns how many balance lookups were made
func (b *Backend) BalanceCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances
}

// Transfers returns the recipient and amount of every transfer attempt
func (b *Backend) Transfers() []types.PaymentDetails {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.PaymentDetails(nil), b.transfers...)
}

// Identities returns every identity the backend was called with
func (b *Backend) Identities() []wallet.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]wallet.Identity(nil), b.identities...)
}
