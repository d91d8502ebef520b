// Package session holds the active wallet identity a chat UI pays from
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sigweihq/x402chat/pkg/processor"
	"github.com/sigweihq/x402chat/pkg/types"
)

// ErrNotConnected is returned when an operation needs an active session
var ErrNotConnected = errors.New("no wallet connected")

// WalletCreator provisions custodial wallets
// Implemented by *custodial.Client
type WalletCreator interface {
	CreateWallet(ctx context.Context) (*types.WalletInfo, error)
	FundWallet(ctx context.Context, walletAddress string) error
}

// SmartConnector connects and disconnects a smart wallet
// Implemented by *smart.Backend
type SmartConnector interface {
	Connect(ctx context.Context) (*types.SmartWalletInfo, error)
	Disconnect(ctx context.Context) error
}

// Manager tracks the wallet identity used for payments. It is safe for concurrent use;
// readers receive copies, so a flow in progress keeps the identity it started with.
type Manager struct {
	mu          sync.RWMutex
	current     *types.PaymentContext
	anonymousID string
	creator     WalletCreator
	smart       SmartConnector
	logger      *slog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithWalletCreator enables ConnectCustodial
func WithWalletCreator(creator WalletCreator) Option {
	return func(m *Manager) {
		m.creator = creator
	}
}

// WithSmartConnector enables ConnectSmart and provider disconnects
func WithSmartConnector(connector SmartConnector) Option {
	return func(m *Manager) {
		m.smart = connector
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager with no wallet connected
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		anonymousID: uuid.NewString(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect installs pc as the active session. pc must identify a wallet.
func (m *Manager) Connect(pc types.PaymentContext) error {
	kind, id, err := processor.Resolve(pc)
	if err != nil {
		return fmt.Errorf("cannot connect: %w", err)
	}

	snapshot := pc.Clone()
	m.mu.Lock()
	m.current = &snapshot
	m.mu.Unlock()

	m.logger.Info("wallet connected", "wallet", kind, "address", id.Address)
	return nil
}

// Switch replaces the active session with pc
func (m *Manager) Switch(pc types.PaymentContext) error {
	kind, id, err := processor.Resolve(pc)
	if err != nil {
		return fmt.Errorf("cannot switch wallet: %w", err)
	}

	snapshot := pc.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNotConnected
	}
	previous := m.current.Address()
	m.current = &snapshot

	m.logger.Info("wallet switched", "wallet", kind, "from", previous, "to", id.Address)
	return nil
}

// Disconnect clears the active session. A smart-wallet session also revokes the
// provider's permission; a failure there is logged and the session is still cleared.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	current := m.current
	m.current = nil
	m.mu.Unlock()

	if current == nil {
		return ErrNotConnected
	}

	if current.SmartWalletInfo != nil && m.smart != nil {
		if err := m.smart.Disconnect(ctx); err != nil {
			m.logger.Warn("failed to revoke smart wallet permission", "error", err)
		}
	}

	m.logger.Info("wallet disconnected", "address", current.Address())
	return nil
}

// Snapshot returns a copy of the active session
func (m *Manager) Snapshot() (types.PaymentContext, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return types.PaymentContext{}, false
	}
	return m.current.Clone(), true
}

// IsReady reports whether a payment can be attempted from the active session
func (m *Manager) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return false
	}
	_, _, err := processor.Resolve(*m.current)
	return err == nil
}

// ContextKey scopes per-user state such as chat history. It is keyed on the connected
// address, lower-cased, or on an anonymous id that is stable for the manager's lifetime.
func (m *Manager) ContextKey(base string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current != nil {
		if address := m.current.Address(); address != "" {
			return fmt.Sprintf("%s-%s", base, strings.ToLower(address))
		}
	}
	return fmt.Sprintf("%s-anonymous-%s", base, m.anonymousID)
}

// ConnectCustodial creates a custodial wallet, requests testnet funds for it and makes
// it the active session. Funding is best-effort.
func (m *Manager) ConnectCustodial(ctx context.Context) (*types.WalletInfo, error) {
	if m.creator == nil {
		return nil, fmt.Errorf("custodial wallets are not configured")
	}

	info, err := m.creator.CreateWallet(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.creator.FundWallet(ctx, info.Address); err != nil {
		m.logger.Warn("failed to fund custodial wallet", "address", info.Address, "error", err)
	}

	if err := m.Connect(types.PaymentContext{WalletType: types.WalletTypeCDP, WalletInfo: info}); err != nil {
		return nil, err
	}
	return info, nil
}

// ConnectSmart connects the smart wallet and makes it the active session
func (m *Manager) ConnectSmart(ctx context.Context) (*types.SmartWalletInfo, error) {
	if m.smart == nil {
		return nil, fmt.Errorf("smart wallets are not configured")
	}

	info, err := m.smart.Connect(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.Connect(types.PaymentContext{WalletType: types.WalletTypeCDP, SmartWalletInfo: info}); err != nil {
		return nil, err
	}
	return info, nil
}
