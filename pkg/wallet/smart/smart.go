// Package smart pays from a passkey-controlled smart wallet reached through an SDK provider
package smart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/chains/evm"
	"github.com/sigweihq/x402chat/pkg/constants"
	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/utils"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

// Backend implements wallet.Backend for smart wallets.
// Transfers are submitted through the provider and not awaited; the provider's
// bundler owns inclusion.
type Backend struct {
	provider  wallet.Provider
	chain     wallet.ChainReader
	addresses chains.AddressValidator
	asset     wallet.Asset
	gasLimit  uint64
	logger    *slog.Logger
}

// Config holds the collaborators of a smart-wallet backend
type Config struct {
	Provider wallet.Provider
	Chain    wallet.ChainReader // Optional direct node access for balances
	Asset    wallet.Asset
	GasLimit uint64 // Zero lets the provider estimate
	Logger   *slog.Logger
}

// New creates a smart-wallet backend
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
		gasLimit:  cfg.GasLimit,
		logger:    logger,
	}
}

var _ wallet.Backend = (*Backend)(nil)

// Kind implements wallet.Backend
func (b *Backend) Kind() wallet.Kind {
	return wallet.KindSmart
}

// GetBalance implements wallet.Backend
// Reads through the node first and falls back to the provider when the node fails or reports zero
func (b *Backend) GetBalance(ctx context.Context, id wallet.Identity) (string, error) {
	if b.addresses.AddressesEqual(id.Address, b.asset.Address) {
		b.logger.Error("smart wallet address equals the settlement asset contract", "address", id.Address)
		return "0", nil
	}

	if b.chain != nil {
		balance, err := b.chain.BalanceOf(ctx, b.asset.Address, id.Address)
		switch {
		case err != nil:
			b.logger.Warn("direct RPC balance read failed, falling back to provider", "address", id.Address, "error", err)
		case balance.Sign() > 0:
			return utils.FormatUnits(balance, b.asset.Decimals), nil
		}
	}

	balance, err := wallet.CallBalanceOf(ctx, b.provider, b.asset, id.Address)
	if err != nil {
		b.logger.Warn("failed to get smart wallet balance", "address", id.Address, "error", err)
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

	tx, err := wallet.NewTransferTx(id.Address, b.asset, recipient, units, b.gasLimit)
	if err != nil {
		return types.NewPaymentFailure(err.Error())
	}

	txHash, err := wallet.SendTransaction(ctx, b.provider, tx)
	if err != nil {
		return types.NewPaymentFailure(err.Error())
	}

	b.logger.Info("smart wallet transfer submitted", "tx_hash", txHash, "recipient", recipient, "amount", amount)
	return types.NewPaymentSuccess(txHash)
}

// Connect requests the provider's account and resolves its network
func (b *Backend) Connect(ctx context.Context) (*types.SmartWalletInfo, error) {
	raw, err := b.provider.Request(ctx, "eth_requestAccounts")
	if err != nil {
		return nil, fmt.Errorf("failed to connect smart wallet: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("failed to connect smart wallet: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("failed to connect smart wallet: no accounts returned")
	}

	address := accounts[0]
	if err := b.addresses.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("failed to connect smart wallet: %w", err)
	}

	network := "unknown"
	if raw, err := b.provider.Request(ctx, "eth_chainId"); err != nil {
		b.logger.Warn("failed to read smart wallet chain id", "error", err)
	} else {
		var chainID hexutil.Big
		if err := json.Unmarshal(raw, &chainID); err == nil {
			network = networkForChainID((*big.Int)(&chainID).Int64())
		}
	}

	return &types.SmartWalletInfo{
		ID:        "smart-wallet-" + address,
		Address:   address,
		Network:   network,
		PasskeyID: address,
	}, nil
}

// Disconnect revokes the provider's account permission
func (b *Backend) Disconnect(ctx context.Context) error {
	_, err := b.provider.Request(ctx, "wallet_revokePermissions", map[string]any{"eth_accounts": map[string]any{}})
	return err
}

func networkForChainID(chainID int64) string {
	for network, id := range constants.NetworkToChainID {
		if id == chainID {
			return network
		}
	}
	return "unknown"
}
