package evm

import (
	"log/slog"
	"math/big"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/constants"
)

func TestNewEVMAdapter(t *testing.T) {
	adapter, err := NewEVMAdapter(constants.NetworkBaseSepolia, []string{"https://sepolia.base.org"})
	require.NoError(t, err)
	assert.Equal(t, constants.NetworkBaseSepolia, adapter.Network())
	assert.Equal(t, int64(84532), adapter.ChainID())
	assert.NotNil(t, adapter.RPCClient())
	assert.True(t, adapter.RPC().HasEndpoints())

	_, err = NewEVMAdapter("unknown-chain", nil)
	var unsupported *UnsupportedNetworkError
	assert.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "unknown-chain", unsupported.Network)
}

func TestInitEVMChainsWithEndpoints(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	registry := chains.NewRegistry()

	err := InitEVMChainsWithEndpoints(logger, registry, map[string][]string{
		constants.NetworkBase:        {"https://mainnet.base.org"},
		constants.NetworkBaseSepolia: nil,
		"unknown-chain":              {"https://example.com"},
	})
	require.NoError(t, err)

	assert.True(t, registry.IsSupported(constants.NetworkBase))
	assert.True(t, registry.IsSupported(constants.NetworkBaseSepolia), "registered validation-capable without endpoints")
	assert.False(t, registry.IsSupported("unknown-chain"))
}

func TestInitEVMChainsUsesOfficialEndpoints(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	registry := chains.NewRegistry()

	require.NoError(t, InitEVMChains(logger, registry, constants.NetworkBaseSepolia, constants.NetworkSepolia))

	adapter, err := registry.Get(constants.NetworkBaseSepolia)
	require.NoError(t, err)
	assert.True(t, adapter.(*BaseEVMAdapter).RPC().HasEndpoints())

	adapter, err = registry.Get(constants.NetworkSepolia)
	require.NoError(t, err)
	assert.False(t, adapter.(*BaseEVMAdapter).RPC().HasEndpoints())
}

func TestAddressValidator(t *testing.T) {
	v := NewAddressValidator()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"checksummed", constants.USDCAddressBaseSepolia, false},
		{"lowercase", "0x036cbd53842c5426634e7929541ec2318f3dcf7e", false},
		{"missing prefix", "036CbD53842c5426634e7929541eC2318f3dCF7e", true},
		{"too short", "0x1234", true},
		{"non hex", "0xZZ6CbD53842c5426634e7929541eC2318f3dCF7e", true},
		{"solana address", constants.USDCAddressSolana, true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.True(t, v.AddressesEqual(constants.USDCAddressBaseSepolia, "0x036cbd53842c5426634e7929541ec2318f3dcf7e"))
	assert.False(t, v.AddressesEqual(constants.USDCAddressBaseSepolia, constants.USDCAddressBase))
}

func TestPackTransfer(t *testing.T) {
	data, err := PackTransfer(testRecipient, big.NewInt(100_000))
	require.NoError(t, err)
	require.Len(t, data, 4+32+32)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	assert.Equal(t, int64(100_000), new(big.Int).SetBytes(data[36:]).Int64())

	_, err = PackTransfer(testRecipient, big.NewInt(-1))
	assert.Error(t, err)
}

func TestUnpackBalance(t *testing.T) {
	balance, err := UnpackBalance(encodeUint256(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())

	balance, err = UnpackBalance("0x")
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())
}

func TestUnpackBalanceCompactQuantity(t *testing.T) {
	balance, err := UnpackBalance("0x0")
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())

	balance, err = UnpackBalance("0xf4240")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), balance.Int64())

	_, err = UnpackBalance("0xzz")
	assert.Error(t, err)
}
