// Package config loads runtime settings from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sigweihq/x402chat/pkg/constants"
	"github.com/sigweihq/x402chat/pkg/utils"
	"github.com/sigweihq/x402chat/pkg/wallet"
	"github.com/sigweihq/x402chat/pkg/wallet/custodial"
	"github.com/sigweihq/x402chat/pkg/x402"
)

// Environment variables read by Load
const (
	EnvNetwork          = "X402CHAT_NETWORK"
	EnvChainID          = "X402CHAT_CHAIN_ID"
	EnvRPCURL           = "X402CHAT_RPC_URL"
	EnvFallbackRPCURL   = "X402CHAT_FALLBACK_RPC_URL"
	EnvUSDCAddress      = "X402CHAT_USDC_CONTRACT_ADDRESS"
	EnvUSDCDecimals     = "X402CHAT_USDC_DECIMALS"
	EnvPaymentAmount    = "X402CHAT_DEFAULT_PAYMENT_AMOUNT"
	EnvPaymentRecipient = "X402CHAT_PAYMENT_RECIPIENT"
	EnvAPIBaseURL       = "X402CHAT_API_BASE_URL"
	EnvGasLimit         = "X402CHAT_DEFAULT_GAS_LIMIT"
)

var validate = validator.New()

// Config holds the network, settlement asset and payment defaults
type Config struct {
	Network          string `validate:"required"`
	ChainID          int64  `validate:"gt=0"`
	RPCURL           string `validate:"required,url"`
	FallbackRPCURL   string `validate:"omitempty,url"`
	USDCAddress      string `validate:"required,eth_addr"`
	USDCDecimals     int32  `validate:"min=0,max=18"`
	PaymentAmount    string `validate:"required,numeric"`
	PaymentRecipient string `validate:"omitempty,eth_addr"` // No default; challenges must name a recipient when unset
	APIBaseURL       string `validate:"required,url"`
	GasLimit         uint64 // Zero omits the gas field from smart-wallet transactions
}

// Default returns the settings used when no environment variable is set
func Default() Config {
	return Config{
		Network:       constants.NetworkBaseSepolia,
		ChainID:       constants.NetworkToChainID[constants.NetworkBaseSepolia],
		RPCURL:        constants.OfficialRPCEndpoints[constants.NetworkBaseSepolia][0],
		USDCAddress:   constants.USDCAddressBaseSepolia,
		USDCDecimals:  constants.USDCDecimals,
		PaymentAmount: constants.DefaultPaymentAmount,
		APIBaseURL:    custodial.DefaultBaseURL,
	}
}

// Load reads the environment over Default and validates the result
func Load() (*Config, error) {
	cfg := Default()

	setString(&cfg.Network, EnvNetwork)
	setString(&cfg.RPCURL, EnvRPCURL)
	setString(&cfg.FallbackRPCURL, EnvFallbackRPCURL)
	setString(&cfg.USDCAddress, EnvUSDCAddress)
	setString(&cfg.PaymentAmount, EnvPaymentAmount)
	setString(&cfg.PaymentRecipient, EnvPaymentRecipient)
	setString(&cfg.APIBaseURL, EnvAPIBaseURL)

	// A network change without an explicit chain id or asset follows the network
	if network, ok := lookup(EnvNetwork); ok && network != constants.NetworkBaseSepolia {
		cfg.ChainID = constants.NetworkToChainID[network]
		if _, ok := lookup(EnvUSDCAddress); !ok {
			cfg.USDCAddress = constants.NetworkToUSDCAddress[network]
		}
		if endpoints := constants.OfficialRPCEndpoints[network]; len(endpoints) > 0 {
			if _, ok := lookup(EnvRPCURL); !ok {
				cfg.RPCURL = endpoints[0]
			}
		}
	}

	if v, ok := lookup(EnvChainID); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvChainID, err)
		}
		cfg.ChainID = id
	}
	if v, ok := lookup(EnvUSDCDecimals); ok {
		decimals, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvUSDCDecimals, err)
		}
		cfg.USDCDecimals = int32(decimals)
	}
	if v, ok := lookup(EnvGasLimit); ok {
		gas, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvGasLimit, err)
		}
		cfg.GasLimit = gas
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field formats, that the wallet service is reached over HTTPS
// (or loopback) and that the chain id matches a known network
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := utils.ValidateServiceURL(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid configuration: %s: %w", EnvAPIBaseURL, err)
	}
	if expected, ok := constants.NetworkToChainID[c.Network]; ok && expected != c.ChainID {
		return fmt.Errorf("invalid configuration: chain id %d does not match network %s (%d)", c.ChainID, c.Network, expected)
	}
	return nil
}

// RPCEndpoints returns the primary and fallback RPC URLs in order
func (c *Config) RPCEndpoints() []string {
	endpoints := []string{c.RPCURL}
	if c.FallbackRPCURL != "" && c.FallbackRPCURL != c.RPCURL {
		endpoints = append(endpoints, c.FallbackRPCURL)
	}
	return endpoints
}

// Asset returns the settlement asset
func (c *Config) Asset() wallet.Asset {
	return wallet.Asset{
		Address:  c.USDCAddress,
		Decimals: c.USDCDecimals,
		Symbol:   constants.USDCSymbol,
	}
}

// ChallengeDefaults returns the values used for fields a challenge leaves out
func (c *Config) ChallengeDefaults() x402.Defaults {
	defaults := x402.DefaultDefaults()
	defaults.Amount = c.PaymentAmount
	defaults.Recipient = c.PaymentRecipient
	return defaults
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(field *string, key string) {
	if v, ok := lookup(key); ok {
		*field = v
	}
}
