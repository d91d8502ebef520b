package svm

import (
	"fmt"
	"log/slog"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/constants"
)

// InitSVMChains registers validation-only SVM adapters
// Without networks, defaults to both Solana mainnet and devnet
func InitSVMChains(logger *slog.Logger, registry *chains.Registry, networks ...string) error {
	if registry == nil {
		registry = chains.InitGlobalRegistry()
	}

	if len(networks) == 0 {
		networks = constants.SolanaNetworks
	}

	for _, network := range networks {
		if !isSolanaNetwork(network) {
			logger.Warn("skipping non-SVM network", "network", network)
			continue
		}

		if err := registry.Register(NewSVMAdapter(network)); err != nil {
			return fmt.Errorf("failed to register SVM adapter for %s: %w", network, err)
		}
	}

	return nil
}

func isSolanaNetwork(network string) bool {
	for _, n := range constants.SolanaNetworks {
		if n == network {
			return true
		}
	}
	return false
}
