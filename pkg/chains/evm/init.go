package evm

import (
	"log/slog"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/constants"
)

// InitEVMChains registers EVM adapters for the given networks using the official RPC endpoints
// Networks without official endpoints are registered validation-only
func InitEVMChains(logger *slog.Logger, registry *chains.Registry, networks ...string) error {
	endpoints := make(map[string][]string, len(networks))
	for _, network := range networks {
		endpoints[network] = constants.OfficialRPCEndpoints[network]
	}
	return InitEVMChainsWithEndpoints(logger, registry, endpoints)
}

// InitEVMChainsWithEndpoints registers EVM adapters with caller-provided endpoints
func InitEVMChainsWithEndpoints(logger *slog.Logger, registry *chains.Registry, endpoints map[string][]string) error {
	if registry == nil {
		registry = chains.InitGlobalRegistry()
	}

	for network, networkEndpoints := range endpoints {
		if len(networkEndpoints) == 0 {
			logger.Warn("no endpoints provided for network", "network", network)
		}

		adapter, err := NewEVMAdapter(network, networkEndpoints)
		if err != nil {
			logger.Warn("failed to create EVM adapter", "network", network, "error", err)
			continue
		}

		if err := registry.Register(adapter); err != nil {
			logger.Warn("failed to register EVM adapter", "network", network, "error", err)
		}
	}

	return nil
}
