package evm

import (
	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/constants"
)

// BaseEVMAdapter provides common EVM functionality that all EVM chains share
type BaseEVMAdapter struct {
	network   string
	chainID   int64
	rpc       *RPCClient
	validator *AddressValidator
}

// NewBaseEVMAdapter creates a base EVM adapter with common functionality
func NewBaseEVMAdapter(network string, chainID int64, endpoints []string) *BaseEVMAdapter {
	return &BaseEVMAdapter{
		network:   network,
		chainID:   chainID,
		rpc:       NewRPCClient(network, chainID, endpoints),
		validator: NewAddressValidator(),
	}
}

// Network implements chains.ChainAdapter
func (a *BaseEVMAdapter) Network() string {
	return a.network
}

// ChainID returns the numeric EIP-155 chain ID
func (a *BaseEVMAdapter) ChainID() int64 {
	return a.chainID
}

// AddressValidator implements chains.ChainAdapter
func (a *BaseEVMAdapter) AddressValidator() chains.AddressValidator {
	return a.validator
}

// RPCClient implements chains.ChainAdapter
func (a *BaseEVMAdapter) RPCClient() chains.RPCClient {
	return a.rpc
}

// RPC returns the concrete EVM RPC client for contract reads
func (a *BaseEVMAdapter) RPC() *RPCClient {
	return a.rpc
}

// NewEVMAdapter creates an EVM chain adapter for any EVM-compatible network
// Network must be registered in constants.NetworkToChainID
func NewEVMAdapter(network string, endpoints []string) (*BaseEVMAdapter, error) {
	chainID, ok := constants.NetworkToChainID[network]
	if !ok {
		return nil, &UnsupportedNetworkError{Network: network}
	}
	return NewBaseEVMAdapter(network, chainID, endpoints), nil
}
