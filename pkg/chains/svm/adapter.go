package svm

import (
	"github.com/sigweihq/x402chat/pkg/chains"
)

// SVMAdapter provides SVM chain functionality
// Custodial wallets settle Solana payments server-side, so only address rules are needed here
type SVMAdapter struct {
	network   string
	validator *AddressValidator
}

// NewSVMAdapter creates a new validation-only SVM chain adapter
func NewSVMAdapter(network string) *SVMAdapter {
	return &SVMAdapter{
		network:   network,
		validator: NewAddressValidator(),
	}
}

// Network implements chains.ChainAdapter
func (a *SVMAdapter) Network() string {
	return a.network
}

// AddressValidator implements chains.ChainAdapter
func (a *SVMAdapter) AddressValidator() chains.AddressValidator {
	return a.validator
}

// RPCClient implements chains.ChainAdapter
// SVM support is validation-only
func (a *SVMAdapter) RPCClient() chains.RPCClient {
	return nil
}
