package svm

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/x402chat/pkg/chains"
)

// AddressValidator implements chains.AddressValidator for SVM chains
type AddressValidator struct{}

// NewAddressValidator creates a new SVM address validator
func NewAddressValidator() *AddressValidator {
	return &AddressValidator{}
}

var _ chains.AddressValidator = (*AddressValidator)(nil)

// ValidateAddress implements chains.AddressValidator
// A valid address is a base58 string decoding to a 32-byte public key
func (v *AddressValidator) ValidateAddress(addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid Solana address %q: %w", addr, err)
	}
	return nil
}

// AddressesEqual implements chains.AddressValidator
// SVM addresses are case-sensitive (base58 encoding)
func (v *AddressValidator) AddressesEqual(addr1, addr2 string) bool {
	return addr1 == addr2
}
