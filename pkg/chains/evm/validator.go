package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sigweihq/x402chat/pkg/chains"
)

// AddressValidator implements chains.AddressValidator for EVM chains
type AddressValidator struct{}

func NewAddressValidator() *AddressValidator {
	return &AddressValidator{}
}

var _ chains.AddressValidator = (*AddressValidator)(nil)

// ValidateAddress implements chains.AddressValidator
// Requires a 0x-prefixed, 20-byte hex address
func (v *AddressValidator) ValidateAddress(addr string) error {
	if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid EVM address: %q", addr)
	}
	return nil
}

// AddressesEqual implements chains.AddressValidator
// EVM addresses are case-insensitive due to EIP-55 checksumming
func (v *AddressValidator) AddressesEqual(addr1, addr2 string) bool {
	return strings.EqualFold(addr1, addr2)
}
