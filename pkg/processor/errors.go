package processor

import (
	"errors"
	"fmt"

	"github.com/sigweihq/x402chat/pkg/types"
)

// ErrNoWalletIdentity is matched by errors.Is for every *ContextError
var ErrNoWalletIdentity = errors.New("no wallet identity")

// ContextError is returned when a payment context carries no identity for its wallet type
type ContextError struct {
	WalletType types.WalletType
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("payment context for wallet type %q carries no wallet identity", e.WalletType)
}

func (e *ContextError) Unwrap() error {
	return ErrNoWalletIdentity
}
