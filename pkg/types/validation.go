package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct tags of PaymentDetails. Address syntax is chain-specific
// and is checked by the wallet backend.
func (d PaymentDetails) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
