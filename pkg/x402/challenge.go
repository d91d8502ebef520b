package x402

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sigweihq/x402chat/pkg/constants"
	"github.com/sigweihq/x402chat/pkg/types"
)

// Defaults fill the fields a challenge leaves out
type Defaults struct {
	Amount      string
	Recipient   string // May be empty; the wallet backend rejects an empty recipient
	Description string
	Message     string
}

// DefaultDefaults returns the built-in challenge defaults with no recipient
func DefaultDefaults() Defaults {
	return Defaults{
		Amount:      constants.DefaultPaymentAmount,
		Description: constants.DefaultDescription,
		Message:     constants.DefaultChallengeMessage,
	}
}

func (d Defaults) withFallbacks() Defaults {
	builtin := DefaultDefaults()
	if d.Amount == "" {
		d.Amount = builtin.Amount
	}
	if d.Description == "" {
		d.Description = builtin.Description
	}
	if d.Message == "" {
		d.Message = builtin.Message
	}
	return d
}

// ParseChallenge interprets err as a payment-required signal.
//
// A *ResponseError with status 402 is read first; each missing field takes its default.
// Otherwise an error whose message mentions "402" or "Payment Required" yields a challenge
// built entirely from defaults. Any other error is not a challenge.
func ParseChallenge(err error, defaults Defaults) (*types.Challenge, bool) {
	if err == nil {
		return nil, false
	}
	defaults = defaults.withFallbacks()

	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusPaymentRequired {
		var data types.ChallengeData
		if respErr.Data != nil {
			data = *respErr.Data
		}
		return &types.Challenge{
			PaymentRequired: types.PaymentDetails{
				Amount:        firstNonEmpty(data.Amount, defaults.Amount),
				Recipient:     firstNonEmpty(data.Recipient, defaults.Recipient),
				Description:   firstNonEmpty(data.Description, defaults.Description),
				TransactionID: data.TransactionID,
			},
			Message:  firstNonEmpty(data.Message, defaults.Message),
			RetryURL: data.RetryURL,
		}, true
	}

	if IsPaymentRequiredMessage(err.Error()) {
		return &types.Challenge{
			PaymentRequired: types.PaymentDetails{
				Amount:      defaults.Amount,
				Recipient:   defaults.Recipient,
				Description: defaults.Description,
			},
			Message: defaults.Message,
		}, true
	}

	return nil, false
}

// IsPaymentRequiredMessage reports whether an error message names a payment-required response
func IsPaymentRequiredMessage(msg string) bool {
	return strings.Contains(msg, "402") || strings.Contains(msg, "Payment Required")
}

func firstNonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
