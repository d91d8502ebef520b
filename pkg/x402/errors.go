package x402

import (
	"errors"
	"fmt"

	"github.com/sigweihq/x402chat/pkg/types"
)

// ErrPaymentCancelled is returned when the authorization callback declines the payment
var ErrPaymentCancelled = errors.New("Payment cancelled by user")

// ErrPaymentNotSuccessful is returned by RetryAfterPayment for a result without settlement proof
var ErrPaymentNotSuccessful = errors.New("Payment was not successful")

const defaultSettlementFailure = "Payment failed"

// SettlementError is returned when a payment was authorized but could not be settled
type SettlementError struct {
	Reason string
}

func (e *SettlementError) Error() string {
	if e.Reason == "" {
		return defaultSettlementFailure
	}
	return e.Reason
}

// ResponseError is a failed call carrying an HTTP status and an optional structured body.
// A 402 status with Data is a payment-required challenge.
type ResponseError struct {
	StatusCode int
	Data       *types.ChallengeData
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// NewPaymentRequiredError creates the structured payment-required error a call should
// return to trigger the flow
func NewPaymentRequiredError(data types.ChallengeData) *ResponseError {
	message := data.Message
	if message == "" {
		message = "402 Payment Required"
	}
	return &ResponseError{StatusCode: 402, Data: &data, Message: message}
}
