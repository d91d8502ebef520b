// Package metrics records payment-flow events
package metrics

import "time"

// Recorder receives flow events. Labels carry the wallet kind under the key "wallet".
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Event names recorded by the x402 flow
const (
	EventChallenge        = "challenge"
	EventCancelled        = "cancelled"
	EventSettled          = "settled"
	EventSettlementFailed = "settlement_failed"
	EventRetryFailed      = "retry_failed"
	EventPassthroughError = "passthrough_error"

	OperationSettlement = "settlement"
)
