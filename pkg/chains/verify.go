package chains

import (
	"fmt"
	"math/big"
)

// VerifyTransfer checks that a mined receipt carries the expected token transfer.
// An empty expected.From or expected.Asset is not checked.
func VerifyTransfer(receipt TransactionReceipt, addresses AddressValidator, expected TransferEvent) error {
	if receipt == nil {
		return fmt.Errorf("no receipt to verify")
	}

	if !receipt.IsSuccessful() {
		return fmt.Errorf("transaction failed on blockchain")
	}

	actual, err := receipt.GetTransferEvent()
	if err != nil {
		return fmt.Errorf("no transfer event found in transaction: %w", err)
	}

	if expected.From != "" && !addresses.AddressesEqual(actual.From, expected.From) {
		return fmt.Errorf("transaction from address mismatch: got %s, expected %s", actual.From, expected.From)
	}

	if !addresses.AddressesEqual(actual.To, expected.To) {
		return fmt.Errorf("transaction to address mismatch: got %s, expected %s", actual.To, expected.To)
	}

	actualValue, ok := new(big.Int).SetString(actual.Value, 10)
	if !ok {
		return fmt.Errorf("invalid value format in transfer event: %s", actual.Value)
	}
	expectedValue, ok := new(big.Int).SetString(expected.Value, 10)
	if !ok {
		return fmt.Errorf("invalid expected value format: %s", expected.Value)
	}
	if actualValue.Cmp(expectedValue) != 0 {
		return fmt.Errorf("transaction value mismatch: got %s, expected %s", actualValue, expectedValue)
	}

	if expected.Asset != "" && !addresses.AddressesEqual(actual.Asset, expected.Asset) {
		return fmt.Errorf("token contract mismatch: got %s, expected %s", actual.Asset, expected.Asset)
	}

	return nil
}
