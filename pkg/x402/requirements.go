package x402

import (
	"fmt"
	"math/big"

	x402types "github.com/coinbase/x402/go/pkg/types"

	"github.com/sigweihq/x402chat/pkg/types"
	"github.com/sigweihq/x402chat/pkg/utils"
	"github.com/sigweihq/x402chat/pkg/wallet"
)

const requirementsTimeoutSeconds = 60

// settlementAsset returns asset, or USDC on network when no asset is configured
func settlementAsset(asset wallet.Asset, network string) wallet.Asset {
	if asset.Address == "" {
		return wallet.DefaultAsset(network)
	}
	return asset
}

// ChallengeDataFromRequirements converts a standard x402 payment option into challenge data.
// MaxAmountRequired is in the asset's smallest unit; the challenge amount is in human units.
func ChallengeDataFromRequirements(req x402types.PaymentRequirements, asset wallet.Asset) types.ChallengeData {
	asset = settlementAsset(asset, req.Network)

	var amount string
	if value, ok := new(big.Int).SetString(req.MaxAmountRequired, 10); ok {
		amount = utils.FormatUnits(value, asset.Decimals)
	}
	return types.ChallengeData{
		Amount:      amount,
		Recipient:   req.PayTo,
		Description: req.Description,
	}
}

// RequirementsFor builds the standard x402 payment option describing details paid in asset on network
func RequirementsFor(details types.PaymentDetails, network, resource string, asset wallet.Asset) (*x402types.PaymentRequirements, error) {
	asset = settlementAsset(asset, network)
	if asset.Address == "" {
		return nil, fmt.Errorf("no settlement asset for network %s", network)
	}

	units, err := utils.ParseUnits(details.Amount, asset.Decimals)
	if err != nil {
		return nil, err
	}

	return &x402types.PaymentRequirements{
		Scheme:            "exact",
		Network:           network,
		MaxAmountRequired: units.String(),
		Resource:          resource,
		Description:       details.Description,
		MimeType:          "application/json",
		PayTo:             details.Recipient,
		MaxTimeoutSeconds: requirementsTimeoutSeconds,
		Asset:             asset.Address,
	}, nil
}

// selectRequirements picks the option for network, or the first one
func selectRequirements(accepts []x402types.PaymentRequirements, network string) x402types.PaymentRequirements {
	for _, req := range accepts {
		if req.Network == network {
			return req
		}
	}
	return accepts[0]
}
