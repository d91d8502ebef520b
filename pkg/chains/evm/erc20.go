package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/sigweihq/x402chat/pkg/constants"
)

var erc20ABI = mustParseABI(constants.ERC20ABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("failed to parse contract ABI: %v", err))
	}
	return parsed
}

// PackTransfer encodes ERC-20 transfer(to, amount) calldata
func PackTransfer(to string, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid transfer amount")
	}
	data, err := erc20ABI.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack function call: %w", err)
	}
	return data, nil
}

// PackBalanceOf encodes ERC-20 balanceOf(owner) calldata
func PackBalanceOf(owner string) ([]byte, error) {
	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to pack function call: %w", err)
	}
	return data, nil
}

// UnpackBalance decodes a hex eth_call result of balanceOf
func UnpackBalance(result string) (*big.Int, error) {
	raw := strings.TrimPrefix(result, "0x")
	if raw == "" {
		return big.NewInt(0), nil
	}

	// Some providers return a compact quantity ("0x0") instead of a 32-byte word
	if len(raw) < 64 {
		value, ok := new(big.Int).SetString(raw, 16)
		if !ok {
			return nil, fmt.Errorf("invalid balanceOf result: %s", result)
		}
		return value, nil
	}

	values, err := erc20ABI.Unpack("balanceOf", common.Hex2Bytes(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode contract call result: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf result length %d", len(values))
	}

	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}
	return balance, nil
}
