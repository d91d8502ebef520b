package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/sigweihq/x402chat/pkg/chains/evm"
)

// Provider is an EIP-1193 style request surface, as exposed by browser extensions
// and smart-wallet SDKs. Request may block on interactive user approval.
type Provider interface {
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// RPCProvider adapts a go-ethereum rpc.Client to Provider, e.g. a node with unlocked accounts
// or a signer exposed over JSON-RPC
type RPCProvider struct {
	client *rpc.Client
}

// NewRPCProvider wraps an rpc.Client
func NewRPCProvider(client *rpc.Client) *RPCProvider {
	return &RPCProvider{client: client}
}

// DialProvider connects to a JSON-RPC endpoint
func DialProvider(ctx context.Context, url string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial provider: %w", err)
	}
	return NewRPCProvider(client), nil
}

// Request implements Provider
func (p *RPCProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := p.client.CallContext(ctx, &raw, method, params...); err != nil {
		return nil, err
	}
	return raw, nil
}

// Close closes the underlying client
func (p *RPCProvider) Close() {
	p.client.Close()
}

// TransactionArgs is the eth_sendTransaction / eth_call parameter object
type TransactionArgs struct {
	From *common.Address `json:"from,omitempty"`
	To   common.Address  `json:"to"`
	Data hexutil.Bytes   `json:"data"`
	Gas  *hexutil.Uint64 `json:"gas,omitempty"`
}

// NewTransferTx builds an ERC-20 transfer of units from sender to recipient
func NewTransferTx(from string, asset Asset, recipient string, units *big.Int, gas uint64) (TransactionArgs, error) {
	data, err := evm.PackTransfer(recipient, units)
	if err != nil {
		return TransactionArgs{}, err
	}

	sender := common.HexToAddress(from)
	tx := TransactionArgs{
		From: &sender,
		To:   common.HexToAddress(asset.Address),
		Data: data,
	}
	if gas > 0 {
		limit := hexutil.Uint64(gas)
		tx.Gas = &limit
	}
	return tx, nil
}

// SendTransaction submits tx through the provider and returns its hash
func SendTransaction(ctx context.Context, p Provider, tx TransactionArgs) (string, error) {
	raw, err := p.Request(ctx, "eth_sendTransaction", tx)
	if err != nil {
		return "", err
	}

	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", fmt.Errorf("failed to decode transaction hash: %w", err)
	}
	if hash == "" {
		return "", fmt.Errorf("provider returned an empty transaction hash")
	}
	return hash, nil
}

// SwitchChain asks the provider to select chainID
func SwitchChain(ctx context.Context, p Provider, chainID int64) error {
	param := map[string]string{"chainId": hexutil.EncodeBig(big.NewInt(chainID))}
	_, err := p.Request(ctx, "wallet_switchEthereumChain", param)
	return err
}

// CallBalanceOf reads an ERC-20 balance through the provider's eth_call
func CallBalanceOf(ctx context.Context, p Provider, asset Asset, owner string) (*big.Int, error) {
	data, err := evm.PackBalanceOf(owner)
	if err != nil {
		return nil, err
	}

	raw, err := p.Request(ctx, "eth_call", TransactionArgs{To: common.HexToAddress(asset.Address), Data: data}, "latest")
	if err != nil {
		return nil, err
	}

	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode eth_call result: %w", err)
	}
	return evm.UnpackBalance(result)
}
