package evm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/sigweihq/x402chat/pkg/chains"
	"github.com/sigweihq/x402chat/pkg/constants"
)

// ErrReceiptNotFound is returned while a transaction has not been mined yet
var ErrReceiptNotFound = errors.New("not found")

// RPCClient implements chains.RPCClient for EVM chains
// Adds ERC-20 balance reads and receipt polling on top of the basic interface
type RPCClient struct {
	network      string
	chainID      int64
	endpoints    []string
	pollInterval time.Duration
}

// NewRPCClient creates a new EVM RPC client
func NewRPCClient(network string, chainID int64, endpoints []string) *RPCClient {
	return &RPCClient{
		network:      network,
		chainID:      chainID,
		endpoints:    endpoints,
		pollInterval: constants.ReceiptPollInterval,
	}
}

var _ chains.RPCClient = (*RPCClient)(nil)

// SetPollInterval overrides the interval used by WaitForReceipt
func (r *RPCClient) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		r.pollInterval = interval
	}
}

// HasEndpoints reports whether any RPC endpoint is configured
func (r *RPCClient) HasEndpoints() bool {
	return len(r.endpoints) > 0
}

// GetTransactionReceipt implements chains.RPCClient
// Uses random start position for load balancing across RPC endpoints
func (r *RPCClient) GetTransactionReceipt(ctx context.Context, txHash string) (chains.TransactionReceipt, error) {
	if len(r.endpoints) == 0 {
		return nil, nil // Skip verification if no endpoints
	}

	// Start at a random position for load balancing
	startIdx := rand.Intn(len(r.endpoints))
	initialDelay := constants.DelayBetweenRPCCalls

	var lastErr error
	for i := 0; i < len(r.endpoints); i++ {
		if i > 0 {
			delay := time.Duration(i*constants.DelayBetweenRPCCalls+initialDelay) * time.Millisecond
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}

		// Wrap around using modulo for round-robin
		endpoint := r.endpoints[(startIdx+i)%len(r.endpoints)]

		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			lastErr = &RPCError{Endpoint: endpoint, Err: err}
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, constants.TransactionReceiptTimeout)
		receipt, err := patchedTransactionReceipt(callCtx, client, common.HexToHash(txHash))
		client.Close()
		cancel()

		if err != nil {
			lastErr = &RPCError{Endpoint: endpoint, Err: err}
			continue
		}

		return &EVMReceipt{receipt: receipt}, nil
	}

	return nil, fmt.Errorf("all RPC endpoints failed for network %s: %w", r.network, lastErr)
}

// WaitForReceipt polls for a transaction receipt until it is mined,
// the context is cancelled, or constants.ReceiptWaitTimeout elapses
func (r *RPCClient) WaitForReceipt(ctx context.Context, txHash string) (chains.TransactionReceipt, error) {
	if len(r.endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints available for network %s", r.network)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ReceiptWaitTimeout)
	defer cancel()

	for {
		receipt, err := r.GetTransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		if err := sleepContext(ctx, r.pollInterval); err != nil {
			return nil, fmt.Errorf("timed out waiting for receipt of %s: %w", txHash, err)
		}
	}
}

// BalanceOf reads the ERC-20 balance of owner on asset, in the token's smallest unit
func (r *RPCClient) BalanceOf(ctx context.Context, asset, owner string) (*big.Int, error) {
	data, err := PackBalanceOf(owner)
	if err != nil {
		return nil, err
	}

	result, err := r.callContract(ctx, asset, common.Bytes2Hex(data))
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	return UnpackBalance(result)
}

// IsHealthy implements chains.RPCClient
func (r *RPCClient) IsHealthy(endpoint string) bool {
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return false
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = client.BlockNumber(ctx)
	return err == nil
}

// callContract makes a contract call with RPC failover
// Uses random start position for load balancing across RPC endpoints
func (r *RPCClient) callContract(ctx context.Context, contractAddress, data string) (string, error) {
	if len(r.endpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoints available for network %s", r.network)
	}

	// Start at a random position for load balancing
	startIdx := rand.Intn(len(r.endpoints))

	var lastErr error
	for i := 0; i < len(r.endpoints); i++ {
		if i > 0 {
			delay := time.Duration(i*constants.DelayBetweenRPCCalls) * time.Millisecond
			if err := sleepContext(ctx, delay); err != nil {
				return "", err
			}
		}

		endpoint := r.endpoints[(startIdx+i)%len(r.endpoints)]

		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			lastErr = &RPCError{Endpoint: endpoint, Err: err}
			continue
		}

		callData := data
		if !strings.HasPrefix(data, "0x") {
			callData = "0x" + data
		}
		msg := map[string]interface{}{
			"to":   contractAddress,
			"data": callData,
		}

		callCtx, cancel := context.WithTimeout(ctx, constants.CallContractTimeout)
		var result string
		err = client.Client().CallContext(callCtx, &result, "eth_call", msg, "latest")
		client.Close()
		cancel()

		if err != nil {
			lastErr = &RPCError{Endpoint: endpoint, Err: err}
			continue
		}

		return result, nil
	}

	return "", fmt.Errorf("all RPC endpoints failed for network %s: %w", r.network, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// patchedTransactionReceipt gets a transaction receipt with Base-specific fixes
func patchedTransactionReceipt(ctx context.Context, client *ethclient.Client, txHash common.Hash) (*ethtypes.Receipt, error) {
	var raw json.RawMessage
	err := client.Client().CallContext(ctx, &raw, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrReceiptNotFound
	}

	cleaned, err := stripBlockTimestampFromLogs(raw)
	if err != nil {
		return nil, err
	}

	var receipt ethtypes.Receipt
	err = json.Unmarshal(cleaned, &receipt)
	if err != nil {
		return nil, err
	}

	return &receipt, nil
}

// stripBlockTimestampFromLogs removes the blockTimestamp field from transaction logs
func stripBlockTimestampFromLogs(raw json.RawMessage) ([]byte, error) {
	var receiptMap map[string]interface{}
	if err := json.Unmarshal(raw, &receiptMap); err != nil {
		return nil, err
	}

	logs, ok := receiptMap["logs"].([]interface{})
	if ok {
		for _, log := range logs {
			logMap, ok := log.(map[string]interface{})
			if ok {
				delete(logMap, "blockTimestamp")
			}
		}
	}

	return json.Marshal(receiptMap)
}

// EVMReceipt implements chains.TransactionReceipt
type EVMReceipt struct {
	receipt *ethtypes.Receipt
}

// NewEVMReceipt creates a new EVM receipt wrapper
func NewEVMReceipt(receipt *ethtypes.Receipt) *EVMReceipt {
	return &EVMReceipt{receipt: receipt}
}

func (r *EVMReceipt) IsSuccessful() bool {
	return r.receipt.Status == ethtypes.ReceiptStatusSuccessful
}

// TxHash returns the hex transaction hash
func (r *EVMReceipt) TxHash() string {
	return r.receipt.TxHash.Hex()
}

func (r *EVMReceipt) GetTransferEvent() (*chains.TransferEvent, error) {
	transferEventSignature := common.HexToHash(constants.TransferEventSignature)

	for _, log := range r.receipt.Logs {
		if len(log.Topics) >= 3 && log.Topics[0] == transferEventSignature {
			from := common.HexToAddress(log.Topics[1].Hex())
			to := common.HexToAddress(log.Topics[2].Hex())
			value := new(big.Int).SetBytes(log.Data)

			return &chains.TransferEvent{
				From:  from.Hex(),
				To:    to.Hex(),
				Value: value.String(),
				Asset: log.Address.Hex(), // ERC-20 contract address
			}, nil
		}
	}

	return nil, fmt.Errorf("no transfer event found")
}
