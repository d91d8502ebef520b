package constants

import "time"

const (
	DelayBetweenRPCCalls      = 200              // delay in milliseconds between RPC calls
	TransactionReceiptTimeout = 2 * time.Second  // timeout for a single receipt lookup
	ReceiptPollInterval       = 2 * time.Second  // interval between receipt lookups while waiting for confirmation
	ReceiptWaitTimeout        = 2 * time.Minute  // upper bound on waiting for a submitted transfer to be mined
	CallContractTimeout       = 10 * time.Second // timeout for contract call
	WalletServiceTimeout      = 30 * time.Second // timeout for custodial wallet service requests
	TLSHandshakeTimeout       = 10 * time.Second // timeout for TLS handshake
	ResponseHeaderTimeout     = 20 * time.Second // timeout for response header
	ExpectContinueTimeout     = 1 * time.Second  // timeout for expect continue
	MaxResponseBodySize       = 10 * 1024 * 1024 // maximum response body size in bytes (10MB)
)

const (
	USDCDecimals = 6
	USDCSymbol   = "USDC"
)

// Payment defaults used when a payment-required challenge omits fields
const (
	DefaultPaymentAmount    = "0.1"
	DefaultDescription      = "x402 Payment Required"
	DefaultChallengeMessage = "Payment required to continue"
)

// Network Types
const (
	NetworkBase          = "base"
	NetworkBaseSepolia   = "base-sepolia"
	NetworkSepolia       = "sepolia"
	NetworkAvalanche     = "avalanche"
	NetworkAvalancheFuji = "avalanche-fuji"
	NetworkPolygon       = "polygon"
	NetworkPolygonAmoy   = "polygon-amoy"
	NetworkSolana        = "solana"
	NetworkSolanaDevnet  = "solana-devnet"
)

const (
	USDCAddressBase          = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	USDCAddressBaseSepolia   = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	USDCAddressSepolia       = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
	USDCAddressAvalanche     = "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"
	USDCAddressAvalancheFuji = "0x5425890298aed601595a70AB815c96711a31Bc65"
	USDCAddressPolygon       = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
	USDCAddressPolygonAmoy   = "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582"
	USDCAddressSolana        = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCAddressSolanaDevnet  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
)

var NetworkToUSDCAddress = map[string]string{
	NetworkBase:          USDCAddressBase,
	NetworkBaseSepolia:   USDCAddressBaseSepolia,
	NetworkSepolia:       USDCAddressSepolia,
	NetworkAvalanche:     USDCAddressAvalanche,
	NetworkAvalancheFuji: USDCAddressAvalancheFuji,
	NetworkPolygon:       USDCAddressPolygon,
	NetworkPolygonAmoy:   USDCAddressPolygonAmoy,
	NetworkSolana:        USDCAddressSolana,
	NetworkSolanaDevnet:  USDCAddressSolanaDevnet,
}

// mapping from network name to numeric chain ID
var NetworkToChainID = map[string]int64{
	NetworkBase:          8453,
	NetworkBaseSepolia:   84532,
	NetworkSepolia:       11155111,
	NetworkAvalanche:     43114,
	NetworkAvalancheFuji: 43113,
	NetworkPolygon:       137,
	NetworkPolygonAmoy:   80002,
}

// SolanaNetworks lists the non-EVM networks custodial wallets may live on
var SolanaNetworks = []string{NetworkSolana, NetworkSolanaDevnet}

var OfficialRPCEndpoints = map[string][]string{
	NetworkBase:         {"https://mainnet.base.org"},
	NetworkBaseSepolia:  {"https://sepolia.base.org"},
	NetworkSolana:       {"https://api.mainnet-beta.solana.com"},
	NetworkSolanaDevnet: {"https://api.devnet.solana.com"},
}

// ERC20ABI covers the subset of ERC-20 used for settlement-asset payments
const ERC20ABI = `[
	{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// TransferEventSignature is keccak256("Transfer(address,address,uint256)")
const TransferEventSignature = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
