package types

// WalletType discriminates how a payment is executed
type WalletType string

const (
	// WalletTypeMetaMask is an extension-injected signer that requires interactive approval
	WalletTypeMetaMask WalletType = "metamask"
	// WalletTypeCDP is a service-mediated wallet; a populated SmartWalletInfo selects the smart-wallet sub-variant
	WalletTypeCDP WalletType = "cdp"
)

// PaymentDetails describes one payment obligation, created fresh per challenge
type PaymentDetails struct {
	Amount        string `json:"amount" validate:"required,numeric"` // Human units of the settlement asset (e.g., "0.1")
	Recipient     string `json:"recipient" validate:"required"`
	Description   string `json:"description,omitempty"`
	TransactionID string `json:"transactionId,omitempty"` // Correlates a challenge to its settlement
}

// WalletInfo identifies a custodial wallet held by the wallet service
type WalletInfo struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Network string `json:"network"`
	Balance string `json:"balance,omitempty"`
}

// SmartWalletInfo identifies a passkey-controlled smart wallet reached through a provider
type SmartWalletInfo struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Network   string `json:"network"`
	PasskeyID string `json:"passkeyId,omitempty"`
}

// PaymentContext identifies how to pay. Exactly one identity variant is expected
// to be populated for the declared WalletType.
type PaymentContext struct {
	WalletType      WalletType       `json:"walletType"`
	UserAddress     string           `json:"userAddress,omitempty"`
	WalletInfo      *WalletInfo      `json:"walletInfo,omitempty"`
	SmartWalletInfo *SmartWalletInfo `json:"smartWalletInfo,omitempty"`
}

// Address returns the paying address for whichever identity variant is populated
func (c *PaymentContext) Address() string {
	switch {
	case c == nil:
		return ""
	case c.UserAddress != "":
		return c.UserAddress
	case c.WalletInfo != nil && c.WalletInfo.Address != "":
		return c.WalletInfo.Address
	case c.SmartWalletInfo != nil:
		return c.SmartWalletInfo.Address
	}
	return ""
}

// Clone returns a deep copy so callers can hand out snapshots without sharing identity pointers
func (c PaymentContext) Clone() PaymentContext {
	out := c
	if c.WalletInfo != nil {
		info := *c.WalletInfo
		out.WalletInfo = &info
	}
	if c.SmartWalletInfo != nil {
		info := *c.SmartWalletInfo
		out.SmartWalletInfo = &info
	}
	return out
}

// PaymentResult is the outcome of one settlement attempt
type PaymentResult struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// NewPaymentSuccess creates a successful result carrying the settlement proof
func NewPaymentSuccess(txHash string) PaymentResult {
	return PaymentResult{Success: true, TransactionHash: txHash}
}

// NewPaymentFailure creates a failed result with a human-readable reason
func NewPaymentFailure(reason string) PaymentResult {
	return PaymentResult{Success: false, Error: reason}
}

// ChallengeData is the body of a structured payment-required response. Every field is optional.
type ChallengeData struct {
	Message       string `json:"message,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	Description   string `json:"description,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	RetryURL      string `json:"retryUrl,omitempty"`
}

// Challenge is parsed from a failed call and lives for one flow invocation
type Challenge struct {
	PaymentRequired PaymentDetails `json:"paymentRequired"`
	Message         string         `json:"message"`
	RetryURL        string         `json:"retryUrl,omitempty"`
}
