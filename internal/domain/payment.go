// Package domain holds the canonical, gateway-agnostic payment model.
// Every adapter maps between these types and its own wire format; nothing
// in here knows about any particular gateway.
package domain

import (
	"fmt"
	"time"
)

// PaymentStatus is the canonical status vocabulary. Adapters classify
// gateway-specific result codes into exactly one of these values.
type PaymentStatus string

const (
	StatusPending           PaymentStatus = "pending"
	StatusProcessing        PaymentStatus = "processing"
	StatusCompleted         PaymentStatus = "completed"
	StatusFailed            PaymentStatus = "failed"
	StatusCancelled         PaymentStatus = "cancelled"
	StatusRefunded          PaymentStatus = "refunded"
	StatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodEFT          PaymentMethod = "eft"
	MethodMobileWallet PaymentMethod = "mobile_wallet"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCrypto       PaymentMethod = "cryptocurrency"
)

// Currency is an ISO 4217 code from the supported set.
type Currency string

const (
	ZAR Currency = "ZAR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

var supportedCurrencies = map[Currency]struct{}{
	ZAR: {}, USD: {}, EUR: {}, GBP: {},
}

// Amount is a monetary value with two fractional digits.
type Amount struct {
	Value    float64  `json:"value"`
	Currency Currency `json:"currency"`
}

// Validate checks the invariants: value strictly positive, currency supported.
func (a Amount) Validate() error {
	if a.Value <= 0 {
		return NewValidationError(fmt.Sprintf("amount must be positive, got %.2f", a.Value), nil)
	}
	if _, ok := supportedCurrencies[a.Currency]; !ok {
		return NewValidationError(fmt.Sprintf("unsupported currency %q", a.Currency), nil)
	}
	return nil
}

// String renders the value as a fixed two-decimal string, the format every
// gateway in scope expects on the wire.
func (a Amount) String() string {
	return fmt.Sprintf("%.2f", a.Value)
}

// Customer identifies who is paying. Email is the only required field.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BillingAddress is optional structured address data forwarded to the gateway.
type BillingAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CardDetails carries raw card data. It is forwarded to the gateway and
// never persisted or logged by this module.
type CardDetails struct {
	Number      string `json:"number"`
	Holder      string `json:"holder,omitempty"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

// PaymentRequest is the canonical request to initiate a payment.
//
// Reference is a caller-supplied correlation id. When absent the adapter
// generates one; generated references are not guaranteed globally unique.
type PaymentRequest struct {
	Amount         Amount            `json:"amount"`
	Customer       Customer          `json:"customer"`
	PaymentMethod  PaymentMethod     `json:"paymentMethod"`
	Reference      string            `json:"reference,omitempty"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	BillingAddress *BillingAddress   `json:"billingAddress,omitempty"`
	CardDetails    *CardDetails      `json:"cardDetails,omitempty"`
	ReturnURL      string            `json:"returnUrl,omitempty"`
	WebhookURL     string            `json:"webhookUrl,omitempty"`
}

// PaymentResponse is the canonical outcome of a payment operation.
// Metadata carries the raw gateway response for debugging; treat it as opaque.
type PaymentResponse struct {
	ID               string         `json:"id"`
	Status           PaymentStatus  `json:"status"`
	Amount           Amount         `json:"amount"`
	PaymentMethod    PaymentMethod  `json:"paymentMethod"`
	Reference        string         `json:"reference,omitempty"`
	GatewayReference string         `json:"gatewayReference,omitempty"`
	RedirectURL      string         `json:"redirectUrl,omitempty"`
	FailureReason    string         `json:"failureReason,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// RefundRequest asks for a refund against an earlier payment. A nil Amount
// means a full refund; the gateway decides what "full" means.
type RefundRequest struct {
	PaymentID string            `json:"paymentId"`
	Amount    *Amount           `json:"amount,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Reference string            `json:"reference,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RefundResponse mirrors PaymentResponse for refunds.
//
// PaymentID may be empty on status lookups: the remote status endpoint does
// not echo the original payment id, so it can only be recovered when a
// correlation store is configured.
type RefundResponse struct {
	ID            string         `json:"id"`
	PaymentID     string         `json:"paymentId,omitempty"`
	Status        PaymentStatus  `json:"status"`
	Amount        Amount         `json:"amount"`
	Reference     string         `json:"reference,omitempty"`
	FailureReason string         `json:"failureReason,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
