// Package gateway defines the contract every payment gateway adapter
// implements, plus the small piece of shared state adapters embed.
package gateway

import (
	"context"

	"github.com/yourorg/payment-gateway/internal/domain"
)

// Gateway is the capability set of one configured payment backend.
//
// Data-mutating operations take a context and may block on network I/O.
// Name, SupportedMethods and SupportsPaymentMethod are pure and derived
// from immutable construction-time state, so a Gateway is safe for
// concurrent use.
type Gateway interface {
	// Name returns the registry name of this gateway (e.g. "peach").
	Name() string

	// SupportedMethods returns the static set of payment methods this
	// gateway can process.
	SupportedMethods() []domain.PaymentMethod

	// SupportsPaymentMethod reports whether method is in SupportedMethods.
	SupportsPaymentMethod(method domain.PaymentMethod) bool

	// ValidateConfig re-checks the adapter's resolved configuration.
	ValidateConfig() error

	// ProcessPayment initiates a payment. A gateway-side rejection (e.g. a
	// declined card) is not an error: it comes back as a response with
	// status failed and a populated FailureReason.
	ProcessPayment(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error)

	// GetPaymentStatus fetches the current state of an earlier payment.
	GetPaymentStatus(ctx context.Context, paymentID string) (*domain.PaymentResponse, error)

	// ProcessRefund initiates a refund against an earlier payment.
	ProcessRefund(ctx context.Context, req *domain.RefundRequest) (*domain.RefundResponse, error)

	// GetRefundStatus fetches the current state of an earlier refund.
	GetRefundStatus(ctx context.Context, refundID string) (*domain.RefundResponse, error)
}
