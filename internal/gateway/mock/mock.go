// Package mock provides a configurable in-memory gateway for tests and
// local development. Each operation has a pluggable func; unset funcs fall
// back to a deterministic success.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/yourorg/payment-gateway/internal/domain"
	"github.com/yourorg/payment-gateway/internal/gateway"
)

var _ gateway.Gateway = (*Gateway)(nil)

// Gateway counts calls per operation so tests can assert that a code path
// was (or was not) reached.
type Gateway struct {
	gateway.Base

	ProcessPaymentFunc   func(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error)
	GetPaymentStatusFunc func(ctx context.Context, paymentID string) (*domain.PaymentResponse, error)
	ProcessRefundFunc    func(ctx context.Context, req *domain.RefundRequest) (*domain.RefundResponse, error)
	GetRefundStatusFunc  func(ctx context.Context, refundID string) (*domain.RefundResponse, error)
	ValidateConfigFunc   func() error

	mu    sync.Mutex
	calls map[string]int
}

// New builds a mock gateway registered under name, supporting the given
// methods (all methods when none are given).
func New(name string, methods ...domain.PaymentMethod) *Gateway {
	if len(methods) == 0 {
		methods = []domain.PaymentMethod{
			domain.MethodCard, domain.MethodEFT, domain.MethodMobileWallet,
			domain.MethodBankTransfer, domain.MethodCrypto,
		}
	}
	return &Gateway{
		Base:  gateway.NewBase(name, methods...),
		calls: make(map[string]int),
	}
}

// Calls returns how many times op ("ProcessPayment", ...) was invoked.
func (g *Gateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *Gateway) record(op string) {
	g.mu.Lock()
	g.calls[op]++
	g.mu.Unlock()
}

func (g *Gateway) ValidateConfig() error {
	if g.ValidateConfigFunc != nil {
		return g.ValidateConfigFunc()
	}
	return nil
}

func (g *Gateway) ProcessPayment(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	g.record("ProcessPayment")
	if g.ProcessPaymentFunc != nil {
		return g.ProcessPaymentFunc(ctx, req)
	}
	reference := req.Reference
	if reference == "" {
		reference = g.GenerateReference()
	}
	return &domain.PaymentResponse{
		ID:            "pay_" + g.Name() + "_1",
		Status:        domain.StatusCompleted,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Reference:     reference,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (g *Gateway) GetPaymentStatus(ctx context.Context, paymentID string) (*domain.PaymentResponse, error) {
	g.record("GetPaymentStatus")
	if g.GetPaymentStatusFunc != nil {
		return g.GetPaymentStatusFunc(ctx, paymentID)
	}
	return &domain.PaymentResponse{
		ID:            paymentID,
		Status:        domain.StatusCompleted,
		PaymentMethod: domain.MethodCard,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (g *Gateway) ProcessRefund(ctx context.Context, req *domain.RefundRequest) (*domain.RefundResponse, error) {
	g.record("ProcessRefund")
	if g.ProcessRefundFunc != nil {
		return g.ProcessRefundFunc(ctx, req)
	}
	resp := &domain.RefundResponse{
		ID:        "ref_" + g.Name() + "_1",
		PaymentID: req.PaymentID,
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if req.Amount != nil {
		resp.Amount = *req.Amount
	}
	return resp, nil
}

func (g *Gateway) GetRefundStatus(ctx context.Context, refundID string) (*domain.RefundResponse, error) {
	g.record("GetRefundStatus")
	if g.GetRefundStatusFunc != nil {
		return g.GetRefundStatusFunc(ctx, refundID)
	}
	return &domain.RefundResponse{
		ID:        refundID,
		Status:    domain.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}, nil
}
