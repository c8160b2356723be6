package gateway

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/payment-gateway/internal/domain"
)

// Base holds the state common to every adapter: its registry name and the
// static set of supported payment methods. Adapters embed it by value and
// get the read-only half of the Gateway interface for free.
type Base struct {
	name      string
	methods   []domain.PaymentMethod
	methodSet map[domain.PaymentMethod]struct{}
}

// NewBase builds the common adapter state.
func NewBase(name string, methods ...domain.PaymentMethod) Base {
	set := make(map[domain.PaymentMethod]struct{}, len(methods))
	for _, m := range methods {
		set[m] = struct{}{}
	}
	return Base{name: name, methods: methods, methodSet: set}
}

// Name returns the gateway's registry name.
func (b Base) Name() string { return b.name }

// SupportedMethods returns a copy of the supported method set, in the
// order given at construction.
func (b Base) SupportedMethods() []domain.PaymentMethod {
	out := make([]domain.PaymentMethod, len(b.methods))
	copy(out, b.methods)
	return out
}

// SupportsPaymentMethod reports whether method is supported.
func (b Base) SupportsPaymentMethod(method domain.PaymentMethod) bool {
	_, ok := b.methodSet[method]
	return ok
}

// GenerateReference produces a correlation id for requests that did not
// supply one: gateway name, millisecond timestamp, short random suffix.
// Not guaranteed globally unique; callers needing a hard guarantee must
// pass their own reference.
func (b Base) GenerateReference() string {
	return fmt.Sprintf("%s-%d-%s", b.name, time.Now().UnixMilli(), uuid.NewString()[:8])
}
