package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/payment-gateway/internal/correlation"
	"github.com/yourorg/payment-gateway/internal/domain"
	"github.com/yourorg/payment-gateway/internal/gateway/mock"
	"github.com/yourorg/payment-gateway/internal/gateway/peach"
	"github.com/yourorg/payment-gateway/internal/routing"
)

func paymentRequest() *domain.PaymentRequest {
	return &domain.PaymentRequest{
		Amount:        domain.Amount{Value: 100, Currency: domain.ZAR},
		Customer:      domain.Customer{Email: "jo@example.com"},
		PaymentMethod: domain.MethodCard,
	}
}

func newOrchestrator(t *testing.T, cfg Config, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(cfg, opts...)
	require.NoError(t, err)
	return o
}

func TestNewRequiresAtLeastOneGateway(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "no payment gateways configured")
}

func TestNewWrapsGatewayConstructionFailure(t *testing.T) {
	_, err := New(Config{Peach: &peach.Config{Username: "u"}})
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), `gateway "peach" failed to initialize`)
}

func TestSingleGatewayBecomesDefault(t *testing.T) {
	o := newOrchestrator(t, Config{}, WithGateway(mock.New("mockgw")))

	assert.Equal(t, "mockgw", o.DefaultGateway())
	assert.True(t, o.IsGatewayAvailable("mockgw"))
	assert.False(t, o.IsGatewayAvailable("other"))
	assert.Equal(t, []string{"mockgw"}, o.AvailableGateways())
}

func TestNewRejectsUnknownDefaultGateway(t *testing.T) {
	_, err := New(Config{DefaultGateway: "ghost"}, WithGateway(mock.New("mockgw")))
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "mockgw")
}

func TestNewRejectsRoutingRuleWithUnknownTarget(t *testing.T) {
	_, err := New(Config{
		RoutingRules: []routing.Rule{{Name: "r", Expression: "true", Gateway: "ghost"}},
	}, WithGateway(mock.New("mockgw")))
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "ghost")
}

func TestProcessPaymentUsesDefaultGateway(t *testing.T) {
	gw := mock.New("mockgw")
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	resp, err := o.ProcessPayment(context.Background(), paymentRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resp.Status)
	assert.Equal(t, 1, gw.Calls("ProcessPayment"))
}

func TestProcessPaymentExplicitNameWinsOverRules(t *testing.T) {
	ruled := mock.New("ruled")
	named := mock.New("named")
	o := newOrchestrator(t, Config{
		RoutingRules: []routing.Rule{{Name: "all", Expression: "amount > 0", Gateway: "ruled"}},
	}, WithGateway(ruled), WithGateway(named))

	_, err := o.ProcessPayment(context.Background(), paymentRequest(), "named")
	require.NoError(t, err)
	assert.Equal(t, 1, named.Calls("ProcessPayment"))
	assert.Zero(t, ruled.Calls("ProcessPayment"))
}

func TestProcessPaymentRoutingRuleBeatsDefault(t *testing.T) {
	def := mock.New("defaultgw")
	big := mock.New("biggw")
	o := newOrchestrator(t, Config{
		DefaultGateway: "defaultgw",
		RoutingRules: []routing.Rule{
			{Name: "big", Expression: "amount > 5000", Gateway: "biggw"},
		},
	}, WithGateway(def), WithGateway(big))

	req := paymentRequest()
	req.Amount.Value = 10000
	_, err := o.ProcessPayment(context.Background(), req, "")
	require.NoError(t, err)
	assert.Equal(t, 1, big.Calls("ProcessPayment"))
	assert.Zero(t, def.Calls("ProcessPayment"))

	// Below the threshold the default serves the call.
	_, err = o.ProcessPayment(context.Background(), paymentRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, def.Calls("ProcessPayment"))
}

func TestProcessPaymentUnknownGatewayName(t *testing.T) {
	gw := mock.New("mockgw")
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	_, err := o.ProcessPayment(context.Background(), paymentRequest(), "ghost")
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "available: mockgw")
	assert.Zero(t, gw.Calls("ProcessPayment"))
}

func TestProcessPaymentUnsupportedMethodNeverReachesGateway(t *testing.T) {
	gw := mock.New("cardonly", domain.MethodCard)
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	req := paymentRequest()
	req.PaymentMethod = domain.MethodCrypto
	_, err := o.ProcessPayment(context.Background(), req, "")
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), `does not support payment method "cryptocurrency"`)
	assert.Zero(t, gw.Calls("ProcessPayment"))
}

func TestProcessPaymentValidatesBeforeResolving(t *testing.T) {
	gw := mock.New("mockgw")
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	req := paymentRequest()
	req.Amount.Value = -1
	_, err := o.ProcessPayment(context.Background(), req, "")
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Zero(t, gw.Calls("ProcessPayment"))
}

func TestProcessPaymentNilRequest(t *testing.T) {
	o := newOrchestrator(t, Config{}, WithGateway(mock.New("mockgw")))

	_, err := o.ProcessPayment(context.Background(), nil, "")
	require.Error(t, err)

	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestGetPaymentStatusRequiresID(t *testing.T) {
	gw := mock.New("mockgw")
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	for _, id := range []string{"", "   "} {
		_, err := o.GetPaymentStatus(context.Background(), id, "")
		require.Error(t, err)

		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	}
	assert.Zero(t, gw.Calls("GetPaymentStatus"))

	resp, err := o.GetPaymentStatus(context.Background(), "pay_1", "")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", resp.ID)
}

func TestProcessRefundRecordsCorrelation(t *testing.T) {
	store := correlation.NewMemoryStore()
	o := newOrchestrator(t, Config{},
		WithGateway(mock.New("mockgw")),
		WithCorrelationStore(store),
	)

	resp, err := o.ProcessRefund(context.Background(), &domain.RefundRequest{PaymentID: "pay_1"}, "")
	require.NoError(t, err)

	paymentID, err := store.PaymentIDForRefund(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", paymentID)
}

func TestGetRefundStatusBackfillsPaymentID(t *testing.T) {
	store := correlation.NewMemoryStore()
	gw := mock.New("mockgw")
	// The remote endpoint cannot report the original payment id.
	gw.GetRefundStatusFunc = func(ctx context.Context, refundID string) (*domain.RefundResponse, error) {
		return &domain.RefundResponse{ID: refundID, Status: domain.StatusCompleted}, nil
	}
	o := newOrchestrator(t, Config{}, WithGateway(gw), WithCorrelationStore(store))

	require.NoError(t, store.SaveRefund(context.Background(), "ref_1", "pay_1"))

	resp, err := o.GetRefundStatus(context.Background(), "ref_1", "")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", resp.PaymentID)
}

func TestGetRefundStatusWithoutStoreLeavesPaymentIDEmpty(t *testing.T) {
	gw := mock.New("mockgw")
	gw.GetRefundStatusFunc = func(ctx context.Context, refundID string) (*domain.RefundResponse, error) {
		return &domain.RefundResponse{ID: refundID, Status: domain.StatusPending}, nil
	}
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	resp, err := o.GetRefundStatus(context.Background(), "ref_1", "")
	require.NoError(t, err)
	assert.Empty(t, resp.PaymentID)
}

func TestProcessRefundValidation(t *testing.T) {
	gw := mock.New("mockgw")
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	_, err := o.ProcessRefund(context.Background(), &domain.RefundRequest{}, "")
	require.Error(t, err)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Zero(t, gw.Calls("ProcessRefund"))
}

func TestRefundRulesDoNotApply(t *testing.T) {
	def := mock.New("defaultgw")
	ruled := mock.New("ruled")
	o := newOrchestrator(t, Config{
		DefaultGateway: "defaultgw",
		RoutingRules:   []routing.Rule{{Name: "all", Expression: "amount >= 0", Gateway: "ruled"}},
	}, WithGateway(def), WithGateway(ruled))

	// Refunds go to the explicit gateway or the default; routing rules are
	// payment-only because they key off payment attributes.
	_, err := o.ProcessRefund(context.Background(), &domain.RefundRequest{PaymentID: "pay_1"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, def.Calls("ProcessRefund"))
	assert.Zero(t, ruled.Calls("ProcessRefund"))
}

func TestSetDefaultGateway(t *testing.T) {
	a := mock.New("alpha")
	b := mock.New("beta")
	o := newOrchestrator(t, Config{DefaultGateway: "alpha"}, WithGateway(a), WithGateway(b))

	require.NoError(t, o.SetDefaultGateway("beta"))
	assert.Equal(t, "beta", o.DefaultGateway())

	_, err := o.ProcessPayment(context.Background(), paymentRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Calls("ProcessPayment"))
	assert.Zero(t, a.Calls("ProcessPayment"))

	err = o.SetDefaultGateway("ghost")
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "beta", o.DefaultGateway())
}

func TestGatewayInfo(t *testing.T) {
	o := newOrchestrator(t, Config{}, WithGateway(mock.New("mockgw", domain.MethodCard, domain.MethodEFT)))

	info, err := o.GatewayInfo("mockgw")
	require.NoError(t, err)
	assert.Equal(t, "mockgw", info.Name)
	assert.Equal(t, []domain.PaymentMethod{domain.MethodCard, domain.MethodEFT}, info.SupportedMethods)

	_, err = o.GatewayInfo("ghost")
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestGatewayErrorsPassThroughUntouched(t *testing.T) {
	gw := mock.New("mockgw")
	wantErr := domain.NewPaymentError("gateway exploded", "pay_1", "900.100.100", nil)
	gw.ProcessPaymentFunc = func(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
		return nil, wantErr
	}
	o := newOrchestrator(t, Config{}, WithGateway(gw))

	_, err := o.ProcessPayment(context.Background(), paymentRequest(), "")
	require.Error(t, err)

	var paymentErr *domain.PaymentError
	require.True(t, errors.As(err, &paymentErr))
	assert.Equal(t, "900.100.100", paymentErr.ResultCode)
}
