// Package orchestrator is the facade callers use. It owns the registry of
// configured gateway adapters, resolves which adapter serves each call
// (explicit name, routing rule, or default), enforces capability checks
// before delegating, and surfaces configuration problems as typed errors.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yourorg/payment-gateway/internal/correlation"
	"github.com/yourorg/payment-gateway/internal/domain"
	"github.com/yourorg/payment-gateway/internal/gateway"
	"github.com/yourorg/payment-gateway/internal/gateway/peach"
	"github.com/yourorg/payment-gateway/internal/routing"
	"github.com/yourorg/payment-gateway/internal/schema"
)

// RequestValidator is the consumed validation collaborator: it confirms
// request shape before any adapter work happens.
type RequestValidator interface {
	ValidatePayment(req *domain.PaymentRequest) error
	ValidateRefund(req *domain.RefundRequest) error
}

// Config declares which gateways to construct. Each non-nil slot becomes a
// registered adapter; the first registered gateway becomes the default
// unless DefaultGateway says otherwise.
type Config struct {
	Peach *peach.Config `mapstructure:"peach"`

	DefaultGateway string         `mapstructure:"defaultGateway"`
	RoutingRules   []routing.Rule `mapstructure:"routingRules"`
}

// GatewayInfo is the read-only view of a registered gateway.
type GatewayInfo struct {
	Name             string                 `json:"name"`
	SupportedMethods []domain.PaymentMethod `json:"supportedMethods"`
}

// Orchestrator routes canonical payment and refund calls to adapters.
//
// The registry is immutable after construction. The only mutable field is
// the default gateway name, changed via SetDefaultGateway; in-flight calls
// that already resolved the default may observe either value (last writer
// wins, accepted).
type Orchestrator struct {
	gateways map[string]gateway.Gateway
	order    []string

	mu          sync.RWMutex
	defaultName string

	validator RequestValidator
	router    *routing.Engine
	store     correlation.Store
	metrics   *Metrics
	log       *zap.Logger
	tracer    trace.Tracer
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithLogger injects the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithValidator replaces the default JSON-schema request validator.
func WithValidator(v RequestValidator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithCorrelationStore wires the refund -> payment correlation collaborator.
func WithCorrelationStore(s correlation.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithMetrics wires prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithGateway registers a pre-built adapter (e.g. a mock, or a gateway not
// covered by a Config slot) under its own name.
func WithGateway(gw gateway.Gateway) Option {
	return func(o *Orchestrator) {
		if _, exists := o.gateways[gw.Name()]; !exists {
			o.order = append(o.order, gw.Name())
		}
		o.gateways[gw.Name()] = gw
	}
}

// New constructs every configured adapter and fixes the registry. It fails
// with ConfigurationError when zero gateways register, when a slot fails to
// construct, or when DefaultGateway / a routing rule names an unknown one.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		gateways: make(map[string]gateway.Gateway),
		log:      zap.NewNop(),
		tracer:   otel.Tracer("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.Peach != nil {
		gw, err := peach.New(*cfg.Peach, o.log)
		if err != nil {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("gateway %q failed to initialize: %v", peach.Name, err), err)
		}
		if _, exists := o.gateways[peach.Name]; !exists {
			o.order = append(o.order, peach.Name)
		}
		o.gateways[peach.Name] = gw
	}

	if len(o.gateways) == 0 {
		return nil, domain.NewConfigurationError("no payment gateways configured", nil)
	}

	switch {
	case cfg.DefaultGateway != "":
		if _, ok := o.gateways[cfg.DefaultGateway]; !ok {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("default gateway %q is not configured; available: %s",
					cfg.DefaultGateway, strings.Join(o.availableNames(), ", ")), nil)
		}
		o.defaultName = cfg.DefaultGateway
	default:
		o.defaultName = o.order[0]
	}

	if len(cfg.RoutingRules) > 0 {
		engine, err := routing.NewEngine(cfg.RoutingRules)
		if err != nil {
			return nil, domain.NewConfigurationError(fmt.Sprintf("invalid routing rules: %v", err), err)
		}
		for _, name := range engine.Gateways() {
			if _, ok := o.gateways[name]; !ok {
				return nil, domain.NewConfigurationError(
					fmt.Sprintf("routing rule targets unknown gateway %q; available: %s",
						name, strings.Join(o.availableNames(), ", ")), nil)
			}
		}
		o.router = engine
	}

	if o.validator == nil {
		v, err := schema.NewValidator()
		if err != nil {
			return nil, domain.NewConfigurationError("could not build request validator", err)
		}
		o.validator = v
	}

	o.log.Info("orchestrator initialized",
		zap.Strings("gateways", o.availableNames()),
		zap.String("default", o.defaultName),
	)
	return o, nil
}

func (o *Orchestrator) availableNames() []string {
	names := make([]string, len(o.order))
	copy(names, o.order)
	sort.Strings(names)
	return names
}

// resolve picks the adapter for a call: explicit name first, then a routing
// rule match (payments only), then the default.
func (o *Orchestrator) resolve(name string, req *domain.PaymentRequest) (gateway.Gateway, error) {
	if name != "" {
		gw, ok := o.gateways[name]
		if !ok {
			return nil, domain.NewConfigurationError(
				fmt.Sprintf("unknown gateway %q; available: %s", name, strings.Join(o.availableNames(), ", ")), nil)
		}
		return gw, nil
	}

	if o.router != nil && req != nil {
		if target, ok := o.router.Resolve(req); ok {
			return o.gateways[target], nil
		}
	}

	o.mu.RLock()
	def := o.defaultName
	o.mu.RUnlock()
	if def == "" {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("no gateway specified and no default set; available: %s", strings.Join(o.availableNames(), ", ")), nil)
	}
	return o.gateways[def], nil
}

// ProcessPayment validates req, resolves an adapter, checks that it
// supports the requested method, and delegates.
func (o *Orchestrator) ProcessPayment(ctx context.Context, req *domain.PaymentRequest, gatewayName string) (*domain.PaymentResponse, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.ProcessPayment")
	defer span.End()

	if req == nil {
		return nil, domain.NewValidationError("payment request is required", nil)
	}
	if err := o.validator.ValidatePayment(req); err != nil {
		return nil, err
	}

	gw, err := o.resolve(gatewayName, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway", gw.Name()))

	if !gw.SupportsPaymentMethod(req.PaymentMethod) {
		return nil, domain.NewValidationError(
			fmt.Sprintf("gateway %q does not support payment method %q", gw.Name(), req.PaymentMethod), nil)
	}

	start := time.Now()
	resp, err := gw.ProcessPayment(ctx, req)
	o.metrics.observe("process_payment", gw.Name(), statusLabel(resp, err), time.Since(start))
	if err != nil {
		o.log.Error("payment failed",
			zap.String("gateway", gw.Name()),
			zap.Error(err),
		)
		return nil, err
	}
	o.log.Info("payment routed",
		zap.String("gateway", gw.Name()),
		zap.String("payment_id", resp.ID),
		zap.String("status", string(resp.Status)),
	)
	return resp, nil
}

// GetPaymentStatus fetches payment state by gateway-assigned id.
func (o *Orchestrator) GetPaymentStatus(ctx context.Context, paymentID, gatewayName string) (*domain.PaymentResponse, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.GetPaymentStatus")
	defer span.End()

	if strings.TrimSpace(paymentID) == "" {
		return nil, domain.NewValidationError("payment id is required", nil)
	}
	gw, err := o.resolve(gatewayName, nil)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway", gw.Name()))

	start := time.Now()
	resp, err := gw.GetPaymentStatus(ctx, paymentID)
	o.metrics.observe("get_payment_status", gw.Name(), statusLabel(resp, err), time.Since(start))
	return resp, err
}

// ProcessRefund validates req, resolves an adapter, and delegates. On
// success the refund -> payment mapping is recorded best-effort when a
// correlation store is configured.
func (o *Orchestrator) ProcessRefund(ctx context.Context, req *domain.RefundRequest, gatewayName string) (*domain.RefundResponse, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.ProcessRefund")
	defer span.End()

	if req == nil {
		return nil, domain.NewValidationError("refund request is required", nil)
	}
	if err := o.validator.ValidateRefund(req); err != nil {
		return nil, err
	}

	gw, err := o.resolve(gatewayName, nil)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway", gw.Name()))

	start := time.Now()
	resp, err := gw.ProcessRefund(ctx, req)
	o.metrics.observe("process_refund", gw.Name(), refundStatusLabel(resp, err), time.Since(start))
	if err != nil {
		o.log.Error("refund failed",
			zap.String("gateway", gw.Name()),
			zap.String("payment_id", req.PaymentID),
			zap.Error(err),
		)
		return nil, err
	}

	if o.store != nil && resp.ID != "" {
		if err := o.store.SaveRefund(ctx, resp.ID, req.PaymentID); err != nil {
			// Correlation is best-effort; the refund itself succeeded.
			o.log.Warn("could not record refund correlation",
				zap.String("refund_id", resp.ID),
				zap.Error(err),
			)
		}
	}
	return resp, nil
}

// GetRefundStatus fetches refund state by gateway-assigned id. The remote
// endpoint does not echo the original payment id; when a correlation store
// is configured the id is backfilled from it.
func (o *Orchestrator) GetRefundStatus(ctx context.Context, refundID, gatewayName string) (*domain.RefundResponse, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.GetRefundStatus")
	defer span.End()

	if strings.TrimSpace(refundID) == "" {
		return nil, domain.NewValidationError("refund id is required", nil)
	}
	gw, err := o.resolve(gatewayName, nil)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway", gw.Name()))

	start := time.Now()
	resp, err := gw.GetRefundStatus(ctx, refundID)
	o.metrics.observe("get_refund_status", gw.Name(), refundStatusLabel(resp, err), time.Since(start))
	if err != nil {
		return nil, err
	}

	if resp.PaymentID == "" && o.store != nil {
		paymentID, lookupErr := o.store.PaymentIDForRefund(ctx, refundID)
		if lookupErr != nil {
			o.log.Warn("refund correlation lookup failed",
				zap.String("refund_id", refundID),
				zap.Error(lookupErr),
			)
		} else {
			resp.PaymentID = paymentID
		}
	}
	return resp, nil
}

// AvailableGateways lists registered gateway names, sorted.
func (o *Orchestrator) AvailableGateways() []string {
	return o.availableNames()
}

// GatewayInfo describes one registered gateway.
func (o *Orchestrator) GatewayInfo(name string) (GatewayInfo, error) {
	gw, ok := o.gateways[name]
	if !ok {
		return GatewayInfo{}, domain.NewConfigurationError(
			fmt.Sprintf("unknown gateway %q; available: %s", name, strings.Join(o.availableNames(), ", ")), nil)
	}
	return GatewayInfo{Name: gw.Name(), SupportedMethods: gw.SupportedMethods()}, nil
}

// IsGatewayAvailable reports whether name is registered.
func (o *Orchestrator) IsGatewayAvailable(name string) bool {
	_, ok := o.gateways[name]
	return ok
}

// SetDefaultGateway changes which gateway serves calls without an explicit
// name. Concurrent in-flight calls may observe either the old or new value.
func (o *Orchestrator) SetDefaultGateway(name string) error {
	if _, ok := o.gateways[name]; !ok {
		return domain.NewConfigurationError(
			fmt.Sprintf("unknown gateway %q; available: %s", name, strings.Join(o.availableNames(), ", ")), nil)
	}
	o.mu.Lock()
	o.defaultName = name
	o.mu.Unlock()
	o.log.Info("default gateway changed", zap.String("gateway", name))
	return nil
}

// DefaultGateway returns the current default gateway name.
func (o *Orchestrator) DefaultGateway() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.defaultName
}

func statusLabel(resp *domain.PaymentResponse, err error) string {
	if err != nil {
		return "error"
	}
	return string(resp.Status)
}

func refundStatusLabel(resp *domain.RefundResponse, err error) string {
	if err != nil {
		return "error"
	}
	return string(resp.Status)
}
