// Package routing selects a gateway for a payment from an ordered list of
// expression rules. Rules are consulted only when the caller gave no
// explicit gateway name; the first rule that evaluates true wins, otherwise
// the orchestrator falls back to its default gateway.
package routing

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/payment-gateway/internal/domain"
)

// Rule maps a boolean expression over request attributes to a gateway name.
// Expressions see: amount (number), currency, payment_method (strings).
// Example: `amount > 5000 && currency == 'ZAR'`.
type Rule struct {
	Name       string `json:"name" mapstructure:"name"`
	Expression string `json:"expression" mapstructure:"expression"`
	Gateway    string `json:"gateway" mapstructure:"gateway"`
}

type compiledRule struct {
	name    string
	expr    *govaluate.EvaluableExpression
	gateway string
}

// Engine holds compiled rules; immutable after construction.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles the rules in order. A rule that fails to compile is a
// configuration problem and fails construction.
func NewEngine(rules []Rule) (*Engine, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("routing rule %q: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{name: r.Name, expr: expr, gateway: r.Gateway})
	}
	return &Engine{rules: compiled}, nil
}

// Gateways returns every gateway name referenced by a rule, so the
// orchestrator can verify they are all registered.
func (e *Engine) Gateways() []string {
	out := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.gateway)
	}
	return out
}

// Resolve returns the gateway chosen by the first matching rule. A rule
// that errors at evaluation time (e.g. references an unknown variable) is
// skipped rather than failing the call.
func (e *Engine) Resolve(req *domain.PaymentRequest) (string, bool) {
	if req == nil {
		return "", false
	}
	params := map[string]any{
		"amount":         req.Amount.Value,
		"currency":       string(req.Amount.Currency),
		"payment_method": string(req.PaymentMethod),
	}
	for _, r := range e.rules {
		result, err := r.expr.Evaluate(params)
		if err != nil {
			continue
		}
		if matched, ok := result.(bool); ok && matched {
			return r.gateway, true
		}
	}
	return "", false
}
