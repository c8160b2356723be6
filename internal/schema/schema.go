// Package schema validates canonical requests against JSON schemas before
// they reach a gateway. The orchestrator treats any non-success as a single
// ValidationError whose message aggregates the field-level errors.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yourorg/payment-gateway/internal/domain"
)

const paymentRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["amount", "customer", "paymentMethod"],
  "properties": {
    "amount": {
      "type": "object",
      "required": ["value", "currency"],
      "properties": {
        "value": {"type": "number", "exclusiveMinimum": 0},
        "currency": {"type": "string", "enum": ["ZAR", "USD", "EUR", "GBP"]}
      }
    },
    "customer": {
      "type": "object",
      "required": ["email"],
      "properties": {
        "email": {"type": "string", "minLength": 3, "pattern": "^.+@.+$"}
      }
    },
    "paymentMethod": {
      "type": "string",
      "enum": ["card", "eft", "mobile_wallet", "bank_transfer", "cryptocurrency"]
    },
    "reference": {"type": "string"},
    "returnUrl": {"type": "string"},
    "webhookUrl": {"type": "string"}
  }
}`

const refundRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["paymentId"],
  "properties": {
    "paymentId": {"type": "string", "minLength": 1},
    "amount": {
      "type": "object",
      "required": ["value", "currency"],
      "properties": {
        "value": {"type": "number", "exclusiveMinimum": 0},
        "currency": {"type": "string", "enum": ["ZAR", "USD", "EUR", "GBP"]}
      }
    }
  }
}`

// Validator compiles both schemas once and is immutable afterwards.
type Validator struct {
	payment *gojsonschema.Schema
	refund  *gojsonschema.Schema
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	payment, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(paymentRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling payment request schema: %w", err)
	}
	refund, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(refundRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling refund request schema: %w", err)
	}
	return &Validator{payment: payment, refund: refund}, nil
}

// ValidatePayment checks req against the payment schema.
func (v *Validator) ValidatePayment(req *domain.PaymentRequest) error {
	return v.check(v.payment, req, "payment request")
}

// ValidateRefund checks req against the refund schema.
func (v *Validator) ValidateRefund(req *domain.RefundRequest) error {
	return v.check(v.refund, req, "refund request")
}

func (v *Validator) check(s *gojsonschema.Schema, doc any, what string) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.NewValidationError(fmt.Sprintf("could not encode %s for validation", what), err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.NewValidationError(fmt.Sprintf("could not validate %s", what), err)
	}
	if result.Valid() {
		return nil
	}

	descs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		descs = append(descs, desc.String())
	}
	return domain.NewValidationError(
		fmt.Sprintf("invalid %s: %s", what, strings.Join(descs, "; ")), nil)
}
