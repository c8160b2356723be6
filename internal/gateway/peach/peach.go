// Package peach implements the Gateway contract for a Peach-style card
// and EFT processor. It owns the credential/endpoint resolution, the
// canonical <-> wire mapping, and the result-code classification.
package peach

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/payment-gateway/internal/domain"
	"github.com/yourorg/payment-gateway/internal/gateway"
	"github.com/yourorg/payment-gateway/internal/transport"
)

// Name is the registry name of this adapter.
const Name = "peach"

var _ gateway.Gateway = (*Adapter)(nil)

const paymentsPath = "/v1/payments"

// Adapter talks to one Peach entity over one transport. Immutable after
// construction; safe for concurrent use.
type Adapter struct {
	gateway.Base
	cfg     Config
	client  *transport.Client
	baseURL string
	log     *zap.Logger
}

// New validates cfg and builds the adapter and its transport. Config
// problems surface as *domain.ValidationError before any transport is
// constructed.
func New(cfg Config, log *zap.Logger) (*Adapter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("gateway.peach")

	cfg = cfg.normalize(log)
	if err := cfg.validate(); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid peach config: %v", err), err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
	client := transport.New(transport.Config{
		BaseURL:        cfg.baseURL(),
		Headers:        map[string]string{"Authorization": "Basic " + auth},
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		DisableBreaker: cfg.DisableBreaker,
	}, log)

	return &Adapter{
		Base:    gateway.NewBase(Name, domain.MethodCard, domain.MethodEFT, domain.MethodMobileWallet),
		cfg:     cfg,
		client:  client,
		baseURL: cfg.baseURL(),
		log:     log,
	}, nil
}

// ValidateConfig re-runs validation on the resolved config.
func (a *Adapter) ValidateConfig() error {
	if err := a.cfg.validate(); err != nil {
		return domain.NewValidationError(fmt.Sprintf("invalid peach config: %v", err), err)
	}
	return nil
}

// Wire shapes. Field names are Peach's, not ours.

type wireCustomer struct {
	MerchantCustomerID string `json:"merchantCustomerId,omitempty"`
	Email              string `json:"email"`
	GivenName          string `json:"givenName,omitempty"`
	Mobile             string `json:"mobile,omitempty"`
}

type wireBilling struct {
	Street1  string `json:"street1,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
}

type wireCard struct {
	Number      string `json:"number"`
	Holder      string `json:"holder,omitempty"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
}

type paymentPayload struct {
	EntityID              string            `json:"entityId"`
	Amount                string            `json:"amount"`
	Currency              string            `json:"currency"`
	PaymentType           string            `json:"paymentType"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	Descriptor            string            `json:"descriptor,omitempty"`
	Customer              *wireCustomer     `json:"customer,omitempty"`
	Billing               *wireBilling      `json:"billing,omitempty"`
	Card                  *wireCard         `json:"card,omitempty"`
	ShopperResultURL      string            `json:"shopperResultUrl,omitempty"`
	NotificationURL       string            `json:"notificationUrl,omitempty"`
	CustomParameters      map[string]string `json:"customParameters,omitempty"`
}

type refundPayload struct {
	EntityID    string `json:"entityId"`
	PaymentType string `json:"paymentType"`
	Amount      string `json:"amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

type wireResult struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type wireRedirect struct {
	URL string `json:"url"`
}

type transactionResult struct {
	ID                    string       `json:"id"`
	ReferencedID          string       `json:"referencedId"`
	Result                wireResult   `json:"result"`
	Amount                string       `json:"amount"`
	Currency              string       `json:"currency"`
	PaymentType           string       `json:"paymentType"`
	PaymentBrand          string       `json:"paymentBrand"`
	MerchantTransactionID string       `json:"merchantTransactionId"`
	Redirect              wireRedirect `json:"redirect"`
	Timestamp             string       `json:"timestamp"`
}

// buildPaymentPayload maps a canonical request onto the wire shape.
// Optional substructures go on the wire only when present canonically.
func (a *Adapter) buildPaymentPayload(req *domain.PaymentRequest) paymentPayload {
	reference := req.Reference
	if reference == "" {
		reference = a.GenerateReference()
	}

	p := paymentPayload{
		EntityID:              a.cfg.EntityID,
		Amount:                req.Amount.String(),
		Currency:              string(req.Amount.Currency),
		PaymentType:           transactionType(req.PaymentMethod),
		MerchantTransactionID: reference,
		Descriptor:            req.Description,
		ShopperResultURL:      req.ReturnURL,
		NotificationURL:       req.WebhookURL,
		CustomParameters:      req.Metadata,
	}
	if req.Customer.Email != "" || req.Customer.ID != "" {
		p.Customer = &wireCustomer{
			MerchantCustomerID: req.Customer.ID,
			Email:              req.Customer.Email,
			GivenName:          req.Customer.Name,
			Mobile:             req.Customer.Phone,
		}
	}
	if b := req.BillingAddress; b != nil {
		p.Billing = &wireBilling{
			Street1:  b.Street,
			City:     b.City,
			State:    b.State,
			Postcode: b.PostalCode,
			Country:  b.Country,
		}
	}
	if c := req.CardDetails; c != nil {
		p.Card = &wireCard{
			Number:      c.Number,
			Holder:      c.Holder,
			ExpiryMonth: c.ExpiryMonth,
			ExpiryYear:  c.ExpiryYear,
			CVV:         c.CVV,
		}
	}
	return p
}

// mapPaymentResponse turns a raw gateway body into the canonical response.
// fallbackMethod is used when the gateway did not report a payment brand
// (creation responses echo the request, status lookups report the brand).
func mapPaymentResponse(raw []byte, fallbackMethod domain.PaymentMethod) (*domain.PaymentResponse, error) {
	var wire transactionResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unexpected gateway response: %w", err)
	}

	status := classifyResultCode(wire.Result.Code)
	resp := &domain.PaymentResponse{
		ID:               wire.ID,
		Status:           status,
		Amount:           parseAmount(wire.Amount, wire.Currency),
		PaymentMethod:    fallbackMethod,
		Reference:        wire.MerchantTransactionID,
		GatewayReference: wire.ID,
		RedirectURL:      wire.Redirect.URL,
		CreatedAt:        parseTimestamp(wire.Timestamp),
		Metadata:         rawMetadata(raw),
	}
	if wire.PaymentBrand != "" {
		resp.PaymentMethod = methodForBrand(wire.PaymentBrand)
	}
	if status == domain.StatusFailed {
		resp.FailureReason = wire.Result.Description
	}
	return resp, nil
}

func mapRefundResponse(raw []byte, paymentID string) (*domain.RefundResponse, error) {
	var wire transactionResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unexpected gateway response: %w", err)
	}

	if paymentID == "" {
		// Status lookups only carry the original payment id when the
		// gateway echoes it; usually it does not. Known gap.
		paymentID = wire.ReferencedID
	}
	status := classifyResultCode(wire.Result.Code)
	resp := &domain.RefundResponse{
		ID:        wire.ID,
		PaymentID: paymentID,
		Status:    status,
		Amount:    parseAmount(wire.Amount, wire.Currency),
		Reference: wire.MerchantTransactionID,
		CreatedAt: parseTimestamp(wire.Timestamp),
		Metadata:  rawMetadata(raw),
	}
	if status == domain.StatusFailed {
		resp.FailureReason = wire.Result.Description
	}
	return resp, nil
}

// ProcessPayment creates a payment. Gateway rejections come back as a
// failed response, not an error.
func (a *Adapter) ProcessPayment(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	payload := a.buildPaymentPayload(req)

	raw, err := a.client.Post(ctx, paymentsPath, payload)
	if err != nil {
		return nil, domain.NewPaymentError("peach: payment request failed", "", "", err)
	}

	resp, err := mapPaymentResponse(raw, req.PaymentMethod)
	if err != nil {
		return nil, domain.NewPaymentError("peach: could not decode payment response", "", "", err)
	}
	resp.Reference = payload.MerchantTransactionID
	a.log.Info("payment processed",
		zap.String("payment_id", resp.ID),
		zap.String("status", string(resp.Status)),
		zap.String("reference", resp.Reference),
	)
	return resp, nil
}

// GetPaymentStatus fetches the state of a payment by gateway id.
func (a *Adapter) GetPaymentStatus(ctx context.Context, paymentID string) (*domain.PaymentResponse, error) {
	query := url.Values{"entityId": []string{a.cfg.EntityID}}
	raw, err := a.client.Get(ctx, paymentsPath+"/"+url.PathEscape(paymentID), query)
	if err != nil {
		return nil, domain.NewPaymentError("peach: status lookup failed", paymentID, "", err)
	}

	resp, err := mapPaymentResponse(raw, domain.MethodCard)
	if err != nil {
		return nil, domain.NewPaymentError("peach: could not decode status response", paymentID, "", err)
	}
	return resp, nil
}

// ProcessRefund refunds a payment. A nil amount requests a full refund and
// leaves the amount fields off the wire; the gateway applies its own policy.
func (a *Adapter) ProcessRefund(ctx context.Context, req *domain.RefundRequest) (*domain.RefundResponse, error) {
	payload := refundPayload{
		EntityID:    a.cfg.EntityID,
		PaymentType: "RF",
	}
	if req.Amount != nil {
		payload.Amount = req.Amount.String()
		payload.Currency = string(req.Amount.Currency)
	}

	path := paymentsPath + "/" + url.PathEscape(req.PaymentID) + "/refunds"
	raw, err := a.client.Post(ctx, path, payload)
	if err != nil {
		return nil, domain.NewRefundError("peach: refund request failed", req.PaymentID, "", "", err)
	}

	resp, err := mapRefundResponse(raw, req.PaymentID)
	if err != nil {
		return nil, domain.NewRefundError("peach: could not decode refund response", req.PaymentID, "", "", err)
	}
	resp.Reference = req.Reference
	a.log.Info("refund processed",
		zap.String("refund_id", resp.ID),
		zap.String("payment_id", req.PaymentID),
		zap.String("status", string(resp.Status)),
	)
	return resp, nil
}

// GetRefundStatus fetches the state of a refund by gateway id. PaymentID
// on the result is empty unless the gateway echoed the original id.
func (a *Adapter) GetRefundStatus(ctx context.Context, refundID string) (*domain.RefundResponse, error) {
	query := url.Values{"entityId": []string{a.cfg.EntityID}}
	raw, err := a.client.Get(ctx, paymentsPath+"/"+url.PathEscape(refundID), query)
	if err != nil {
		return nil, domain.NewRefundError("peach: refund status lookup failed", "", refundID, "", err)
	}

	resp, err := mapRefundResponse(raw, "")
	if err != nil {
		return nil, domain.NewRefundError("peach: could not decode refund status response", "", refundID, "", err)
	}
	return resp, nil
}

func parseAmount(value, currency string) domain.Amount {
	v, _ := strconv.ParseFloat(value, 64)
	return domain.Amount{Value: v, Currency: domain.Currency(currency)}
}

// parseTimestamp accepts the gateway's two observed formats and falls back
// to now so a response is never dated zero.
func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05-0700", "2006-01-02 15:04:05.000-0700"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

func rawMetadata(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
