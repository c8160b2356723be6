package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/payment-gateway/internal/domain"
	"github.com/yourorg/payment-gateway/internal/gateway/mock"
	"github.com/yourorg/payment-gateway/internal/orchestrator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, gws ...*mock.Gateway) *gin.Engine {
	t.Helper()
	if len(gws) == 0 {
		gws = []*mock.Gateway{mock.New("mockgw")}
	}
	opts := make([]orchestrator.Option, 0, len(gws))
	for _, gw := range gws {
		opts = append(opts, orchestrator.WithGateway(gw))
	}
	orch, err := orchestrator.New(orchestrator.Config{}, opts...)
	require.NoError(t, err)
	return newServer(orch, zap.NewNop()).setupRouter(nil)
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validPaymentBody = `{
	"amount": {"value": 100.00, "currency": "ZAR"},
	"customer": {"email": "jo@example.com"},
	"paymentMethod": "card"
}`

func TestHealthz(t *testing.T) {
	w := doJSON(newTestRouter(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProcessPaymentEndpoint(t *testing.T) {
	w := doJSON(newTestRouter(t), http.MethodPost, "/v1/payments", validPaymentBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusCompleted, resp.Status)
	assert.Equal(t, 100.00, resp.Amount.Value)
}

func TestProcessPaymentRejectsMalformedBody(t *testing.T) {
	w := doJSON(newTestRouter(t), http.MethodPost, "/v1/payments", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessPaymentValidationErrorIs400(t *testing.T) {
	body := `{"amount": {"value": -5, "currency": "ZAR"}, "customer": {"email": "jo@example.com"}, "paymentMethod": "card"}`
	w := doJSON(newTestRouter(t), http.MethodPost, "/v1/payments", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.CodeValidation)
}

func TestProcessPaymentUnknownGatewayIs409(t *testing.T) {
	w := doJSON(newTestRouter(t), http.MethodPost, "/v1/payments?gateway=ghost", validPaymentBody)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProcessPaymentGatewayFailureIs502(t *testing.T) {
	gw := mock.New("mockgw")
	gw.ProcessPaymentFunc = func(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentResponse, error) {
		return nil, domain.NewNetworkError("upstream unreachable", 0, nil, nil)
	}
	w := doJSON(newTestRouter(t, gw), http.MethodPost, "/v1/payments", validPaymentBody)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPaymentStatusEndpoint(t *testing.T) {
	w := doJSON(newTestRouter(t), http.MethodGet, "/v1/payments/pay_1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pay_1", resp.ID)
}

func TestRefundEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/v1/refunds", `{"paymentId": "pay_1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.RefundResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pay_1", resp.PaymentID)

	w = doJSON(router, http.MethodPost, "/v1/refunds", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/refunds/"+resp.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGatewayDirectoryEndpoints(t *testing.T) {
	router := newTestRouter(t, mock.New("alpha", domain.MethodCard), mock.New("beta"))

	w := doJSON(router, http.MethodGet, "/v1/gateways", "")
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Gateways []orchestrator.GatewayInfo `json:"gateways"`
		Default  string                     `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Len(t, listing.Gateways, 2)
	assert.Equal(t, "alpha", listing.Default)

	w = doJSON(router, http.MethodGet, "/v1/gateways/alpha", "")
	require.Equal(t, http.StatusOK, w.Code)

	var info orchestrator.GatewayInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, []domain.PaymentMethod{domain.MethodCard}, info.SupportedMethods)

	w = doJSON(router, http.MethodGet, "/v1/gateways/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetDefaultGatewayEndpoint(t *testing.T) {
	router := newTestRouter(t, mock.New("alpha"), mock.New("beta"))

	w := doJSON(router, http.MethodPut, "/v1/gateways/default", `{"gateway": "beta"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/gateways", "")
	assert.Contains(t, w.Body.String(), `"default":"beta"`)

	w = doJSON(router, http.MethodPut, "/v1/gateways/default", `{"gateway": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExplicitGatewaySelectionViaQuery(t *testing.T) {
	alpha := mock.New("alpha")
	beta := mock.New("beta")
	router := newTestRouter(t, alpha, beta)

	w := doJSON(router, http.MethodPost, "/v1/payments?gateway=beta", validPaymentBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, beta.Calls("ProcessPayment"))
	assert.Zero(t, alpha.Calls("ProcessPayment"))
}
