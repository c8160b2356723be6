package domain

import "fmt"

// Machine-readable error codes carried by the typed errors below.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeConfiguration  = "CONFIGURATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodePayment        = "PAYMENT_ERROR"
	CodeRefund         = "REFUND_ERROR"
	CodeNetwork        = "NETWORK_ERROR"
	CodeGateway        = "GATEWAY_ERROR"
)

// ValidationError reports malformed or invalid input: bad request fields,
// an unsupported payment method for the chosen gateway, or an empty
// identifier argument.
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Code: CodeValidation, Message: message, Err: cause}
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError reports missing or broken gateway configuration:
// zero gateways registered, an unknown gateway name, or a gateway slot
// that failed to construct.
type ConfigurationError struct {
	Code    string
	Message string
	Err     error
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Code: CodeConfiguration, Message: message, Err: cause}
}

func (e *ConfigurationError) Error() string { return e.Message }
func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthenticationError is reserved for credential rejection by a gateway.
// The reference adapter does not raise it yet; gateways that distinguish
// auth failures from generic declines should.
type AuthenticationError struct {
	Code    string
	Message string
	Err     error
}

func NewAuthenticationError(message string, cause error) *AuthenticationError {
	return &AuthenticationError{Code: CodeAuthentication, Message: message, Err: cause}
}

func (e *AuthenticationError) Error() string { return e.Message }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// PaymentError reports a failure while processing or fetching a payment.
// ResultCode carries the gateway's own code when one was obtained.
type PaymentError struct {
	Code       string
	Message    string
	PaymentID  string
	ResultCode string
	Err        error
}

func NewPaymentError(message, paymentID, resultCode string, cause error) *PaymentError {
	return &PaymentError{Code: CodePayment, Message: message, PaymentID: paymentID, ResultCode: resultCode, Err: cause}
}

func (e *PaymentError) Error() string { return e.Message }
func (e *PaymentError) Unwrap() error { return e.Err }

// RefundError reports a failure while processing or fetching a refund.
type RefundError struct {
	Code       string
	Message    string
	PaymentID  string
	RefundID   string
	ResultCode string
	Err        error
}

func NewRefundError(message, paymentID, refundID, resultCode string, cause error) *RefundError {
	return &RefundError{Code: CodeRefund, Message: message, PaymentID: paymentID, RefundID: refundID, ResultCode: resultCode, Err: cause}
}

func (e *RefundError) Error() string { return e.Message }
func (e *RefundError) Unwrap() error { return e.Err }

// NetworkError is the single normalized shape for transport failures.
// StatusCode is zero when no HTTP status was obtained (connect/timeout).
// Callers never see the underlying HTTP library's error type directly.
type NetworkError struct {
	Code       string
	Message    string
	StatusCode int
	Body       []byte
	Err        error
}

func NewNetworkError(message string, statusCode int, body []byte, cause error) *NetworkError {
	return &NetworkError{Code: CodeNetwork, Message: message, StatusCode: statusCode, Body: body, Err: cause}
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	}
	return e.Message
}
func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt: either
// no HTTP status was obtained, or the gateway answered with a 5xx.
func (e *NetworkError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// GatewayError is reserved for structural errors reported by a gateway
// that are distinct from a payment rejection (which is not an error at all,
// it surfaces as a failed response).
type GatewayError struct {
	Code    string
	Message string
	Gateway string
	Err     error
}

func NewGatewayError(message, gateway string, cause error) *GatewayError {
	return &GatewayError{Code: CodeGateway, Message: message, Gateway: gateway, Err: cause}
}

func (e *GatewayError) Error() string { return e.Message }
func (e *GatewayError) Unwrap() error { return e.Err }
