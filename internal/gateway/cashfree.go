// Package gateway wraps the Cashfree payment gateway: vendor (sub-merchant)
// accounts, split orders, status lookups, refunds and settlement reports,
// plus webhook signature verification.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"qrdine_backend/pkg/utils"
)

const apiVersion = "2023-08-01"

// ErrVendorExists is returned by CreateVendor when the gateway already has a
// vendor with the requested id. Callers adopt the existing vendor.
var ErrVendorExists = errors.New("vendor already exists at gateway")

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// VendorRequest registers a restaurant as a gateway vendor so split
// settlements can be routed to its bank account.
type VendorRequest struct {
	VendorID           string `json:"vendor_id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	BankAccountNumber  string `json:"bank_account_number"`
	BankIFSC           string `json:"bank_ifsc"`
	AccountHolder      string `json:"account_holder"`
	SettlementSchedule int    `json:"schedule_option"`
	Status             string `json:"status"`
}

// VendorResponse is the gateway's view of a vendor account.
type VendorResponse struct {
	VendorID string `json:"vendor_id"`
	Status   string `json:"status"`
}

// Split routes a share of an order's amount to one vendor.
type Split struct {
	VendorID string  `json:"vendor_id"`
	Amount   float64 `json:"amount"`
}

// SplitOrderRequest creates a gateway order whose settlement is divided
// between the platform and the restaurant's vendor account.
type SplitOrderRequest struct {
	GatewayOrderID string  `json:"order_id"`
	Amount         float64 `json:"order_amount"`
	Currency       string  `json:"order_currency"`
	CustomerID     string  `json:"customer_id"`
	CustomerPhone  string  `json:"customer_phone"`
	CustomerEmail  string  `json:"customer_email"`
	Splits         []Split `json:"order_splits"`
}

// SplitOrderResponse carries the session id the client SDK needs to collect
// the payment.
type SplitOrderResponse struct {
	GatewayOrderID   string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	PaymentLink      string `json:"payment_link"`
	Status           string `json:"order_status"`
}

// RefundRequest reverses a captured payment, fully or partially.
type RefundRequest struct {
	GatewayOrderID string  `json:"order_id"`
	RefundID       string  `json:"refund_id"`
	Amount         float64 `json:"refund_amount"`
	Note           string  `json:"refund_note"`
}

// RefundResponse reports the gateway's acceptance of a refund.
type RefundResponse struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"refund_status"`
}

// Gateway is the payment gateway surface the services layer depends on.
// Status and settlement responses are passed through untranslated.
type Gateway interface {
	CreateVendor(ctx context.Context, req VendorRequest) (*VendorResponse, error)
	CreateSplitOrder(ctx context.Context, req SplitOrderRequest) (*SplitOrderResponse, error)
	OrderStatus(ctx context.Context, gatewayOrderID string) (json.RawMessage, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
	Settlements(ctx context.Context, vendorID string, limit int) (json.RawMessage, error)
	VerifySignature(timestamp string, body []byte, signature string) bool
}

// Config holds the gateway credentials and endpoint.
type Config struct {
	BaseURL       string
	AppID         string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

type client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Gateway backed by the Cashfree HTTP API.
func NewClient(cfg Config) Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *client) CreateVendor(ctx context.Context, req VendorRequest) (*VendorResponse, error) {
	if req.SettlementSchedule == 0 {
		req.SettlementSchedule = 1
	}
	if req.Status == "" {
		req.Status = "ACTIVE"
	}

	var resp VendorResponse
	err := c.do(ctx, http.MethodPost, "/easy-split/vendors", req, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("%w: %s", ErrVendorExists, req.VendorID)
		}
		return nil, err
	}
	return &resp, nil
}

func (c *client) CreateSplitOrder(ctx context.Context, req SplitOrderRequest) (*SplitOrderResponse, error) {
	if req.Currency == "" {
		req.Currency = "INR"
	}
	var resp SplitOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) OrderStatus(ctx context.Context, gatewayOrderID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/orders/"+gatewayOrderID, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *client) Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	var resp RefundResponse
	path := fmt.Sprintf("/orders/%s/refunds", req.GatewayOrderID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) Settlements(ctx context.Context, vendorID string, limit int) (json.RawMessage, error) {
	var raw json.RawMessage
	path := "/settlements"
	if vendorID != "" {
		path = "/easy-split/vendors/" + vendorID + "/settlements"
	}
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// VerifySignature checks the webhook HMAC: base64(HMAC-SHA256(timestamp ||
// body)) keyed with the webhook secret, compared in constant time.
func (c *client) VerifySignature(timestamp string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding gateway request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("x-client-id", c.cfg.AppID)
	req.Header.Set("x-client-secret", c.cfg.SecretKey)
	req.Header.Set("x-request-id", requestID)

	utils.LogDebug("gateway request", map[string]interface{}{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding gateway response: %w", err)
		}
	}
	return nil
}
