package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(baseURL string) Gateway {
	return NewClient(Config{
		BaseURL:       baseURL,
		AppID:         "app",
		SecretKey:     "secret",
		WebhookSecret: "whsec",
	})
}

func TestVerifySignature(t *testing.T) {
	c := testClient("http://unused")
	timestamp := "1699999999"
	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	good := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !c.VerifySignature(timestamp, body, good) {
		t.Error("valid signature rejected")
	}
	if c.VerifySignature(timestamp, body, "tampered") {
		t.Error("invalid signature accepted")
	}
	if c.VerifySignature("1700000000", body, good) {
		t.Error("signature must bind the timestamp")
	}
	if c.VerifySignature(timestamp, []byte(`{}`), good) {
		t.Error("signature must bind the body")
	}
}

func TestCreateVendorSendsCredentialHeaders(t *testing.T) {
	var got *http.Request
	var payload VendorRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(VendorResponse{VendorID: payload.VendorID, Status: "ACTIVE"})
	}))
	defer server.Close()

	c := testClient(server.URL)
	resp, err := c.CreateVendor(context.Background(), VendorRequest{VendorID: "VENDOR_7", Name: "R"})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if resp.VendorID != "VENDOR_7" {
		t.Errorf("vendor id = %s", resp.VendorID)
	}
	if got.Header.Get("x-client-id") != "app" || got.Header.Get("x-client-secret") != "secret" {
		t.Error("credential headers missing")
	}
	if got.Header.Get("x-request-id") == "" {
		t.Error("x-request-id header missing")
	}
	if payload.SettlementSchedule != 1 {
		t.Errorf("schedule defaulted to %d, want 1", payload.SettlementSchedule)
	}
	if payload.Status != "ACTIVE" {
		t.Errorf("status defaulted to %q, want ACTIVE", payload.Status)
	}
}

func TestCreateVendorConflictMapsToErrVendorExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"code": "vendor_already_exists", "message": "Vendor already exists"})
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.CreateVendor(context.Background(), VendorRequest{VendorID: "VENDOR_7"})
	if !errors.Is(err, ErrVendorExists) {
		t.Errorf("expected ErrVendorExists, got %v", err)
	}
}

func TestGatewayErrorCarriesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"code": "order_invalid", "message": "amount must be positive"})
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.CreateSplitOrder(context.Background(), SplitOrderRequest{GatewayOrderID: "CF_ORD_1_1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "order_invalid" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestSettlementsPath(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.String()
		w.Write([]byte(`{"settlements":[]}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	if _, err := c.Settlements(context.Background(), "VENDOR_3", 5); err != nil {
		t.Fatalf("Settlements: %v", err)
	}
	if path != "/easy-split/vendors/VENDOR_3/settlements?limit=5" {
		t.Errorf("path = %s", path)
	}
}
