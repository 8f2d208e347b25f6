package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"shikkha_backend/internal/appErrors"
	"shikkha_backend/internal/config"
	"shikkha_backend/internal/logger"
)

const apiKeyHeader = "RT-GATEWAY-API-KEY"

// Client talks to the payment gateway's server-to-server API. It is the
// only component allowed to decide whether a transaction is genuine; both
// entry points re-verify through it instead of trusting payload fields.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a gateway client. A missing API key is a configuration
// error: verification must never silently run unauthenticated.
func NewClient(cfg config.GatewayConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.ErrMissingGatewayCredentials
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, appErrors.ErrMissingGatewayCredentials.WithDetails("gateway base_url is empty")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}, nil
}

// verifyPayload covers both observed response shapes: some deployments put
// the fields at the top level, others nest them under "data".
type verifyPayload struct {
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	Amount        FlexFloat       `json:"amount"`
	InvoiceID     string          `json:"invoice_id"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Metadata      json.RawMessage `json:"metadata"`
}

type verifyEnvelope struct {
	verifyPayload
	Data *verifyPayload `json:"data"`
}

// VerifyTransaction asks the gateway for the authoritative state of a
// transaction. identifier may be a transaction id or an invoice id,
// whichever the caller holds.
func (c *Client) VerifyTransaction(ctx context.Context, identifier string) (*VerificationResult, error) {
	body := map[string]string{"invoice_id": identifier}

	var envelope verifyEnvelope
	if err := c.post(ctx, "/api/verify-payment", body, &envelope); err != nil {
		return nil, err
	}

	payload := envelope.verifyPayload
	if envelope.Data != nil && envelope.Data.Status != "" {
		payload = *envelope.Data
	}

	if payload.TransactionID == "" || payload.Status == "" {
		return nil, appErrors.ErrVerificationFailed.WithDetails(
			fmt.Sprintf("gateway response for %q is missing identifying fields", identifier))
	}

	result := &VerificationResult{
		Outcome:       normalizeStatus(payload.Status),
		PayerName:     payload.FullName,
		PayerEmail:    payload.Email,
		Amount:        payload.Amount.Float64(),
		Currency:      payload.Currency,
		PaymentMethod: payload.PaymentMethod,
		TransactionID: payload.TransactionID,
		InvoiceID:     payload.InvoiceID,
	}
	result.Metadata = decodeMetadata(ctx, payload.TransactionID, payload.Metadata)

	return result, nil
}

type checkoutResponse struct {
	PaymentURL string `json:"payment_url"`
	Status     bool   `json:"status"`
	Message    string `json:"message"`
}

// CreateCheckout opens a checkout session and returns the redirect URL.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest, redirectURL, cancelURL, webhookURL string) (string, error) {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return "", appErrors.InternalError(err)
	}

	body := map[string]interface{}{
		"full_name":    req.FullName,
		"email":        req.Email,
		"amount":       fmt.Sprintf("%.2f", req.Amount),
		"metadata":     json.RawMessage(metadata),
		"redirect_url": redirectURL,
		"cancel_url":   cancelURL,
		"webhook_url":  webhookURL,
		"return_type":  "GET",
	}

	var resp checkoutResponse
	if err := c.post(ctx, "/api/checkout-v2", body, &resp); err != nil {
		return "", err
	}
	if resp.PaymentURL == "" {
		return "", appErrors.ErrVerificationFailed.WithDetails("gateway did not return a payment_url")
	}
	return resp.PaymentURL, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return appErrors.InternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return appErrors.InternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failure or timeout. Retryable by the caller.
		return appErrors.ErrGatewayUnavailable.WithError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return appErrors.ErrGatewayUnavailable.WithDetails(
			fmt.Sprintf("gateway returned HTTP %d for %s", resp.StatusCode, path))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.ErrVerificationFailed.WithError(err)
	}
	return nil
}

// decodeMetadata parses checkout metadata that may arrive as an object or
// as a JSON-encoded string. Malformed metadata is logged and dropped, not
// fatal: the caller decides whether it can proceed without it.
func decodeMetadata(ctx context.Context, transactionID string, raw json.RawMessage) PaymentMetadata {
	var meta PaymentMetadata

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return meta
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			logger.CtxWarn(ctx, "gateway metadata is not a valid JSON string",
				"transaction_id", transactionID, "error", err.Error())
			return meta
		}
		raw = []byte(encoded)
	}

	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.CtxWarn(ctx, "failed to parse gateway metadata",
			"transaction_id", transactionID, "error", err.Error())
		return PaymentMetadata{}
	}
	return meta
}

func normalizeStatus(status string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED":
		return OutcomeCompleted
	case "PENDING":
		return OutcomePending
	default:
		return OutcomeFailed
	}
}
