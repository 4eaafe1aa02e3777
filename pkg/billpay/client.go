package billpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

const (
	defaultTimeout              = 30 * time.Second
	responseBodyReadLimit int64 = 4096
)

var (
	errBaseURLRequired     = errors.New("billpay base url is required")
	errCredentialsRequired = errors.New("billpay credentials are required")
)

// Client calls the bill-payment vendor API using HTTP Basic credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the bill-payment vendor client.
func NewClient(baseURL, username, password string, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(base, "/"),
		username:   strings.TrimSpace(username),
		password:   password,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PaymentRequest submits one bill payment to the vendor.
type PaymentRequest struct {
	AccountNumber string          `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
}

// PaymentResult carries the vendor's confirmation.
type PaymentResult struct {
	VendorRef string
	Receipt   string
}

type vendorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
	Receipt   string `json:"receipt"`
}

// SubmitPayment posts the payment. Transport failures after the request left
// the process are reported as indeterminate.
func (c *Client) SubmitPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "billpay client not configured")
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billpay account number is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billpay amount must be positive")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal billpay request")
	}

	endpoint := c.baseURL + "/api/v1/payments"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build billpay request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, err, "billpay outcome unknown")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "billpay outcome unknown")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeVendor, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "billpay payment rejected")
	}

	var body vendorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, err, "decode billpay response")
	}
	if !strings.EqualFold(body.Status, "success") {
		return nil, pkgerrors.New(pkgerrors.CodeVendor, fmt.Sprintf("billpay vendor rejected payment: %s", body.Message))
	}

	return &PaymentResult{
		VendorRef: body.Reference,
		Receipt:   body.Receipt,
	}, nil
}
