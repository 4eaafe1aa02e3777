package ott

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

const (
	defaultTimeout             = 30 * time.Second
	responseBodyReadLimit int64 = 4096
)

var (
	errBaseURLRequired   = errors.New("ott base url is required")
	errAPIKeyRequired    = errors.New("ott api key is required")
	errSharedKeyRequired = errors.New("ott shared key is required")
)

// Client calls the OTT voucher vendor API. Every request is signed with an
// HMAC-SHA256 hash over the sorted form parameters.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sharedKey  string
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

// NewClient builds the OTT vendor client.
func NewClient(baseURL, apiKey, sharedKey string, opts ...Option) (*Client, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(sharedKey) == "" {
		return nil, errSharedKeyRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		sharedKey:  strings.TrimSpace(sharedKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// IssueRequest asks the vendor to issue one voucher of the given product.
type IssueRequest struct {
	ProductID string
	Amount    string
	UniqueRef string
}

// IssuedVoucher is the vendor-issued pin and its reference.
type IssuedVoucher struct {
	Pin          string
	SerialNumber string
	VendorRef    string
}

type vendorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Voucher   struct {
		Pin          string `json:"pin"`
		SerialNumber string `json:"serialNumber"`
	} `json:"voucher"`
	Reference string `json:"reference"`
}

// IssueVoucher requests a vendor-issued voucher. Transport failures after the
// request left the process are reported as indeterminate so callers never
// assume the vendor did not issue.
func (c *Client) IssueVoucher(ctx context.Context, req IssueRequest) (*IssuedVoucher, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ott client not configured")
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ott product id is required")
	}
	if strings.TrimSpace(req.UniqueRef) == "" {
		req.UniqueRef = uuid.NewString()
	}

	form := url.Values{}
	form.Set("apiKey", c.apiKey)
	form.Set("product", req.ProductID)
	form.Set("amount", req.Amount)
	form.Set("uniqueReference", req.UniqueRef)
	form.Set("hash", c.signForm(form))

	endpoint := c.baseURL + "/reseller/v1/GetVoucher"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build ott request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Cannot tell whether the vendor processed the request.
		return nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, err, "ott voucher issue outcome unknown")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "ott voucher issue outcome unknown")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeVendor, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "ott voucher issue rejected")
	}

	var body vendorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIndeterminate, err, "decode ott response")
	}
	if !body.Success {
		return nil, pkgerrors.New(pkgerrors.CodeVendor, fmt.Sprintf("ott vendor rejected issue: %s", body.Message))
	}
	if body.Voucher.Pin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeVendor, "ott vendor returned empty pin")
	}

	return &IssuedVoucher{
		Pin:          body.Voucher.Pin,
		SerialNumber: body.Voucher.SerialNumber,
		VendorRef:    body.Reference,
	}, nil
}

// signForm computes the HMAC-SHA256 hash over the alphabetically sorted
// parameter values, excluding the hash field itself.
func (c *Client) signForm(form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha256.New, []byte(c.sharedKey))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
