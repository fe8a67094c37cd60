package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
)

const (
	defaultBaseURL   = "https://world.openfoodfacts.org"
	defaultUserAgent = "PantryBot/1.0 (github.com/mconcas/pantrybot-backend)"

	// keeps the response small; the full product object still arrives in Raw
	lookupFields = "product_name,brands,image_front_small_url,categories_tags,quantity"

	responseBodyReadLimit int64 = 1024
)

// Product is the normalized Open Food Facts lookup result. Name already
// carries the brand suffix when one is known.
type Product struct {
	Name     string
	Brand    string
	ImageURL string
	Raw      json.RawMessage
}

// Client queries the Open Food Facts product API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
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

// WithBaseURL overrides the Open Food Facts base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithUserAgent overrides the User-Agent sent with lookups. Open Food Facts
// asks API consumers to identify themselves.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(userAgent)
		if trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// WithTimeout bounds each lookup attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Open Food Facts client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Lookup fetches product data for a barcode. A barcode unknown to the
// catalog returns (nil, nil); transport or API failures return an error.
// Each call is a single attempt bounded by the client timeout.
func (c *Client) Lookup(ctx context.Context, barcode string) (*Product, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json?fields=%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed), url.QueryEscape(lookupFields))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build product lookup request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute product lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	// the v2 API answers 404 for barcodes it has never seen
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "product lookup failed")
	}

	var apiResp struct {
		Status  int             `json:"status"`
		Product json.RawMessage `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product lookup response")
	}
	if apiResp.Status != 1 || len(apiResp.Product) == 0 {
		return nil, nil
	}

	var fields struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
		ImageURL    string `json:"image_front_small_url"`
	}
	if err := json.Unmarshal(apiResp.Product, &fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product fields")
	}

	name := strings.TrimSpace(fields.ProductName)
	if name == "" {
		return nil, nil
	}
	brand := strings.TrimSpace(fields.Brands)
	if brand != "" {
		name = fmt.Sprintf("%s (%s)", name, brand)
	}

	return &Product{
		Name:     name,
		Brand:    brand,
		ImageURL: fields.ImageURL,
		Raw:      apiResp.Product,
	}, nil
}
