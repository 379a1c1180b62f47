package ventra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/rafaelduartes/salescope-backend/pkg/errors"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://api.ventrahub.com/v2"

	// timeFormat is the only timestamp layout the gateway accepts and emits.
	timeFormat = "2006-01-02 15:04:05"

	defaultPageDelay   = 500 * time.Millisecond
	defaultWindowDelay = time.Second

	errorBodyReadLimit int64 = 1024
)

// Client talks to the Ventra gateway API on behalf of one connected account.
// All fetch methods follow the same fault policy: a page or window request
// failure stops that fetch and returns whatever accumulated so far, raising
// only when nothing at all was retrieved.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	pageDelay   time.Duration
	windowDelay time.Duration
	logg        *logger.Logger
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

// WithBaseURL overrides the production API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithPacing sets the delays inserted between page requests and between date
// windows. Zero disables the corresponding delay.
func WithPacing(pageDelay, windowDelay time.Duration) Option {
	return func(c *Client) {
		c.pageDelay = pageDelay
		c.windowDelay = windowDelay
	}
}

// WithLogger attaches the structured logger used for partial-fetch warnings.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds a gateway client from a bearer token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway token is required")
	}

	client := &Client{
		token:       trimmed,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		pageDelay:   defaultPageDelay,
		windowDelay: defaultWindowDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// TestConnection verifies the token by loading the account profile.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.getPage(ctx, "account", nil)
	return err
}

// FetchSales retrieves every sale in [from, to], splitting the range into
// gateway-sized windows and paging through each.
func (c *Client) FetchSales(ctx context.Context, from, to time.Time) ([]SaleRecord, error) {
	var records []SaleRecord
	err := c.fetchWindowed(ctx, "sales", from, to, func(data json.RawMessage) (int, error) {
		var wires []saleWire
		if err := json.Unmarshal(data, &wires); err != nil {
			return 0, err
		}
		for _, w := range wires {
			records = append(records, w.normalize())
		}
		return len(wires), nil
	})
	if err != nil && len(records) > 0 {
		c.warn(ctx, "sales fetch ended early, returning partial results", err)
		return records, nil
	}
	return records, err
}

// FetchAbandons retrieves every abandoned checkout in [from, to]. The abandon
// endpoint requires both date bounds on every request.
func (c *Client) FetchAbandons(ctx context.Context, from, to time.Time) ([]AbandonRecord, error) {
	var records []AbandonRecord
	err := c.fetchWindowed(ctx, "checkout/abandons", from, to, func(data json.RawMessage) (int, error) {
		var wires []abandonWire
		if err := json.Unmarshal(data, &wires); err != nil {
			return 0, err
		}
		for _, w := range wires {
			records = append(records, w.normalize())
		}
		return len(wires), nil
	})
	if err != nil && len(records) > 0 {
		c.warn(ctx, "abandon fetch ended early, returning partial results", err)
		return records, nil
	}
	return records, err
}

// FetchProducts retrieves the three product-listing variants the account can
// hold: own products, co-productions, and affiliated products.
func (c *Client) FetchProducts(ctx context.Context) ([]ProductRecord, error) {
	variants := []struct {
		path string
		role ProductRole
	}{
		{path: "products", role: ProductRoleProducer},
		{path: "products/co-productions", role: ProductRoleCoProducer},
		{path: "affiliates/products", role: ProductRoleAffiliate},
	}

	var records []ProductRecord
	for i, variant := range variants {
		if i > 0 {
			if err := c.pause(ctx, c.pageDelay); err != nil {
				return records, err
			}
		}
		err := c.fetchPaged(ctx, variant.path, nil, func(data json.RawMessage) (int, error) {
			var wires []productWire
			if err := json.Unmarshal(data, &wires); err != nil {
				return 0, err
			}
			for _, w := range wires {
				records = append(records, w.normalize(variant.role))
			}
			return len(wires), nil
		})
		if err != nil {
			if len(records) == 0 {
				return nil, err
			}
			c.warn(ctx, "product fetch ended early, returning partial results", err)
			return records, nil
		}
	}
	return records, nil
}

// fetchWindowed splits the range into windows and pages through each, pacing
// between windows. The collect callback decodes one page worth of data and
// reports how many records it held.
func (c *Client) fetchWindowed(ctx context.Context, path string, from, to time.Time, collect func(json.RawMessage) (int, error)) error {
	windows := SplitWindows(from, to)
	if len(windows) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "date range is empty or inverted")
	}

	for i, window := range windows {
		if i > 0 {
			if err := c.pause(ctx, c.windowDelay); err != nil {
				return err
			}
		}
		query := url.Values{
			"date_min": []string{window.Min()},
			"date_max": []string{window.Max()},
		}
		if err := c.fetchPaged(ctx, path, query, collect); err != nil {
			return err
		}
	}
	return nil
}

// fetchPaged walks an endpoint's pages until the gateway signals the last
// one. Pagination metadata is inconsistent across endpoints, so a page is
// treated as last when any of the signals says so: no next-page URL, a
// reported last page at or below the current one, or zero records returned.
func (c *Client) fetchPaged(ctx context.Context, path string, query url.Values, collect func(json.RawMessage) (int, error)) error {
	for page := 1; ; page++ {
		if page > 1 {
			if err := c.pause(ctx, c.pageDelay); err != nil {
				return err
			}
		}

		pageQuery := url.Values{}
		for key, values := range query {
			pageQuery[key] = values
		}
		pageQuery.Set("page", strconv.Itoa(page))

		envelope, err := c.getPage(ctx, path, pageQuery)
		if err != nil {
			return err
		}

		count, err := collect(envelope.Data)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s page %d", path, page))
		}
		if envelope.isLast(count) {
			return nil
		}
	}
}

type pageEnvelope struct {
	Data        json.RawMessage `json:"data"`
	CurrentPage int             `json:"current_page"`
	LastPage    int             `json:"last_page"`
	NextPageURL string          `json:"next_page_url"`
}

func (e pageEnvelope) isLast(count int) bool {
	if count == 0 {
		return true
	}
	if strings.TrimSpace(e.NextPageURL) == "" {
		return true
	}
	if e.LastPage > 0 && e.LastPage <= e.CurrentPage {
		return true
	}
	return false
}

func (c *Client) getPage(ctx context.Context, path string, query url.Values) (pageEnvelope, error) {
	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pageEnvelope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build %s request", path))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageEnvelope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", path))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pageEnvelope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway rejected the credential")
	case resp.StatusCode == http.StatusTooManyRequests:
		return pageEnvelope{}, pkgerrors.New(pkgerrors.CodeRateLimit, "gateway rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pageEnvelope{}, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			fmt.Sprintf("%s request failed", path),
		)
	}

	var envelope pageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pageEnvelope{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", path))
	}
	return envelope, nil
}

func (c *Client) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// warn logs without ever echoing the bearer token.
func (c *Client) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "cause", err.Error()), msg)
}
