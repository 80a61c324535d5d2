package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// Remote is the full set of admin API operations. It is implemented by
// *Client and faked in tests of the packages above it.
type Remote interface {
	ListProducts(ctx context.Context, query url.Values) (ProductPage, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error)
	ToggleProductStatus(ctx context.Context, id string) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetBlockedDates(ctx context.Context) ([]string, error)
	SetBlockedDates(ctx context.Context, dates []string) error
	GetSection(ctx context.Context, section string, dest any) error
	SaveSection(ctx context.Context, method, section string, form *Form, dest any) error
	Login(ctx context.Context, email, password string) (LoginResponse, error)
}

// Ensure Client implements Remote at compile time.
var _ Remote = (*Client)(nil)

// Client talks to the admin REST API. Session cookies set by /auth/login are
// kept in the client's jar and sent with every later request.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:5000/api"
	defaultUserAgent = "backoffice/0.1"
	requestTimeout   = 30 * time.Second
	maxErrorBody     = 1 << 20
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListProducts fetches one filtered page of products.
func (c *Client) ListProducts(ctx context.Context, query url.Values) (ProductPage, error) {
	var raw struct {
		Products []Product `json:"products"`
		Page     any       `json:"page"`
		Pages    any       `json:"pages"`
		Total    any       `json:"total"`
	}
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     []string{"products"},
		query:    query,
		fallback: "Failed to fetch products",
	}, &raw)
	if err != nil {
		return ProductPage{}, err
	}
	page := ProductPage{
		Products:    raw.Products,
		CurrentPage: cast.ToInt(raw.Page),
		TotalPages:  cast.ToInt(raw.Pages),
		TotalCount:  cast.ToInt(raw.Total),
	}
	if page.Products == nil {
		page.Products = []Product{}
	}
	return page, nil
}

// GetProduct fetches a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var p Product
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     []string{"products", id},
		fallback: "Failed to fetch product",
	}, &p)
	return p, err
}

// CreateProduct posts a new product with its media uploads.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	form, err := productForm(in)
	if err != nil {
		return Product{}, err
	}
	var p Product
	err = c.doForm(ctx, http.MethodPost, []string{"products"}, form, "Failed to create product", &p)
	return p, err
}

// UpdateProduct replaces the writable fields of a product.
func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	form, err := productForm(in)
	if err != nil {
		return Product{}, err
	}
	var p Product
	err = c.doForm(ctx, http.MethodPut, []string{"products", id}, form, "Failed to update product", &p)
	return p, err
}

// ToggleProductStatus flips a product between active and inactive.
func (c *Client) ToggleProductStatus(ctx context.Context, id string) (Product, error) {
	if strings.TrimSpace(id) == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var p Product
	err := c.do(ctx, call{
		method:   http.MethodPut,
		path:     []string{"products", "status", id},
		fallback: "Failed to toggle product status",
	}, &p)
	return p, err
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("product id required")
	}
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     []string{"products", id},
		fallback: "Failed to delete product",
	}, nil)
}

// GetBlockedDates returns the blocked days as the server formats them.
func (c *Client) GetBlockedDates(ctx context.Context) ([]string, error) {
	var dates []string
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     []string{"blockdates"},
		fallback: "Failed to fetch blocked dates",
	}, &dates)
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// SetBlockedDates replaces the whole blocked set. Each entry is yyyy-MM-dd.
func (c *Client) SetBlockedDates(ctx context.Context, dates []string) error {
	if dates == nil {
		dates = []string{}
	}
	body, err := json.Marshal(struct {
		BlockDates []string `json:"blockDates"`
	}{BlockDates: dates})
	if err != nil {
		return fmt.Errorf("encode blocked dates: %w", err)
	}
	return c.do(ctx, call{
		method:      http.MethodPost,
		path:        []string{"blockdates"},
		body:        bytes.NewReader(body),
		contentType: "application/json",
		fallback:    "Failed to set blocked dates",
	}, nil)
}

// GetSection decodes the content of a website section into dest.
func (c *Client) GetSection(ctx context.Context, section string, dest any) error {
	return c.do(ctx, call{
		method:   http.MethodGet,
		path:     []string{"website", section},
		fallback: fmt.Sprintf("Failed to load %s content", section),
	}, dest)
}

// SaveSection submits a website section form with the given method.
func (c *Client) SaveSection(ctx context.Context, method, section string, form *Form, dest any) error {
	return c.doForm(ctx, method, []string{"website", section}, form, fmt.Sprintf("Failed to update %s content", section), dest)
}

// Login authenticates the administrator; the session cookie lands in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("encode login: %w", err)
	}
	var resp LoginResponse
	err = c.do(ctx, call{
		method:      http.MethodPost,
		path:        []string{"auth", "login"},
		body:        bytes.NewReader(body),
		contentType: "application/json",
		fallback:    "Invalid email or password",
	}, &resp)
	return resp, err
}

type call struct {
	method      string
	path        []string
	query       url.Values
	body        io.Reader
	contentType string
	fallback    string
}

func (c *Client) doForm(ctx context.Context, method string, path []string, form *Form, fallback string, dest any) error {
	if form == nil {
		form = NewForm()
	}
	body, err := form.Reader()
	if err != nil {
		return err
	}
	return c.do(ctx, call{
		method:      method,
		path:        path,
		body:        body,
		contentType: form.ContentType(),
		fallback:    fallback,
	}, dest)
}

func (c *Client) do(ctx context.Context, cl call, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.JoinPath(cl.path...)
	if len(cl.query) > 0 {
		reqURL.RawQuery = cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, reqURL.String(), cl.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("execute request: %w", ctxErr)
		}
		c.logger.Warn("request failed",
			zap.String("method", cl.method),
			zap.String("url", reqURL.Redacted()),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &RemoteError{Message: TransportFailure, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request complete",
		zap.String("method", cl.method),
		zap.String("url", reqURL.Redacted()),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteErrorFrom(resp, cl.fallback)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func remoteErrorFrom(resp *http.Response, fallback string) *RemoteError {
	remote := &RemoteError{Message: fallback, Status: resp.StatusCode}
	if remote.Message == "" {
		remote.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return remote
	}
	var body messageBody
	if json.Unmarshal(data, &body) == nil && strings.TrimSpace(body.Message) != "" {
		remote.Message = body.Message
	}
	return remote
}

func productForm(in ProductInput) (*Form, error) {
	form := NewForm()
	fields := []struct{ key, value string }{
		{"name", in.Name},
		{"category", in.Category},
		{"description", in.Description},
	}
	for _, f := range fields {
		if err := form.Field(f.key, f.value); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if err := form.Field("status", cast.ToString(*in.Status)); err != nil {
			return nil, err
		}
	}
	if in.PrimaryIndex != nil {
		if err := form.Field("selectedOption", cast.ToString(*in.PrimaryIndex)); err != nil {
			return nil, err
		}
	}
	if err := form.Fields("media", in.Media); err != nil {
		return nil, err
	}
	for _, up := range in.Uploads {
		if err := form.File("media", up); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
