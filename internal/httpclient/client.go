package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/five82/ladle/internal/session"
)

// Sender is the request surface the API layer depends on.
type Sender interface {
	Send(ctx context.Context, method, path string, body any, query url.Values, dest any) error
}

// Ensure Client implements Sender at compile time.
var _ Sender = (*Client)(nil)

const (
	defaultBaseURL   = "http://127.0.0.1:8000/api"
	defaultUserAgent = "ladle/0.1"
	defaultTimeout   = 10 * time.Second
	refreshPath      = "/auth/refresh/"
	maxResponseBytes = 8 << 20
	requestIDHeader  = "X-Request-ID"
)

// Options configure a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8000/api.
	BaseURL string
	Vault   *session.Vault
	Timeout time.Duration
	// RateLimit caps outgoing requests per second. Zero disables throttling.
	RateLimit float64
	UserAgent string
	Logger    *zap.Logger
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
	// OnSessionExpired runs after a failed refresh cleared the session.
	OnSessionExpired func()
}

// Client talks to the recipe backend on behalf of the signed-in user.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	vault     *session.Vault
	limiter   *rate.Limiter
	log       *zap.Logger
	onExpired func()
	refreshes singleflight.Group
	// refreshTimeout bounds the shared refresh, which outlives its callers.
	refreshTimeout time.Duration
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	vault := opts.Vault
	if vault == nil {
		vault = session.NewVault(nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: userAgent,
		vault:     vault,
		log:       logger.Named("http"),
		onExpired: opts.OnSessionExpired,

		refreshTimeout: timeout,
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// Session returns the current session record.
func (c *Client) Session() session.Record {
	return c.vault.Record()
}

// Establish stores a complete session after a successful login.
func (c *Client) Establish(ctx context.Context, rec session.Record) error {
	return c.vault.Establish(ctx, rec)
}

// UpdateUser replaces the persisted profile after a profile change.
func (c *Client) UpdateUser(ctx context.Context, userJSON, username string) error {
	return c.vault.SetUser(ctx, userJSON, username)
}

// ClearSession forgets every stored credential.
func (c *Client) ClearSession(ctx context.Context) error {
	return c.vault.Clear(ctx)
}

// AccessExpiry reports when the stored access token expires, if it says.
func (c *Client) AccessExpiry() (time.Time, bool) {
	return AccessExpiry(c.vault.AccessToken())
}

// call is one logical request, replayable after a refresh.
type call struct {
	method    string
	path      string
	query     url.Values
	payload   []byte
	requestID string
	retried   bool
}

// Send performs method on path, JSON-encoding body and decoding the response
// into dest. Either may be nil.
func (c *Client) Send(ctx context.Context, method, path string, body any, query url.Values, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	req := &call{
		method:    method,
		path:      path,
		query:     query,
		payload:   payload,
		requestID: uuid.NewString(),
	}

	token := c.vault.AccessToken()
	respBody, err := c.execute(ctx, req, token)
	if err == nil {
		return decodeBody(respBody, dest)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || req.retried {
		return err
	}
	req.retried = true

	access, err := c.renewAccess(ctx, token, err)
	if err != nil {
		return err
	}
	respBody, err = c.execute(ctx, req, access)
	if err != nil {
		return err
	}
	return decodeBody(respBody, dest)
}

// renewAccess obtains a fresh access token after a 401 on usedToken.
//
// Concurrent callers share one exchange. It runs detached from any caller's
// context so one caller giving up does not fail the others; each caller still
// stops waiting when its own ctx is done.
func (c *Client) renewAccess(ctx context.Context, usedToken string, original error) (string, error) {
	// Another request may have refreshed while this one was in flight.
	if current := c.vault.AccessToken(); current != "" && current != usedToken {
		return current, nil
	}

	gen := c.vault.Generation()
	refresh := c.vault.RefreshToken()
	if refresh == "" {
		return "", original
	}

	results := c.refreshes.DoChan(refresh, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		access, err := c.exchange(refreshCtx, gen, refresh)
		switch {
		case err == nil:
			return access, nil
		case errors.Is(err, session.ErrSessionChanged):
			c.log.Debug("discarding refreshed token for a replaced session")
			return "", err
		case refreshCtx.Err() != nil:
			return "", err
		}
		c.expire(refreshCtx, err)
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-results:
	}
	if res.Err != nil {
		if errors.Is(res.Err, session.ErrSessionChanged) {
			return "", original
		}
		return "", res.Err
	}
	c.log.Debug("access token refreshed", zap.Bool("shared", res.Shared))
	return res.Val.(string), nil
}

// exchange trades a refresh token for a new access token and stores it if the
// session is still generation gen.
func (c *Client) exchange(ctx context.Context, gen uint64, refresh string) (string, error) {
	req := &call{
		method:    http.MethodPost,
		path:      refreshPath,
		requestID: uuid.NewString(),
	}
	payload, err := encodeBody(map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}
	req.payload = payload

	body, err := c.execute(ctx, req, "")
	if err != nil {
		return "", err
	}
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := decodeBody(body, &tokens); err != nil {
		return "", err
	}
	if tokens.Access == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}
	if err := c.vault.SetTokens(ctx, gen, tokens.Access, tokens.Refresh); err != nil {
		return "", err
	}
	return tokens.Access, nil
}

func (c *Client) expire(ctx context.Context, cause error) {
	c.log.Warn("token refresh failed, clearing session", zap.Error(cause))
	if err := c.vault.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error("clear session", zap.Error(err))
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}

func (c *Client) execute(ctx context.Context, req *call, token string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var body io.Reader
	if req.payload != nil {
		body = bytes.NewReader(req.payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.resolve(req.path, req.query), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(requestIDHeader, req.requestID)
	if req.payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.String("request_id", req.requestID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: execute request: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	c.log.Debug("request completed",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Bool("retried", req.retried),
		zap.String("request_id", req.requestID),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode >= 400 {
		return nil, newError(req.method, req.path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}

func decodeBody(body []byte, dest any) error {
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
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
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
