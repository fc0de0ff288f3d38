package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Cookie names the site expects on authenticated downloads.
const (
	CSRFCookieName    = "csrftoken"
	SessionCookieName = "sessionid"
)

// Client performs GET requests for the scraper.
// It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxPageSize int64
	limiter     *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxPageSize sets the largest page body Get accepts.
// Zero keeps the default.
func WithMaxPageSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxPageSize = size
		}
	}
}

// WithDelay enforces a minimum interval between requests.
// Zero or negative disables rate limiting.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.limiter = NewLimiter(d)
	}
}

// WithLimiter makes the client wait on l before every request.
// Clients sharing one limiter are rate limited together.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// NewLimiter returns a limiter allowing one request per d.
// Zero or negative d means no limit.
func NewLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// WithCookies sends cookies on requests to the host of origin, and only
// there: a redirect to another host goes out without them.
// Cookies with an empty value are not sent. An origin that is not an
// absolute http(s) URL leaves the client without cookies.
func WithCookies(origin string, cookies ...*http.Cookie) Option {
	return func(c *Client) {
		set := make([]*http.Cookie, 0, len(cookies))
		for _, ck := range cookies {
			if ck != nil && ck.Value != "" {
				set = append(set, ck)
			}
		}
		if len(set) == 0 {
			return
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return
		}
		jar, err := cookiejar.New(nil)
		if err != nil {
			return
		}
		jar.SetCookies(u, set)
		c.httpClient.Jar = jar
	}
}

// AuthCookies returns the two session cookies used for downloads.
func AuthCookies(csrf, session string) []*http.Cookie {
	return []*http.Cookie{
		{Name: CSRFCookieName, Value: csrf},
		{Name: SessionCookieName, Value: session},
	}
}

// NewClient creates a Client with the given request timeout.
// A zero timeout means no timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
		},
		userAgent:   "audiophile",
		maxPageSize: 10 * 1024 * 1024,
		limiter:     rate.NewLimiter(rate.Inf, 0),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// newTransport clones the default transport with pool settings suited to
// many sequential requests against a single host.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 20
	t.MaxIdleConnsPerHost = 20
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

// Get fetches rawURL and returns the whole body.
// A body larger than the page size limit is an ErrPageTooLarge error,
// never a truncated page.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if int64(len(body)) > c.maxPageSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrPageTooLarge, rawURL, c.maxPageSize)
	}
	return body, nil
}

// Download streams the body of rawURL into w and returns the number of bytes copied.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	return n, nil
}

// do waits for the rate limiter, sends the request, and checks the status.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
