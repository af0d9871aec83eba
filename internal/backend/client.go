package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/jrsteele09/go-pod-app/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeTurtle = "text/turtle"
	ContentTypeText   = "text/plain"

	// RequestIDHeader correlates a backend call with the client log line.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 10 << 20
	maxErrorBody     = 512
)

// Options configures the credentials and limits of a Client.
type Options struct {
	Timeout time.Duration // Per request; zero means no timeout beyond the caller's context

	// SessionCookie is a "name=value" backend session cookie installed for CookieURL.
	SessionCookie string
	CookieURL     *url.URL

	// AccessToken, when set, is sent as a bearer token on every request.
	AccessToken string

	Metrics    *metrics.Metrics
	HTTPClient *http.Client // Base client; a pooled client is used when nil
}

// Client issues credentialed requests to the session backend. Cookies set by
// the backend are kept in a jar, so every call carries the session the way a
// browser does with withCredentials.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	metrics    *metrics.Metrics
}

// Request describes one call to the backend.
type Request struct {
	Method      string
	URL         *url.URL
	Body        []byte
	ContentType string
	Accept      string
}

func New(opts Options) (*Client, error) {
	var httpClient *http.Client
	if opts.HTTPClient != nil {
		clientCopy := *opts.HTTPClient
		httpClient = &clientCopy
	} else {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "[backend New] failed to create cookie jar")
		}
		httpClient.Jar = jar
	}

	if opts.SessionCookie != "" {
		if opts.CookieURL == nil {
			return nil, fmt.Errorf("[backend New] %w: session cookie given without a backend URL", apperrors.ErrConfiguration)
		}
		name, value, ok := strings.Cut(opts.SessionCookie, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("[backend New] %w: session cookie must be name=value", apperrors.ErrConfiguration)
		}
		httpClient.Jar.SetCookies(opts.CookieURL, []*http.Cookie{{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
			Path:  "/",
		}})
	}

	if opts.AccessToken != "" {
		base := httpClient.Transport
		if base == nil {
			base = cleanhttp.DefaultPooledTransport()
		}
		httpClient.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"}),
			Base:   base,
		}
	}

	return &Client{
		httpClient: httpClient,
		timeout:    opts.Timeout,
		metrics:    opts.Metrics,
	}, nil
}

// Do performs the request and returns the response body. Non-2xx answers are
// returned as *errors.HTTPError. Nothing is retried.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	if r.URL == nil {
		return nil, errors.New("[backend Do] request URL is required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "[backend Do] failed to build %s request", r.Method)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	endpoint := path.Base(r.URL.Path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveBackendRequest(endpoint, 0, time.Since(start))
		log.Debug().Err(err).Str("request_id", requestID).Str("method", r.Method).Str("endpoint", endpoint).Msg("backend request failed")
		return nil, errors.Wrapf(err, "[backend Do] %s %s", r.Method, endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	c.metrics.ObserveBackendRequest(endpoint, resp.StatusCode, elapsed)
	log.Debug().
		Str("request_id", requestID).
		Str("method", r.Method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("backend request")
	if err != nil {
		return nil, errors.Wrapf(err, "[backend Do] failed to read %s response", endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := string(data)
		if len(errBody) > maxErrorBody {
			errBody = errBody[:maxErrorBody]
		}
		return nil, &apperrors.HTTPError{
			Method:     r.Method,
			URL:        r.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(errBody),
		}
	}
	return data, nil
}

// GetJSON fetches u and decodes the JSON answer into out.
func (c *Client) GetJSON(ctx context.Context, u *url.URL, out any) error {
	data, err := c.Do(ctx, Request{Method: http.MethodGet, URL: u, Accept: ContentTypeJSON})
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

// GetText fetches u and returns the body as text.
func (c *Client) GetText(ctx context.Context, u *url.URL, accept string) (string, error) {
	data, err := c.Do(ctx, Request{Method: http.MethodGet, URL: u, Accept: accept})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SendJSON encodes in as the request body. When out is a *string the raw
// answer is stored in it, otherwise a non-nil out is decoded as JSON.
func (c *Client) SendJSON(ctx context.Context, method string, u *url.URL, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "[backend SendJSON] failed to encode request body")
	}
	accept := ContentTypeJSON
	if _, ok := out.(*string); ok {
		accept = ContentTypeText
	}
	data, err := c.Do(ctx, Request{Method: method, URL: u, Body: payload, ContentType: ContentTypeJSON, Accept: accept})
	if err != nil {
		return err
	}
	switch target := out.(type) {
	case nil:
		return nil
	case *string:
		*target = string(data)
		return nil
	default:
		return decodeJSON(data, out)
	}
}

// SendText posts a textual body and returns the textual answer.
func (c *Client) SendText(ctx context.Context, method string, u *url.URL, contentType, body string) (string, error) {
	data, err := c.Do(ctx, Request{Method: method, URL: u, Body: []byte(body), ContentType: contentType, Accept: ContentTypeText})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSON(data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("[backend decodeJSON] %w: %v", apperrors.ErrParse, err)
	}
	return nil
}
