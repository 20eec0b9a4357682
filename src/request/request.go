package request

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/carlmjohnson/requests"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"holonet.gg/v1/encounter-builder/src/csrf"
	"holonet.gg/v1/encounter-builder/src/jsonutil"
	"holonet.gg/v1/encounter-builder/src/object"
)

const (
	GET    = http.MethodGet
	POST   = http.MethodPost
	PUT    = http.MethodPut
	PATCH  = http.MethodPatch
	DELETE = http.MethodDelete
)

const formContentType = "application/x-www-form-urlencoded; charset=UTF-8"

// TokenSource supplies the mutation token attached to non-GET requests.
type TokenSource interface {
	Token() string
}

// Navigator moves the hosted page to another location. It is invoked
// instead of resolving when a response body carries a redirect.
type Navigator interface {
	Navigate(location string)
}

type NavigatorFunc func(location string)

func (f NavigatorFunc) Navigate(location string) { f(location) }

// Config is shared by every client a Session hands out.
type Config struct {
	// Origin is prefixed to urls that have no scheme.
	Origin     string
	Tokens     TokenSource
	Navigator  Navigator
	HTTPClient *http.Client
	UserAgent  string
	Logger     *zap.Logger
}

// Exchange records what was sent and what came back.
type Exchange struct {
	ID           string
	Method       string
	URL          string
	Header       http.Header
	Body         []byte
	StatusCode   int
	ResponseBody []byte
}

// Response is what a resolved Future carries. Data is the parsed JSON
// body, nil when the body was empty or not JSON.
type Response struct {
	Data     any
	Exchange *Exchange
}

// Mapping returns Data as a mapping, or nil.
func (r *Response) Mapping() object.Mapping {
	if r == nil {
		return nil
	}
	m, _ := r.Data.(object.Mapping)
	return m
}

// Results returns the records of a list endpoint's {"results": [...]}
// body. Entries that are not mappings are skipped.
func (r *Response) Results() []object.Mapping {
	raw, _ := r.Mapping()["results"].([]any)
	records := make([]object.Mapping, 0, len(raw))
	for _, item := range raw {
		if record, ok := item.(object.Mapping); ok {
			records = append(records, record)
		}
	}
	return records
}

// Client issues one request at a time. Starting a new request aborts the
// one in flight.
type Client struct {
	cfg Config

	mu       sync.Mutex
	inflight *attempt
}

type attempt struct {
	cancel  context.CancelFunc
	mu      sync.Mutex
	aborted bool
}

func (a *attempt) abort() {
	a.mu.Lock()
	a.aborted = true
	a.mu.Unlock()
	a.cancel()
}

func (a *attempt) wasAborted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aborted
}

func NewClient(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{cfg: cfg}
}

func (c *Client) Get(ctx context.Context, url string, data object.Mapping) *Future {
	return c.Request(ctx, url, GET, data)
}

func (c *Client) Post(ctx context.Context, url string, data any) *Future {
	return c.Request(ctx, url, POST, data)
}

func (c *Client) Put(ctx context.Context, url string, data any) *Future {
	return c.Request(ctx, url, PUT, data)
}

func (c *Client) Patch(ctx context.Context, url string, data any) *Future {
	return c.Request(ctx, url, PATCH, data)
}

func (c *Client) Delete(ctx context.Context, url string, data any) *Future {
	return c.Request(ctx, url, DELETE, data)
}

// Abort cancels the request in flight. Its future is left pending.
func (c *Client) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.inflight.abort()
		c.inflight = nil
	}
}

// Request sends data to url with the given method and returns at once.
// data may be nil, an object.Mapping or a *FormData.
//
// GET merges data over the url's own query. Other methods keep the url's
// query, carry the mutation token header and send data as the body, url
// encoded unless it is already form data. The url's query always gets
// format=json unless it names a format itself.
func (c *Client) Request(ctx context.Context, rawURL, method string, data any) *Future {
	future := newFuture()
	exchange := c.prepare(rawURL, method, data)

	attemptCtx, cancel := context.WithCancel(ctx)
	current := &attempt{cancel: cancel}
	c.mu.Lock()
	if c.inflight != nil {
		c.inflight.abort()
	}
	c.inflight = current
	c.mu.Unlock()

	logger := c.cfg.Logger.With(
		zap.String("id", exchange.ID),
		zap.String("method", method),
		zap.String("url", exchange.URL),
	)
	logger.Debug("request started")

	go func() {
		defer cancel()
		defer c.finish(current)

		var body bytes.Buffer
		builder := requests.URL(exchange.URL).
			Method(method).
			Client(c.cfg.HTTPClient).
			AddValidator(func(res *http.Response) error {
				exchange.StatusCode = res.StatusCode
				if res.StatusCode < 200 || res.StatusCode >= 400 {
					return ErrStatus
				}
				return nil
			}).
			ToBytesBuffer(&body)
		if c.cfg.UserAgent != "" {
			builder.UserAgent(c.cfg.UserAgent)
		}
		for key, values := range exchange.Header {
			builder.Header(key, values...)
		}
		if method != GET {
			builder.BodyBytes(exchange.Body)
		}

		err := builder.Fetch(attemptCtx)
		if current.wasAborted() {
			logger.Debug("request aborted")
			return
		}
		exchange.ResponseBody = body.Bytes()

		switch {
		case err == nil:
		case exchange.StatusCode != 0 && (exchange.StatusCode < 200 || exchange.StatusCode >= 400):
			logger.Warn("request failed", zap.Int("status", exchange.StatusCode))
			future.reject(statusError(method, exchange.StatusCode, exchange))
			return
		default:
			logger.Warn("request failed", zap.Error(err))
			future.reject(networkError(method, err, exchange))
			return
		}

		parsed := jsonutil.TryParseBytes(exchange.ResponseBody).OrElse(nil)
		if m, ok := parsed.(object.Mapping); ok && truthy(m["redirect"]) {
			location, ok := m["redirect"].(string)
			if !ok {
				location = fmt.Sprint(m["redirect"])
			}
			logger.Info("redirect requested", zap.String("location", location))
			if c.cfg.Navigator != nil {
				c.cfg.Navigator.Navigate(location)
			}
			return
		}

		logger.Debug("request completed", zap.Int("status", exchange.StatusCode))
		future.resolve(&Response{Data: parsed, Exchange: exchange})
	}()

	return future
}

func (c *Client) finish(a *attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == a {
		c.inflight = nil
	}
}

// prepare builds the final url, headers and body without touching the
// caller's data.
func (c *Client) prepare(rawURL, method string, data any) *Exchange {
	base, query, _ := strings.Cut(rawURL, "?")
	query, _, _ = strings.Cut(query, "#")
	base, _, _ = strings.Cut(base, "#")

	urlData := object.FromQueryString(query)
	if format := urlData["format"]; format == nil || format == "" {
		urlData["format"] = "json"
	}

	exchange := &Exchange{
		ID:     uuid.NewString(),
		Method: method,
		Header: make(http.Header),
	}

	if method == GET {
		fields, _ := data.(object.Mapping)
		exchange.URL = c.resolve(base) + "?" + object.ToQueryString(object.Merge(urlData, fields))
		return exchange
	}

	exchange.Header.Set(csrf.HeaderName, c.token())
	exchange.URL = c.resolve(base) + "?" + object.ToQueryString(urlData)
	switch body := data.(type) {
	case *FormData:
		if body != nil {
			exchange.Header.Set("Content-Type", body.ContentType)
			exchange.Body = body.Body
		}
	case object.Mapping:
		exchange.Header.Set("Content-Type", formContentType)
		exchange.Body = []byte(object.ToQueryString(body))
	default:
		exchange.Header.Set("Content-Type", formContentType)
	}
	return exchange
}

func (c *Client) token() string {
	if c.cfg.Tokens == nil {
		return ""
	}
	return c.cfg.Tokens.Token()
}

func (c *Client) resolve(base string) string {
	if c.cfg.Origin == "" || strings.Contains(base, "://") {
		return base
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(c.cfg.Origin, "/") + base
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	default:
		return true
	}
}
