// Package erp talks to Etendo Classic over HTTP.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

const (
	AuthHeader      = "Authorization"
	jsonContentType = "application/json"
	formContentType = "application/x-www-form-urlencoded"

	// KernelServlet is the classic kernel endpoint used for actions.
	KernelServlet = "org.openbravo.client.kernel"
	// DatasourceServlet is reached through the metadata forward servlet.
	DatasourceServlet = "meta/forward/org.openbravo.service.datasource"

	maxBodyBytes = 32 << 20
)

// Interceptor may inspect or replace every response before it is decoded.
type Interceptor func(*Response) (*Response, error)

// Exchange describes one finished upstream call.
type Exchange struct {
	Method       string
	URL          string
	Status       int
	Duration     time.Duration
	RequestBody  []byte
	ResponseBody []byte
	Err          error
}

// SessionStore keeps the classic JSESSIONID cookie per bearer token and
// counts recovery attempts.
type SessionStore interface {
	Cookie(token string) string
	SetCookie(token, cookie string)
	ClearCookie(token string)
	BeginRecovery(token string) bool
	EndRecovery(token string, ok bool)
}

type Client struct {
	baseURL     string
	hc          *http.Client
	header      http.Header
	query       url.Values
	token       string
	interceptor Interceptor
	sessions    SessionStore
	observer    func(Exchange)
	log         *zap.Logger
	maxBody     int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }
func WithSessions(s SessionStore) Option    { return func(c *Client) { c.sessions = s } }
func WithObserver(fn func(Exchange)) Option { return func(c *Client) { c.observer = fn } }
func WithLogger(l *zap.Logger) Option       { return func(c *Client) { c.log = l } }
func WithInterceptor(i Interceptor) Option  { return func(c *Client) { c.interceptor = i } }

// WithMaxBody caps how many response bytes are read; larger replies fail
// with ErrUpstream.
func WithMaxBody(n int64) Option { return func(c *Client) { c.maxBody = n } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: 60 * time.Second},
		header:  http.Header{},
		query:   url.Values{},
		log:     zap.NewNop(),
		maxBody: maxBodyBytes,
	}
	c.SetBaseURL(baseURL)
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetBaseURL stores the base URL with exactly one trailing slash.
func (c *Client) SetBaseURL(u string) {
	if u == "" {
		c.baseURL = ""
		return
	}
	c.baseURL = strings.TrimRight(u, "/") + "/"
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) clone() *Client {
	cp := *c
	cp.header = c.header.Clone()
	cp.query = url.Values{}
	for k, v := range c.query {
		cp.query[k] = append([]string(nil), v...)
	}
	return &cp
}

// WithToken returns a copy that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := c.clone()
	cp.token = token
	if token == "" {
		cp.header.Del(AuthHeader)
	} else {
		cp.header.Set(AuthHeader, "Bearer "+token)
	}
	return cp
}

// WithLanguage returns a copy that adds ?language= to every call.
func (c *Client) WithLanguage(lang string) *Client {
	cp := c.clone()
	if lang == "" {
		cp.query.Del("language")
	} else {
		cp.query.Set("language", lang)
	}
	return cp
}

func (c *Client) WithHeaders(h map[string]string) *Client {
	cp := c.clone()
	for k, v := range h {
		if v != "" {
			cp.header.Set(k, v)
		}
	}
	return cp
}

// ForSession is WithToken + WithLanguage + user context headers.
func (c *Client) ForSession(s domain.Session) *Client {
	cp := c.WithToken(s.Token).WithLanguage(s.Language)
	if s.User != nil {
		cp = cp.WithHeaders(s.User.Headers())
	}
	return cp
}

func (c *Client) Token() string { return c.token }

// WithCookie returns a copy that sends cookie on every call, on top of the
// one kept in the session store.
func (c *Client) WithCookie(cookie string) *Client {
	cp := c.clone()
	if cookie == "" {
		cp.header.Del("Cookie")
	} else {
		cp.header.Set("Cookie", cookie)
	}
	return cp
}

// Ping reports whether the ERP answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodHead, "", nil, "", requestOpts{header: http.Header{}, query: url.Values{}})
	return err
}

type RequestOption func(*requestOpts)

type requestOpts struct {
	contentType string
	header      http.Header
	query       url.Values
}

func ContentType(ct string) RequestOption { return func(o *requestOpts) { o.contentType = ct } }

func Header(k, v string) RequestOption {
	return func(o *requestOpts) { o.header.Set(k, v) }
}

func Query(q url.Values) RequestOption {
	return func(o *requestOpts) {
		for k, vs := range q {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// Response is a fully read upstream response. Data holds the body when it
// is JSON.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Data   json.RawMessage
}

func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

func (r *Response) IsJSON() bool { return r.Data != nil }

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r.Data == nil {
		return fmt.Errorf("%w: response is not JSON", domain.ErrUpstream)
	}
	return json.Unmarshal(r.Data, v)
}

// Err returns a *StatusError for non-2xx responses.
func (r *Response) Err(what string) error {
	if r.OK() {
		return nil
	}
	return &StatusError{Status: r.Status, Op: what, Body: truncate(string(r.Body), 512)}
}

type StatusError struct {
	Status int
	Op     string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("erp %s failed: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauth
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return domain.ErrUpstream
	}
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts...)
}

// Request sends body to path. Non-2xx statuses are not errors; callers
// inspect Response.OK. A 401 triggers one session recovery and one retry.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	ro := requestOpts{header: http.Header{}, query: url.Values{}}
	for _, o := range opts {
		o(&ro)
	}
	payload, ct, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", domain.ErrBadParams, err)
	}
	if ro.contentType != "" {
		ct = ro.contentType
	}

	resp, err := c.send(ctx, method, path, payload, ct, ro)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusUnauthorized && c.token != "" && c.sessions != nil {
		if next, ok := c.recoverSession(ctx); ok {
			return next.send(ctx, method, path, payload, ct, ro)
		}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, ct string, ro requestOpts) (*Response, error) {
	dest, err := c.resolve(path, ro.query)
	if err != nil {
		return nil, err
	}

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, dest, rdr)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrBadParams, err)
	}
	for k, vs := range c.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	for k, vs := range ro.header {
		req.Header[k] = append([]string(nil), vs...)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", jsonContentType)
	}
	if payload != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", ct)
	}
	if c.sessions != nil && c.token != "" {
		if cookie := c.sessions.Cookie(c.token); cookie != "" {
			req.Header.Set("Cookie", mergeCookies(req.Header.Get("Cookie"), cookie))
		}
	}

	start := time.Now()
	hr, err := c.hc.Do(req)
	if err != nil {
		c.observe(Exchange{Method: method, URL: dest, Duration: time.Since(start), RequestBody: payload, Err: err})
		c.log.Warn("erp request failed", zap.String("method", method), zap.String("url", dest), zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, method, path, err)
	}
	defer hr.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(hr.Body, c.maxBody+1))
	if err == nil && int64(len(raw)) > c.maxBody {
		err = fmt.Errorf("response exceeds %d bytes", c.maxBody)
	}
	if err != nil {
		c.observe(Exchange{Method: method, URL: dest, Status: hr.StatusCode, Duration: time.Since(start), RequestBody: payload, Err: err})
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstream, err)
	}

	resp := &Response{Status: hr.StatusCode, Header: hr.Header, Body: raw}
	if isJSON(hr.Header.Get("Content-Type")) && json.Valid(raw) {
		resp.Data = raw
	}
	c.captureSession(hr)

	if c.interceptor != nil {
		if resp, err = c.interceptor(resp); err != nil {
			c.observe(Exchange{Method: method, URL: dest, Status: hr.StatusCode, Duration: time.Since(start), RequestBody: payload, Err: err})
			return nil, err
		}
	}
	c.observe(Exchange{Method: method, URL: dest, Status: resp.Status, Duration: time.Since(start), RequestBody: payload, ResponseBody: raw})
	c.log.Debug("erp request", zap.String("method", method), zap.String("url", dest),
		zap.Int("status", resp.Status), zap.Duration("took", time.Since(start)))
	return resp, nil
}

// resolve joins path to the base URL. Paths under api/ belong to the
// origin, not to the ERP context path.
func (c *Client) resolve(path string, extra url.Values) (string, error) {
	path = strings.TrimPrefix(path, "/")
	raw := c.baseURL + path
	if strings.HasPrefix(path, "api/") {
		base, err := url.Parse(c.baseURL)
		if err != nil {
			return "", fmt.Errorf("%w: url: %v", domain.ErrBadParams, err)
		}
		raw = base.Scheme + "://" + base.Host + "/" + path
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: url: %v", domain.ErrBadParams, err)
	}
	q := u.Query()
	for k, vs := range c.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) observe(e Exchange) {
	if c.observer != nil {
		c.observer(e)
	}
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, jsonContentType, nil
	case json.RawMessage:
		return b, jsonContentType, nil
	case string:
		return []byte(b), formContentType, nil
	case url.Values:
		return []byte(b.Encode()), formContentType, nil
	case io.Reader:
		raw, err := io.ReadAll(io.LimitReader(b, maxBodyBytes))
		return raw, "application/octet-stream", err
	default:
		raw, err := json.Marshal(b)
		return raw, jsonContentType, err
	}
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(ct, jsonContentType)
	}
	return mt == jsonContentType || strings.HasSuffix(mt, "+json")
}

func mergeCookies(existing, add string) string {
	if existing == "" {
		return add
	}
	return existing + "; " + add
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsStatus reports whether err is a *StatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
