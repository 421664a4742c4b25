// Package gateway is the single configured request pipeline to the social
// API. It attaches credentials, performs the exchange and applies the global
// reaction to rejected credentials.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"vibeclient/internal/navigation"
	"vibeclient/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxResponseBytes bounds how much of a response body is read.
const DefaultMaxResponseBytes = 10 * 1024 * 1024

// ErrResponseTooLarge is returned when a body exceeds the configured limit.
var ErrResponseTooLarge = errors.New("response body too large")

// Config is fixed at construction.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Request describes one API call. Body is JSON-encoded when set; Form sends
// multipart/form-data instead. Public requests never carry the credential.
type Request struct {
	Method string
	Path   string
	Route  string // metrics and span label, defaults to Path
	Body   any
	Form   *Multipart
	Public bool
}

// Multipart is a form with text fields and at most one file.
type Multipart struct {
	Fields map[string]string
	File   *FilePart
}

// FilePart is the file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Gateway issues API requests. It is safe for concurrent use.
type Gateway struct {
	baseURL  string
	client   *http.Client
	requestI []RequestInterceptor
	respI    []ResponseInterceptor
	maxBody  int64
	log      *observability.ComponentLogger
}

// Option customizes a Gateway at construction.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying client. Its Timeout is overwritten
// with the configured one.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		clone := *c
		g.client = &clone
	}
}

// WithMaxResponseBytes overrides DefaultMaxResponseBytes.
func WithMaxResponseBytes(n int64) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxBody = n
		}
	}
}

// WithRequestInterceptor appends i after the built-in request interceptors.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(g *Gateway) {
		g.requestI = append(g.requestI, i)
	}
}

// WithResponseInterceptor appends i after the built-in response interceptors.
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(g *Gateway) {
		g.respI = append(g.respI, i)
	}
}

// New builds the gateway. BearerAuth and InvalidateOnUnauthorized are always
// installed first.
func New(cfg Config, session Session, nav navigation.Navigator, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{},
		requestI: []RequestInterceptor{BearerAuth(session)},
		respI:    []ResponseInterceptor{InvalidateOnUnauthorized(session, nav)},
		maxBody:  DefaultMaxResponseBytes,
		log:      observability.NewComponentLogger("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.client.Timeout = cfg.Timeout
	return g
}

// BaseURL returns the configured API address.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Do performs r. Non-2xx answers return both the Response and a
// *ResponseError; failures without a response return a *TransportError. A
// body over the size limit returns the Response without its body and an
// error wrapping ErrResponseTooLarge.
func (g *Gateway) Do(ctx context.Context, r Request) (*Response, error) {
	route := r.Route
	if route == "" {
		route = r.Path
	}

	ctx, span := observability.Tracer.Start(ctx, r.Method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		),
	)
	defer span.End()

	correlationID := observability.ExtractCorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
		ctx = observability.WithCorrelationID(ctx, correlationID)
	}
	if r.Public {
		ctx = withPublic(ctx)
	}

	req, err := g.newRequest(ctx, r)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	for _, intercept := range g.requestI {
		if err := intercept(req); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
	}

	start := time.Now()
	track := observability.TrackRequest(r.Method, route)
	resp, err := g.exchange(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	track(status)
	g.log.Debug(ctx, "api request",
		slog.String("method", r.Method),
		slog.String("route", route),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	for _, intercept := range g.respI {
		err = intercept(req, resp, err)
	}
	if err != nil {
		observability.RecordError(span, err)
	}
	return resp, err
}

// Get is shorthand for a GET without a body.
func (g *Gateway) Get(ctx context.Context, path, route string) (*Response, error) {
	return g.Do(ctx, Request{Method: http.MethodGet, Path: path, Route: route})
}

func (g *Gateway) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	url := g.baseURL + "/" + strings.TrimLeft(r.Path, "/")

	var body io.Reader
	contentType := ""
	switch {
	case r.Form != nil:
		buf, ct, err := encodeMultipart(r.Form)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (g *Gateway) exchange(req *http.Request) (*Response, error) {
	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, g.maxBody+1))
	if err != nil {
		return nil, classifyTransport(err)
	}
	if int64(len(body)) > g.maxBody {
		// The status still reaches the response interceptors.
		resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header}
		return resp, fmt.Errorf("%w: status %d, more than %d bytes", ErrResponseTooLarge, httpResp.StatusCode, g.maxBody)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, newResponseError(httpResp.StatusCode, body)
	}
	return resp, nil
}

func encodeMultipart(form *Multipart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	keys := make([]string, 0, len(form.Fields))
	for k := range form.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, form.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	if f := form.File; f != nil {
		if f.Content == nil {
			return nil, "", errors.New("multipart file has no content")
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header.Set("Content-Type", ct)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
