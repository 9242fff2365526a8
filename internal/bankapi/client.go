// Package bankapi is the client side of the banking back-office REST API.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 15 * time.Second
	// maxErrorBody bounds how much of an error response is read into RemoteError.
	maxErrorBody = 8 << 10
	tracerName   = "bankdesk/bankapi"
)

// Client calls the banking REST API. The zero value is not usable; use NewClient.
// A Client is safe for concurrent use.
type Client struct {
	// BaseURL includes the /api prefix, e.g. https://bank.example.com/api.
	BaseURL    string
	HTTPClient *http.Client
	// Timeout bounds every call except transfer submissions, which run under the caller's deadline.
	// HTTPClient should carry no Timeout of its own.
	Timeout time.Duration
	// AccessToken, when set, is sent as a bearer token on every call.
	AccessToken string

	tracer trace.Tracer
}

// NewClient returns a client for baseURL whose calls are bounded by timeout (<= 0 uses the default of 15s).
// Transfer is the exception: its deadline comes from ctx only.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Timeout:    timeout,
		tracer:     otel.Tracer(tracerName),
	}
}

// WithToken returns a copy of c that authenticates with the given bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.AccessToken = token
	return &cp
}

// call is one REST call. body is sent as-is with contentType; out, when non-nil, receives the decoded JSON response.
type call struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	header      http.Header
	out         any
	// callerDeadline skips Client.Timeout; ctx alone bounds the call.
	callerDeadline bool
}

func jsonCall(op, method, path string, in, out any) (*call, error) {
	cl := &call{op: op, method: method, path: path, out: out}
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("bankapi: encode %s: %w", op, err)
		}
		cl.body = raw
		cl.contentType = "application/json"
	}
	return cl, nil
}

func formCall(op, path string, form url.Values, out any) *call {
	return &call{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		out:         out,
	}
}

// do runs cl and returns its raw 2xx body. Non-2xx responses become *RemoteError, transport failures *NetworkError.
func (c *Client) do(ctx context.Context, cl *call) ([]byte, error) {
	tracer := c.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "bankapi."+cl.op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
		))
	defer span.End()

	if !cl.callerDeadline && c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.BaseURL+cl.path, body)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("bankapi: %s: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, &NetworkError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := newRemoteError(cl.op, resp.StatusCode, b)
		span.SetStatus(codes.Error, rerr.Message)
		return nil, rerr
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, &NetworkError{Op: cl.op, Err: err}
	}
	if cl.out != nil {
		if err := json.Unmarshal(raw, cl.out); err != nil {
			span.SetStatus(codes.Error, "decode")
			return nil, fmt.Errorf("bankapi: decode %s response: %w", cl.op, err)
		}
	}
	return raw, nil
}

// pathID escapes an opaque identifier for use as a path segment.
func pathID(id string) string {
	return url.PathEscape(id)
}
