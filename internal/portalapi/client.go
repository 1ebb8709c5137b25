// Package portalapi is the REST client for the MedVault patient API: doctor
// directory, slot availability, appointments and emergency requests.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/medvault/patient-portal/internal/observability/metrics"
	"github.com/medvault/patient-portal/internal/portal"
	"github.com/medvault/patient-portal/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300
)

var apiTracer = otel.Tracer("medvault.internal.portalapi")

// Client wraps the MedVault patient REST endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.PortalMetrics
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMetrics records per-operation outcomes and latency.
func WithMetrics(m *metrics.PortalMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a MedVault REST client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   string
	body   any
	// notFoundEmpty treats a 404 as an empty successful reply.
	notFoundEmpty bool
}

func (c *Client) do(ctx context.Context, sess portal.Session, req request, out any) error {
	ctx, span := apiTracer.Start(ctx, "portalapi."+req.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.method),
		attribute.String("medvault.op", req.op),
		attribute.Int64("medvault.patient_id", sess.PatientID),
	)

	start := time.Now()
	err := c.doJSON(ctx, sess, req, out)
	outcome := outcomeOf(err)
	c.metrics.ObserveBackend(req.op, outcome, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, sess portal.Session, req request, out any) error {
	endpoint := c.baseURL + req.path

	var bodyReader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", req.op, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if sess.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &portal.NetworkError{Op: req.op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &portal.NetworkError{Op: req.op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusNotFound && req.notFoundEmpty {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.StatusCode, respBody)
		c.logger.Warn("medvault API non-2xx response", "op", req.op, "status", resp.StatusCode, "path", req.path, "message", msg)
		return &portal.ServerError{Op: req.op, Status: resp.StatusCode, Message: msg}
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.op, err)
	}
	return nil
}

// errorMessage extracts the backend's own message so it can be shown verbatim.
func errorMessage(status int, body []byte) string {
	var wrapped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Error != "" {
			return wrapped.Error
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	var se *portal.ServerError
	if errors.As(err, &se) {
		return "server_error"
	}
	var ne *portal.NetworkError
	if errors.As(err, &ne) {
		return "network_error"
	}
	return "client_error"
}
