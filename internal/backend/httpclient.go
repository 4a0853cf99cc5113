package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apperrors "uniq/cli/internal/errors"
	"uniq/cli/internal/logging"
)

const tracerName = "uniq/cli/internal/backend"

// HTTP implements API over the REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://k.initqube.com")
	baseURL string
	// client carries the cookie jar; every request includes the session cookie
	client    *http.Client
	userAgent string
	log       *pterm.Logger
	tracer    trace.Tracer
}

var _ API = (*HTTP)(nil)

// newHTTP creates a new HTTP client with the given base URL.
// It configures a 10-second timeout for all requests.
func newHTTP(baseURL string) *HTTP {
	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: "uniq-cli",
		log:       logging.Discard(),
		tracer:    otel.Tracer(tracerName),
	}
}

// BaseURL returns the API root this client talks to.
func (h *HTTP) BaseURL() string { return h.baseURL }

// GetVersion calls GET /api/version and returns the version string when available.
// No authentication required. This can be used to check connectivity to the backend service.
func (h *HTTP) GetVersion(ctx context.Context) (string, error) {
	resp, err := h.do(ctx, http.MethodGet, PathVersion, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if !isSuccess(resp.StatusCode) {
		return "unknown", nil
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := decodeJSON(resp, PathVersion, &out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

// setStandardHeaders applies headers shared by every request.
func (h *HTTP) setStandardHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
}

// do sends a request with an optional JSON body. Transport failures come
// back as network_failure errors; the caller owns resp.Body otherwise.
func (h *HTTP) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	op := method + " " + path
	ctx, span := h.tracer.Start(ctx, "backend "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encode body")
			return nil, fmt.Errorf("encode %s body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, rdr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, apperrors.Wrap(apperrors.NetworkFailure, op, err)
	}
	h.setStandardHeaders(req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		h.log.Debug("backend request failed", h.log.Args("op", op), logging.Err(h.log, err))
		return nil, apperrors.Wrap(apperrors.NetworkFailure, op, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if !isSuccess(resp.StatusCode) {
		span.SetStatus(codes.Error, resp.Status)
	}
	h.log.Debug("backend request", h.log.Args("op", op, "status", resp.StatusCode, "took", time.Since(start).String()))
	return resp, nil
}

// isSuccess mirrors fetch's Response.ok.
func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// decodeJSON decodes a success body into out, tagging failures as parse_error.
func decodeJSON(resp *http.Response, path string, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ParseError, "decode "+path+" response", err)
	}
	return nil
}
