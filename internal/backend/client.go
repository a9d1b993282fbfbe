package backend

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

	"github.com/flashmarket/storefront/internal/catalog"
	"github.com/flashmarket/storefront/pkg/config"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
)

const (
	serviceUser     = "user-service"
	serviceProduct  = "product-service"
	serviceWishlist = "wishlist-service"
	serviceOrder    = "order-service"
	servicePayment  = "payment-service"

	headerUserID = "X-User-Id"

	maxErrorBody = 4 << 10
)

// Client talks to the upstream microservices over REST. Every service is
// mounted under the same gateway base URL with its own path prefix.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logg       *logger.Logger
	metrics    *metrics.Storefront
}

var _ catalog.Backend = (*Client)(nil)

// New builds a REST backend from configuration.
func New(cfg config.BackendConfig, logg *logger.Logger, m *metrics.Storefront) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url %q is not absolute", cfg.BaseURL)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logg:       logg,
		metrics:    m,
	}, nil
}

type call struct {
	service string
	method  string
	path    string
	query   url.Values
	body    any
	caller  *catalog.Caller
	bearer  string
	out     any
	text    *string
}

func (c *Client) endpoint(service, path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + service + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, cl call) error {
	var payload io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode upstream request")
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.endpoint(cl.service, cl.path, cl.query), payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	bearer := cl.bearer
	if cl.caller != nil {
		if bearer == "" {
			bearer = cl.caller.AccessToken
		}
		if cl.caller.UserID != "" {
			req.Header.Set(headerUserID, cl.caller.UserID.String())
		}
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveBackend(cl.service, "transport_error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, cl.service+" unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveBackend(cl.service, "status_"+statusClass(resp.StatusCode), time.Since(start))
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upstream := &StatusError{Service: cl.service, Method: cl.method, Path: cl.path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		ctx = c.logg.WithFields(ctx, map[string]any{
			"upstream_service": cl.service,
			"upstream_path":    cl.path,
			"upstream_status":  resp.StatusCode,
		})
		c.logg.Warn(ctx, "backend.call_failed")
		return mapStatus(upstream)
	}
	c.metrics.ObserveBackend(cl.service, "ok", time.Since(start))

	switch {
	case cl.text != nil:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+cl.service+" response")
		}
		*cl.text = decodeText(raw)
	case cl.out != nil:
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgerrors.New(pkgerrors.CodeDependency, cl.service+" returned an empty body")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+cl.service+" response")
		}
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return nil
}

// decodeText accepts the plain-text, JSON-string and {"message": ...} shapes
// the upstream services use for acknowledgement bodies.
func decodeText(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case '{':
		var envelope struct {
			Message string          `json:"message"`
			ID      json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if envelope.Message != "" {
				return envelope.Message
			}
			if len(envelope.ID) > 0 {
				return strings.Trim(string(envelope.ID), `"`)
			}
		}
	}
	return string(trimmed)
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
