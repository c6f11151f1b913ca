package upstream

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

	"go.uber.org/zap"

	appErrors "github.com/carevia/carevia-api/pkg/errors"
	"github.com/carevia/carevia-api/pkg/middleware/requestid"
)

// emptyListPayload is the synthetic success body handed out when a catalog
// read degrades, shaped like a normal collection response.
var emptyListPayload = []byte(`{"items":[],"total":0}`)

// Observer receives call outcomes, typically for metrics.
type Observer interface {
	ObserveCall(method, resource, outcome string, duration time.Duration)
	SetCircuitOpen(open bool)
}

// Config configures the resilient client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ServiceName string
	LoginURL    string
	// DegradableResources are catalog-like resource names whose GET
	// failures resolve to an empty degraded payload instead of an error.
	DegradableResources []string
}

// DefaultDegradableResources mirrors the catalog surface of the core store.
var DefaultDegradableResources = []string{
	"appointments", "hospitals", "doctors", "specialties", "staff", "kpis", "metrics", "charts",
}

// Client wraps every outbound call to the core store. It attaches the held
// credential, normalizes failures into RemoteError, publishes circuit state
// and applies the degrade-instead-of-reject policy for catalog reads.
//
// Each call is attempted exactly once; timeout and circuit-open handling is
// the only mitigation.
type Client struct {
	http        *http.Client
	base        *url.URL
	creds       CredentialStore
	broadcaster *Broadcaster
	observer    Observer
	logger      *zap.Logger
	serviceName string
	loginURL    string
	degradable  []string
}

// Result is the outcome of a successful (possibly degraded) call.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Stale      bool
	Degraded   bool
}

// Decode unmarshals the payload into dest.
func (r *Result) Decode(dest interface{}) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, dest)
}

// NewClient constructs a resilient client.
func NewClient(cfg Config, creds CredentialStore, broadcaster *Broadcaster, observer Observer, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	degradable := cfg.DegradableResources
	if len(degradable) == 0 {
		degradable = DefaultDegradableResources
	}
	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		base:        base,
		creds:       creds,
		broadcaster: broadcaster,
		observer:    observer,
		logger:      logger,
		serviceName: cfg.ServiceName,
		loginURL:    cfg.LoginURL,
		degradable:  degradable,
	}, nil
}

// Get performs a read against the given resource path.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a create against the given resource path.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Result, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Patch performs a partial update against the given resource path.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Result, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

// Delete removes the resource at the given path.
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*Result, error) {
	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		remoteErr := classifyTransport(err, c.serviceName)
		return c.fail(method, path, remoteErr, duration)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		remoteErr := classifyTransport(readErr, c.serviceName)
		return c.fail(method, path, remoteErr, duration)
	}

	// Credential rejection is handled before classification: drop the held
	// token so the next caller is sent back through authentication.
	if resp.StatusCode == http.StatusUnauthorized {
		c.creds.Clear()
		c.observe(method, path, "unauthorized", duration)
		message := "upstream rejected credentials, sign in again"
		if c.loginURL != "" {
			message = fmt.Sprintf("upstream rejected credentials, sign in again at %s", c.loginURL)
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, message)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		remoteErr := classifyResponse(resp, raw, c.serviceName)
		return c.fail(method, path, remoteErr, duration)
	}

	c.recover(method, path, duration)

	// Either staleness channel is sufficient; the re-mark is additive and
	// the payload is handed over untouched.
	stale := resp.Header.Get(HeaderServedFromCache) == "true" || bodyStaleFlag(raw)

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       raw,
		Header:     resp.Header,
		Stale:      stale,
	}, nil
}

// fail publishes the classified failure and either degrades or rejects.
func (c *Client) fail(method, path string, remoteErr *RemoteError, duration time.Duration) (*Result, error) {
	open := remoteErr.IsCircuitOpen || remoteErr.Code == CodeCircuitOpen
	if c.broadcaster != nil {
		c.broadcaster.Publish(State{Open: open, LastError: remoteErr})
	}
	if c.observer != nil {
		c.observer.SetCircuitOpen(open)
	}
	c.observe(method, path, strings.ToLower(remoteErr.Code), duration)

	if method == http.MethodGet && remoteErr.Transient() && c.resourceDegradable(path) {
		c.logger.Warn("degrading catalog read",
			zap.String("path", path),
			zap.String("code", remoteErr.Code),
			zap.Int("status", remoteErr.Status),
		)
		return &Result{
			StatusCode: http.StatusOK,
			Body:       emptyListPayload,
			Stale:      remoteErr.Stale,
			Degraded:   true,
		}, nil
	}

	c.logger.Warn("upstream call failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("code", remoteErr.Code),
		zap.Int("status", remoteErr.Status),
	)
	return nil, remoteErr.ToError()
}

// recover publishes a closed circuit after any successful call.
func (c *Client) recover(method, path string, duration time.Duration) {
	if c.broadcaster != nil {
		c.broadcaster.Publish(State{Open: false})
	}
	if c.observer != nil {
		c.observer.SetCircuitOpen(false)
	}
	c.observe(method, path, "ok", duration)
}

func (c *Client) observe(method, path, outcome string, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveCall(method, resourceName(path), outcome, duration)
	}
}

// resourceDegradable checks the path's segments against the allow-list.
func (c *Client) resourceDegradable(path string) bool {
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		for _, pattern := range c.degradable {
			if pattern != "" && strings.Contains(segment, pattern) {
				return true
			}
		}
	}
	return false
}

// resourceName returns the last meaningful path segment for metric labels.
func resourceName(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return "root"
}

func bodyStaleFlag(raw []byte) bool {
	var probe struct {
		Stale bool `json:"stale"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Stale
}
