package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

// Client-side failure codes. A server-supplied code always wins over these.
const (
	CodeCircuitOpen  = "CIRCUIT_OPEN"
	CodeTimeout      = "TIMEOUT"
	CodeRequestError = "REQUEST_ERROR"
)

// Signal headers shared with the core store. Staleness and circuit state
// each travel on two channels (header and body flag); either one counts.
const (
	HeaderServedFromCache = "X-Served-From-Cache"
	HeaderCircuitOpen     = "X-Circuit-Open"
	HeaderCorrelationID   = "X-Correlation-ID"
)

var fallbackMessages = map[string]string{
	CodeCircuitOpen:  "upstream circuit is open, request was shed",
	CodeTimeout:      "request timed out before the upstream answered",
	CodeRequestError: "request to upstream failed",
}

// RemoteError is the normalized descriptor every failed upstream call is
// reduced to, regardless of how the failure manifested.
type RemoteError struct {
	Status        int    `json:"status"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Service       string `json:"service,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Stale         bool   `json:"stale"`
	IsCircuitOpen bool   `json:"is_circuit_open"`
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("upstream %s (status %d): %s", e.Code, e.Status, e.Message)
}

// Transient reports whether the failure is a temporary unavailability that
// catalog reads may absorb.
func (e *RemoteError) Transient() bool {
	return e != nil && (e.IsCircuitOpen || e.Code == CodeCircuitOpen || e.Code == CodeTimeout)
}

// ToError converts the descriptor into the shared tagged error type so
// handlers can surface it through the common envelope.
func (e *RemoteError) ToError() *appErrors.Error {
	kind := appErrors.KindInternal
	switch {
	case e.Transient():
		kind = appErrors.KindTransient
	case e.Status == http.StatusNotFound:
		kind = appErrors.KindNotFound
	case e.Status == http.StatusConflict:
		kind = appErrors.KindConflict
	case e.Status == http.StatusBadRequest:
		kind = appErrors.KindValidation
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		kind = appErrors.KindAuth
	}

	status := e.Status
	if status == 0 {
		status = http.StatusServiceUnavailable
	}
	return &appErrors.Error{Kind: kind, Code: e.Code, Status: status, Message: e.Message, Err: e}
}

// remoteBody is the error/staleness envelope the core store responds with.
type remoteBody struct {
	Stale bool `json:"stale"`
	Error struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		Service       string `json:"service"`
		CorrelationID string `json:"correlation_id"`
		CircuitOpen   bool   `json:"circuit_open"`
	} `json:"error"`
}

// classifyTransport normalizes a failure that produced no HTTP response.
func classifyTransport(err error, service string) *RemoteError {
	code := CodeRequestError
	if isTimeout(err) {
		code = CodeTimeout
	}
	return &RemoteError{
		Status:  0,
		Code:    code,
		Message: fallbackMessages[code],
		Service: service,
	}
}

// classifyResponse normalizes a non-2xx HTTP response. Precedence: a
// server-supplied code always wins for Code; an explicit circuit-open
// signal or a 503 marks the circuit open either way.
func classifyResponse(resp *http.Response, body []byte, service string) *RemoteError {
	var envelope remoteBody
	_ = json.Unmarshal(body, &envelope)

	circuitOpen := resp.StatusCode == http.StatusServiceUnavailable ||
		resp.Header.Get(HeaderCircuitOpen) == "true" ||
		envelope.Error.CircuitOpen

	code := envelope.Error.Code
	if code == "" {
		if circuitOpen {
			code = CodeCircuitOpen
		} else {
			code = CodeRequestError
		}
	}

	message := envelope.Error.Message
	if message == "" {
		if fallback, ok := fallbackMessages[code]; ok {
			message = fallback
		} else {
			message = fallbackMessages[CodeRequestError]
		}
	}

	if envelope.Error.Service != "" {
		service = envelope.Error.Service
	}
	correlationID := envelope.Error.CorrelationID
	if correlationID == "" {
		correlationID = resp.Header.Get(HeaderCorrelationID)
	}

	return &RemoteError{
		Status:        resp.StatusCode,
		Code:          code,
		Message:       message,
		Service:       service,
		CorrelationID: correlationID,
		Stale:         resp.Header.Get(HeaderServedFromCache) == "true" || envelope.Stale,
		IsCircuitOpen: circuitOpen,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
