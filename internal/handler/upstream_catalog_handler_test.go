package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carevia/carevia-api/internal/service"
	"github.com/carevia/carevia-api/internal/upstream"
	appErrors "github.com/carevia/carevia-api/pkg/errors"
)

type fetcherStub struct {
	result *upstream.Result
	err    error
}

func (f *fetcherStub) Get(ctx context.Context, path string, query url.Values) (*upstream.Result, error) {
	return f.result, f.err
}

type fallbackCacheStub struct {
	payload []byte
}

func (f *fallbackCacheStub) Load(ctx context.Context, resource string, dest interface{}) error {
	if f.payload == nil {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(f.payload, dest)
}

func (f *fallbackCacheStub) Store(ctx context.Context, resource string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.payload = raw
	return nil
}

func newUpstreamCatalogHandler(fetcher *fetcherStub, cache *fallbackCacheStub) *UpstreamCatalogHandler {
	svc := service.NewUpstreamCatalogService(fetcher, cache, nil, nil, "/core/catalog", time.Hour, true)
	return NewUpstreamCatalogHandler(svc)
}

func catalogGet(t *testing.T, handler gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	handler(c)
	return w
}

func TestUpstreamCatalogHandlerDegradedReturns200(t *testing.T) {
	handler := newUpstreamCatalogHandler(&fetcherStub{result: &upstream.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"items":[],"total":0}`),
		Degraded:   true,
	}}, &fallbackCacheStub{})

	w := catalogGet(t, handler.Hospitals, "/catalog/hospitals")
	require.Equal(t, http.StatusOK, w.Code, "a degraded catalog read is still a success")

	var envelope struct {
		Items    []json.RawMessage `json:"items"`
		Total    int               `json:"total"`
		Degraded bool              `json:"degraded"`
		Stale    bool              `json:"stale"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Items)
	assert.Zero(t, envelope.Total)
	assert.True(t, envelope.Degraded)
}

func TestUpstreamCatalogHandlerDegradedWithFallbackMarksStale(t *testing.T) {
	cache := &fallbackCacheStub{payload: []byte(`{"items":[{"id":"hosp-1"}],"total":1}`)}
	handler := newUpstreamCatalogHandler(&fetcherStub{result: &upstream.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"items":[],"total":0}`),
		Degraded:   true,
	}}, cache)

	w := catalogGet(t, handler.Hospitals, "/catalog/hospitals")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Served-From-Cache"))
	assert.Contains(t, w.Body.String(), `"hosp-1"`)
	assert.Contains(t, w.Body.String(), `"stale":true`)
}

func TestUpstreamCatalogHandlerHealthyPassthrough(t *testing.T) {
	handler := newUpstreamCatalogHandler(&fetcherStub{result: &upstream.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"items":[{"id":"doc-1"},{"id":"doc-2"}],"total":2}`),
	}}, &fallbackCacheStub{})

	w := catalogGet(t, handler.Doctors, "/catalog/doctors")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Contains(t, w.Body.String(), `"degraded":false`)
}

func TestUpstreamCatalogHandlerHardErrorPropagates(t *testing.T) {
	handler := newUpstreamCatalogHandler(&fetcherStub{err: appErrors.ErrUnauthorized}, &fallbackCacheStub{})

	w := catalogGet(t, handler.Staff, "/catalog/staff")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCircuitHandlerState(t *testing.T) {
	broadcaster := upstream.NewBroadcaster()
	broadcaster.Publish(upstream.State{Open: true, LastError: &upstream.RemoteError{Code: upstream.CodeTimeout}})
	handler := NewCircuitHandler(broadcaster)

	w := catalogGet(t, handler.State, "/upstream/circuit")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"open":true`)
	assert.Contains(t, w.Body.String(), upstream.CodeTimeout)
}

func TestCircuitHandlerStateBeforeFirstCall(t *testing.T) {
	handler := NewCircuitHandler(upstream.NewBroadcaster())

	w := catalogGet(t, handler.State, "/upstream/circuit")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"observed":false`)
}
