package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET /v1/test", "200"))
	ObserveRequest("GET /v1/test", http.StatusOK, 12*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET /v1/test", "200"))
	assert.Equal(t, before+1, after)
}

func TestIncEventProduced(t *testing.T) {
	ok := eventsProduced.WithLabelValues("test-topic", "ok")
	failed := eventsProduced.WithLabelValues("test-topic", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	IncEventProduced("test-topic", nil)
	IncEventProduced("test-topic", errors.New("broker is down"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestGauges(t *testing.T) {
	SetCatalogSize(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(catalogSize))

	before := testutil.ToFloat64(viewsProcessed)
	IncViewsProcessed()
	assert.Equal(t, before+1, testutil.ToFloat64(viewsProcessed))

	before = testutil.ToFloat64(httpThrottled)
	IncThrottled()
	assert.Equal(t, before+1, testutil.ToFloat64(httpThrottled))
}

func TestHandler(t *testing.T) {
	Register()
	SetCatalogSize(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_catalog_products 3")
}
