package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/markupx/backend/src/logger"
	"github.com/username/markupx/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestRateService(urls []string) RateService {
	client := &http.Client{Timeout: 5 * time.Second}
	return NewRateService(client, urls, cache.New(time.Minute, time.Minute))
}

func TestResolveInvertsUSDBaseRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.9259259259,"JPY":147.0,"usd":1.0}}`))
	}))
	defer server.Close()

	table := newTestRateService([]string{server.URL}).Resolve(context.Background())

	assert.Equal(t, "live:"+server.URL, table.Source)
	assert.False(t, table.Degraded())

	// 1 USD = 0.9259... EUR  =>  1 EUR = 1.08 USD
	eur, ok := table.Rate("EUR")
	require.True(t, ok)
	assert.InDelta(t, 1.08, eur, 1e-6)

	jpy, ok := table.Rate("JPY")
	require.True(t, ok)
	assert.InDelta(t, 1.0/147.0, jpy, 1e-12)

	usd, ok := table.Rate("USD")
	require.True(t, ok)
	assert.Equal(t, 1.0, usd)
}

func TestResolveAcceptsConversionRatesShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conversion_rates":{"GBP":0.7936507937}}`))
	}))
	defer server.Close()

	table := newTestRateService([]string{server.URL}).Resolve(context.Background())

	gbp, ok := table.Rate("GBP")
	require.True(t, ok)
	assert.InDelta(t, 1.26, gbp, 1e-6)
}

func TestResolveFallsThroughToNextProvider(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{}}`))
	}))
	defer empty.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.5}}`))
	}))
	defer good.Close()

	table := newTestRateService([]string{bad.URL, empty.URL, good.URL}).Resolve(context.Background())

	assert.Equal(t, "live:"+good.URL, table.Source)
	eur, _ := table.Rate("EUR")
	assert.InDelta(t, 2.0, eur, 1e-12)
}

func TestResolveFallbackWhenAllProvidersFail(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	dead.Close() // connection refused from here on

	table := newTestRateService([]string{dead.URL}).Resolve(context.Background())

	assert.True(t, table.Degraded())
	assert.Equal(t, models.RateSourceFallback, table.Source)
	usd, _ := table.Rate("USD")
	assert.Equal(t, 1.0, usd)
	assert.True(t, table.Has("EUR"))
	assert.True(t, table.Has("JPY"))
}

func TestResolveCachesLiveTable(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"rates":{"EUR":0.5}}`))
	}))
	defer server.Close()

	svc := newTestRateService([]string{server.URL})
	svc.Resolve(context.Background())
	svc.Resolve(context.Background())

	assert.Equal(t, 1, calls)
}

func TestResolveDoesNotCacheFallback(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestRateService([]string{server.URL})
	first := svc.Resolve(context.Background())
	second := svc.Resolve(context.Background())

	assert.True(t, first.Degraded())
	assert.True(t, second.Degraded())
	assert.Equal(t, 2, calls, "fallback results must not be cached")
}
