package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/markupx/backend/src/logger"
)

// DefaultTickerMapping is the built-in MT5 symbol -> Stooq ticker table. It is
// merged under any per-request mapping, so user entries win.
var DefaultTickerMapping = map[string]string{
	"NAS100": "^ndx",
	"US100":  "^ndx",
	"SP500":  "^spx",
	"US500":  "^spx",
	"WS30":   "^dji",
	"US30":   "^dji",
	"DJIUSD": "^dji",
	"USOIL":  "cl.f",
	"WTI":    "cl.f",
	"UKOIL":  "brn.f",
	"BRENT":  "brn.f",
	"XAUUSD": "xauusd",
	"XAGUSD": "xagusd",
	"BTCUSD": "btcusd",
	"ETHUSD": "ethusd",
}

// MergeTickerMapping lays user-supplied entries over the default table.
func MergeTickerMapping(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(DefaultTickerMapping)+len(overrides))
	for k, v := range DefaultTickerMapping {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[strings.ToUpper(k)] = v
	}
	return merged
}

type marketServiceImpl struct {
	httpClient *http.Client
	baseURL    string
	priceCache *cache.Cache
}

// NewMarketDataService builds a Stooq-backed MarketDataService. The price
// cache is owned by the caller; its TTL bounds how stale a quote may be
// within one batch of rows.
func NewMarketDataService(httpClient *http.Client, baseURL string, priceCache *cache.Cache) MarketDataService {
	return &marketServiceImpl{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		priceCache: priceCache,
	}
}

// LastClose fetches the last close price for a Stooq ticker from the CSV quote
// endpoint. Results are cached per ticker for the cache's TTL.
func (s *marketServiceImpl) LastClose(ctx context.Context, ticker string) (float64, error) {
	cacheKey := "stooq-" + ticker
	if cached, found := s.priceCache.Get(cacheKey); found {
		return cached.(float64), nil
	}

	reqURL := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", s.baseURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("stooq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("stooq returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read stooq response: %w", err)
	}

	price, err := parseStooqClose(string(body))
	if err != nil {
		return 0, fmt.Errorf("ticker %s: %w", ticker, err)
	}

	s.priceCache.Set(cacheKey, price, cache.DefaultExpiration)
	logger.L.Debug("Stooq price fetched", "ticker", ticker, "price", price)
	return price, nil
}

// parseStooqClose extracts the Close column from a single-row Stooq CSV body.
// Header: Symbol,Date,Time,Open,High,Low,Close,Volume
func parseStooqClose(body string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("quote response has no data row")
	}

	row := strings.Split(strings.TrimSpace(lines[1]), ",")
	if len(row) < 7 {
		return 0, fmt.Errorf("quote row has %d fields, want at least 7", len(row))
	}

	price, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid close value %q", row[6])
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive close value %g", price)
	}
	return price, nil
}
