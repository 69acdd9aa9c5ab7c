package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/username/markupx/backend/src/logger"
	"github.com/username/markupx/backend/src/models"
)

const rateCacheKey = "fx-usd-table"

// usdBaseResponse covers both supported provider shapes: one returns "rates",
// the other "conversion_rates". Both mean "1 USD = X currency".
type usdBaseResponse struct {
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

type rateServiceImpl struct {
	httpClient *http.Client
	urls       []string
	rateCache  *cache.Cache
}

// NewRateService builds a RateService over the given USD-base providers. The
// cache is owned by the caller and shared for the configured TTL window, so
// one batch of rows triggers at most one fetch.
func NewRateService(httpClient *http.Client, urls []string, rateCache *cache.Cache) RateService {
	return &rateServiceImpl{
		httpClient: httpClient,
		urls:       urls,
		rateCache:  rateCache,
	}
}

// Resolve returns "1 CCY = X USD" for every currency the first responding
// provider knows, always including USD -> 1.0. Provider errors fall through to
// the next URL; total failure yields the fixed fallback table. Never errors.
func (s *rateServiceImpl) Resolve(ctx context.Context) models.RateTable {
	if cached, found := s.rateCache.Get(rateCacheKey); found {
		return cached.(models.RateTable)
	}

	for _, url := range s.urls {
		table, err := s.fetch(ctx, url)
		if err != nil {
			logger.L.Warn("FX rate provider failed", "url", url, "error", err)
			continue
		}
		s.rateCache.Set(rateCacheKey, table, cache.DefaultExpiration)
		logger.L.Info("FX rates resolved", "url", url, "currencies", len(table.Rates))
		return table
	}

	// The fallback table is deliberately not cached so the next request
	// retries the live providers.
	logger.L.Warn("All FX rate providers failed, using fallback table")
	return models.FallbackRates()
}

func (s *rateServiceImpl) fetch(ctx context.Context, url string) (models.RateTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RateTable{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.RateTable{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return models.RateTable{}, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var data usdBaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return models.RateTable{}, fmt.Errorf("failed to decode provider response: %w", err)
	}

	usdBase := data.Rates
	if len(usdBase) == 0 {
		usdBase = data.ConversionRates
	}
	if len(usdBase) == 0 {
		return models.RateTable{}, fmt.Errorf("provider response contains no rates")
	}

	// Provider gives 1 USD = X CCY; the pipeline wants 1 CCY = 1/X USD.
	rates := make(map[string]float64, len(usdBase)+1)
	for ccy, v := range usdBase {
		if v == 0 {
			continue
		}
		rates[strings.ToUpper(ccy)] = 1.0 / v
	}
	rates["USD"] = 1.0

	return models.RateTable{Rates: rates, Source: "live:" + url}, nil
}
