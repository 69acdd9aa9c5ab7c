package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/markupx/backend/src/models"
)

// Define common service errors
var (
	ErrParsingFailed = errors.New("csv parsing failed")
	ErrConfigInvalid = errors.New("settings validation failed")
)

// RateService resolves the currency-to-USD rate table. Resolve never fails:
// when every provider is unreachable it returns the built-in fallback table,
// tagged so callers can surface the degradation.
type RateService interface {
	Resolve(ctx context.Context) models.RateTable
}

// MarketDataService fetches a live last/close price for an external ticker.
type MarketDataService interface {
	LastClose(ctx context.Context, ticker string) (float64, error)
}

// ReportInput bundles everything one computation run consumes.
type ReportInput struct {
	SpecFile   io.Reader // required: MT5 symbol export (CSV)
	QuotesFile io.Reader // optional: uploaded quote table (CSV)

	Settings      models.Settings
	ManualPrices  map[string]float64 // per-symbol overrides, highest priority
	Mapping       map[string]string  // MT5 symbol -> external ticker, merged over defaults
	UseLivePrices bool
}

// ReportService is the core orchestration: parse the sheet, resolve rates and
// prices, run the cost pipeline per row, and assemble the report.
type ReportService interface {
	BuildReport(ctx context.Context, input ReportInput) (*models.Report, error)
	WriteCSV(w io.Writer, report *models.Report) error
}
