package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/markupx/backend/src/models"
	"github.com/username/markupx/backend/src/parsers/mt5"
)

type stubRateService struct {
	table models.RateTable
}

func (s stubRateService) Resolve(ctx context.Context) models.RateTable {
	return s.table
}

type stubMarketService struct {
	prices map[string]float64
	calls  []string
}

func (s *stubMarketService) LastClose(ctx context.Context, ticker string) (float64, error) {
	s.calls = append(s.calls, ticker)
	if price, ok := s.prices[ticker]; ok {
		return price, nil
	}
	return 0, fmt.Errorf("no quote for %s", ticker)
}

func liveRates() models.RateTable {
	return models.RateTable{
		Source: "live:test",
		Rates: map[string]float64{
			"USD": 1.0,
			"EUR": 1.08,
			"GBP": 1.26,
			"JPY": 0.0068,
		},
	}
}

func specSheet() string {
	return strings.Join([]string{
		"Symbol Name,Digits,Profit Currency,Contract Size,Current Price",
		"EURUSD,5,USD,100000,",
		"XAUUSD,2,USD,100,2000",
		"NAS100,1,USD,20,",
		"US500,1,USD,50,",
	}, "\n")
}

func newTestReportService(market MarketDataService) ReportService {
	return NewReportService(mt5.NewParser(), stubRateService{table: liveRates()}, market, 4)
}

func TestBuildReportPreservesSheetOrder(t *testing.T) {
	svc := newTestReportService(&stubMarketService{})

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader(specSheet()),
		Settings: models.DefaultSettings(),
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 4)

	var symbols []string
	for _, row := range report.Rows {
		symbols = append(symbols, row.SymbolName)
	}
	assert.Equal(t, []string{"EURUSD", "XAUUSD", "NAS100", "US500"}, symbols)
	assert.Equal(t, "live:test", report.RateSource)
}

func TestBuildReportComputesTotals(t *testing.T) {
	svc := newTestReportService(nil)

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader(specSheet()),
		Settings: models.DefaultSettings(),
	})
	require.NoError(t, err)

	var wantMarkup, wantLP, wantIB, wantBrokerage float64
	for _, row := range report.Rows {
		wantMarkup += row.Cost.MarkupUSD
		wantLP += row.Cost.LPCommissionUSD
		wantIB += row.Cost.IBCommissionUSD
		wantBrokerage += row.Cost.BrokerageUSD
	}
	assert.InDelta(t, wantMarkup, report.Totals.MarkupUSD, 1e-9)
	assert.InDelta(t, wantLP, report.Totals.LPCommissionUSD, 1e-9)
	assert.InDelta(t, wantIB, report.Totals.IBCommissionUSD, 1e-9)
	assert.InDelta(t, wantBrokerage, report.Totals.BrokerageUSD, 1e-9)

	// EURUSD and XAUUSD each earn markup 20 (point value 1), NAS100 40 (point
	// value 2), US500 100 (point value 5). The index rows have no price, so
	// only the FX and gold rows contribute LP commission.
	assert.InDelta(t, 180.0, report.Totals.MarkupUSD, 1e-9)
	assert.InDelta(t, 4.312, report.Totals.LPCommissionUSD, 1e-9)
}

func TestBuildReportSummarizesMissingPrices(t *testing.T) {
	svc := newTestReportService(nil)

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader(specSheet()),
		Settings: models.DefaultSettings(),
	})
	require.NoError(t, err)

	var summary string
	for _, w := range report.Warnings {
		if strings.Contains(w, "missing price") {
			summary = w
		}
	}
	require.NotEmpty(t, summary, "expected a missing-price summary, got %v", report.Warnings)
	assert.Contains(t, summary, "NAS100")
	assert.Contains(t, summary, "US500")
	assert.NotContains(t, summary, "EURUSD", "FX rows need no price")
	assert.NotContains(t, summary, "XAUUSD", "priced rows are not missing")
}

func TestBuildReportUsesMarketFeedForMappedNonFX(t *testing.T) {
	market := &stubMarketService{prices: map[string]float64{"^ndx": 18000}}
	svc := newTestReportService(market)

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile:      strings.NewReader(specSheet()),
		Settings:      models.DefaultSettings(),
		UseLivePrices: true,
	})
	require.NoError(t, err)

	nas := report.Rows[2]
	require.NotNil(t, nas.Price)
	assert.Equal(t, 18000.0, *nas.Price)
	assert.Equal(t, models.PriceSourceMarketPrefix+"^ndx", nas.PriceSource)

	// US500 maps to ^spx, which the stub cannot quote: the row stays unpriced.
	assert.Nil(t, report.Rows[3].Price)
	assert.Contains(t, market.calls, "^spx")
}

func TestBuildReportSkipsMarketFeedWhenDisabled(t *testing.T) {
	market := &stubMarketService{prices: map[string]float64{"^ndx": 18000}}
	svc := newTestReportService(market)

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile:      strings.NewReader(specSheet()),
		Settings:      models.DefaultSettings(),
		UseLivePrices: false,
	})
	require.NoError(t, err)

	assert.Nil(t, report.Rows[2].Price)
	assert.Empty(t, market.calls)
}

func TestBuildReportFXNeedsExplicitMappingForFeed(t *testing.T) {
	market := &stubMarketService{prices: map[string]float64{"eurusd": 1.1, "^ndx": 18000}}
	svc := newTestReportService(market)

	// Without a user mapping, FX rows never hit the feed.
	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile:      strings.NewReader(specSheet()),
		Settings:      models.DefaultSettings(),
		UseLivePrices: true,
	})
	require.NoError(t, err)
	assert.Nil(t, report.Rows[0].Price)
	assert.NotContains(t, market.calls, "eurusd")

	// An explicit mapping opts the FX row in.
	market.calls = nil
	report, err = svc.BuildReport(context.Background(), ReportInput{
		SpecFile:      strings.NewReader(specSheet()),
		Settings:      models.DefaultSettings(),
		Mapping:       map[string]string{"EURUSD": "eurusd"},
		UseLivePrices: true,
	})
	require.NoError(t, err)
	require.NotNil(t, report.Rows[0].Price)
	assert.Equal(t, 1.1, *report.Rows[0].Price)
}

func TestBuildReportPricePriority(t *testing.T) {
	market := &stubMarketService{prices: map[string]float64{"^ndx": 18000}}
	svc := newTestReportService(market)

	quotesCSV := "Symbol,Last\nNAS100,17500\nXAUUSD,1990\n"
	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile:      strings.NewReader(specSheet()),
		QuotesFile:    strings.NewReader(quotesCSV),
		Settings:      models.DefaultSettings(),
		ManualPrices:  map[string]float64{"NAS100": 17000},
		UseLivePrices: true,
	})
	require.NoError(t, err)

	// Manual beats upload beats market beats sheet.
	assert.Equal(t, 17000.0, *report.Rows[2].Price)
	assert.Equal(t, models.PriceSourceManual, report.Rows[2].PriceSource)
	assert.Equal(t, 1990.0, *report.Rows[1].Price)
	assert.Equal(t, models.PriceSourceUpload, report.Rows[1].PriceSource)
}

func TestBuildReportBrokenQuoteTableIsNonFatal(t *testing.T) {
	svc := newTestReportService(nil)

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile:   strings.NewReader(specSheet()),
		QuotesFile: strings.NewReader("Bid,Ask\n1,2\n"),
		Settings:   models.DefaultSettings(),
	})
	require.NoError(t, err)

	var found bool
	for _, w := range report.Warnings {
		if strings.Contains(w, "quote table ignored") {
			found = true
		}
	}
	assert.True(t, found, "expected a quote-table warning, got %v", report.Warnings)
	// The priced sheet column still applies.
	require.NotNil(t, report.Rows[1].Price)
	assert.Equal(t, 2000.0, *report.Rows[1].Price)
}

func TestBuildReportDegradedRatesWarn(t *testing.T) {
	svc := NewReportService(mt5.NewParser(), stubRateService{table: models.FallbackRates()}, nil, 4)

	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader(specSheet()),
		Settings: models.DefaultSettings(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.RateSourceFallback, report.RateSource)
	var found bool
	for _, w := range report.Warnings {
		if strings.Contains(w, "fallback rates") {
			found = true
		}
	}
	assert.True(t, found, "expected a degraded-rates warning, got %v", report.Warnings)
}

func TestBuildReportRejectsInvalidSettings(t *testing.T) {
	svc := newTestReportService(nil)

	settings := models.DefaultSettings()
	settings.Lots = 0
	_, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader(specSheet()),
		Settings: settings,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestBuildReportRejectsBrokenSheet(t *testing.T) {
	svc := newTestReportService(nil)

	_, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader("Symbol Name,Digits\nEURUSD,5\n"),
		Settings: models.DefaultSettings(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestWriteCSV(t *testing.T) {
	svc := newTestReportService(nil)

	sheet := "Symbol Name,Digits,Profit Currency,Contract Size,Current Price\n" +
		"=EVIL(),2,USD,100,2000\n" +
		"EURUSD,5,USD,100000,\n"
	report, err := svc.BuildReport(context.Background(), ReportInput{
		SpecFile: strings.NewReader(sheet),
		Settings: models.DefaultSettings(),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(&buf, report))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.ReportColumns, records[0])
	for _, record := range records[1:] {
		assert.Len(t, record, len(models.ReportColumns))
	}
	assert.True(t, strings.HasPrefix(records[1][0], "'"),
		"formula-looking symbol must be escaped, got %q", records[1][0])
	assert.Equal(t, "EURUSD", records[2][0])
	assert.Equal(t, "true", records[2][2], "IsFX column")
}
