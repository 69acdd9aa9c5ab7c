package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/username/markupx/backend/src/logger"
	"github.com/username/markupx/backend/src/models"
	"github.com/username/markupx/backend/src/parsers"
	"github.com/username/markupx/backend/src/processors"
	"github.com/username/markupx/backend/src/security/validation"
)

type reportServiceImpl struct {
	specParser    parsers.SpecParser
	rateService   RateService
	marketService MarketDataService
	workers       int
}

// NewReportService wires the cost-engine orchestration. workers bounds the
// per-row parallelism; rows are pure functions of their inputs so they run
// concurrently and are reassembled in original sheet order.
func NewReportService(
	specParser parsers.SpecParser,
	rateService RateService,
	marketService MarketDataService,
	workers int,
) ReportService {
	if workers < 1 {
		workers = 1
	}
	return &reportServiceImpl{
		specParser:    specParser,
		rateService:   rateService,
		marketService: marketService,
		workers:       workers,
	}
}

// BuildReport runs the full pipeline: parse the sheet, validate settings,
// resolve rates, resolve prices per symbol, compute every cost row, and
// assemble warnings and totals. Input errors are fatal; data gaps are not.
func (s *reportServiceImpl) BuildReport(ctx context.Context, input ReportInput) (*models.Report, error) {
	if err := input.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	specs, err := s.specParser.Parse(input.SpecFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	for i := range specs {
		specs[i].SymbolName = validation.StripUnprintable(validation.SanitizeText(specs[i].SymbolName))
	}

	var batchWarnings []string

	rates := s.rateService.Resolve(ctx)
	if rates.Degraded() {
		batchWarnings = append(batchWarnings, "FX rate providers unavailable; using built-in fallback rates (verify before trusting USD figures)")
	}

	quotes := map[string]float64{}
	if input.QuotesFile != nil {
		quotes, err = parsers.ParseQuotes(input.QuotesFile)
		if err != nil {
			// A broken quote table degrades one price source; the batch goes on.
			logger.L.Warn("Uploaded quote table unusable", "error", err)
			batchWarnings = append(batchWarnings, fmt.Sprintf("uploaded quote table ignored: %v", err))
			quotes = map[string]float64{}
		}
	}

	mapping := MergeTickerMapping(input.Mapping)
	userMapped := make(map[string]bool, len(input.Mapping))
	for k := range input.Mapping {
		userMapped[strings.ToUpper(k)] = true
	}

	var market processors.MarketLookup
	if input.UseLivePrices && s.marketService != nil {
		market = func(symbolKey string) (float64, string, bool) {
			ticker, ok := mapping[symbolKey]
			if !ok {
				return 0, "", false
			}
			price, err := s.marketService.LastClose(ctx, ticker)
			if err != nil {
				logger.L.Warn("Market price unavailable", "symbol", symbolKey, "ticker", ticker, "error", err)
				return 0, "", false
			}
			return price, ticker, true
		}
	}

	mapper := iter.Mapper[models.InstrumentSpec, models.ReportRow]{MaxGoroutines: s.workers}
	rows := mapper.Map(specs, func(spec *models.InstrumentSpec) models.ReportRow {
		cls := processors.Classify(spec.SymbolName, rates)

		sources := processors.PriceSources{
			Manual: input.ManualPrices,
			Quotes: quotes,
			Market: market,
		}
		// The live feed is consulted for non-FX rows, or for FX rows the user
		// explicitly mapped to an external ticker.
		if cls.IsFX && !userMapped[spec.SymbolKey] {
			sources.Market = nil
		}

		price := processors.ResolvePrice(*spec, sources)
		return processors.ComputeRow(*spec, cls, price, rates, input.Settings)
	})

	report := &models.Report{
		Rows:        rows,
		Warnings:    append(batchWarnings, summarizeMissingPrices(rows)...),
		RateSource:  rates.Source,
		Settings:    input.Settings,
		GeneratedAt: time.Now().UTC(),
	}
	for _, row := range rows {
		report.Totals.MarkupUSD += row.Cost.MarkupUSD
		report.Totals.LPCommissionUSD += row.Cost.LPCommissionUSD
		report.Totals.IBCommissionUSD += row.Cost.IBCommissionUSD
		report.Totals.BrokerageUSD += row.Cost.BrokerageUSD
	}

	logger.L.Info("Report built",
		"rows", len(rows),
		"rateSource", rates.Source,
		"warnings", len(report.Warnings))
	return report, nil
}

// summarizeMissingPrices lists the non-FX symbols that resolved no price, so
// the operator can add mappings or manual prices instead of trusting zeros.
func summarizeMissingPrices(rows []models.ReportRow) []string {
	var missing []string
	for _, row := range rows {
		if !row.IsFX && row.Price == nil {
			missing = append(missing, row.SymbolName)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []string{
		"missing price for non-FX symbols (notional and LP commission are 0): " + strings.Join(missing, ", "),
	}
}

// WriteCSV serializes the report with the documented stable column order.
// Text cells are guarded against spreadsheet formula injection.
func (s *reportServiceImpl) WriteCSV(w io.Writer, report *models.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(models.ReportColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range report.Rows {
		record := []string{
			validation.SanitizeForFormulaInjection(row.SymbolName),
			row.ProfitCurrency,
			strconv.FormatBool(row.IsFX),
			row.BaseCurrency,
			row.QuoteCurrency,
			strconv.Itoa(row.Digits),
			formatFloat(row.ContractSize),
			formatOptFloat(row.Price),
			row.PriceSource,
			formatFloat(row.Cost.PointSize),
			formatFloat(row.Cost.PointValueProfitCcyPerLot),
			formatFloat(row.Cost.PointValueUSDPerLot),
			formatFloat(row.Cost.MarkupUSD),
			formatFloat(row.Cost.NotionalUSD),
			formatFloat(row.Cost.LPCommissionUSD),
			formatFloat(row.Cost.IBCommissionUSD),
			formatFloat(row.Cost.BrokerageUSD),
			formatFloat(row.Cost.BreakevenPoints),
			formatFloat(row.Cost.SuggestedMarkupPoints),
			strconv.FormatBool(row.LossFlag),
			strconv.FormatBool(row.SuggestedLossFlag),
			validation.SanitizeForFormulaInjection(strings.Join(row.Warnings, "; ")),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.SymbolName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
