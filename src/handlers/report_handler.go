package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/markupx/backend/src/config"
	"github.com/username/markupx/backend/src/logger"
	"github.com/username/markupx/backend/src/models"
	"github.com/username/markupx/backend/src/security/validation"
	"github.com/username/markupx/backend/src/services"
	"github.com/username/markupx/backend/src/utils"
)

// ReportHandler serves the cost-report endpoints. All state lives in the
// request: the handler parses the multipart input, runs the report service,
// and streams the result back.
type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: service}
}

// HandleGenerateReport computes the full cost report and returns it as JSON.
func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	input, cleanup, err := h.buildReportInput(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	report, err := h.reportService.BuildReport(r.Context(), *input)
	if err != nil {
		h.sendBuildError(w, ctxLogger, err)
		return
	}

	utils.SendJSONResponse(w, report, http.StatusOK)
}

// HandleExportCSV computes the same report and returns it as a CSV attachment
// with the documented stable column order.
func (h *ReportHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	input, cleanup, err := h.buildReportInput(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	report, err := h.reportService.BuildReport(r.Context(), *input)
	if err != nil {
		h.sendBuildError(w, ctxLogger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="MarkupX_Report.csv"`)
	if err := h.reportService.WriteCSV(w, report); err != nil {
		ctxLogger.Error("Failed to stream CSV report", "error", err)
	}
}

func (h *ReportHandler) sendBuildError(w http.ResponseWriter, ctxLogger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrParsingFailed), errors.Is(err, services.ErrConfigInvalid):
		ctxLogger.Warn("Report input rejected", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		ctxLogger.Error("Report computation failed", "error", err)
		utils.SendJSONError(w, "failed to build report", http.StatusInternalServerError)
	}
}

// buildReportInput parses the multipart form: the spec sheet, the optional
// quote table, the scalar settings, and the mapping / manual-price blocks.
func (h *ReportHandler) buildReportInput(r *http.Request) (*services.ReportInput, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		return nil, noop, fmt.Errorf("failed to parse upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024))
	}

	specFile, err := openValidatedFile(r, "file")
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() { specFile.Close() }

	input := &services.ReportInput{SpecFile: specFile}

	if quotesFile, err := openValidatedFile(r, "quotes"); err == nil {
		input.QuotesFile = quotesFile
		prev := cleanup
		cleanup = func() { quotesFile.Close(); prev() }
	} else if !errors.Is(err, http.ErrMissingFile) {
		cleanup()
		return nil, noop, err
	}

	settings, err := parseSettingsForm(r)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	input.Settings = settings

	mappingText := r.FormValue("mapping")
	manualText := r.FormValue("manual_prices")
	for field, text := range map[string]string{"mapping": mappingText, "manual_prices": manualText} {
		if err := validation.CheckXSSPatterns(text, field); err != nil {
			cleanup()
			return nil, noop, err
		}
	}

	input.Mapping = parseMappingLines(mappingText)
	input.ManualPrices = parseManualPriceLines(manualText)
	input.UseLivePrices = parseBoolField(r.FormValue("use_live_prices"), true)

	return input, cleanup, nil
}

// openValidatedFile retrieves a multipart file and runs the content checks
// before handing it to a parser.
func openValidatedFile(r *http.Request, field string) (multipart.File, error) {
	file, fileHeader, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to retrieve '%s' from request: %w", field, err)
	}

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		file.Close()
		return nil, fmt.Errorf("file '%s' too large, max %d MB", field, config.Cfg.MaxUploadSizeBytes/(1024*1024))
	}

	if clientType := fileHeader.Header.Get("Content-Type"); clientType != "" {
		if err := validation.ValidateClientContentType(clientType); err != nil {
			file.Close()
			return nil, err
		}
	}

	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		file.Close()
		return nil, fmt.Errorf("file '%s' rejected: %w", field, err)
	}

	return file, nil
}

// parseSettingsForm reads the scalar settings from form values, starting from
// the documented defaults. Range violations fail fast before any computation.
func parseSettingsForm(r *http.Request) (models.Settings, error) {
	s := models.DefaultSettings()

	var err error
	if s.Lots, err = parseFloatField(r, "lots", s.Lots); err != nil {
		return s, err
	}
	if s.MarkupPoints, err = parseFloatField(r, "markup_points", s.MarkupPoints); err != nil {
		return s, err
	}
	if s.LPRatePerMillion, err = parseFloatField(r, "lp_rate_per_million", s.LPRatePerMillion); err != nil {
		return s, err
	}
	if v := r.FormValue("lp_sides"); v != "" {
		sides, convErr := strconv.Atoi(strings.TrimSpace(v))
		if convErr != nil {
			return s, fmt.Errorf("invalid value for lp_sides: %q", v)
		}
		s.LPSides = sides
	}
	if v := r.FormValue("ib_mode"); v != "" {
		s.IBMode = models.IBMode(strings.ToLower(strings.TrimSpace(v)))
	}
	if s.IBFixedPerLot, err = parseFloatField(r, "ib_fixed_per_lot", s.IBFixedPerLot); err != nil {
		return s, err
	}
	if s.IBPoints, err = parseFloatField(r, "ib_points", s.IBPoints); err != nil {
		return s, err
	}
	if s.BreakevenBufferPoints, err = parseFloatField(r, "breakeven_buffer_points", s.BreakevenBufferPoints); err != nil {
		return s, err
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func parseFloatField(r *http.Request, field string, fallback float64) (float64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid value for %s: %q", field, v)
	}
	return f, nil
}

func parseBoolField(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return fallback
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// parseMappingLines reads "MT5_SYMBOL=external_ticker" lines, one per line.
func parseMappingLines(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "=") {
			continue
		}
		k, v, _ := strings.Cut(line, "=")
		k = strings.ToUpper(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if err := validation.ValidateSymbolName(k); err != nil {
			logger.L.Warn("Skipping invalid mapping line", "symbol", k)
			continue
		}
		out[k] = v
	}
	return out
}

// parseManualPriceLines reads "SYMBOL=PRICE" lines; unparseable lines are
// skipped like in the original sidebar input.
func parseManualPriceLines(text string) map[string]float64 {
	out := make(map[string]float64)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "=") {
			continue
		}
		k, v, _ := strings.Cut(line, "=")
		k = strings.ToUpper(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || price <= 0 {
			continue
		}
		out[k] = price
	}
	return out
}
