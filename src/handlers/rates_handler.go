package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/markupx/backend/src/logger"
	"github.com/username/markupx/backend/src/services"
	"github.com/username/markupx/backend/src/utils"
)

// RatesHandler exposes the currently cached currency-to-USD rate table so an
// operator can inspect what the cost figures were computed against.
type RatesHandler struct {
	rateService services.RateService
}

func NewRatesHandler(service services.RateService) *RatesHandler {
	return &RatesHandler{rateService: service}
}

func (h *RatesHandler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	table := h.rateService.Resolve(r.Context())

	currentETag, etagErr := utils.GenerateETag(table)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else if etagErr != nil {
		ctxLogger.Warn("Proceeding without ETag for rate table", "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	utils.SendJSONResponse(w, table, http.StatusOK)
}
