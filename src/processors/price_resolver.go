package processors

import (
	"math"

	"github.com/username/markupx/backend/src/models"
)

// MarketLookup fetches a live price for an instrument's symbol key. It returns
// the price, the external ticker it was fetched under, and whether a finite
// positive value was obtained. Implementations must swallow their own network
// and parse errors and report them as a miss.
type MarketLookup func(symbolKey string) (price float64, ticker string, ok bool)

// PriceSources bundles the candidate price inputs for one resolution run,
// shared across all rows of a batch.
type PriceSources struct {
	Manual map[string]float64 // per-symbol override prices, highest priority
	Quotes map[string]float64 // uploaded quote table (midpoints), keyed by symbol key
	Market MarketLookup       // live feed, consulted only where a mapping enables it
}

// ResolvePrice merges the candidate sources for one instrument by strict
// priority: manual override, uploaded quotes, market feed, sheet price column.
// The first source producing a finite positive number wins. If none does, the
// record's Price stays nil; the gap is handled downstream, not here.
func ResolvePrice(spec models.InstrumentSpec, sources PriceSources) models.PriceRecord {
	if p, ok := sources.Manual[spec.SymbolKey]; ok && usable(p) {
		return models.PriceRecord{Price: &p, Source: models.PriceSourceManual}
	}

	if p, ok := sources.Quotes[spec.SymbolKey]; ok && usable(p) {
		return models.PriceRecord{Price: &p, Source: models.PriceSourceUpload}
	}

	if sources.Market != nil {
		if p, ticker, ok := sources.Market(spec.SymbolKey); ok && usable(p) {
			return models.PriceRecord{Price: &p, Source: models.PriceSourceMarketPrefix + ticker}
		}
	}

	if spec.CurrentPrice != nil && usable(*spec.CurrentPrice) {
		p := *spec.CurrentPrice
		return models.PriceRecord{Price: &p, Source: models.PriceSourceFile}
	}

	return models.PriceRecord{}
}

func usable(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
