package processors

import (
	"regexp"
	"strings"

	"github.com/username/markupx/backend/src/models"
)

var (
	ccyTokenRe   = regexp.MustCompile(`[A-Z]{3}`)
	nonLettersRe = regexp.MustCompile(`[^A-Z]`)
)

// ParseFXPair is a best-effort parse for FX-like symbol strings (EURUSD,
// GBPJPY, EUR/USD.m, ...). It extracts the first two 3-uppercase-letter runs;
// if fewer than two are found it strips non-letters and, when at least six
// letters remain, splits the first six into base and quote. Ambiguous tickers
// of 8+ letters can mis-segment; Classify guards against that by requiring
// both codes to exist in the rate table.
func ParseFXPair(symbol string) (base, quote string, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	parts := ccyTokenRe.FindAllString(s, 2)
	if len(parts) >= 2 {
		return parts[0], parts[1], true
	}

	letters := nonLettersRe.ReplaceAllString(s, "")
	if len(letters) >= 6 {
		return letters[:3], letters[3:6], true
	}
	return "", "", false
}

// Classify decides whether an instrument is an FX pair or a single-currency
// instrument (index/metal/energy/CFD). A symbol is FX only when both parsed
// codes are present as keys in the rate table: XAUUSD parses as XAU/USD but
// XAU is not a currency, so metals fall through to profit-currency valuation.
func Classify(symbol string, rates models.RateTable) models.Classification {
	base, quote, ok := ParseFXPair(symbol)
	if !ok {
		return models.Classification{}
	}
	if !rates.Has(base) || !rates.Has(quote) {
		return models.Classification{}
	}
	return models.Classification{
		IsFX:          true,
		BaseCurrency:  base,
		QuoteCurrency: quote,
	}
}
