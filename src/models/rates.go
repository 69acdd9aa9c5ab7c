package models

// RateSourceFallback tags a rate table built from the built-in constants after
// every configured provider failed.
const RateSourceFallback = "fallback"

// RateTable maps an uppercase 3-letter currency code to its value in USD
// ("1 CCY = X USD"). Source records where the table came from: "live:<url>" for
// a provider fetch, or RateSourceFallback.
type RateTable struct {
	Rates  map[string]float64 `json:"rates"`
	Source string             `json:"source"`
}

// Rate returns the USD value of one unit of the given currency.
func (t RateTable) Rate(currency string) (float64, bool) {
	v, ok := t.Rates[currency]
	return v, ok
}

// Has reports whether the currency exists in the table.
func (t RateTable) Has(currency string) bool {
	_, ok := t.Rates[currency]
	return ok
}

// Degraded reports whether the table came from the built-in fallback set.
func (t RateTable) Degraded() bool {
	return t.Source == RateSourceFallback
}

// FallbackRates is the fixed table used when no rate provider responds.
// Values are approximate majors plus a handful of minors; callers are warned
// whenever this table is in effect.
func FallbackRates() RateTable {
	return RateTable{
		Source: RateSourceFallback,
		Rates: map[string]float64{
			"USD": 1.0,
			"EUR": 1.08,
			"GBP": 1.26,
			"JPY": 0.0068,
			"AUD": 0.66,
			"CAD": 0.74,
			"CHF": 1.11,
			"NZD": 0.61,
			"SGD": 0.74,
			"ZAR": 0.054,
			"HKD": 0.128,
			"NOK": 0.095,
			"SEK": 0.096,
			"PLN": 0.25,
			"TRY": 0.032,
			"MXN": 0.058,
			"CNH": 0.14,
		},
	}
}
