package processors

import (
	"fmt"
	"math"

	"github.com/username/markupx/backend/src/models"
)

// pointValues is the intermediate output of the unit-conversion stage.
type pointValues struct {
	PointSize          float64
	PointValueProfit   float64 // per lot, in the profit currency
	PointValueUSD      float64 // per lot, in USD
	MarkupUSD          float64
	NotionalUSD        float64
	ProfitRateDefaults bool // profit currency missing from the rate table, 1.0 assumed
}

// computePointAndNotional runs the deterministic unit-conversion chain for one
// row: point size from digits, per-lot point values, markup revenue in USD,
// and notional exposure. Missing inputs zero the dependent figures and append
// a warning; they never abort the row.
func computePointAndNotional(
	spec models.InstrumentSpec,
	cls models.Classification,
	price *float64,
	rates models.RateTable,
	lots, markupPoints float64,
	warnings []string,
) (pointValues, []string) {
	var out pointValues

	// Digits is a real-valued exponent: integer exponentiation would fail for
	// any positive value, so go through math.Pow.
	out.PointSize = math.Pow(10, -float64(spec.Digits))

	contractSize := spec.ContractSize
	if contractSize <= 0 || math.IsNaN(contractSize) || math.IsInf(contractSize, 0) {
		warnings = append(warnings, fmt.Sprintf("invalid contract size %g for %s, monetary figures set to 0", contractSize, spec.SymbolName))
		contractSize = 0
	}

	profitRate, ok := rates.Rate(spec.ProfitCurrency)
	if !ok {
		profitRate = 1.0
		out.ProfitRateDefaults = true
		warnings = append(warnings, fmt.Sprintf("profit currency %s not in rate table for %s, assuming rate 1.0", spec.ProfitCurrency, spec.SymbolName))
	}

	out.PointValueProfit = contractSize * out.PointSize
	out.PointValueUSD = out.PointValueProfit * profitRate
	out.MarkupUSD = out.PointValueProfit * markupPoints * lots * profitRate

	if cls.IsFX {
		baseRate, ok := rates.Rate(cls.BaseCurrency)
		if !ok {
			// Deliberate zero fallback: never silently substitute the profit
			// currency for the base currency.
			warnings = append(warnings, fmt.Sprintf("base currency %s unresolved for %s, notional set to 0", cls.BaseCurrency, spec.SymbolName))
		} else {
			out.NotionalUSD = contractSize * lots * baseRate
		}
	} else {
		if price == nil {
			warnings = append(warnings, fmt.Sprintf("no price resolved for %s, notional and LP commission set to 0", spec.SymbolName))
		} else {
			out.NotionalUSD = *price * contractSize * lots * profitRate
		}
	}

	return out, warnings
}
