package models

import "time"

// CostRecord holds every computed monetary figure for one instrument row.
// All fields are derived fresh on each run; nothing is persisted.
type CostRecord struct {
	PointSize                 float64 `json:"point_size"`
	PointValueProfitCcyPerLot float64 `json:"point_value_profit_ccy_per_lot"`
	PointValueUSDPerLot       float64 `json:"point_value_usd_per_lot"`
	MarkupUSD                 float64 `json:"markup_usd"`
	NotionalUSD               float64 `json:"notional_usd"`
	LPCommissionUSD           float64 `json:"lp_commission_usd"`
	IBCommissionUSD           float64 `json:"ib_commission_usd"`
	BrokerageUSD              float64 `json:"brokerage_usd"`
	BreakevenPoints           float64 `json:"breakeven_points"`
	BreakevenPointsRounded    float64 `json:"breakeven_points_rounded"`
	SuggestedMarkupPoints     float64 `json:"suggested_markup_points"`
}

// ReportRow is one output record: the original spec fields, the derived
// classification and price, the cost figures, and any per-row warnings.
type ReportRow struct {
	SymbolName     string   `json:"symbol_name"`
	ProfitCurrency string   `json:"profit_currency"`
	Digits         int      `json:"digits"`
	ContractSize   float64  `json:"contract_size"`
	IsFX           bool     `json:"is_fx"`
	BaseCurrency   string   `json:"base_currency,omitempty"`
	QuoteCurrency  string   `json:"quote_currency,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	PriceSource    string   `json:"price_source,omitempty"`

	Cost CostRecord `json:"cost"`

	LossFlag           bool `json:"loss_flag"`
	SuggestedLossFlag  bool `json:"suggested_loss_flag"`
	BreakevenUndefined bool `json:"breakeven_undefined"`

	// Lots and markup points actually used for this row (run-wide settings or
	// the row's own overrides).
	EffectiveLots         float64 `json:"effective_lots"`
	EffectiveMarkupPoints float64 `json:"effective_markup_points"`

	Warnings []string `json:"warnings,omitempty"`
}

// ReportTotals sums the monetary columns across all rows.
type ReportTotals struct {
	MarkupUSD       float64 `json:"markup_usd"`
	LPCommissionUSD float64 `json:"lp_commission_usd"`
	IBCommissionUSD float64 `json:"ib_commission_usd"`
	BrokerageUSD    float64 `json:"brokerage_usd"`
}

// Report is the full result of one computation run: rows in original sheet
// order, batch-level warnings, and the source tag of the rate table used.
type Report struct {
	Rows        []ReportRow  `json:"rows"`
	Totals      ReportTotals `json:"totals"`
	Warnings    []string     `json:"warnings,omitempty"`
	RateSource  string       `json:"rate_source"`
	Settings    Settings     `json:"settings"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// ReportColumns is the stable column order of the exported CSV report.
// One row per instrument, one column per field.
var ReportColumns = []string{
	"Symbol Name",
	"Profit Currency",
	"Is_FX",
	"Base",
	"Quote",
	"Digits",
	"Contract Size",
	"Price",
	"Price_Source",
	"PointSize",
	"PointValue_ProfitCcy_perLot",
	"PointValue_USD_perLot",
	"Markup_USD",
	"Notional_USD",
	"LP_Commission_USD",
	"IB_Commission_USD",
	"Brokerage_USD",
	"Breakeven_Points",
	"Suggested_Markup_Points",
	"Loss_Flag",
	"Suggested_Loss_Flag",
	"Warnings",
}
