package models

// InstrumentSpec is one row of the uploaded MT5 symbol-specification sheet.
// Each parser is responsible for populating the required fields directly from
// the source file; a row missing any of them fails the whole load.
type InstrumentSpec struct {
	SymbolName     string   `json:"symbol_name"`
	SymbolKey      string   `json:"symbol_key"` // uppercased SymbolName, used for price lookups
	ProfitCurrency string   `json:"profit_currency"`
	Digits         int      `json:"digits"`
	ContractSize   float64  `json:"contract_size"`
	CurrentPrice   *float64 `json:"current_price,omitempty"` // optional sheet price column

	// Optional per-row overrides of the run-wide settings.
	LotsOverride         *float64 `json:"lots_override,omitempty"`
	MarkupPointsOverride *float64 `json:"markup_points_override,omitempty"`

	RowNum int `json:"row_num"` // 1-based data row number in the source file
}

// Classification is the derived FX/non-FX decision for one instrument.
// Base and Quote are set only when both parsed codes exist in the rate table.
type Classification struct {
	IsFX          bool   `json:"is_fx"`
	BaseCurrency  string `json:"base_currency,omitempty"`
	QuoteCurrency string `json:"quote_currency,omitempty"`
}
