package models

// Price source tags, highest priority first. Market prices carry the external
// ticker they were fetched under, e.g. "market:^ndx".
const (
	PriceSourceManual       = "manual"
	PriceSourceUpload       = "upload"
	PriceSourceMarketPrefix = "market:"
	PriceSourceFile         = "file"
)

// PriceRecord is the resolved per-symbol price. A nil Price means no source
// produced a finite positive value; downstream monetary figures then compute
// to zero and a per-row warning is raised instead of an error.
type PriceRecord struct {
	Price  *float64 `json:"price,omitempty"`
	Source string   `json:"price_source,omitempty"`
}
