package mt5

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/username/markupx/backend/src/models"
)

// Required columns of an MT5 symbol export, with their accepted header aliases.
// Header names are matched case-sensitively after trimming, like the original
// sheet loader. The alias table is resolved once into column indexes at load
// time; the pipeline never looks fields up by name again.
var (
	requiredColumns = map[string][]string{
		"Symbol Name":     {"Symbol Name", "Symbol"},
		"Digits":          {"Digits"},
		"Profit Currency": {"Profit Currency", "Currency"},
		"Contract Size":   {"Contract Size", "ContractSize"},
	}
	optionalColumns = map[string][]string{
		"Price":         {"Current Price", "Price"},
		"Lots":          {"Lots"},
		"Markup_Points": {"Markup_Points", "Markup_Points_Override"},
	}
)

// Parser reads MT5 symbol-export sheets saved as CSV.
type Parser struct{}

// NewParser creates a new instance of the MT5 sheet parser.
func NewParser() *Parser {
	return &Parser{}
}

// columnIndex maps a logical column name to its position in the header row.
type columnIndex map[string]int

func resolveColumns(header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.TrimSpace(h)] = i
	}

	idx := make(columnIndex)
	var missing []string
	for name, aliases := range requiredColumns {
		found := false
		for _, alias := range aliases {
			if i, ok := byName[alias]; ok {
				idx[name] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("mt5 parser: missing required columns: %s", strings.Join(missing, ", "))
	}

	for name, aliases := range optionalColumns {
		for _, alias := range aliases {
			if i, ok := byName[alias]; ok {
				idx[name] = i
				break
			}
		}
	}
	return idx, nil
}

func normalizeDecimalString(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return cleaned
}

func (idx columnIndex) field(record []string, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

// Parse reads the sheet and converts its rows into InstrumentSpec values.
// A missing required column, or a row whose required field does not parse,
// fails the whole load so partial reports are never produced.
func (p *Parser) Parse(file io.Reader) ([]models.InstrumentSpec, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("mt5 parser: failed to read CSV header: %w", err)
	}

	idx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("mt5 parser: failed to read all CSV records: %w", err)
	}

	var specs []models.InstrumentSpec
	for i, record := range records {
		rowNum := i + 1

		symbol, _ := idx.field(record, "Symbol Name")
		if symbol == "" {
			return nil, fmt.Errorf("mt5 parser: row %d: Symbol Name is empty", rowNum)
		}

		digitsStr, _ := idx.field(record, "Digits")
		digits, err := strconv.Atoi(strings.TrimSpace(digitsStr))
		if err != nil || digits < 0 {
			return nil, fmt.Errorf("mt5 parser: row %d (%s): invalid Digits value %q", rowNum, symbol, digitsStr)
		}

		currency, _ := idx.field(record, "Profit Currency")
		currency = strings.ToUpper(currency)
		if len(currency) != 3 {
			return nil, fmt.Errorf("mt5 parser: row %d (%s): invalid Profit Currency %q", rowNum, symbol, currency)
		}

		contractStr, _ := idx.field(record, "Contract Size")
		contractSize, err := strconv.ParseFloat(normalizeDecimalString(contractStr), 64)
		if err != nil || contractSize <= 0 || math.IsInf(contractSize, 0) {
			return nil, fmt.Errorf("mt5 parser: row %d (%s): invalid Contract Size %q", rowNum, symbol, contractStr)
		}

		spec := models.InstrumentSpec{
			SymbolName:     symbol,
			SymbolKey:      strings.ToUpper(symbol),
			ProfitCurrency: currency,
			Digits:         digits,
			ContractSize:   contractSize,
			RowNum:         rowNum,
		}

		// Optional fields are best-effort; an unparseable optional value is
		// simply absent, never fatal.
		if v, ok := idx.field(record, "Price"); ok && v != "" {
			if price, err := strconv.ParseFloat(normalizeDecimalString(v), 64); err == nil {
				spec.CurrentPrice = &price
			}
		}
		if v, ok := idx.field(record, "Lots"); ok && v != "" {
			if lots, err := strconv.ParseFloat(normalizeDecimalString(v), 64); err == nil && lots > 0 {
				spec.LotsOverride = &lots
			}
		}
		if v, ok := idx.field(record, "Markup_Points"); ok && v != "" {
			if pts, err := strconv.ParseFloat(normalizeDecimalString(v), 64); err == nil && pts >= 0 {
				spec.MarkupPointsOverride = &pts
			}
		}

		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("mt5 parser: sheet contains no instrument rows")
	}
	return specs, nil
}
