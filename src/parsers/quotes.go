package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseQuotes reads an optional uploaded quote table (an MT5 Bid/Ask export
// saved as CSV) into a symbol-keyed price map. A row with both Bid and Ask
// yields their midpoint; otherwise a Last/Price column is used. Rows with
// unusable values are skipped, never fatal: the quote table is one of several
// fallback price sources.
func ParseQuotes(file io.Reader) (map[string]float64, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("quotes parser: failed to read CSV header: %w", err)
	}

	symbolIdx, bidIdx, askIdx, lastIdx := -1, -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "symbol", "symbol name":
			symbolIdx = i
		case "bid":
			bidIdx = i
		case "ask":
			askIdx = i
		case "last", "price", "close":
			lastIdx = i
		}
	}
	if symbolIdx < 0 {
		return nil, fmt.Errorf("quotes parser: missing required column: Symbol")
	}
	if bidIdx < 0 && askIdx < 0 && lastIdx < 0 {
		return nil, fmt.Errorf("quotes parser: need Bid+Ask or Last/Price columns")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("quotes parser: failed to read all CSV records: %w", err)
	}

	quotes := make(map[string]float64, len(records))
	for _, record := range records {
		if symbolIdx >= len(record) {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(record[symbolIdx]))
		if symbol == "" {
			continue
		}

		if p, ok := midpoint(record, bidIdx, askIdx); ok {
			quotes[symbol] = p
			continue
		}
		if p, ok := fieldFloat(record, lastIdx); ok {
			quotes[symbol] = p
		}
	}
	return quotes, nil
}

func midpoint(record []string, bidIdx, askIdx int) (float64, bool) {
	bid, bidOK := fieldFloat(record, bidIdx)
	ask, askOK := fieldFloat(record, askIdx)
	if bidOK && askOK {
		return (bid + ask) / 2, true
	}
	return 0, false
}

func fieldFloat(record []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(record) {
		return 0, false
	}
	s := strings.ReplaceAll(strings.TrimSpace(record[idx]), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
