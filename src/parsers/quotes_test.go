package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuotesMidpoint(t *testing.T) {
	csvData := strings.Join([]string{
		"Symbol,Bid,Ask",
		"XAUUSD,1999.5,2000.5",
		"usoil,75.10,75.30",
	}, "\n")

	quotes, err := ParseQuotes(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.InDelta(t, 2000.0, quotes["XAUUSD"], 1e-9)
	assert.InDelta(t, 75.20, quotes["USOIL"], 1e-9, "symbols are keyed uppercased")
}

func TestParseQuotesLastFallback(t *testing.T) {
	csvData := strings.Join([]string{
		"Symbol,Bid,Ask,Last",
		"XAUUSD,,,2001",
		"NAS100,18000,18002,",
	}, "\n")

	quotes, err := ParseQuotes(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.InDelta(t, 2001.0, quotes["XAUUSD"], 1e-9)
	assert.InDelta(t, 18001.0, quotes["NAS100"], 1e-9, "midpoint wins when both sides present")
}

func TestParseQuotesSkipsUnusableRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Symbol,Last",
		"GOOD,123.4",
		",55",
		"NEGATIVE,-5",
		"NOTNUM,abc",
	}, "\n")

	quotes, err := ParseQuotes(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Contains(t, quotes, "GOOD")
}

func TestParseQuotesMissingColumns(t *testing.T) {
	_, err := ParseQuotes(strings.NewReader("Bid,Ask\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Symbol")

	_, err = ParseQuotes(strings.NewReader("Symbol,Volume\nXAUUSD,10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bid+Ask or Last/Price")
}
