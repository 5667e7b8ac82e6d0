// Package stockid maps company names to market ticker symbols. The model
// frequently passes Taiwanese company names verbatim; market data endpoints
// want exchange symbols.
package stockid

import "strings"

// Taiwanese listed companies the bot is asked about by name. Numeric TWSE
// codes get the .TW suffix appended by Resolve.
var companySymbols = map[string]string{
	"京鼎":  "3413",
	"文曄":  "3036",
	"群聯":  "8299",
	"台積電": "2330",
	"鴻海":  "2317",
	"聯發科": "2454",
	"智原":  "3035",
	"世芯":  "3661",
	"創意":  "3443",
	"緯創":  "3231",
	"廣達":  "2382",
}

// Resolve turns a company name or raw symbol into the symbol a market data
// endpoint accepts. Known company names map through the table; bare TWSE
// numeric codes gain the .TW suffix; anything else is passed through
// unchanged (already a valid ticker like AAPL or 2330.TW).
func Resolve(query string) string {
	query = strings.TrimSpace(query)
	if symbol, ok := companySymbols[query]; ok {
		return symbol + ".TW"
	}
	if isTWSECode(query) {
		return query + ".TW"
	}
	return query
}

// IsKnownCompany reports whether query is in the company name table.
func IsKnownCompany(query string) bool {
	_, ok := companySymbols[strings.TrimSpace(query)]
	return ok
}

func isTWSECode(s string) bool {
	if len(s) < 4 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
