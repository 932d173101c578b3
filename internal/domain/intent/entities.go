package intent

import (
	"regexp"
	"strings"
)

// Entity kinds produced by ExtractEntities.
const (
	EntityLocation     = "location"
	EntityCryptoSymbol = "cryptoSymbol"
	EntityStockTicker  = "stockTicker"
	EntityCurrencyPair = "currencyPair"
	EntityLanguage     = "language"
	EntityAmount       = "amount"
)

// cryptoSymbols normalizes coin names and aliases to their trading symbol.
var cryptoSymbols = map[string]string{
	"bitcoin": "BTC", "btc": "BTC",
	"ethereum": "ETH", "eth": "ETH",
	"dogecoin": "DOGE", "doge": "DOGE",
	"solana": "SOL", "sol": "SOL",
	"ripple": "XRP", "xrp": "XRP",
	"cardano": "ADA", "ada": "ADA",
	"litecoin": "LTC", "ltc": "LTC",
}

var (
	// locationPattern captures a capitalized place name after a preposition,
	// e.g. "weather in Tokyo" or "forecast for New York".
	locationPattern = regexp.MustCompile(`(?:\bin|\bfor|\bat|\bnear)\s+([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)*)`)

	cryptoPattern = regexp.MustCompile(`(?i)\b(bitcoin|btc|ethereum|eth|dogecoin|doge|solana|sol|ripple|xrp|cardano|ada|litecoin|ltc)\b`)

	// tickerPattern matches a dollar-prefixed symbol ($AAPL) or a bare
	// uppercase token of 2-5 letters.
	tickerDollarPattern = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	tickerBarePattern   = regexp.MustCompile(`\b([A-Z]{2,5})\b`)

	currencyPairPattern = regexp.MustCompile(`(?i)\b(usd|eur|gbp|jpy|cad|aud|chf|cny|inr|brl|mxn|krw)\s*(?:/|to)\s*(usd|eur|gbp|jpy|cad|aud|chf|cny|inr|brl|mxn|krw)\b`)

	languagePattern = regexp.MustCompile(`(?i)\b(?:in|to|into)\s+(spanish|french|german|japanese|chinese|korean|italian|portuguese|english)\b`)

	amountPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
)

// tickerStopwords are uppercase tokens that look like tickers but are not.
var tickerStopwords = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "CAD": {}, "AUD": {}, "CHF": {},
	"BTC": {}, "ETH": {}, "XRP": {}, "ADA": {}, "SOL": {}, "LTC": {}, "DOGE": {},
	"THE": {}, "AND": {}, "FOR": {}, "API": {}, "MCP": {},
}

// ExtractEntities runs every entity extractor over the query independently.
// The first match per kind wins; kinds are not mutually exclusive. Pure;
// never fails; a query with no entities yields an empty set.
func ExtractEntities(query string) EntitySet {
	entities := make(EntitySet)
	q := strings.TrimSpace(query)
	if q == "" {
		return entities
	}

	if m := locationPattern.FindStringSubmatch(q); m != nil {
		entities[EntityLocation] = m[1]
	}

	if m := cryptoPattern.FindStringSubmatch(q); m != nil {
		if sym, ok := cryptoSymbols[strings.ToLower(m[1])]; ok {
			entities[EntityCryptoSymbol] = sym
		}
	}

	if m := tickerDollarPattern.FindStringSubmatch(q); m != nil {
		entities[EntityStockTicker] = m[1]
	} else {
		for _, m := range tickerBarePattern.FindAllStringSubmatch(q, -1) {
			if _, stop := tickerStopwords[m[1]]; !stop {
				entities[EntityStockTicker] = m[1]
				break
			}
		}
	}

	if m := currencyPairPattern.FindStringSubmatch(q); m != nil {
		entities[EntityCurrencyPair] = strings.ToUpper(m[1]) + "/" + strings.ToUpper(m[2])
	}

	if m := languagePattern.FindStringSubmatch(q); m != nil {
		entities[EntityLanguage] = strings.ToLower(m[1])
	}

	if m := amountPattern.FindString(q); m != "" {
		entities[EntityAmount] = m
	}

	return entities
}
