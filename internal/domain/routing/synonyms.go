package routing

// intentSynonyms maps an intent name to search tokens the expanded strategy
// unions with the caller's capabilities and raw query tokens. Static lookup;
// unknown intents get no expansion.
var intentSynonyms = map[string][]string{
	"cryptocurrency_price_query": {"crypto", "cryptocurrency", "coin", "bitcoin", "price", "market", "exchange"},
	"stock_price_query":          {"stock", "equity", "ticker", "quote", "market", "finance"},
	"currency_conversion":        {"currency", "forex", "exchange", "conversion", "rate"},
	"weather_query":              {"weather", "forecast", "climate", "temperature", "meteorology"},
	"news_query":                 {"news", "headlines", "articles", "press", "media"},
	"translation_query":          {"translate", "translation", "language", "localization"},
	"repository_query":           {"git", "github", "repository", "code", "version control"},
	"web_search":                 {"search", "web", "browse", "lookup", "query"},
}

// synonymsFor returns the expansion tokens for an intent, or nil.
func synonymsFor(intentName string) []string {
	return intentSynonyms[intentName]
}
