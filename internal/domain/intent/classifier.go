package intent

import (
	"math"
	"regexp"
	"strings"
)

// rule is one row of the classification table. Rows are scanned in order;
// the first pattern match wins with the rule's base confidence. When no
// pattern matches anywhere in the table, keywords are scanned in the same
// order; a containment match wins with max(0.6, base-0.2).
type rule struct {
	name           string
	patterns       []*regexp.Regexp
	baseConfidence float64
	keywords       []string
	category       string
}

// rules is the ordered classification table. More specific intents come
// first: the crypto rule must outrank the generic finance rules for queries
// like "bitcoin price".
var rules = []rule{
	{
		name: "cryptocurrency_price_query",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(bitcoin|btc|ethereum|eth|dogecoin|doge|solana|sol|crypto(?:currency)?)\b.*\b(price|rate|value|worth|cost)`),
			regexp.MustCompile(`\b(price|rate|value|worth)\b.*\b(bitcoin|btc|ethereum|eth|dogecoin|doge|solana|sol|crypto(?:currency)?)\b`),
		},
		baseConfidence: 0.95,
		keywords:       []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "dogecoin", "solana"},
		category:       "Finance",
	},
	{
		name: "stock_price_query",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(stock|share|ticker|nasdaq|nyse)\b.*\b(price|quote|value)`),
			regexp.MustCompile(`\b(price|quote)\b.*\b(stock|share|ticker)\b`),
		},
		baseConfidence: 0.9,
		keywords:       []string{"stock", "shares", "ticker", "nasdaq", "nyse", "quote"},
		category:       "Finance",
	},
	{
		name: "currency_conversion",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(convert|exchange)\b.*\b(currency|usd|eur|gbp|jpy|dollar|euro|pound|yen)`),
			regexp.MustCompile(`\b[a-z]{3}\s*(?:/|to)\s*[a-z]{3}\b.*\b(rate|conversion)`),
			regexp.MustCompile(`\bexchange rate\b`),
		},
		baseConfidence: 0.85,
		keywords:       []string{"convert", "exchange rate", "currency"},
		category:       "Finance",
	},
	{
		name: "weather_query",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(weather|forecast|temperature|humidity)\b`),
			regexp.MustCompile(`\b(rain|snow|sunny|cloudy|wind)\b.*\b(today|tomorrow|now|this week)\b`),
		},
		baseConfidence: 0.9,
		keywords:       []string{"weather", "forecast", "temperature", "rain", "sunny"},
		category:       "Weather",
	},
	{
		name: "news_query",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(news|headline|breaking)\b`),
			regexp.MustCompile(`\bwhat(?:'s| is) happening\b`),
		},
		baseConfidence: 0.85,
		keywords:       []string{"news", "headlines", "breaking"},
		category:       "News",
	},
	{
		name: "translation_query",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\btranslate\b`),
			regexp.MustCompile(`\b(in|to)\s+(spanish|french|german|japanese|chinese|korean|italian|portuguese)\b`),
		},
		baseConfidence: 0.85,
		keywords:       []string{"translate", "translation"},
		category:       "Language",
	},
	{
		name: "repository_query",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(github|gitlab|repository|repo|pull request|issue)\b`),
			regexp.MustCompile(`\b(commit|branch|merge)\b.*\b(list|show|find|search)\b`),
		},
		baseConfidence: 0.85,
		keywords:       []string{"github", "repository", "pull request", "commit"},
		category:       "Development",
	},
	{
		name: "web_search",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(search|look up|find|google)\b`),
		},
		baseConfidence: 0.75,
		keywords:       []string{"search", "find", "lookup"},
		category:       "Search",
	},
}

// Classify maps a query to an Intent. Pure; never returns an error.
// The query is lowercased and trimmed before matching. An unrecognized
// query yields the generic fallback intent at GenericConfidence.
func Classify(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Intent{Name: GenericIntent, Confidence: GenericConfidence, MatchedEvidence: "empty"}
	}

	// Pass 1: pattern rules, table order, first match wins.
	for _, r := range rules {
		for i, p := range r.patterns {
			if p.MatchString(q) {
				return Intent{
					Name:            r.name,
					Confidence:      r.baseConfidence,
					MatchedEvidence: r.name + "/pattern-" + string(rune('0'+i)),
				}
			}
		}
	}

	// Pass 2: keyword containment, same table order.
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return Intent{
					Name:            r.name,
					Confidence:      math.Max(0.6, r.baseConfidence-0.2),
					MatchedEvidence: "keyword:" + kw,
				}
			}
		}
	}

	return Intent{Name: GenericIntent, Confidence: GenericConfidence, MatchedEvidence: "fallback"}
}

// DefaultCategory returns the registry category associated with an intent,
// used when the caller did not supply one. Returns "" for unknown intents.
func DefaultCategory(intentName string) string {
	for _, r := range rules {
		if r.name == intentName {
			return r.category
		}
	}
	return ""
}

// Keywords returns the keyword list declared for an intent. The ranker uses
// these as tool-matching patterns. Returns nil for unknown intents.
func Keywords(intentName string) []string {
	for _, r := range rules {
		if r.name == intentName {
			kws := make([]string, len(r.keywords))
			copy(kws, r.keywords)
			return kws
		}
	}
	return nil
}

// SupportedIntents returns the intent names in table order, excluding the
// generic fallback.
func SupportedIntents() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}
