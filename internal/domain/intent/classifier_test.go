package intent

import (
	"strings"
	"testing"
)

func TestClassify_CryptoPriceQuery(t *testing.T) {
	t.Parallel()

	got := Classify("bitcoin price")
	if got.Name != "cryptocurrency_price_query" {
		t.Errorf("Name = %q, want cryptocurrency_price_query", got.Name)
	}
	if got.Confidence < 0.9 {
		t.Errorf("Confidence = %v, want >= 0.9", got.Confidence)
	}
	if DefaultCategory(got.Name) != "Finance" {
		t.Errorf("DefaultCategory = %q, want Finance", DefaultCategory(got.Name))
	}
}

func TestClassify_WeatherQuery(t *testing.T) {
	t.Parallel()

	got := Classify("weather in Tokyo")
	if got.Name != "weather_query" {
		t.Errorf("Name = %q, want weather_query", got.Name)
	}
}

func TestClassify_TableOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"crypto wins over stock for coin queries", "what is the ETH price", "cryptocurrency_price_query"},
		{"stock quote", "stock price for $AAPL", "stock_price_query"},
		{"currency conversion", "convert 100 USD to EUR", "currency_conversion"},
		{"exchange rate phrasing", "what's the exchange rate today", "currency_conversion"},
		{"forecast", "will it rain tomorrow", "weather_query"},
		{"news", "breaking news about elections", "news_query"},
		{"translation", "translate hello to spanish", "translation_query"},
		{"repository", "list open pull requests", "repository_query"},
		{"search", "search for italian restaurants", "web_search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.query)
			if got.Name != tt.want {
				t.Errorf("Classify(%q).Name = %q, want %q", tt.query, got.Name, tt.want)
			}
		})
	}
}

// TestClassify_EverySupportedIntentReachable checks that each intent in the
// table has at least one fixture query classifying to it at no less than its
// declared base confidence minus 0.01.
func TestClassify_EverySupportedIntentReachable(t *testing.T) {
	t.Parallel()

	fixtures := map[string]string{
		"cryptocurrency_price_query": "bitcoin price",
		"stock_price_query":          "stock price of $TSLA",
		"currency_conversion":        "convert dollars to euro currency",
		"weather_query":              "weather forecast for Paris",
		"news_query":                 "latest news headlines",
		"translation_query":          "translate good morning to french",
		"repository_query":           "show github issues",
		"web_search":                 "search for coffee shops",
	}

	for _, name := range SupportedIntents() {
		q, ok := fixtures[name]
		if !ok {
			t.Fatalf("no fixture query for intent %q", name)
		}
		got := Classify(q)
		if got.Name != name {
			t.Errorf("Classify(%q).Name = %q, want %q", q, got.Name, name)
			continue
		}
		base := baseConfidenceOf(t, name)
		if got.Confidence < base-0.01 {
			t.Errorf("Classify(%q).Confidence = %v, want >= %v", q, got.Confidence, base-0.01)
		}
	}
}

func baseConfidenceOf(t *testing.T, name string) float64 {
	t.Helper()
	for _, r := range rules {
		if r.name == name {
			return r.baseConfidence
		}
	}
	t.Fatalf("unknown intent %q", name)
	return 0
}

// TestClassify_NeverFails feeds degenerate inputs; classification must always
// return a confidence in [0,1] and never the zero Intent.
func TestClassify_NeverFails(t *testing.T) {
	t.Parallel()

	queries := []string{
		"",
		"   ",
		"xyzzy plugh",
		strings.Repeat("a", 10_000),
		"!!!???///\\\\\x00",
		"日本語のクエリ",
	}

	for _, q := range queries {
		got := Classify(q)
		if got.Name == "" {
			t.Errorf("Classify(%q) returned empty intent name", q)
		}
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Errorf("Classify(%q).Confidence = %v, out of [0,1]", q, got.Confidence)
		}
	}
}

func TestClassify_KeywordFallbackConfidence(t *testing.T) {
	t.Parallel()

	// "dogecoin" alone matches no pattern (no price/rate term) but is a
	// crypto keyword, so the keyword path applies max(0.6, 0.95-0.2).
	got := Classify("dogecoin")
	if got.Name != "cryptocurrency_price_query" {
		t.Fatalf("Name = %q, want cryptocurrency_price_query", got.Name)
	}
	if got.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", got.Confidence)
	}
	if !strings.HasPrefix(got.MatchedEvidence, "keyword:") {
		t.Errorf("MatchedEvidence = %q, want keyword:*", got.MatchedEvidence)
	}
}

func TestClassify_GenericFallback(t *testing.T) {
	t.Parallel()

	got := Classify("completely unrelated gibberish zzz")
	if !got.IsGeneric() {
		t.Errorf("Name = %q, want %q", got.Name, GenericIntent)
	}
	if got.Confidence != GenericConfidence {
		t.Errorf("Confidence = %v, want %v", got.Confidence, GenericConfidence)
	}
}
