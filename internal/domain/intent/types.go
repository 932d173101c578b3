// Package intent classifies natural-language queries into routing intents
// and extracts typed entities. Classification is pure and never fails: an
// unrecognized query yields the generic fallback intent, not an error.
package intent

// GenericIntent is the fallback intent name for unrecognized queries.
const GenericIntent = "general_query"

// GenericConfidence is the confidence assigned to the fallback intent.
const GenericConfidence = 0.3

// Intent is the classified purpose of an incoming request.
// Created per request and discarded after routing.
type Intent struct {
	// Name is the intent label (open enumeration, e.g. "weather_query").
	Name string
	// Confidence is the classifier's confidence in [0,1].
	Confidence float64
	// MatchedEvidence names the rule or keyword that produced the match.
	MatchedEvidence string
}

// IsGeneric reports whether this is the fallback intent.
func (i Intent) IsGeneric() bool {
	return i.Name == GenericIntent
}

// EntitySet maps entity kinds (e.g. "location", "cryptoSymbol") to the
// extracted string value. Kinds are extracted independently; a query can
// carry several kinds at once.
type EntitySet map[string]string
