package routing

import (
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute)
	key := Fingerprint(Request{Query: "weather in Tokyo", Intent: "weather_query"})

	value := CachedResult{
		Decision: &Decision{Server: weatherServer("s1", 10), Confidence: 0.9},
		Result:   []byte(`{"ok":true}`),
	}
	c.Put(key, value)

	got, found, age := c.Get(key)
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if age < 0 {
		t.Errorf("age = %v, want >= 0", age)
	}
	if got.Decision.Server.ID != "s1" {
		t.Errorf("Decision.Server.ID = %q, want s1", got.Decision.Server.ID)
	}
	if c.HitCount(key) != 1 {
		t.Errorf("HitCount = %d, want 1", c.HitCount(key))
	}
}

func TestCache_Miss(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute)
	if _, found, _ := c.Get(12345); found {
		t.Error("Get() on empty cache found = true, want false")
	}
}

// An entry older than its TTL is never served; expiry is checked lazily on
// read and the stale entry is not deleted (no background sweeper).
func TestCache_LazyTTLExpiry(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	key := Fingerprint(Request{Query: "bitcoin price", Intent: "cryptocurrency_price_query"})
	c.Put(key, CachedResult{Result: []byte(`1`)})

	// Fresh read within TTL.
	if _, found, _ := c.Get(key); !found {
		t.Fatal("fresh entry not served")
	}

	// Advance past the TTL: entry must be treated as absent but stay stored.
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, found, _ := c.Get(key); found {
		t.Error("expired entry was served")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 (no proactive eviction)", c.Len())
	}

	// Recomputation overwrites the stale entry.
	c.Put(key, CachedResult{Result: []byte(`2`)})
	got, found, _ := c.Get(key)
	if !found || string(got.Result) != "2" {
		t.Errorf("recomputed entry = %q found=%v, want \"2\" true", got.Result, found)
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	t.Parallel()

	a := Fingerprint(Request{
		Query:        "Weather in Tokyo",
		Intent:       "weather_query",
		Capabilities: []string{"forecast", "weather"},
		Category:     "Weather",
	})
	b := Fingerprint(Request{
		Query:        "weather in tokyo  ",
		Intent:       "WEATHER_QUERY",
		Capabilities: []string{"weather", "forecast"},
		Category:     "weather",
	})
	if a != b {
		t.Errorf("fingerprints differ for normalized-equal requests: %d != %d", a, b)
	}
}

func TestFingerprint_DistinguishesFields(t *testing.T) {
	t.Parallel()

	base := Request{Query: "q", Intent: "i", Category: "c"}
	variants := []Request{
		{Query: "q2", Intent: "i", Category: "c"},
		{Query: "q", Intent: "i2", Category: "c"},
		{Query: "q", Intent: "i", Category: "c2"},
		{Query: "q", Intent: "i", Category: "c", Capabilities: []string{"x"}},
	}
	baseKey := Fingerprint(base)
	for i, v := range variants {
		if Fingerprint(v) == baseKey {
			t.Errorf("variant %d collides with base fingerprint", i)
		}
	}
}

func TestCache_ZeroTTLFallsBackToDefault(t *testing.T) {
	t.Parallel()

	c := NewCache(0)
	if c.ttl != DefaultCacheTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultCacheTTL)
	}
}
