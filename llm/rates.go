package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Rate is a USD conversion rate for displaying costs in a local currency.
type Rate struct {
	Value float64   `json:"value"`
	AsOf  time.Time `json:"asOf"`
}

// RateProvider fetches the current conversion rate.
type RateProvider interface {
	CurrentRate(ctx context.Context) (Rate, error)
}

// ResolveRate picks the rate to use for display: the cached value while it is
// fresh, the fallback otherwise. Pure so the staleness rule is testable
// without clocks.
func ResolveRate(cached *Rate, now time.Time, ttl time.Duration, fallback float64) float64 {
	if cached == nil || cached.Value <= 0 {
		return fallback
	}
	if now.Sub(cached.AsOf) > ttl {
		return fallback
	}
	return cached.Value
}

// HTTPRateProvider reads {"rate": <number>} from a JSON endpoint.
type HTTPRateProvider struct {
	URL    string
	Client *http.Client
}

func (p *HTTPRateProvider) CurrentRate(ctx context.Context) (Rate, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Rate{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("rate endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("failed to decode rate: %w", err)
	}
	if payload.Rate <= 0 {
		return Rate{}, fmt.Errorf("rate endpoint returned non-positive rate %v", payload.Rate)
	}
	return Rate{Value: payload.Rate, AsOf: time.Now().UTC()}, nil
}

// CachedRateProvider memoizes an upstream provider with a TTL and serves a
// fallback when the upstream is stale and unreachable.
type CachedRateProvider struct {
	Upstream RateProvider
	TTL      time.Duration
	Fallback float64

	mu     sync.Mutex
	cached *Rate
}

// Resolve returns the display rate, refreshing from upstream when the cache
// has expired. Upstream failures fall back silently; cost display must never
// fail an export.
func (p *CachedRateProvider) Resolve(ctx context.Context) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.cached != nil && now.Sub(p.cached.AsOf) <= p.TTL {
		return p.cached.Value
	}

	rate, err := p.Upstream.CurrentRate(ctx)
	if err == nil {
		p.cached = &rate
	}
	return ResolveRate(p.cached, now, p.TTL, p.Fallback)
}
