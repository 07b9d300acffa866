package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/slidecraft-project/slidecraft/storage"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryGeneric},
		{"cancelled", context.Canceled, CategoryCancelled},
		{"deadline", context.DeadlineExceeded, CategoryCancelled},
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, CategoryInvalidCredential},
		{"forbidden", &openai.APIError{HTTPStatusCode: http.StatusForbidden}, CategoryInvalidCredential},
		{"throttled", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, CategoryRateLimited},
		{"bad gateway", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, CategoryNetwork},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, CategoryGeneric},
		{"wrapped", fmt.Errorf("calling model: %w", &openai.APIError{HTTPStatusCode: 429}), CategoryRateLimited},
		{"plain", errors.New("boom"), CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	attempts := 0
	got, err := WithRetry(func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, time.Millisecond, 4)
	if err != nil {
		t.Fatalf("WithRetry() error: %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Errorf("got %q after %d attempts", got, attempts)
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := WithRetry(func() (string, error) {
		attempts++
		return "", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}
	}, time.Millisecond, 4)
	if err == nil {
		t.Fatal("WithRetry() succeeded, want error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (credential errors are permanent)", attempts)
	}
}

func TestWithRetryHonorsExplicitPermanent(t *testing.T) {
	attempts := 0
	_, err := WithRetry(func() (int, error) {
		attempts++
		return 0, backoff.Permanent(errors.New("malformed payload"))
	}, time.Millisecond, 4)
	if err == nil || attempts != 1 {
		t.Errorf("attempts = %d, err = %v; want single attempt", attempts, err)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	_, err := WithRetry(func() (int, error) {
		attempts++
		return 0, errors.New("always failing")
	}, time.Millisecond, 2)
	if err == nil {
		t.Fatal("WithRetry() succeeded, want error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (initial + 2 retries)", attempts)
	}
}

func TestPricingCost(t *testing.T) {
	p := Pricing{InputPerMTok: 0.30, OutputPerMTok: 2.50}
	if got := p.Cost(1_000_000, 1_000_000); got != 2.80 {
		t.Errorf("Cost() = %v, want 2.80", got)
	}
	if got := p.Cost(0, 0); got != 0 {
		t.Errorf("Cost(0,0) = %v", got)
	}
	// Unknown models price at zero rather than failing.
	if got := PricingFor("some-future-model").Cost(500, 500); got != 0 {
		t.Errorf("unknown model cost = %v", got)
	}
}

func TestGenerationCost(t *testing.T) {
	// Image-edit models bill a flat price per output.
	if got := GenerationCostUSD(GeneratedImage{Model: "dall-e-2"}); got != 0.020 {
		t.Errorf("dall-e-2 image cost = %v, want 0.020", got)
	}
	// Token-billed models price by their counts.
	tokenBilled := GeneratedImage{Model: "gemini-2.0-flash", InputTokens: 1_000_000, OutputTokens: 1_000_000}
	if got := GenerationCostUSD(tokenBilled); got != 0.50 {
		t.Errorf("token-billed cost = %v, want 0.50", got)
	}
}

type capturePublisher struct {
	events []Event
}

func (p *capturePublisher) Publish(e Event) { p.events = append(p.events, e) }

func TestRecordGenerationPricesEachImage(t *testing.T) {
	p := &capturePublisher{}
	RecordGeneration(p, "p1", []GeneratedImage{
		{Model: "dall-e-2", PNG: []byte("a")},
		{Model: "dall-e-2", PNG: []byte("b")},
	})
	if len(p.events) != 2 {
		t.Fatalf("published %d events, want 2", len(p.events))
	}
	for _, e := range p.events {
		if e.Operation != "generate" || e.Model != "dall-e-2" || e.ProjectID != "p1" {
			t.Errorf("event = %+v", e)
		}
		if e.CostUSD != 0.020 {
			t.Errorf("CostUSD = %v, want 0.020", e.CostUSD)
		}
	}
}

func TestResolveRate(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour
	fresh := &Rate{Value: 1.42, AsOf: now.Add(-30 * time.Minute)}
	stale := &Rate{Value: 1.42, AsOf: now.Add(-2 * time.Hour)}

	if got := ResolveRate(fresh, now, ttl, 1.0); got != 1.42 {
		t.Errorf("fresh rate = %v, want 1.42", got)
	}
	if got := ResolveRate(stale, now, ttl, 1.0); got != 1.0 {
		t.Errorf("stale rate = %v, want fallback", got)
	}
	if got := ResolveRate(nil, now, ttl, 1.0); got != 1.0 {
		t.Errorf("nil rate = %v, want fallback", got)
	}
	if got := ResolveRate(&Rate{Value: 0, AsOf: now}, now, ttl, 1.0); got != 1.0 {
		t.Errorf("zero rate = %v, want fallback", got)
	}
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Write(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *memStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok, nil
}

func (s *memStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *memStore) DeleteTree(context.Context, string) error { return nil }

func (s *memStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var paths []string
	for path := range s.objects {
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func TestStorePublisherPersistsEvents(t *testing.T) {
	store := newMemStore()
	publisher := NewStorePublisher(store, "usage")

	RecordAnalysis(publisher, "p1", &Analysis{
		Model:        "gpt-4o",
		InputTokens:  1000,
		OutputTokens: 500,
	})
	publisher.Publish(Event{Timestamp: time.Now(), Model: "gpt-4o", Operation: "generate"})
	publisher.Close()

	if got := store.len(); got != 2 {
		t.Errorf("persisted %d events, want 2", got)
	}
}
