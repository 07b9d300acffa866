package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/slidecraft-project/slidecraft/storage"
)

// Event records one billable model call.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	Operation    string    `json:"operation"`
	ProjectID    string    `json:"projectId,omitempty"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CostUSD      float64   `json:"costUsd"`
}

// Publisher accepts usage events. Implementations must never block the
// calling pipeline.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// usageBufferSize bounds pending events. Usage accounting is advisory:
// when the buffer is full the event is dropped with a log line rather
// than stalling an export.
const usageBufferSize = 256

// StorePublisher persists events as JSON objects under a storage prefix,
// one object per event, written by a background goroutine.
type StorePublisher struct {
	store  storage.Store
	prefix string
	events chan Event
	done   chan struct{}
}

// NewStorePublisher starts the background writer.
func NewStorePublisher(store storage.Store, prefix string) *StorePublisher {
	p := &StorePublisher{
		store:  store,
		prefix: prefix,
		events: make(chan Event, usageBufferSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *StorePublisher) Publish(event Event) {
	select {
	case p.events <- event:
	default:
		log.Printf("Usage event buffer full, dropping %s event for model %s", event.Operation, event.Model)
	}
}

// Close drains pending events and stops the writer.
func (p *StorePublisher) Close() {
	close(p.events)
	<-p.done
}

func (p *StorePublisher) run() {
	defer close(p.done)
	for event := range p.events {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to encode usage event: %v", err)
			continue
		}
		path := fmt.Sprintf("%s/%d-%s.json", p.prefix, event.Timestamp.UnixNano(), event.Operation)
		if err := p.store.Write(context.Background(), path, data); err != nil {
			log.Printf("Failed to persist usage event: %v", err)
		}
	}
}

// RecordGeneration publishes one priced event per generated image.
func RecordGeneration(publisher Publisher, projectID string, images []GeneratedImage) {
	if publisher == nil {
		return
	}
	for _, img := range images {
		publisher.Publish(Event{
			Timestamp:    time.Now().UTC(),
			Model:        img.Model,
			Operation:    "generate",
			ProjectID:    projectID,
			InputTokens:  img.InputTokens,
			OutputTokens: img.OutputTokens,
			CostUSD:      GenerationCostUSD(img),
		})
	}
}

// RecordAnalysis publishes a priced event for one analysis call.
func RecordAnalysis(publisher Publisher, projectID string, a *Analysis) {
	if publisher == nil {
		return
	}
	publisher.Publish(Event{
		Timestamp:    time.Now().UTC(),
		Model:        a.Model,
		Operation:    "analyze",
		ProjectID:    projectID,
		InputTokens:  a.InputTokens,
		OutputTokens: a.OutputTokens,
		CostUSD:      CostUSD(a),
	})
}
