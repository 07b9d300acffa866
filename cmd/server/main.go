package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gcs "cloud.google.com/go/storage"
	"github.com/google/generative-ai-go/genai"
	"github.com/ridge/must/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/slidecraft-project/slidecraft/assemble"
	"github.com/slidecraft-project/slidecraft/deck"
	"github.com/slidecraft-project/slidecraft/llm"
	"github.com/slidecraft-project/slidecraft/pkg/env"
	"github.com/slidecraft-project/slidecraft/storage"
)

func main() {
	env.Load()
	ctx := context.Background()

	openaiKey := apiKey(ctx, "OPENAI_API_KEY", "OPENAI_KEY_SECRET_NAME")
	store := newStore(ctx)

	analyzer := newAnalyzer(ctx, openaiKey)
	generator := llm.NewOpenAI(openai.NewClient(openaiKey))
	assembler := must.OK1(assemble.New())
	service := deck.NewService(store)
	pages := &deck.StorePageSource{Store: store, Service: service}

	usage := llm.NewStorePublisher(store, "usage")
	defer usage.Close()

	var rates *llm.CachedRateProvider
	if rateURL := os.Getenv("EXCHANGE_RATE_URL"); rateURL != "" {
		rates = &llm.CachedRateProvider{
			Upstream: &llm.HTTPRateProvider{URL: rateURL},
			TTL:      time.Hour,
			Fallback: env.FloatVariable("EXCHANGE_RATE_FALLBACK", 1.0),
		}
	}

	server := &server{
		store:     store,
		service:   service,
		pages:     pages,
		analyzer:  analyzer,
		assembler: assembler,
		usage:     usage,
		rates:     rates,
		exportDir: env.StringVariable("EXPORT_DIR", "exports"),
		generation: &deck.Generation{
			Generator: generator,
			Pages:     pages,
			Store:     store,
			Service:   service,
			Usage:     usage,
		},
	}

	port := env.IntVariable("HTTP_PORT", 8080)
	log.Printf("SlideCraft server listening on port %d", port)
	must.OK(http.ListenAndServe(fmt.Sprintf(":%d", port), logMiddleware(recoveryMiddleware(server.routes()))))
}

// newAnalyzer picks the analysis provider. OpenAI is the default; set
// MODEL_PROVIDER=gemini to analyze with Gemini instead.
func newAnalyzer(ctx context.Context, openaiKey string) llm.Analyzer {
	if env.StringVariable("MODEL_PROVIDER", "openai") == "gemini" {
		geminiKey := apiKey(ctx, "GEMINI_API_KEY", "GEMINI_KEY_SECRET_NAME")
		return llm.NewGemini(must.OK1(genai.NewClient(ctx, option.WithAPIKey(geminiKey))))
	}
	return llm.NewOpenAI(openai.NewClient(openaiKey))
}

// newStore selects GCS when a bucket is configured, a local directory
// otherwise.
func newStore(ctx context.Context) storage.Store {
	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		return storage.NewGCS(must.OK1(gcs.NewClient(ctx)), bucket)
	}
	return must.OK1(storage.NewLocal(env.StringVariable("STORAGE_DIR", "data")))
}

// apiKey reads the key from the environment, falling back to GCP Secret
// Manager for deployed environments.
func apiKey(ctx context.Context, envName, secretEnvName string) string {
	if key := os.Getenv(envName); key != "" {
		return key
	}
	client := must.OK1(secretmanager.NewClient(ctx))
	defer client.Close()
	secret := must.OK1(client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
			env.RequiredStringVariable("GCP_PROJECT_ID"),
			env.RequiredStringVariable(secretEnvName),
		),
	}))
	return string(secret.Payload.Data)
}
