package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// DefaultGeminiModel handles slide analysis on the Gemini provider.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini implements Analyzer against the Google generative AI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini wraps a genai client.
func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client, model: DefaultGeminiModel}
}

// NewGeminiWithModel wraps a genai client with an explicit model.
func NewGeminiWithModel(client *genai.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

func (g *Gemini) AnalyzeSlide(ctx context.Context, pngImage []byte, instruction string) (*Analysis, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(analysisSystemPrompt)},
	}
	// Constrain the output channel to JSON; the extractor still copes with
	// fenced output if the provider ignores this.
	model.ResponseMIMEType = "application/json"

	userText := "Analyze this slide."
	if instruction != "" {
		userText = instruction
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(userText),
		genai.ImageData("png", pngImage),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from model")
	}

	var raw string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw += string(text)
		}
	}
	if raw == "" {
		return nil, errors.New("no text parts in response")
	}

	analysis := &Analysis{RawJSON: raw, Model: g.model}
	if resp.UsageMetadata != nil {
		analysis.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		analysis.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return analysis, nil
}
