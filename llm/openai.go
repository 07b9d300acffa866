package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIVisionModel handles slide analysis.
	DefaultOpenAIVisionModel = "gpt-4o"
	// generatedImageSize is the only size the image edit endpoint accepts
	// that is large enough to re-render a slide legibly.
	generatedImageSize = "1024x1024"
	// generatedImageModel is what the edit endpoint runs; it bills per
	// output image, not per token.
	generatedImageModel = "dall-e-2"
)

// OpenAIClient is the slice of the OpenAI SDK this package uses.
type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEditImage(ctx context.Context, request openai.ImageEditRequest) (openai.ImageResponse, error)
}

// OpenAI implements Analyzer and Generator against the OpenAI API.
type OpenAI struct {
	client OpenAIClient
	model  string
}

// NewOpenAI wraps an SDK client.
func NewOpenAI(client OpenAIClient) *OpenAI {
	return &OpenAI{client: client, model: DefaultOpenAIVisionModel}
}

// NewOpenAIWithModel wraps an SDK client with an explicit vision model.
func NewOpenAIWithModel(client OpenAIClient, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

func (o *OpenAI) AnalyzeSlide(ctx context.Context, pngImage []byte, instruction string) (*Analysis, error) {
	userText := "Analyze this slide."
	if instruction != "" {
		userText = instruction
	}

	response, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userText},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngImage),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	return &Analysis{
		RawJSON:      response.Choices[0].Message.Content,
		Model:        o.model,
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}, nil
}

// GenerateVariants edits the slide image per the instruction, returning n
// candidates. The SDK's edit endpoint wants an *os.File, so the image goes
// through a temp file.
func (o *OpenAI) GenerateVariants(ctx context.Context, pngImage []byte, instruction string, n int) ([]GeneratedImage, error) {
	if n < 1 {
		n = 1
	}

	tmp, err := os.CreateTemp("", "slide-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := tmp.Write(pngImage); err != nil {
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind temp image: %w", err)
	}

	response, err := o.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          tmp,
		Prompt:         instruction,
		N:              n,
		Size:           generatedImageSize,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to edit image: %w", err)
	}

	images := make([]GeneratedImage, 0, len(response.Data))
	for _, datum := range response.Data {
		decoded, err := base64.StdEncoding.DecodeString(datum.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode generated image: %w", err)
		}
		images = append(images, GeneratedImage{PNG: decoded, Model: generatedImageModel})
	}
	return images, nil
}
