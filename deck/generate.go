package deck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slidecraft-project/slidecraft/llm"
	"github.com/slidecraft-project/slidecraft/pkg/utils"
	"github.com/slidecraft-project/slidecraft/storage"
)

// ErrEmptyInstruction rejects generation requests before any model call.
var ErrEmptyInstruction = errors.New("instruction must not be empty")

// GenerateParams describes one candidate-generation request.
type GenerateParams struct {
	ProjectID   string
	PageIndex   int
	Instruction string
	// Count is the number of variants to request. Values below 1 request
	// a single variant.
	Count int
}

// Generation runs the candidate pipeline: current page image in, stored
// candidate images and updated deck metadata out.
type Generation struct {
	Generator llm.Generator
	Pages     PageSource
	Store     storage.Store
	Service   *Service
	Usage     llm.Publisher

	// RetryInterval and MaxRetries override the llm defaults when non-zero.
	RetryInterval time.Duration
	MaxRetries    uint64
}

// Generate produces candidate images for one slide and records them. The
// first usable candidate becomes the slide's current image.
func (g *Generation) Generate(ctx context.Context, params GenerateParams) ([]Candidate, error) {
	if params.Instruction == "" {
		return nil, ErrEmptyInstruction
	}
	count := params.Count
	if count < 1 {
		count = 1
	}

	pageImage, err := g.Pages.Page(ctx, params.ProjectID, params.PageIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load page image: %w", err)
	}

	images, err := llm.WithRetry(func() ([]llm.GeneratedImage, error) {
		return g.Generator.GenerateVariants(ctx, pageImage, params.Instruction, count)
	}, g.retryInterval(), g.maxRetries())
	if err != nil {
		return nil, fmt.Errorf("failed to generate candidates: %w", err)
	}
	usable := utils.Filter(images, func(img llm.GeneratedImage) bool {
		return len(img.PNG) > 0
	})
	if len(usable) == 0 {
		return nil, errors.New("generation failed: model returned no usable images")
	}

	record, err := g.Service.LoadRecord(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}
	slide := record.SlideByPage(params.PageIndex)

	now := time.Now().UTC()
	candidates := make([]Candidate, 0, len(usable))
	for _, img := range usable {
		candidate := Candidate{
			ID:        uuid.New().String(),
			Prompt:    params.Instruction,
			Timestamp: now,
		}
		path := CandidatePath(params.ProjectID, slide.ID, candidate.ID)
		if err := g.Store.Write(ctx, path, img.PNG); err != nil {
			return nil, fmt.Errorf("failed to store candidate image: %w", err)
		}
		candidates = append(candidates, candidate)
	}
	slide.GeneratedCandidates = append(slide.GeneratedCandidates, candidates...)
	slide.LastPrompt = params.Instruction
	slide.CurrentGeneratedID = candidates[0].ID
	if err := g.Service.SaveRecord(ctx, params.ProjectID, record); err != nil {
		return nil, err
	}

	llm.RecordGeneration(g.Usage, params.ProjectID, usable)
	return candidates, nil
}

func (g *Generation) retryInterval() time.Duration {
	if g.RetryInterval > 0 {
		return g.RetryInterval
	}
	return llm.DefaultRetryInterval
}

func (g *Generation) maxRetries() uint64 {
	if g.MaxRetries > 0 {
		return g.MaxRetries
	}
	return llm.DefaultMaxRetries
}
