package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/slidecraft-project/slidecraft/analysis"
	"github.com/slidecraft-project/slidecraft/assemble"
	"github.com/slidecraft-project/slidecraft/extract"
	"github.com/slidecraft-project/slidecraft/llm"
	"github.com/slidecraft-project/slidecraft/pptx"
)

// Stage labels a progress checkpoint within an export.
type Stage string

const (
	StageAnalyzing  Stage = "analyzing"
	StageAssembling Stage = "assembling"
	StageComplete   Stage = "complete"
)

// Progress is one checkpoint reported during an export.
type Progress struct {
	// SlideNumber is 1-based; 0 for deck-wide checkpoints.
	SlideNumber int
	SlideCount  int
	Stage       Stage
}

// ProgressFunc receives checkpoints. It may be called concurrently from
// per-slide workers and must return quickly.
type ProgressFunc func(Progress)

// exportInstruction is the analysis prompt used for reconstruction. The
// schema itself travels in the system prompt; this only sets intent.
const exportInstruction = "Describe this slide completely and precisely so it can be rebuilt as an editable slide."

// Exporter turns project pages into a layered, editable presentation.
// Slides are analyzed concurrently and reassembled in page order.
type Exporter struct {
	Analyzer  llm.Analyzer
	Assembler *assemble.Assembler
	Pages     PageSource
	Usage     llm.Publisher

	// SkipFailedSlides drops slides whose analysis fails instead of
	// aborting the whole deck.
	SkipFailedSlides bool
	Progress         ProgressFunc

	// RetryInterval and MaxRetries override the llm defaults when non-zero.
	RetryInterval time.Duration
	MaxRetries    uint64
}

type slideResult struct {
	index    int
	analysis *analysis.SlideAnalysis
	graphics []*extract.Graphic
	err      error
}

// ExportDeck analyzes every page concurrently, reassembles them in page
// order and writes {deckName}-{date}.pptx under outDir. Unless
// SkipFailedSlides is set, the first failed slide aborts the export and the
// error names its slide number.
func (e *Exporter) ExportDeck(ctx context.Context, projectID, deckName string, pageCount int, outDir string) (string, error) {
	if pageCount < 1 {
		return "", errors.New("deck has no pages")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan slideResult, pageCount)
	for i := 0; i < pageCount; i++ {
		go func(index int) {
			e.report(Progress{SlideNumber: index + 1, SlideCount: pageCount, Stage: StageAnalyzing})
			sa, graphics, err := e.analyzePage(ctx, projectID, index)
			results <- slideResult{index: index, analysis: sa, graphics: graphics, err: err}
		}(i)
	}

	collected := make([]slideResult, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		result := <-results
		if result.err != nil && !e.SkipFailedSlides {
			cancel()
			// Drain remaining workers before returning.
			for j := i + 1; j < pageCount; j++ {
				<-results
			}
			return "", fmt.Errorf("slide %d: %w", result.index+1, result.err)
		}
		collected = append(collected, result)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].index < collected[j].index
	})

	doc := e.newDocument(deckName)
	for _, result := range collected {
		if result.err != nil {
			log.Printf("Skipping slide %d: %v", result.index+1, result.err)
			continue
		}
		e.report(Progress{SlideNumber: result.index + 1, SlideCount: pageCount, Stage: StageAssembling})
		e.Assembler.BuildSlide(doc, result.analysis, result.graphics)
	}
	if len(doc.Slides) == 0 {
		return "", errors.New("no slides could be exported")
	}

	path := filepath.Join(outDir, fmt.Sprintf("%s-%s.pptx", deckName, time.Now().Format("2006-01-02")))
	if err := pptx.Save(doc, path); err != nil {
		return "", fmt.Errorf("failed to write presentation: %w", err)
	}
	e.report(Progress{SlideCount: pageCount, Stage: StageComplete})
	return path, nil
}

// ExportSlide exports a single page as {deckName}_{slideNumber}.pptx.
func (e *Exporter) ExportSlide(ctx context.Context, projectID, deckName string, pageIndex int, outDir string) (string, error) {
	e.report(Progress{SlideNumber: pageIndex + 1, SlideCount: 1, Stage: StageAnalyzing})
	sa, graphics, err := e.analyzePage(ctx, projectID, pageIndex)
	if err != nil {
		return "", fmt.Errorf("slide %d: %w", pageIndex+1, err)
	}

	e.report(Progress{SlideNumber: pageIndex + 1, SlideCount: 1, Stage: StageAssembling})
	doc := e.newDocument(deckName)
	e.Assembler.BuildSlide(doc, sa, graphics)

	path := filepath.Join(outDir, fmt.Sprintf("%s_%d.pptx", deckName, pageIndex+1))
	if err := pptx.Save(doc, path); err != nil {
		return "", fmt.Errorf("failed to write presentation: %w", err)
	}
	e.report(Progress{SlideNumber: pageIndex + 1, SlideCount: 1, Stage: StageComplete})
	return path, nil
}

// Analyze runs the analysis pipeline for one page and returns the validated
// slide description without assembling a document.
func (e *Exporter) Analyze(ctx context.Context, projectID string, pageIndex int) (*analysis.SlideAnalysis, error) {
	sa, _, err := e.analyzePage(ctx, projectID, pageIndex)
	return sa, err
}

// analyzePage runs the model with retries, validates the response and crops
// the graphic regions. A response that parses but violates the schema is
// not retried: the model answered, it just answered badly, and a repeat
// costs tokens for the same outcome.
func (e *Exporter) analyzePage(ctx context.Context, projectID string, pageIndex int) (*analysis.SlideAnalysis, []*extract.Graphic, error) {
	pagePNG, err := e.Pages.Page(ctx, projectID, pageIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load page image: %w", err)
	}

	sa, err := llm.WithRetry(func() (*analysis.SlideAnalysis, error) {
		result, err := e.Analyzer.AnalyzeSlide(ctx, pagePNG, exportInstruction)
		if err != nil {
			return nil, err
		}
		llm.RecordAnalysis(e.Usage, projectID, result)
		parsed, err := analysis.Parse(result.RawJSON)
		if err != nil {
			var schemaErr *analysis.SchemaError
			if errors.As(err, &schemaErr) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return parsed, nil
	}, e.retryInterval(), e.maxRetries())
	if err != nil {
		return nil, nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(pagePNG))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	return sa, extract.AllRegions(img, sa.GraphicRegions), nil
}

func (e *Exporter) newDocument(deckName string) *pptx.Document {
	return &pptx.Document{
		Title:   deckName,
		Creator: "SlideCraft",
		Created: time.Now().UTC(),
	}
}

func (e *Exporter) report(p Progress) {
	if e.Progress != nil {
		e.Progress(p)
	}
}

func (e *Exporter) retryInterval() time.Duration {
	if e.RetryInterval > 0 {
		return e.RetryInterval
	}
	return llm.DefaultRetryInterval
}

func (e *Exporter) maxRetries() uint64 {
	if e.MaxRetries > 0 {
		return e.MaxRetries
	}
	return llm.DefaultMaxRetries
}
