// Package llm talks to multimodal model providers: slide analysis from page
// images and prompt-driven image generation. Providers are interchangeable
// behind small interfaces; the rest of the pipeline never sees provider SDKs.
package llm

import "context"

// Analysis is the raw result of one slide-analysis call. The JSON payload is
// untrusted model output; callers validate it before use.
type Analysis struct {
	RawJSON      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Analyzer turns a rendered slide image into a structured slide description.
type Analyzer interface {
	AnalyzeSlide(ctx context.Context, pngImage []byte, instruction string) (*Analysis, error)
}

// GeneratedImage is one candidate produced by a generation call, paired
// with what the call billed for it. Image-edit endpoints bill per output
// image; token-billed providers fill the token counts instead.
type GeneratedImage struct {
	PNG          []byte
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator produces edited slide-image candidates from an instruction.
type Generator interface {
	GenerateVariants(ctx context.Context, pngImage []byte, instruction string, n int) ([]GeneratedImage, error)
}

// analysisSystemPrompt instructs the model to describe a slide as the JSON
// document the validator expects. Kept in one place so both providers send
// identical schema expectations.
const analysisSystemPrompt = `You analyze one presentation slide image and return a single JSON object, nothing else.
The object has these fields:
  backgroundColor: dominant background color as 6 hex digits without '#'.
  slideTitle: short title for the slide, used for file naming.
  textElements: array of standalone text blocks. Each has content, x, y, width, height
    (percentages of slide width/height), fontSize (percentage of slide height),
    fontWeight (light|normal|medium|bold|black), fontStyle (serif|sans-serif),
    color (6 hex digits), align (left|center|right), role (title|subtitle|body|footer|logo)
    and optional indentLevel (bullet nesting depth, integer >= 0).
  graphicRegions: array of regions containing charts, photos, illustrations or other
    non-text imagery. Each has description, x, y, width, height. Never include plain text.
  shapeElements: optional array of vector shapes. Each has type (rect|roundRect|ellipse|
    triangle|line|arrow|rightArrow|leftArrow|upArrow|downArrow), x, y, width, height and
    optional fillColor, lineColor, lineWidth (points), rotate (degrees), cornerRadius
    (0-0.5, roundRect only) and text {content, color, fontSize, fontWeight, align, valign}.
    Text drawn inside a shape belongs to the shape, never to textElements.
  tableElements: optional array of tables. Each has x, y, width, height, rowsJson
    (a JSON string encoding an array of rows, each row an array of cells with
    text and optional colspan, rowspan, bold, fillColor, color, align), plus optional
    rowHeights (percentages of slide height), headerRows, fontSize and borderColor.
All coordinates are percentages in [0,100]. Estimate generously rather than omitting elements.`
