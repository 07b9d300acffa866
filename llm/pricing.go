package llm

// Pricing is a model's per-million-token price in USD.
type Pricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of a call.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*p.InputPerMTok + float64(outputTokens)/1e6*p.OutputPerMTok
}

// pricingByModel holds published list prices. Unknown models cost zero;
// usage events still record their token counts.
var pricingByModel = map[string]Pricing{
	"gpt-4o":           {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":      {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"gemini-1.5-flash": {InputPerMTok: 0.075, OutputPerMTok: 0.30},
	"gemini-1.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 5.00},
	"gemini-2.0-flash": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
}

// PricingFor looks up the price sheet for a model.
func PricingFor(model string) Pricing {
	return pricingByModel[model]
}

// CostUSD prices one analysis result.
func CostUSD(a *Analysis) float64 {
	return PricingFor(a.Model).Cost(a.InputTokens, a.OutputTokens)
}

// imagePricePerOutput holds per-image prices for models that bill per
// generated output rather than per token.
var imagePricePerOutput = map[string]float64{
	"dall-e-2": 0.020,
}

// GenerationCostUSD prices one generated image: a flat per-output price
// for image-billed models, token counts otherwise.
func GenerationCostUSD(img GeneratedImage) float64 {
	if price, ok := imagePricePerOutput[img.Model]; ok {
		return price
	}
	return PricingFor(img.Model).Cost(img.InputTokens, img.OutputTokens)
}
