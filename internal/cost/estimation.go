package cost

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"briefgen/internal/core"
)

// GeminiPricing represents the current pricing for Gemini models
type GeminiPricing struct {
	Model                 string
	InputCostPer1MTokens  float64 // Cost per 1M input tokens in USD
	OutputCostPer1MTokens float64 // Cost per 1M output tokens in USD
	MaxRequestsPerMinute  int     // Rate limiting
}

// PricingTable contains Gemini pricing for the models this service uses
var PricingTable = map[string]GeminiPricing{
	"gemini-2.5-flash": {
		Model:                 "gemini-2.5-flash",
		InputCostPer1MTokens:  0.30,
		OutputCostPer1MTokens: 2.50,
		MaxRequestsPerMinute:  1000,
	},
	"gemini-2.5-flash-lite": {
		Model:                 "gemini-2.5-flash-lite",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
		MaxRequestsPerMinute:  4000,
	},
	"gemini-2.5-pro": {
		Model:                 "gemini-2.5-pro",
		InputCostPer1MTokens:  1.25,
		OutputCostPer1MTokens: 10.00,
		MaxRequestsPerMinute:  150,
	},
}

// DefaultPricingModel is used for models missing from PricingTable
const DefaultPricingModel = "gemini-2.5-flash"

// PricingFor returns the pricing for model, falling back to DefaultPricingModel.
func PricingFor(model string) GeminiPricing {
	if p, ok := PricingTable[model]; ok {
		return p
	}
	p := PricingTable[DefaultPricingModel]
	p.Model = model
	return p
}

// EstimateTokenCount provides a rough estimation of token count for text
// This is a simplified approximation: typically 1 token ≈ 0.75 words ≈ 4 characters
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")

	charCount := utf8.RuneCountInString(text)

	// 3.5 rather than 4 leaves headroom for special tokens and formatting
	return int(math.Ceil(float64(charCount) / 3.5))
}

// CallCost is the estimated usage of a single model call
type CallCost struct {
	Model        string
	InputTokens  int
	OutputTokens int
	TotalCost    float64
}

// EstimateCall estimates the cost of one prompt/completion pair.
func EstimateCall(model, prompt, completion string) CallCost {
	pricing := PricingFor(model)
	in := EstimateTokenCount(prompt)
	out := EstimateTokenCount(completion)
	return CallCost{
		Model:        model,
		InputTokens:  in,
		OutputTokens: out,
		TotalCost:    tokenCost(in, out, pricing),
	}
}

func tokenCost(in, out int, pricing GeminiPricing) float64 {
	return float64(in)*pricing.InputCostPer1MTokens/1000000 +
		float64(out)*pricing.OutputCostPer1MTokens/1000000
}

// Typical prompt overheads and output lengths, in tokens, for the steps of
// article generation.
const (
	promptOverheadTokens      = 250
	referenceTokensPerStep    = 600
	introOutputTokens         = 250
	sectionOutputTokens       = 450
	conclusionOutputTokens    = 250
	articleStepsBeyondOutline = 2
)

// ArticleCostEstimate is the projected cost of expanding a brief into an article
type ArticleCostEstimate struct {
	Model            string
	Title            string
	Calls            int
	InputTokens      int
	OutputTokens     int
	TotalCost        float64
	RateLimitWarning string
}

// EstimateArticleCost projects the usage of generating an article from brief
// with model, one call per outline entry plus introduction and conclusion.
func EstimateArticleCost(brief core.Brief, model string) *ArticleCostEstimate {
	pricing := PricingFor(model)
	briefTokens := EstimateTokenCount(brief.Title + " " + brief.MetaDescription + " " + strings.Join(brief.KeyPoints, " "))

	est := &ArticleCostEstimate{
		Model: model,
		Title: brief.Title,
		Calls: len(brief.Outline) + articleStepsBeyondOutline,
	}

	// Each step sees the brief, retrieved references and the text written so far.
	written := 0
	addStep := func(extraInput, output int) {
		in := promptOverheadTokens + referenceTokensPerStep + briefTokens + extraInput + written
		est.InputTokens += in
		est.OutputTokens += output
		written += output
	}

	addStep(0, introOutputTokens)
	for _, item := range brief.Outline {
		addStep(EstimateTokenCount(item.Heading+" "+strings.Join(item.Subpoints, " ")), sectionOutputTokens)
	}
	addStep(0, conclusionOutputTokens)

	est.TotalCost = tokenCost(est.InputTokens, est.OutputTokens, pricing)
	if est.Calls > pricing.MaxRequestsPerMinute {
		est.RateLimitWarning = fmt.Sprintf(
			"Warning: %d requests may exceed rate limit of %d/min for %s",
			est.Calls, pricing.MaxRequestsPerMinute, model,
		)
	}
	return est
}

// FormatEstimate formats the cost estimate for display
func (e *ArticleCostEstimate) FormatEstimate() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Cost Estimation for %s\n", e.Model))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("   Article: %s\n", e.Title))
	sb.WriteString(fmt.Sprintf("   Model calls: %d\n", e.Calls))
	sb.WriteString(fmt.Sprintf("   Input tokens: %d\n", e.InputTokens))
	sb.WriteString(fmt.Sprintf("   Output tokens: %d\n", e.OutputTokens))
	sb.WriteString(fmt.Sprintf("   Total estimated cost: $%.6f\n", e.TotalCost))
	if e.RateLimitWarning != "" {
		sb.WriteString(fmt.Sprintf("   %s\n", e.RateLimitWarning))
	}
	return sb.String()
}
