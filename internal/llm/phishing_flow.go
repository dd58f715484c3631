package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	genkitcore "github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"

	"github.com/guardview/guardview/internal/models"
)

// AnalyzeRequest - input for the phishing analysis flow
type AnalyzeRequest struct {
	URL  string               `json:"url"`
	Page *models.PageSnapshot `json:"page,omitempty"`
}

// DefinePhishingFlow creates the Genkit flow that asks the model for a
// structured phishing verdict on a single URL. The output schema is
// constrained to models.PhishingVerdict; anything the model returns
// outside that shape surfaces as an error from GenerateData.
func DefinePhishingFlow(
	g *genkit.Genkit,
	modelName string,
) *genkitcore.Flow[*AnalyzeRequest, *models.PhishingVerdict, struct{}] {
	return genkit.DefineFlow(
		g,
		"phishingAnalysisFlow",
		func(ctx context.Context, req *AnalyzeRequest) (*models.PhishingVerdict, error) {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled before phishing analysis: %w", err)
			}

			prompt := BuildPhishingPrompt(req)

			result, _, err := genkit.GenerateData[models.PhishingVerdict](
				ctx,
				g,
				ai.WithModelName(modelName),
				ai.WithPrompt(prompt),
			)
			if err != nil {
				return nil, fmt.Errorf("phishing LLM failed: %w", err)
			}

			return result, nil
		},
	)
}
