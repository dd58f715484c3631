package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardview/guardview/internal/models"
)

func TestBuildPhishingPrompt_ContainsURLAndShape(t *testing.T) {
	prompt := BuildPhishingPrompt(&AnalyzeRequest{URL: "http://paypa1-secure-login.com"})

	assert.Contains(t, prompt, "http://paypa1-secure-login.com")
	for _, field := range []string{"isPhishing", "confidence", "explanation", "indicators"} {
		assert.Contains(t, prompt, field)
	}
	for _, level := range []string{"High", "Medium", "Low", "None"} {
		assert.Contains(t, prompt, level)
	}
	assert.NotContains(t, prompt, "PAGE SNAPSHOT")
}

func TestBuildPhishingPrompt_IncludesSnapshot(t *testing.T) {
	prompt := BuildPhishingPrompt(&AnalyzeRequest{
		URL: "https://example.com/login",
		Page: &models.PageSnapshot{
			Title: "Account Login",
			Forms: []models.FormSummary{
				{Action: "/session", Method: "POST", HasPasswordField: true},
			},
			LinkHosts: []string{"cdn.example.net"},
		},
	})

	assert.Contains(t, prompt, "PAGE SNAPSHOT")
	assert.Contains(t, prompt, "Account Login")
	assert.Contains(t, prompt, "action=/session method=POST password_field=true")
	assert.Contains(t, prompt, "cdn.example.net")
}

func TestBuildPhishingPrompt_CapsSnapshotLists(t *testing.T) {
	page := &models.PageSnapshot{}
	for i := 0; i < 50; i++ {
		page.Forms = append(page.Forms, models.FormSummary{Action: "/f", Method: "GET"})
	}

	prompt := BuildPhishingPrompt(&AnalyzeRequest{URL: "https://example.com", Page: page})
	assert.Equal(t, maxSnapshotItemsForPrompt, strings.Count(prompt, "Form: action="))
}

// TestParseVerdictJSON verifies that a model reply matching the declared
// shape decodes with all four fields intact.
func TestParseVerdictJSON(t *testing.T) {
	jsonResponse := `{
		"isPhishing": true,
		"confidence": "High",
		"explanation": "The host imitates a payment provider with a digit swapped in.",
		"indicators": ["Suspicious subdomain", "Misspelled brand name"]
	}`

	var verdict models.PhishingVerdict
	require.NoError(t, json.Unmarshal([]byte(jsonResponse), &verdict))

	assert.True(t, verdict.IsPhishing)
	assert.Equal(t, models.ConfidenceHigh, verdict.Confidence)
	assert.True(t, verdict.Confidence.Valid())
	assert.NotEmpty(t, verdict.Explanation)
	require.Len(t, verdict.Indicators, 2)
	assert.Equal(t, "Suspicious subdomain", verdict.Indicators[0])
}

func TestConfidenceValid(t *testing.T) {
	for _, level := range []models.Confidence{
		models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow, models.ConfidenceNone,
	} {
		assert.True(t, level.Valid(), string(level))
	}
	for _, level := range []models.Confidence{"", "high", "Certain", "Unknown"} {
		assert.False(t, level.Valid(), string(level))
	}
}
