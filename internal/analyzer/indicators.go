package analyzer

import (
	"strings"

	"github.com/guardview/guardview/internal/models"
)

// positiveKeywords mark an indicator string as a positive (green) row.
// Matching is case-insensitive substring; everything else renders
// negative. Display only, no detection weight.
var positiveKeywords = []string{
	"https",
	"legitimate",
	"secure",
	"trusted",
	"valid",
}

// IsPositiveIndicator reports whether text matches the positive keyword list.
func IsPositiveIndicator(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range positiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// ClassifyIndicators annotates each indicator string in order.
func ClassifyIndicators(texts []string) []models.Indicator {
	indicators := make([]models.Indicator, 0, len(texts))
	for _, text := range texts {
		indicators = append(indicators, models.Indicator{
			Text:     text,
			Positive: IsPositiveIndicator(text),
		})
	}
	return indicators
}
