package models

import "time"

// Confidence is the coarse certainty rating attached to a verdict.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
	ConfidenceNone   Confidence = "None"
)

// Valid reports whether c is one of the four allowed levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceNone:
		return true
	}
	return false
}

// PhishingVerdict is the structured output required from the model.
// All four fields are mandatory in the response schema.
type PhishingVerdict struct {
	IsPhishing  bool       `json:"isPhishing" jsonschema:"description=Whether the URL is likely a phishing attempt"`
	Confidence  Confidence `json:"confidence" jsonschema:"description=Certainty of the verdict,enum=High,enum=Medium,enum=Low,enum=None"`
	Explanation string     `json:"explanation" jsonschema:"description=Short explanation of the verdict"`
	Indicators  []string   `json:"indicators" jsonschema:"description=Short reason strings supporting the verdict"`
}

// Indicator is a verdict reason string annotated for display.
// Positive is a presentation hint only, it carries no detection weight.
type Indicator struct {
	Text     string `json:"text"`
	Positive bool   `json:"positive"`
}

// AnalysisResult is what a completed analysis hands to the dashboard.
// The verdict is mirrored from the model output without transformation;
// Indicators repeats verdict.Indicators with the display classification.
type AnalysisResult struct {
	URL        string          `json:"url"`
	Verdict    PhishingVerdict `json:"verdict"`
	Indicators []Indicator     `json:"indicators"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
}
