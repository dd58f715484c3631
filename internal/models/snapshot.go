package models

// PageSnapshot holds facts extracted from the submitted URL's HTML.
// It only enriches the prompt sent to the model; no verdict is derived
// from it locally.
type PageSnapshot struct {
	Title     string        `json:"title,omitempty"`
	Forms     []FormSummary `json:"forms,omitempty"`
	LinkHosts []string      `json:"link_hosts,omitempty"`
}

// FormSummary describes one form found on the page.
type FormSummary struct {
	Action           string `json:"action"`
	Method           string `json:"method"`
	HasPasswordField bool   `json:"has_password_field"`
}
