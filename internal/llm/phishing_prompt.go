package llm

import (
	"fmt"
	"strings"
)

const maxSnapshotItemsForPrompt = 15 // cap per list so the prompt stays small

// BuildPhishingPrompt composes the instruction sent to the model. The
// verdict shape is also enforced by the response schema; repeating it in
// the prompt keeps weaker models on track.
func BuildPhishingPrompt(req *AnalyzeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a phishing detection expert. Analyze this URL and decide whether it is likely a phishing attempt: %s

Consider impersonation of known brands, deceptive spelling, suspicious subdomains, unusual top-level domains, and anything else visible in the URL itself.
`, req.URL)

	if req.Page != nil {
		b.WriteString("\n=== PAGE SNAPSHOT (fetched from the URL) ===\n")
		if req.Page.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", req.Page.Title)
		}
		for i, form := range req.Page.Forms {
			if i >= maxSnapshotItemsForPrompt {
				break
			}
			fmt.Fprintf(&b, "Form: action=%s method=%s password_field=%t\n",
				form.Action, form.Method, form.HasPasswordField)
		}
		if len(req.Page.LinkHosts) > 0 {
			hosts := req.Page.LinkHosts
			if len(hosts) > maxSnapshotItemsForPrompt {
				hosts = hosts[:maxSnapshotItemsForPrompt]
			}
			fmt.Fprintf(&b, "External link hosts: %s\n", strings.Join(hosts, ", "))
		}
	}

	b.WriteString(`
Respond with a JSON object containing exactly these fields:
- isPhishing: boolean, true if the URL is likely phishing
- confidence: one of "High", "Medium", "Low", "None"
- explanation: short explanation of your verdict
- indicators: list of short reason strings supporting the verdict

All four fields are required.`)

	return b.String()
}
