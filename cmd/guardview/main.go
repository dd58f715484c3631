// Package main provides the entry point for the GuardView dashboard.
//
// GuardView serves a browser dashboard of security tool panels. The
// phishing checker panel sends URLs to a generative model and renders
// the structured verdict; the remaining panels are demonstrations.
//
// Usage:
//
//	guardview serve
//	guardview serve --addr :9090 --config guardview.yaml
//
// See --help for all available options.
package main

// main is the entry point for GuardView.
func main() {
	Execute()
}
