package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for GuardView.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guardview",
		Short: "AI-assisted security dashboard",
		Long: `GuardView serves a browser dashboard of security tool panels.

The phishing checker panel delegates URL analysis to a generative model
and renders the structured verdict; the network monitor, file integrity,
password manager, and login panels are self-contained demonstrations.

The model API key is read from the API_KEY environment variable
(a .env file in the working directory is honored).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
