package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Check the LLM and library configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printEnv()
			return nil
		},
	}
}

func (a *app) printEnv() {
	cfg := a.cfg
	fmt.Fprintf(a.out, "Provider: %s\n", cfg.Provider)
	fmt.Fprintln(a.out, "--------------------------------------------------")

	if cfg.Provider == "" || cfg.Provider == "azure" {
		a.checkSetting("AZURE_OPENAI_KEY", cfg.Azure.APIKey, true)
		a.checkSetting("AZURE_OPENAI_ENDPOINT", cfg.Azure.Endpoint, false)
		a.checkSetting("AZURE_OPENAI_DEPLOYMENT", cfg.Azure.Deployment, false)
		a.checkSetting("AZURE_OPENAI_API_VERSION", cfg.Azure.APIVersion, false)
	} else {
		a.checkSetting("api_key", cfg.APIKey, true)
		a.checkSetting("model", cfg.Model, false)
		a.checkSetting("base_url", cfg.BaseURL, false)
	}

	fmt.Fprintln(a.out, "--------------------------------------------------")
	fmt.Fprintf(a.out, "Library: %s (%s)\n", cfg.Library.Path, cfg.Library.Backend)
	fmt.Fprintf(a.out, "Log level: %s\n", cfg.Log.Level)
}

func (a *app) checkSetting(name, value string, secret bool) {
	if value == "" {
		fmt.Fprintf(a.out, "%s: ✗ Not Set\n", name)
		return
	}
	shown := value
	if secret {
		shown = mask(value)
	}
	fmt.Fprintf(a.out, "%s: ✓ Set (%s)\n", name, shown)
}

// mask keeps the first four characters of a secret.
func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
