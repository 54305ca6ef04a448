package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jan-server/services/consent-api/internal/client"
)

const defaultAPIURL = "http://localhost:4000"

// commandContext carries the flags shared by every subcommand.
type commandContext struct {
	apiURL    string
	newClient func(baseURL string) apiClient
}

func (c *commandContext) client() apiClient {
	return c.newClient(strings.TrimSpace(c.apiURL))
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(func(baseURL string) apiClient { return client.New(baseURL) })
}

func newRootCommandWith(factory func(baseURL string) apiClient) *cobra.Command {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("CONSENT_API_URL", defaultAPIURL)

	ctx := &commandContext{newClient: factory}

	rootCmd := &cobra.Command{
		Use:           "consentctl",
		Short:         "Record and upload consent videos",
		Long:          "consentctl talks to a running consent-api: upload recordings, record from a media file, and inspect the consent ledger.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.apiURL, "api-url", v.GetString("CONSENT_API_URL"), "consent-api base URL (or CONSENT_API_URL)")

	rootCmd.AddCommand(newUploadCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newLedgerCommand(ctx))
	rootCmd.AddCommand(newLanguagesCommand(ctx))

	return rootCmd
}
