package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"jan-server/services/consent-api/internal/client"
)

// apiClient is the subset of client.Client the commands use.
type apiClient interface {
	UploadRecording(ctx context.Context, filename string, data []byte, mediaType, campaign string) (*client.Recording, error)
	Ledger(ctx context.Context) (*client.Ledger, error)
	Languages(ctx context.Context) (*client.Languages, error)
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var campaign string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a finished consent recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read recording: %w", err)
			}
			if len(data) == 0 {
				return fmt.Errorf("%s is empty", path)
			}
			mediaType := mimetype.Detect(data).String()

			rec, err := ctx.client().UploadRecording(cmd.Context(), filepath.Base(path), data, mediaType, campaign)
			if err != nil {
				return err
			}
			printRecording(cmd.OutOrStdout(), rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&campaign, "campaign", "", "Campaign identifier recorded in the ledger")
	return cmd
}

func printRecording(out io.Writer, rec *client.Recording) {
	fmt.Fprintf(out, "Uploaded %s (%d bytes, %s)\n", rec.Key, rec.Bytes, rec.Mime)
	fmt.Fprintf(out, "Location: %s\n", rec.URL)
	if rec.LedgerWarning != "" {
		fmt.Fprintf(out, "Warning: ledger not updated: %s\n", rec.LedgerWarning)
	}
}
