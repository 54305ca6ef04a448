package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jan-server/services/consent-api/internal/domain/capture"
	"jan-server/services/consent-api/internal/infrastructure/device"
	"jan-server/services/consent-api/utils/sessionid"
)

type recordOptions struct {
	source   string
	campaign string
	duration time.Duration
	interval time.Duration
	verbose  bool
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	opts := recordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a consent clip from a media source and upload it",
		Long: `record replays --source as a capture device, stops when the source is
exhausted, the countdown elapses or Ctrl+C is pressed, then uploads the
captured clip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.source, "source", "", "Media file standing in for the camera")
	cmd.Flags().StringVar(&opts.campaign, "campaign", "", "Campaign identifier recorded in the ledger")
	cmd.Flags().DurationVar(&opts.duration, "duration", capture.DefaultDuration, "Recording countdown")
	cmd.Flags().DurationVar(&opts.interval, "interval", 100*time.Millisecond, "Delay between chunks read from the source")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log capture progress")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func runRecord(cmd *cobra.Command, ctx *commandContext, opts recordOptions) error {
	log := zerolog.Nop()
	if opts.verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	src := device.NewFileDevice(opts.source, device.FileOptions{Interval: opts.interval, Logger: log})
	session := capture.NewSession(sessionid.New(), src, capture.Options{Duration: opts.duration, Logger: log})
	if err := session.Start(sigCtx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recording from %s (up to %s)...\n", filepath.Base(opts.source), opts.duration)

	select {
	case <-session.Done():
	case <-src.Exhausted():
		session.Stop()
	case <-sigCtx.Done():
		session.Stop()
	}
	<-session.Done()

	blob := session.Blob()
	if blob == nil || blob.Size() == 0 {
		return fmt.Errorf("nothing was recorded from %s", opts.source)
	}
	fmt.Fprintf(out, "Captured %d bytes in %d chunks (%s)\n", blob.Size(), blob.Chunks, blob.Reason)

	// Ctrl+C ends the recording, not the upload.
	rec, err := ctx.client().UploadRecording(cmd.Context(), "consent"+extensionFor(blob.MediaType), blob.Data, blob.MediaType, opts.campaign)
	if err != nil {
		return err
	}
	printRecording(out, rec)
	return nil
}

func extensionFor(mediaType string) string {
	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".webm"
}
