package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/internal/infrastructure"
)

type fetchOptions struct {
	platform string
	mode     string
	quality  string
	save     bool
	rate     int
}

func newFetchCmd(env *cliEnv) *cobra.Command {
	var opts fetchOptions
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a media file",
		Long: `Submit a URL to the extraction service and show the result. With --save
the file is written to the output directory; with --rate the platform is rated
once for this client.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.fetch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "Platform (youtube, tiktok, instagram, soundcloud, twitter, facebook); detected from the URL when empty")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Download mode for YouTube (audio, video)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "Audio quality (320kbps, 256kbps, 128kbps)")
	cmd.Flags().BoolVarP(&opts.save, "save", "s", false, "Save the file without asking")
	cmd.Flags().IntVarP(&opts.rate, "rate", "r", 0, "Rate the platform 1-5 after a successful fetch")
	return cmd
}

func (e *cliEnv) fetch(ctx context.Context, sourceURL string, opts fetchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	platform := domain.Platform(strings.ToLower(opts.platform))
	if platform == "" {
		platform = domain.DetectPlatform(sourceURL)
		if platform == "" {
			return fmt.Errorf("could not detect the platform of %q, pass --platform", sourceURL)
		}
	}
	desc, ok := e.config.Descriptor(platform)
	if !ok {
		return fmt.Errorf("unsupported platform %q", platform)
	}

	deps := app.ModuleDeps{
		Service:  e.client,
		Ratings:  e.client,
		Identity: e.identityManager(),
		Sinks: []domain.NotificationSink{
			&terminalSink{w: e.out, colorize: e.colorize},
			infrastructure.NewDesktopNotifier(e.config.Notification, "quickdl", e.log),
		},
		AutoDismiss: e.config.Notification.AutoDismiss,
		Logger:      e.workflowLogger(),
	}
	if e.config.Download.KeepHistory {
		deps.History = e.store
	}

	module := app.NewModule(desc, deps)
	if err := module.Mount(ctx); err != nil {
		return err
	}
	defer module.Unmount()

	quality := opts.quality
	if quality == "" {
		quality = e.config.Download.AudioQuality
	}
	result, err := module.Submit(ctx, sourceURL, domain.DownloadMode(opts.mode), map[string]string{"quality": quality})
	if err != nil {
		return reportedError{err}
	}

	fields := [][2]string{
		{"Platform", desc.DisplayName},
		{"Title", result.Title},
		{"File", result.Filename()},
	}
	if result.PreviewURL != nil {
		fields = append(fields, [2]string{"Preview", *result.PreviewURL})
	}
	fmt.Fprintln(e.out, renderFields(fields))

	reader := bufio.NewReader(e.in)

	if opts.save || (e.interactive && e.confirm(reader, "Save "+result.Filename()+"?")) {
		saver := infrastructure.NewFileSaver(e.config.Download.OutputDir, e.log)
		if _, err := module.Retrieve(ctx, saver); err != nil {
			return reportedError{err}
		}
	}

	value := opts.rate
	state := module.State()
	if value == 0 && e.interactive && state.RatingVisible && state.RatingState == domain.RatingUnrated {
		value = e.askRating(reader, desc.DisplayName)
	}
	if value != 0 {
		if err := module.Rate(ctx, value); err != nil {
			return reportedError{err}
		}
	}
	return nil
}

func (e *cliEnv) confirm(reader *bufio.Reader, question string) bool {
	fmt.Fprintf(e.out, "%s [y/N] ", question)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// askRating returns the chosen stars, or 0 to skip
func (e *cliEnv) askRating(reader *bufio.Reader, displayName string) int {
	fmt.Fprintf(e.out, "Rate %s %d-%d (empty to skip): ", displayName, domain.MinRating, domain.MaxRating)
	answer, _ := reader.ReadString('\n')
	value, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return 0
	}
	return value
}
