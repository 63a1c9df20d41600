// Package cli implements the channelctl command-line interface.
//
// channelctl fetches a channel document and prints its repositories,
// cached packages and libraries, or rename mappings as JSON. It exists
// for inspecting channels by hand; the query logic lives in the
// channel package.
package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/channel"
)

type ctxKey struct{}

func withLogger(ctx context.Context, logger *charmlog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func loggerFromContext(ctx context.Context) *charmlog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*charmlog.Logger); ok {
		return logger
	}
	return charmlog.Default()
}

func newLogger(level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Execute runs the channelctl CLI and returns an error if any command
// fails.
func Execute(ctx context.Context) error {
	var (
		channelLocation string
		timeout         time.Duration
		userAgent       string
		verbose         bool
	)

	root := &cobra.Command{
		Use:          "channelctl",
		Short:        "channelctl inspects package channel documents",
		Long:         "channelctl fetches a channel document (over HTTP or from disk) and prints its repositories, cached packages and libraries, or rename mappings.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(level)))
		},
	}

	root.PersistentFlags().StringVarP(&channelLocation, "channel", "c", "", "channel URL or file path (required)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().StringVar(&userAgent, "user-agent", "channelctl/1.0", "User-Agent header")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	_ = root.MarkPersistentFlagRequired("channel")

	provider := func(cmd *cobra.Command) *channel.Provider {
		return channel.NewProvider(channelLocation,
			channel.WithLogger(loggerFromContext(cmd.Context())),
			channel.WithTimeout(timeout),
			channel.WithUserAgent(userAgent),
		)
	}

	root.AddCommand(
		newRepositoriesCommand(provider),
		newPackagesCommand(provider),
		newLibrariesCommand(provider),
		newRenamesCommand(provider),
		newInfoCommand(provider),
	)

	return root.ExecuteContext(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
