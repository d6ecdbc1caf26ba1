package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/bootstrap"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/pkg/logger"
)

const formatsTimeout = 2 * time.Minute

// buildLocalRuntime loads config and wires an in-process runtime. Logs go to
// stderr so stdout stays readable.
func buildLocalRuntime(cmd *cobra.Command, opts bootstrap.Options) (*domain.Config, *bootstrap.Runtime, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt, err := bootstrap.Build(config, logger.NewSingleLoggerAdapter(log), opts)
	if err != nil {
		return nil, nil, err
	}
	return config, rt, nil
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Download a video or playlist in the foreground",
	Long: `Download a single video or every video of a playlist without a server.
Ctrl-C stops the run, pressing it twice exits immediately.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		noHistory, _ := cmd.Flags().GetBool("no-history")
		config, rt, err := buildLocalRuntime(cmd, bootstrap.Options{DisableHistory: noHistory})
		exitOnError(err)
		defer rt.Close()

		req, err := domain.NewDownloadRequest(startRequestFromFlags(cmd, args[0]).Options(&config.Download))
		exitOnError(err)

		events, unsubscribe := rt.Session.Subscribe()
		printed := make(chan struct{})
		go func() {
			defer close(printed)
			printProgress(os.Stdout, events)
		}()

		id, err := rt.Session.Start(req)
		if err != nil {
			unsubscribe()
			exitOnError(err)
		}
		fmt.Printf("Run %s: %s (%s)\n", truncate(id, 8), req.Locator, req.Target())

		sigs := make(chan os.Signal, 2)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			<-sigs
			fmt.Fprintln(os.Stderr, "\nStopping...")
			rt.Session.Stop()
			<-sigs
			os.Exit(130)
		}()

		_ = rt.Session.Wait(context.Background())
		unsubscribe()
		<-printed
		fmt.Println()

		res := rt.Session.Result()
		if res == nil {
			return
		}
		printResult(res)
		if res.State == domain.RunFailed {
			os.Exit(1)
		}
	},
}

// printProgress renders events until the channel closes. Throttled updates
// rewrite the current line, milestones get their own.
func printProgress(out io.Writer, events <-chan domain.ProgressEvent) {
	for e := range events {
		if e.Milestone {
			fmt.Fprintf(out, "\r\033[K%s\n", progressLine(e))
			continue
		}
		fmt.Fprintf(out, "\r\033[K%s", progressLine(e))
	}
}

// progressLine formats one event, e.g. " 42.0%  1.2 MiB/s  [2/5] Some title".
// Collection labels already carry their position.
func progressLine(e domain.ProgressEvent) string {
	var b strings.Builder
	if e.IsIndeterminate() {
		b.WriteString("   ...  ")
	} else {
		fmt.Fprintf(&b, "%5.1f%%  ", e.Percent)
	}
	if e.RateText != "" {
		fmt.Fprintf(&b, "%s  ", e.RateText)
	}
	b.WriteString(truncate(e.Label, 60))
	return b.String()
}

var formatsCmd = &cobra.Command{
	Use:   "formats [url]",
	Short: "List the encodings available for a video",
	Long:  `List the encodings available for a video. For a playlist the first playable video is sampled.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, rt, err := buildLocalRuntime(cmd, bootstrap.Options{DisableHistory: true})
		exitOnError(err)
		defer rt.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, formatsTimeout)
		defer cancel()

		candidates, err := rt.Session.Catalog().Fetch(ctx, args[0])
		exitOnError(err)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEXT\tRES\tFPS\tVCODEC\tACODEC\tKBPS\tSIZE\tNOTE")
		for _, c := range candidates {
			res := "audio"
			if c.HasVideo {
				res = domain.FormatResolution(c.Height)
			}
			size := "-"
			if c.FileSize > 0 {
				size = humanize.IBytes(uint64(c.FileSize))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.0f\t%s\t%s\n",
				c.FormatID, c.Container, res,
				fps(c.FrameRate),
				orDash(c.VideoCodec), orDash(c.AudioCodec),
				c.Bitrate, size, c.FormatNote)
		}
		w.Flush()

		summary := app.Summarize(candidates)
		fmt.Printf("\nResolutions: %s\n", strings.Join(summary.Resolutions, ", "))
		for _, a := range summary.Audio {
			fmt.Printf("Audio %-4s %v kbps\n", a.Codec, a.Bitrates)
		}
	},
}

func fps(rate float64) string {
	if rate <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", rate)
}

func orDash(s string) string {
	if s == "" || s == "none" {
		return "-"
	}
	return s
}

var classifyCmd = &cobra.Command{
	Use:   "classify [url]",
	Short: "Tell whether a URL is a single video or a playlist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind := domain.ClassifyLocator(args[0])
		fmt.Println(kind)
		if kind == domain.LocatorInvalid {
			os.Exit(1)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := defaultConfigPath()
		if len(args) == 1 {
			path = app.ExpandPath(args[0])
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			exitOnError(fmt.Errorf("%s already exists, use --force to overwrite", path))
		}
		exitOnError(os.MkdirAll(filepath.Dir(path), 0755))
		exitOnError(app.SaveConfig(domain.DefaultConfig(), path))
		fmt.Printf("Config written to %s\n", path)
	},
}

func defaultConfigPath() string {
	return app.ExpandPath("~/.mediafetch/config.yaml")
}

func init() {
	addDownloadFlags(fetchCmd)
	fetchCmd.Flags().Bool("no-history", false, "Don't record the run in the history database")
	for _, c := range []*cobra.Command{fetchCmd, formatsCmd} {
		c.Flags().BoolP("verbose", "v", false, "Log engine activity to stderr")
	}
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
