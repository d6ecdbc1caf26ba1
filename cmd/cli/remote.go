package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/media-fetch-go/api/handlers"
	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/pkg/logger"
)

var startCmd = &cobra.Command{
	Use:   "start [url]",
	Short: "Start a download on the server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		payload := startRequestFromFlags(cmd, args[0])
		var result struct {
			RunID  string          `json:"run_id"`
			State  domain.RunState `json:"state"`
			Target string          `json:"target"`
		}
		exitOnError(apiPost("/api/v1/session/start", payload, &result))

		fmt.Printf("Run started!\n")
		fmt.Printf("ID:     %s\n", result.RunID)
		fmt.Printf("State:  %s\n", result.State)
		fmt.Printf("Target: %s\n", result.Target)
	},
}

// controlCommand builds a command that posts to a session control endpoint
func controlCommand(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ensureServer()
			var result struct {
				State domain.RunState `json:"state"`
			}
			exitOnError(apiPost("/api/v1/session/"+action, nil, &result))
			fmt.Printf("State: %s\n", result.State)
		},
	}
}

var (
	pauseCmd  = controlCommand("pause", "Pause the active run", "pause")
	resumeCmd = controlCommand("resume", "Resume a paused run", "resume")
	toggleCmd = controlCommand("toggle", "Pause or resume the active run", "toggle")
	stopCmd   = controlCommand("stop", "Stop the active run", "stop")
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session state and latest progress",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var status app.SessionStatus
		exitOnError(apiGet("/api/v1/session", &status))
		printStatus(status)
	},
}

func printStatus(status app.SessionStatus) {
	fmt.Printf("State:    %s\n", status.State)
	if status.RunID == "" {
		return
	}
	fmt.Printf("Run:      %s\n", status.RunID)
	fmt.Printf("URL:      %s\n", status.Locator)
	fmt.Printf("Kind:     %s\n", status.Kind)
	fmt.Printf("Target:   %s\n", status.Target)
	if status.StartedAt != nil {
		fmt.Printf("Started:  %s\n", humanize.Time(*status.StartedAt))
	}
	if status.Progress != nil {
		fmt.Printf("Progress: %s\n", progressLine(*status.Progress))
	}
}

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Show the outcome of the last finished run",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var res app.RunResult
		exitOnError(apiGet("/api/v1/session/result", &res))
		printResult(&res)
	},
}

func printResult(res *app.RunResult) {
	fmt.Printf("Run:      %s\n", res.RunID)
	fmt.Printf("URL:      %s\n", res.Locator)
	fmt.Printf("State:    %s\n", res.State)
	if !res.FinishedAt.IsZero() {
		fmt.Printf("Took:     %s\n", res.FinishedAt.Sub(res.StartedAt).Round(time.Second))
	}
	if res.Error != "" {
		fmt.Printf("Error:    %s\n", res.Error)
	}
	if res.Report == nil {
		return
	}
	fmt.Printf("Summary:  %s\n", res.Report.Summary())
	for _, item := range res.Report.Items {
		switch {
		case item.FilePath != "":
			fmt.Printf("  [%s] %s -> %s\n", item.State, itemLabel(item), item.FilePath)
		case item.Reason != "":
			fmt.Printf("  [%s] %s: %s\n", item.State, itemLabel(item), item.Reason)
		default:
			fmt.Printf("  [%s] %s\n", item.State, itemLabel(item))
		}
	}
}

func itemLabel(item domain.ItemResult) string {
	label := item.Title
	if label == "" {
		label = item.Locator
	}
	if item.Position > 0 {
		label = fmt.Sprintf("#%d %s", item.Position, label)
	}
	return truncate(label, 60)
}

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recent runs, or show one run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		if len(args) == 1 {
			var run domain.RunRecord
			exitOnError(apiGet("/api/v1/runs/"+url.PathEscape(args[0]), &run))
			printRun(&run)
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		var runs []*domain.RunRecord
		exitOnError(apiGet("/api/v1/runs?limit="+strconv.Itoa(limit), &runs))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tKIND\tSTATE\tITEMS\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
				truncate(r.ID, 8),
				truncate(r.Locator, 40),
				r.Kind,
				r.State,
				r.Succeeded, r.Attempted,
				humanize.Time(r.StartedAt))
		}
		w.Flush()
	},
}

func printRun(run *domain.RunRecord) {
	fmt.Printf("Run Details:\n")
	fmt.Printf("  ID:        %s\n", run.ID)
	fmt.Printf("  URL:       %s\n", run.Locator)
	fmt.Printf("  Kind:      %s\n", run.Kind)
	fmt.Printf("  Target:    %s\n", run.Target)
	fmt.Printf("  Output:    %s\n", run.OutputDir)
	fmt.Printf("  State:     %s\n", run.State)
	fmt.Printf("  Succeeded: %d/%d (failed %d, skipped %d)\n", run.Succeeded, run.Attempted, run.Failed, run.Skipped)
	fmt.Printf("  Started:   %s\n", run.StartedAt.Format(time.RFC3339))
	if run.ErrorMessage != "" {
		fmt.Printf("  Error:     %s (%s)\n", run.ErrorMessage, run.ErrorKind)
	}
	for _, item := range run.Items {
		line := fmt.Sprintf("    #%d [%s] %s", item.Position, item.State, truncate(item.Title, 50))
		if item.Reason != "" {
			line += ": " + item.Reason
		}
		fmt.Println(line)
	}
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var stats domain.RunStats
		exitOnError(apiGet("/api/v1/runs/stats", &stats))

		fmt.Println("Run Statistics:")
		fmt.Printf("  Runs:      %s\n", humanize.Comma(stats.Total))
		fmt.Printf("  Completed: %s\n", humanize.Comma(stats.Completed))
		fmt.Printf("  Stopped:   %s\n", humanize.Comma(stats.Stopped))
		fmt.Printf("  Failed:    %s\n", humanize.Comma(stats.Failed))
		fmt.Printf("  Items:     %s (%s ok)\n", humanize.Comma(stats.Items), humanize.Comma(stats.ItemsOK))
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View session or error logs",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		category := string(logger.CategorySession)
		if len(args) == 1 {
			category = args[0]
		}
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")

		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		if date != "" {
			query.Set("date", date)
		}
		path := "/api/v1/logs/" + url.PathEscape(category)
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Count   int               `json:"count"`
			Entries []logger.LogEntry `json:"entries"`
		}
		exitOnError(apiGet(path+"?"+query.Encode(), &result))

		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf(" %s=%v", k, v)
			}
			fmt.Println()
		}
	},
}

// startRequestFromFlags reads the download flags shared by start and fetch
func startRequestFromFlags(cmd *cobra.Command, locator string) handlers.StartRequest {
	output, _ := cmd.Flags().GetString("output")
	resolution, _ := cmd.Flags().GetString("resolution")
	audioOnly, _ := cmd.Flags().GetBool("audio-only")
	codec, _ := cmd.Flags().GetString("audio-codec")
	bitrate, _ := cmd.Flags().GetInt("audio-bitrate")
	container, _ := cmd.Flags().GetString("container")

	if output != "" {
		output = app.ExpandPath(output)
	}
	return handlers.StartRequest{
		URL:            locator,
		OutputDir:      output,
		Resolution:     resolution,
		AudioOnly:      audioOnly,
		AudioCodec:     codec,
		AudioBitrate:   bitrate,
		MergeContainer: container,
	}
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
	cmd.Flags().StringP("resolution", "r", "", "Target resolution, e.g. 720p")
	cmd.Flags().BoolP("audio-only", "a", false, "Extract audio only")
	cmd.Flags().String("audio-codec", "", "Audio codec: m4a, mp3, wav, aac")
	cmd.Flags().Int("audio-bitrate", 0, "Audio bitrate in kbps")
	cmd.Flags().String("container", "", "Container for merged video, e.g. mp4, mkv")
}

func init() {
	addDownloadFlags(startCmd)
	runsCmd.Flags().IntP("limit", "n", 20, "Number of runs to list")
	logsCmd.Flags().StringP("date", "d", "", "Log date (YYYY-MM-DD, default today)")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum entries")
	logsCmd.Flags().StringP("search", "s", "", "Only show entries containing this text")
}
