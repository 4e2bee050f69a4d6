package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/VideoDNA/pkg/logger"
	"github.com/himanishpuri/VideoDNA/pkg/models"
	"github.com/himanishpuri/VideoDNA/pkg/utils"
	"github.com/himanishpuri/VideoDNA/pkg/videodna"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/video"
)

const maxDisplayedMatches = 10

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title, youtubeID, youtubeURL string

	cmd := &cobra.Command{
		Use:   "add [video]",
		Short: "Hash a video and store it in the library",
		Example: `  videodna add clip.mp4 --title "Launch trailer"
  videodna add --youtube-url "https://youtu.be/dQw4w9WgXcQ"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var videoPath string
			if len(args) == 1 {
				videoPath = args[0]
			}
			switch {
			case videoPath != "" && youtubeURL != "":
				return errors.New("cannot specify both a video file and --youtube-url")
			case videoPath == "" && youtubeURL == "":
				return errors.New("a video file or --youtube-url is required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := logger.GetLogger()
			out := cmd.OutOrStdout()

			if youtubeURL != "" {
				fmt.Fprintln(out, "Downloading video from YouTube...")
				path, meta, err := video.DownloadYouTubeVideo(cmd.Context(), youtubeURL, cfg.Storage.TempDir)
				if err != nil {
					return fmt.Errorf("download %s: %w", youtubeURL, err)
				}
				defer func() {
					if err := utils.DeleteFile(path); err != nil {
						log.Warnf("Failed to remove download %s: %v", path, err)
					}
				}()

				videoPath = path
				if title == "" {
					title = meta.Title
				}
				if youtubeID == "" {
					youtubeID = meta.ID
				}
				if youtubeID == "" {
					if id, err := utils.ExtractYouTubeID(youtubeURL); err == nil {
						youtubeID = id
					} else {
						log.Warnf("Failed to extract YouTube ID: %v", err)
					}
				}
				fmt.Fprintf(out, "Downloaded: %s by %s\n", meta.Title, meta.Author())
			}

			return ctx.withService(func(svc videodna.Service) error {
				fmt.Fprintln(out, "Hashing video...")
				videoID, err := svc.AddVideo(cmd.Context(), videoPath, title, youtubeID)
				if err != nil {
					return err
				}
				v, err := svc.GetVideoByID(videoID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Added video to library:")
				fmt.Fprintln(out, renderVideoDetails(v))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Video title (defaults to container metadata or file name)")
	cmd.Flags().StringVar(&youtubeID, "youtube", "", "YouTube ID to record with the video")
	cmd.Flags().StringVar(&youtubeURL, "youtube-url", "", "YouTube URL to download and add instead of a local file")
	return cmd
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <video>",
		Short: "Search the library for videos matching a query clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc videodna.Service) error {
				results, err := svc.MatchVideo(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(out, "No matches found in library")
					return nil
				}
				fmt.Fprintf(out, "Found %s:\n", pluralize(len(results), "match", "matches"))
				fmt.Fprintln(out, renderMatches(results))
				return nil
			})
		},
	}
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List videos in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc videodna.Service) error {
				videos, err := svc.ListVideos()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(videos) == 0 {
					fmt.Fprintln(out, "No videos in library")
					return nil
				}
				fmt.Fprintln(out, renderVideoList(videos, time.Now()))
				return nil
			})
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details of a library video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc videodna.Service) error {
				v, err := svc.GetVideoByID(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderVideoDetails(v))
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a video and its hashes from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withService(func(svc videodna.Service) error {
				v, err := svc.GetVideoByID(id)
				if err != nil {
					return err
				}
				if err := svc.DeleteVideo(id); err != nil {
					return err
				}
				logger.GetLogger().Infof("Deleted video ID=%s (%q)", v.ID, v.Title)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q (%s hashes)\n", v.Title, humanize.Comma(int64(v.HashCount)))
				return nil
			})
		},
	}
}

func renderMatches(results []models.MatchResult) string {
	shown := results[:min(len(results), maxDisplayedMatches)]
	rows := make([][]string, 0, len(shown))
	for i, r := range shown {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Title,
			fmt.Sprintf("%.2f%%", r.QueryPercentage),
			fmt.Sprintf("%.2f%%", r.TargetPercentage),
			youtubeLink(r.YouTubeID),
			r.VideoID,
		})
	}
	rendered := renderTable(
		[]string{"#", "Title", "Query", "Target", "YouTube", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
	if extra := len(results) - len(shown); extra > 0 {
		rendered += fmt.Sprintf("\n... and %d more", extra)
	}
	return rendered
}

func renderVideoList(videos []models.Video, now time.Time) string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			v.ID,
			v.Title,
			formatDuration(v.DurationMs),
			humanize.Comma(int64(v.HashCount)),
			humanize.RelTime(v.CreatedAt, now, "ago", "from now"),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Duration", "Hashes", "Added"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func renderVideoDetails(v *models.Video) string {
	pairs := [][2]string{
		{"ID", v.ID},
		{"Title", v.Title},
		{"Source", v.SourcePath},
		{"Duration", formatDuration(v.DurationMs)},
		{"Frame rate", fmt.Sprintf("%.3f fps", v.FrameRate)},
		{"Seconds per hash", fmt.Sprintf("%g", v.SecondsPerHash)},
		{"Hashes", humanize.Comma(int64(v.HashCount))},
		{"Added", v.CreatedAt.Format(time.RFC3339)},
	}
	if v.YouTubeID != "" {
		pairs = append(pairs, [2]string{"YouTube", youtubeLink(v.YouTubeID)})
	}
	return renderKeyValues(pairs)
}

func formatDuration(ms int) string {
	if ms <= 0 {
		return "-"
	}
	secs := ms / 1000
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func youtubeLink(id string) string {
	if id == "" {
		return ""
	}
	return "https://youtube.com/watch?v=" + id
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
