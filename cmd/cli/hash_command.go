package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/VideoDNA/pkg/logger"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/hashio"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/video"
)

type hashOptions struct {
	input          string
	output         string
	outputDir      string
	secondsPerHash float64
	downsample     int
	verbose        bool
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	opts := &hashOptions{}

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Write the fingerprint sequence of a video to a hash file",
		Example: `  videodna hash -i movie.mp4 -o movie.txt
  videodna hash -i movie.mp4 -d hashes/ -r 0.5 -s 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seconds-per-hash") {
				opts.secondsPerHash = cfg.Hashing.SecondsPerHash
			}
			if !cmd.Flags().Changed("downsample") {
				opts.downsample = cfg.Hashing.DownsampleDimension
			}
			return runHash(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Input video file")
	f.StringVarP(&opts.output, "output", "o", "", "Output hash file")
	f.StringVarP(&opts.outputDir, "output-dir", "d", "", "Output directory; the file is named after the input")
	f.Float64VarP(&opts.secondsPerHash, "seconds-per-hash", "r", 1.0, "Seconds between hashed frames, 0 hashes every frame")
	f.IntVarP(&opts.downsample, "downsample", "s", 64, "Scale frames to this square size before hashing, 0 keeps native size")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every hashed frame")
	_ = cmd.MarkFlagRequired("input")
	cmd.MarkFlagsOneRequired("output", "output-dir")
	cmd.MarkFlagsMutuallyExclusive("output", "output-dir")

	return cmd
}

func (o *hashOptions) validate() error {
	if strings.TrimSpace(o.input) == "" {
		return errors.New("input video is required")
	}
	if o.secondsPerHash < 0 {
		return fmt.Errorf("seconds per hash must be non-negative, got %v", o.secondsPerHash)
	}
	if o.downsample != 0 && o.downsample < fingerprint.MinHashableDimension {
		return fmt.Errorf("downsample must be 0 or at least %d, got %d", fingerprint.MinHashableDimension, o.downsample)
	}
	return nil
}

func (o *hashOptions) outputPath() string {
	if o.output != "" {
		return o.output
	}
	return hashio.OutputPath(o.input, o.outputDir)
}

func runHash(cmd *cobra.Command, opts *hashOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	log := logger.GetLogger()
	if opts.verbose {
		log.SetLevel(logger.DEBUG)
	}

	src, err := video.OpenFrameSource(cmd.Context(), opts.input, video.SourceConfig{Width: opts.downsample, Height: opts.downsample})
	if err != nil {
		return err
	}
	defer src.Close()

	start := time.Now()
	seq, err := fingerprint.BuildWithProgress(cmd.Context(), src, fingerprint.NewPDQHasher(), opts.secondsPerHash, func(rec fingerprint.Record) {
		log.Debugf("frame %d quality %d hash %s", rec.FrameIndex, rec.Quality, rec.Hash)
	})
	if err != nil {
		return fmt.Errorf("hashing %s: %w", opts.input, err)
	}

	out := opts.outputPath()
	if err := hashio.WriteFile(out, seq); err != nil {
		return err
	}

	log.Infof("Hashed %s in %s", opts.input, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d hashes to %s\n", len(seq), out)
	return nil
}
