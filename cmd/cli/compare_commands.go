package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/VideoDNA/pkg/videodna/fingerprint"
	"github.com/himanishpuri/VideoDNA/pkg/videodna/hashio"
)

type compareArgs struct {
	first, second     fingerprint.Sequence
	distanceTolerance int
	qualityTolerance  int
}

// parseCompareArgs reads <file1> <file2> <distanceTolerance> <qualityTolerance>.
func parseCompareArgs(args []string) (*compareArgs, error) {
	dTol, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, fmt.Errorf("invalid distance tolerance %q: %w", args[2], err)
	}
	if dTol < 0 {
		return nil, fmt.Errorf("distance tolerance must be non-negative, got %d", dTol)
	}
	qTol, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, fmt.Errorf("invalid quality tolerance %q: %w", args[3], err)
	}
	if qTol < fingerprint.MinQuality || qTol > fingerprint.MaxQuality {
		return nil, fmt.Errorf("quality tolerance must be in [%d,%d], got %d", fingerprint.MinQuality, fingerprint.MaxQuality, qTol)
	}

	first, err := hashio.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	second, err := hashio.ReadFile(args[1])
	if err != nil {
		return nil, err
	}
	return &compareArgs{first: first, second: second, distanceTolerance: dTol, qualityTolerance: qTol}, nil
}

func newMatchByLineCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "match-byline <hashes1> <hashes2> <distanceTolerance> <qualityTolerance>",
		Short: "Compare two equally sampled hash files position by position",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseCompareArgs(args)
			if err != nil {
				return err
			}
			res, err := fingerprint.MatchByLine(in.first, in.second, in.distanceTolerance, in.qualityTolerance)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				for _, line := range res.Lines {
					a, b := in.first[line.Index], in.second[line.Index]
					if line.Status == fingerprint.LineSkipped {
						fmt.Fprintf(out, "Skipping line %d: quality %d and %d\n", line.Index, a.Quality, b.Quality)
						continue
					}
					fmt.Fprintf(out, "Line %d (frames %d and %d): distance %d, %s\n", line.Index, a.FrameIndex, b.FrameIndex, line.Distance, line.Status)
				}
			}
			fmt.Fprintf(out, "%.3f Percentage matches\n", res.Percentage)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the outcome of every line")
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}
	return cmd
}

func newMatchBruteCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "match-brute <queryHashes> <targetHashes> <distanceTolerance> <qualityTolerance>",
		Short: "Measure how much of each hash file is found anywhere in the other",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseCompareArgs(args)
			if err != nil {
				return err
			}
			res, err := fingerprint.MatchBrute(in.first, in.second, in.distanceTolerance, in.qualityTolerance)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "Query: %d of %d eligible hashes matched\n", res.QueryMatched, res.QueryEligible)
				fmt.Fprintf(out, "Target: %d of %d eligible hashes matched\n", res.TargetMatched, res.TargetEligible)
			}
			fmt.Fprintf(out, "%.2f Percentage Query Video match\n", res.QueryPercentage)
			fmt.Fprintf(out, "%.2f Percentage Target Video match\n", res.TargetPercentage)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print matched record counts")
	cmd.Annotations = map[string]string{skipConfigAnnotation: "true"}
	return cmd
}
