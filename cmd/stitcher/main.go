package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/esimov/stitcher"
	"github.com/esimov/stitcher/internal/config"
	"github.com/esimov/stitcher/utils"
	"github.com/spf13/cobra"
)

const HelpBanner = `
┌─┐┌┬┐┬┌┬┐┌─┐┬ ┬┌─┐┬─┐
└─┐ │ │ │ │  ├─┤├┤ ├┬┘
└─┘ ┴ ┴ ┴ └─┘┴ ┴└─┘┴└─

Two image panorama stitcher.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		left, right   string
		out, matches  string
		configPath    string
		ratio         float64
		minMatch      int
		threshold     float64
		window        int
		features      int
		timeout       time.Duration
		debug         bool
		noMatchesFile bool
	)

	cmd := &cobra.Command{
		Use:   "stitcher [left] [right]",
		Short: "Stitch two overlapping images into a panorama",
		Long: fmt.Sprintf(HelpBanner, Version) +
			`The images are registered through their matching features and blended
across the overlapping region. The left image defines the frame of the panorama.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				left = args[0]
			}
			if len(args) > 1 {
				right = args[1]
			}
			if left == "" || right == "" {
				return errors.New("please provide both the left and the right image")
			}

			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadFromFile(configPath); err != nil {
					return err
				}
			}

			// Explicitly set flags take precedence over the config file.
			flags := cmd.Flags()
			if flags.Changed("ratio") {
				cfg.Registration.Ratio = ratio
			}
			if flags.Changed("min-match") {
				cfg.Registration.MinMatch = minMatch
			}
			if flags.Changed("threshold") {
				cfg.Registration.ReprojThreshold = threshold
			}
			if flags.Changed("features") {
				cfg.Registration.MaxFeatures = features
			}
			if flags.Changed("window") {
				cfg.Blending.SmoothingWindow = window
			}
			if flags.Changed("out") {
				cfg.Output.Panorama = out
			}
			if flags.Changed("matches") {
				cfg.Output.Matches = matches
			}
			if flags.Changed("timeout") {
				cfg.Output.Timeout = timeout.String()
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Logging.Level != "" {
				stitcher.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: cfg.LogLevel(),
				})))
			}

			s := stitcher.NewStitcher()
			s.Ratio = cfg.Registration.Ratio
			s.MinMatch = cfg.Registration.MinMatch
			s.ReprojThreshold = cfg.Registration.ReprojThreshold
			s.MaxFeatures = cfg.Registration.MaxFeatures
			s.SmoothingWindow = cfg.Blending.SmoothingWindow

			runTimeout, _ := cfg.Timeout()
			op := &stitcher.Ops{
				Left:     utils.CleanPath(left, pipeName),
				Right:    utils.CleanPath(right, pipeName),
				Dst:      utils.CleanPath(cfg.Output.Panorama, pipeName),
				PipeName: pipeName,
				Timeout:  runTimeout,
			}
			if !noMatchesFile {
				op.Matches = utils.CleanPath(cfg.Output.Matches, pipeName)
			}

			return s.Execute(cmd.Context(), op)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&left, "left", "a", "", "Left source image (file, URL or - for stdin)")
	flags.StringVarP(&right, "right", "b", "", "Right source image (file, URL or - for stdin)")
	flags.StringVarP(&out, "out", "o", "panorama.jpg", "Panorama destination (file or - for stdout)")
	flags.StringVarP(&matches, "matches", "m", "matching.jpg", "Match visualization destination")
	flags.BoolVar(&noMatchesFile, "no-matches", false, "Do not write the match visualization")
	flags.StringVarP(&configPath, "config", "c", "", "JSON configuration file")
	flags.Float64Var(&ratio, "ratio", stitcher.DefaultRatio, "Lowe's ratio test threshold")
	flags.IntVar(&minMatch, "min-match", stitcher.DefaultMinMatch, "Number of matches the registration has to exceed")
	flags.Float64Var(&threshold, "threshold", stitcher.DefaultReprojThreshold, "RANSAC reprojection threshold in pixels")
	flags.IntVar(&window, "window", stitcher.DefaultSmoothingWindow, "Width of the blending band in pixels")
	flags.IntVar(&features, "features", 2000, "Maximum number of keypoints per image")
	flags.DurationVar(&timeout, "timeout", 0, "Abort the stitching after this duration (0 means no limit)")
	flags.BoolVarP(&debug, "debug", "d", false, "Log the pipeline diagnostics to stderr")

	return cmd
}

// printError displays the reason of a failed run.
func printError(err error) {
	reason := err.Error()
	if errors.Is(err, stitcher.ErrInsufficientMatches) {
		reason = "Image stitching failed due to insufficient matches.\n\t" + reason
	}
	fmt.Fprintf(os.Stderr, "%s%s",
		utils.DecorateText("\nError stitching the images: ", utils.ErrorMessage),
		utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", reason), utils.DefaultMessage),
	)
}
