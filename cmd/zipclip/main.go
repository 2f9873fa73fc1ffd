package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/j3sv1n/zipclip-backend/internal/clips"
	"github.com/j3sv1n/zipclip-backend/internal/config"
	"github.com/j3sv1n/zipclip-backend/internal/logging"
	"github.com/j3sv1n/zipclip-backend/internal/pipeline"
	"github.com/j3sv1n/zipclip-backend/internal/timeline"
	"github.com/j3sv1n/zipclip-backend/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zipclip",
	Short: "zipclip - stitch segments of a long video into one short",
	Long:  "Cuts segments out of a long video, joins them with transitions chosen from the frames at each junction, and remaps source timestamps onto the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./zipclip.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	stitchCmd.Flags().StringArrayP("segment", "s", nil, "segment to keep as start-end, repeatable")
	stitchCmd.Flags().StringP("output", "o", "", "output file (default: <output_dir>/<name>_<job>_zipped.mp4)")
	stitchCmd.Flags().StringP("transcript", "t", "", "transcript to burn in as captions")
	stitchCmd.Flags().String("title", "", "title used to name the output")

	planCmd.Flags().StringArrayP("segment", "s", nil, "segment to keep as start-end, repeatable")
	planCmd.Flags().String("timeline-out", "", "write the built timeline to this YAML file")

	remapCmd.Flags().String("timeline", "", "timeline file written by plan")
	remapCmd.Flags().Float64("offset", 0, "seconds added to every timestamp (default: stitch.remap_offset)")
	_ = remapCmd.MarkFlagRequired("timeline")

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(stitchCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(remapCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
}

var stitchCmd = &cobra.Command{
	Use:   "stitch [input video]",
	Short: "Stitch segments into a single video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		job, err := jobFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		job.Output, _ = cmd.Flags().GetString("output")
		job.Transcript, _ = cmd.Flags().GetString("transcript")
		job.Title, _ = cmd.Flags().GetString("title")

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		bar, progress := newProgress(estimateDuration(job.Segments), "stitching")
		res, err := pipe.Stitch(cmd.Context(), job, progress)
		finishProgress(bar)
		if err != nil {
			return err
		}

		log.Info().
			Str("job_id", res.JobID).
			Str("output", res.Output).
			Str("duration", util.FormatSeconds(res.Timeline.Duration)).
			Int("dropped", res.Dropped).
			Int("captions", res.Captions).
			Msg("stitch complete")

		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [input video]",
	Short: "Choose transitions and lay out the timeline without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		job, err := jobFromFlags(cmd, args[0])
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		plan, err := pipe.Plan(cmd.Context(), job)
		if err != nil {
			return err
		}
		defer plan.Close()

		printTimeline(os.Stdout, plan.Timeline)
		for _, d := range plan.Dropped {
			fmt.Fprintf(os.Stdout, "dropped %v\n", d)
		}

		if out, _ := cmd.Flags().GetString("timeline-out"); out != "" {
			if err := timeline.WriteFile(out, plan.Timeline); err != nil {
				return err
			}
			log.Info().Str("timeline", out).Msg("timeline written")
		}
		return nil
	},
}

var remapCmd = &cobra.Command{
	Use:   "remap --timeline file [timestamp...]",
	Short: "Map source timestamps onto a stitched timeline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		path, _ := cmd.Flags().GetString("timeline")
		tl, err := timeline.ReadFile(path)
		if err != nil {
			return err
		}

		offset := cfg.Stitch.RemapOffset
		if cmd.Flags().Changed("offset") {
			offset, _ = cmd.Flags().GetFloat64("offset")
		}

		times := make([]float64, len(args))
		for i, arg := range args {
			d, err := util.ParseTimestamp(arg)
			if err != nil {
				return err
			}
			times[i] = d.Seconds()
		}

		printRemap(os.Stdout, timeline.NewRemapper(tl.Mapping(), offset), times)
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [jobs file]",
	Short: "Run independent stitch jobs concurrently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		jobs, err := pipeline.ReadJobs(args[0])
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		log.Info().Int("jobs", len(jobs)).Int("concurrency", cfg.Concurrency).Msg("starting batch")
		results := pipe.Batch(cmd.Context(), jobs, nil)
		printResults(os.Stdout, results)

		return pipeline.Failed(results)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "zipclip.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if force, _ := cmd.Flags().GetBool("force"); !force && util.FileExists(path) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [overlays]",
	Short: "List available resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "overlays" {
			return fmt.Errorf("unknown resource %q", args[0])
		}
		cfg := config.FromContext(cmd.Context())
		printOverlays(os.Stdout, cfg)
		return nil
	},
}

// jobFromFlags builds a job from repeated --segment flags
func jobFromFlags(cmd *cobra.Command, input string) (pipeline.Job, error) {
	ranges, _ := cmd.Flags().GetStringArray("segment")
	if len(ranges) == 0 {
		return pipeline.Job{}, fmt.Errorf("at least one --segment is required")
	}

	segs := make([]clips.Segment, 0, len(ranges))
	for _, r := range ranges {
		start, end, err := util.ParseRange(r)
		if err != nil {
			return pipeline.Job{}, err
		}
		segs = append(segs, clips.Segment{Start: start, End: end})
	}
	return pipeline.Job{Input: input, Segments: segs}, nil
}

// estimateDuration is an upper bound for the stitched length
func estimateDuration(segs []clips.Segment) float64 {
	var total float64
	for _, s := range segs {
		if d := s.Duration(); d > 0 {
			total += d
		}
	}
	return total
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
