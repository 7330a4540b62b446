package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cuong3004/mobilevit-go/checkpoints"
	"github.com/cuong3004/mobilevit-go/mobilevit"
	"github.com/cuong3004/mobilevit-go/transplant"
)

// Options holds the conversion parameters. Log verbosity is part of the
// options rather than ambient process state so tests and embedders can set it
// explicitly.
type Options struct {
	Model      string
	Resolution int
	Dataset    string
	Checkpoint string
	Output     string
	Format     string
	ConfigFile string
	Verbose    bool
}

// NewRootCommand creates the mobilevit-convert command.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "mobilevit-convert",
		Short: "Port pretrained MobileViT weights between frameworks",
		Long: `mobilevit-convert builds a TensorFlow-convention MobileViT layer registry,
loads a pretrained PyTorch checkpoint as a path-keyed parameter store, and
transplants every parameter across with per-kind tensor layout conversion.

Example:
  mobilevit-convert -m mobilevit_xxs -r 256 -d imagenet-1k -c weights/mobilevit_xxs.safetensors`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigFile(cmd, opts); err != nil {
				return err
			}
			return runConvert(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model-name", "m", "mobilevit_xxs", "MobileViT model family")
	cmd.Flags().IntVarP(&opts.Resolution, "image-resolution", "r", 256, "input image resolution")
	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "imagenet-1k", "dataset identifier selecting the class count")
	cmd.Flags().StringVarP(&opts.Checkpoint, "checkpoint-path", "c", "", "source weights: local safetensors path or URL")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (default saved_models/<model>_<resolution>.<format>)")
	cmd.Flags().StringVar(&opts.Format, "format", "json", "output format: json or safetensors")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "YAML file with conversion parameters")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func runConvert(opts *Options) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	if opts.Checkpoint == "" {
		return fmt.Errorf("no checkpoint path given (use --checkpoint-path)")
	}

	classes, err := mobilevit.ClassesForDataset(opts.Dataset)
	if err != nil {
		return err
	}
	format, err := checkpoints.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	slog.Info("building target registry",
		"model", opts.Model, "resolution", opts.Resolution, "classes", classes)
	registry, specs, err := mobilevit.Build(opts.Model, opts.Resolution, classes)
	if err != nil {
		return err
	}
	slog.Info("registry built", "layers", registry.Len())

	weightsPath, err := fetchCheckpoint(opts.Checkpoint)
	if err != nil {
		return err
	}
	slog.Info("loading source parameter store", "path", weightsPath)
	store, err := checkpoints.LoadStore(weightsPath)
	if err != nil {
		return err
	}
	slog.Info("source store loaded", "parameters", store.Len())

	plan, err := mobilevit.Plan(opts.Model)
	if err != nil {
		return err
	}
	if err := transplant.Run(store, registry, plan); err != nil {
		return err
	}
	if err := transplant.Verify(registry); err != nil {
		return err
	}

	output := opts.Output
	if output == "" {
		output = filepath.Join("saved_models",
			fmt.Sprintf("%s_%d.%s", opts.Model, opts.Resolution, opts.Format))
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	meta := checkpoints.CheckpointMetadata{
		Model:      opts.Model,
		Resolution: opts.Resolution,
		Classes:    classes,
	}
	saver := checkpoints.NewCheckpointSaver(format)
	if err := saver.SaveRegistry(registry, specs, meta, output); err != nil {
		return err
	}

	slog.Info("converted model serialized", "path", output, "format", format.String())
	return nil
}
