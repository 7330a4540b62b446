package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Options for YAML run configs. Every field is optional;
// flags set explicitly on the command line always win over the file.
type fileConfig struct {
	Model      string `yaml:"model_name"`
	Resolution int    `yaml:"image_resolution"`
	Dataset    string `yaml:"dataset"`
	Checkpoint string `yaml:"checkpoint_path"`
	Output     string `yaml:"output"`
	Format     string `yaml:"format"`
	Verbose    bool   `yaml:"verbose"`
}

// applyConfigFile fills opts from the YAML file named by --config, without
// overriding any flag the user changed explicitly.
func applyConfigFile(cmd *cobra.Command, opts *Options) error {
	if opts.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", opts.ConfigFile, err)
	}

	flags := cmd.Flags()
	if cfg.Model != "" && !flags.Changed("model-name") {
		opts.Model = cfg.Model
	}
	if cfg.Resolution != 0 && !flags.Changed("image-resolution") {
		opts.Resolution = cfg.Resolution
	}
	if cfg.Dataset != "" && !flags.Changed("dataset") {
		opts.Dataset = cfg.Dataset
	}
	if cfg.Checkpoint != "" && !flags.Changed("checkpoint-path") {
		opts.Checkpoint = cfg.Checkpoint
	}
	if cfg.Output != "" && !flags.Changed("output") {
		opts.Output = cfg.Output
	}
	if cfg.Format != "" && !flags.Changed("format") {
		opts.Format = cfg.Format
	}
	if cfg.Verbose && !flags.Changed("verbose") {
		opts.Verbose = true
	}

	return nil
}
