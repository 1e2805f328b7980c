package cli

import (
	"github.com/spf13/cobra"

	regionaugment "github.com/menta2k/region-augment"
	"github.com/menta2k/region-augment/internal/config"
)

// datasetFlags are shared by every command that works on an annotation store.
// A flag only overrides the configuration when it was given explicitly.
type datasetFlags struct {
	images      string
	annotations string
	output      string
	previewDir  string
	alpha       float64
	seed        int64
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.images, "images", "i", "", "images directory (default: directory of the annotations)")
	flags.StringVarP(&f.annotations, "annotations", "a", "", "annotations file or directory holding annotations.json")
	flags.StringVarP(&f.output, "output", "o", "", "output annotations file (default: new_annotations.json beside the input)")
	flags.StringVar(&f.previewDir, "preview-dir", "", "write region overlays into this directory")
	flags.Float64Var(&f.alpha, "alpha", 0.7, "overlay opacity (0..1)")
	flags.Int64Var(&f.seed, "seed", 1, "seed for overlay colours")
}

func (f *datasetFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("images") {
		cfg.Dataset.ImagesDir = f.images
	}
	if flags.Changed("annotations") {
		cfg.Dataset.Annotations = f.annotations
	}
	if flags.Changed("output") {
		cfg.Dataset.Output = f.output
	}
	if flags.Changed("preview-dir") {
		cfg.Output.PreviewDir = f.previewDir
	}
	if flags.Changed("alpha") {
		cfg.Output.OverlayAlpha = f.alpha
	}
	if flags.Changed("seed") {
		cfg.Output.Seed = f.seed
	}
}

// runOptions loads the configuration, applies the flags and builds the
// options of a run with the command's loggers attached.
func runOptions(cmd *cobra.Command, apply ...func(cfg *config.Config)) (*config.Config, regionaugment.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, regionaugment.Options{}, err
	}
	for _, fn := range apply {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, regionaugment.Options{}, err
	}

	opts, err := regionaugment.OptionsFromConfig(cfg)
	if err != nil {
		return nil, regionaugment.Options{}, err
	}
	l := loggersFromContext(cmd.Context())
	opts.Logger = l.out
	opts.ErrorLogger = l.err
	return cfg, opts, nil
}
