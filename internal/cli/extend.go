package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	regionaugment "github.com/menta2k/region-augment"
	"github.com/menta2k/region-augment/internal/config"
)

type extendFlags struct {
	dataset       datasetFlags
	variants      []string
	workers       int
	recomputeSize bool
	blurSigma     float64
	background    string
	jpegQuality   int
}

func newExtendCmd() *cobra.Command {
	var f extendFlags

	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Derive image variants and write the extended annotations",
		Long: `Derive flip-h (fh), flip-v (fv), grayscale (gs), blur (gb) and rotate
15/30/90/180 (r15, r30, r90, r180) variants of every image. Variants whose key
already exists are skipped, so the command can be re-run on its own output.`,
		Example: `  region-augment extend -i data/images -a data/annotations
  region-augment extend -a data/annotations.json --variants fh,r90 --preview-dir preview`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := runOptions(cmd, func(cfg *config.Config) { f.apply(cmd, cfg) })
			if err != nil {
				return err
			}

			prog := newProgress(opts.Logger)
			report, err := regionaugment.ExtendFile(cmd.Context(), opts)
			if err != nil {
				return err
			}

			prog.done("dataset extended",
				"added", len(report.Added),
				"skipped", len(report.Skipped),
				"images", humanize.Bytes(uint64(report.BytesWritten)),
				"output", report.Output)
			return nil
		},
	}

	f.dataset.register(cmd)
	flags := cmd.Flags()
	flags.StringSliceVar(&f.variants, "variants", nil, "variants to derive (default: all)")
	flags.IntVarP(&f.workers, "workers", "w", 1, "records processed at once")
	flags.BoolVar(&f.recomputeSize, "recompute-size", false, "store the derived file size instead of copying the source size")
	flags.Float64Var(&f.blurSigma, "blur-sigma", 5.0, "Gaussian blur sigma")
	flags.StringVar(&f.background, "background", "black", "fill colour for canvas corners uncovered by rotation")
	flags.IntVar(&f.jpegQuality, "quality", 95, "JPEG output quality (1-100)")

	return cmd
}

func (f *extendFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f.dataset.apply(cmd, cfg)

	flags := cmd.Flags()
	if flags.Changed("variants") {
		cfg.Augment.Variants = f.variants
	}
	if flags.Changed("workers") {
		cfg.Augment.Workers = f.workers
	}
	if flags.Changed("recompute-size") {
		cfg.Augment.RecomputeSize = f.recomputeSize
	}
	if flags.Changed("blur-sigma") {
		cfg.Augment.BlurSigma = f.blurSigma
	}
	if flags.Changed("background") {
		cfg.Augment.Background = f.background
	}
	if flags.Changed("quality") {
		cfg.Output.JPEGQuality = f.jpegQuality
	}
}
