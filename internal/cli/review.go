package cli

import (
	"github.com/spf13/cobra"

	regionaugment "github.com/menta2k/region-augment"
	"github.com/menta2k/region-augment/internal/config"
)

type reviewFlags struct {
	dataset  datasetFlags
	backend  string
	url      string
	model    string
	sendFmt  string
	sendSize int
	sendQ    int
	report   string
	keys     []string
}

func newReviewCmd() *cobra.Command {
	var f reviewFlags

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Ask a vision model whether the regions sit on their objects",
		Example: `  region-augment review -a data/new_annotations.json -i data/images --backend ollama --model minicpm-v
  region-augment review -a data --keys img1_r90,img1_r180 --report review.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, err := runOptions(cmd, func(cfg *config.Config) { f.apply(cmd, cfg) })
			if err != nil {
				return err
			}

			reviewer, err := regionaugment.NewReviewer(cfg.Review)
			if err != nil {
				return err
			}

			prog := newProgress(opts.Logger)
			report, err := regionaugment.ReviewFile(cmd.Context(), opts, reviewer, cfg.Review, f.keys...)
			if err != nil {
				return err
			}

			if f.report != "" {
				if err := regionaugment.WriteReviewReport(f.report, report); err != nil {
					return err
				}
			}
			prog.done("review finished",
				"aligned", report.Aligned,
				"misaligned", report.Misaligned,
				"failed", report.Failed)
			return nil
		},
	}

	f.dataset.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&f.backend, "backend", "llamacpp", "backend to use: ollama or llamacpp")
	flags.StringVar(&f.url, "url", "", "server URL (defaults: ollama=http://localhost:11435/api/chat, llamacpp=http://localhost:8080)")
	flags.StringVar(&f.model, "model", "openbmb/minicpm-v4.5", "model name")
	flags.StringVar(&f.sendFmt, "sendfmt", "jpg", "format sent to the model: jpg|png")
	flags.IntVar(&f.sendSize, "sendsize", 1536, "max long side sent to the model (px), 0=original")
	flags.IntVar(&f.sendQ, "sendq", 85, "JPEG quality for the image sent to the model (1-100)")
	flags.StringVar(&f.report, "report", "", "write the verdicts to this JSON file")
	flags.StringSliceVar(&f.keys, "keys", nil, "only review these annotation keys")

	return cmd
}

func (f *reviewFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f.dataset.apply(cmd, cfg)

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Review.Backend = f.backend
	}
	if flags.Changed("url") {
		cfg.Review.URL = f.url
	}
	if flags.Changed("model") {
		cfg.Review.Model = f.model
	}
	if flags.Changed("sendfmt") {
		cfg.Review.SendFormat = f.sendFmt
	}
	if flags.Changed("sendsize") {
		cfg.Review.SendSize = f.sendSize
	}
	if flags.Changed("sendq") {
		cfg.Review.SendQuality = f.sendQ
	}
}
