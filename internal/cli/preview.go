package cli

import (
	"errors"

	"github.com/spf13/cobra"

	regionaugment "github.com/menta2k/region-augment"
	"github.com/menta2k/region-augment/internal/config"
)

func newPreviewCmd() *cobra.Command {
	var f datasetFlags

	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Draw the annotated regions of every record into a directory",
		Example: `  region-augment preview -a data/new_annotations.json -i data/images --preview-dir preview`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := runOptions(cmd, func(cfg *config.Config) { f.apply(cmd, cfg) })
			if err != nil {
				return err
			}
			if opts.PreviewDir == "" {
				return errors.New("--preview-dir is required")
			}

			prog := newProgress(opts.Logger)
			res, err := regionaugment.PreviewFile(cmd.Context(), opts)
			if err != nil {
				return err
			}
			prog.done("previews written", "count", len(res.Written), "skipped", len(res.Skipped), "dir", opts.PreviewDir)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}
