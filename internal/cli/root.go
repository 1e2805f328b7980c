package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/menta2k/region-augment/internal/config"
	"github.com/menta2k/region-augment/internal/utils"
)

// Build information, injected with ldflags through SetVersion.
var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the region-augment CLI and returns an error if any command fails.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute() error {
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background())
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "region-augment",
		Short:        "Grow polygon-annotated image datasets with flips, filters and rotations",
		Long:         `region-augment derives flipped, grayscale, blurred and rotated copies of every image in a polygon-annotated dataset and rewrites the polygons so they stay on their objects.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLoggers(cmd.Context(), loggers{
				out: newLogger(stdout, level),
				err: newLogger(stderr, level),
			})
			cmd.SetContext(ctx)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("region-augment %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringP("config", "c", "", "configuration file (json or yaml)")

	root.AddCommand(newExtendCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newReviewCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// loadConfig reads the file named by --config, falling back to the user
// configuration file and then to the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if def := config.GetConfigPath(); utils.FileExists(def) {
			path = def
		}
	}
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	loggersFromContext(cmd.Context()).out.Debug("configuration loaded", "path", path)
	return cfg, nil
}
