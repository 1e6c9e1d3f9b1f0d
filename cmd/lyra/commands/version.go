package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/lyra/internal/config"
	"github.com/AnatoleLucet/lyra/internal/vega"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the Lyra version and the Vega grammar versions specifications are compiled for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "lyra %s\n", Version)
		if GitCommit != "none" {
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
		}
		if BuildDate != "unknown" {
			fmt.Fprintf(out, "Build date: %s\n", BuildDate)
		}

		v, err := cfg.VegaVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Vega: %s (supported %s)\n", vega.SchemaURL(v), config.SupportedVersions)
		return nil
	},
}

func init() {
	AddCommand(versionCmd)
}
