package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnatoleLucet/lyra"
	"github.com/AnatoleLucet/lyra/internal/config"
)

var (
	configPath string
	envFile    string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lyra",
	Short: "Lyra compiles and demonstrates interactive visualizations",
	Long: `Lyra is the core of a visual editor for interactive visualizations.
Documents are described as YAML scripts, compiled to Vega specifications,
and interactions can be inferred from demonstrated gestures.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envFile)
		if err != nil {
			return err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level})))
		return nil
	},
}

// Execute runs the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the TOML config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to a .env file with LYRA_* overrides")
}

// AddCommand registers a subcommand.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// editorOptions builds the editor options of the loaded configuration.
func editorOptions(c *config.Config) (lyra.Options, error) {
	version, err := c.VegaVersion()
	if err != nil {
		return lyra.Options{}, err
	}

	return lyra.Options{
		Logger:        slog.Default(),
		Debounce:      c.Debounce.Duration,
		Width:         c.Scene.Width,
		Height:        c.Scene.Height,
		TimelineLimit: c.Timeline.Limit,
		Version:       version,
	}, nil
}
