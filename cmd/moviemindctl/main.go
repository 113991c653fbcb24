// Command moviemindctl runs catalog operations from the shell without the HTTP server.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/config"
	logpkg "github.com/moviemind/moviemind/internal/logger"
	"github.com/moviemind/moviemind/internal/version"
)

var envName string

var rootCmd = &cobra.Command{
	Use:   "moviemindctl",
	Short: "MovieMind command line tools",
	Long: `Command line tools for the MovieMind catalog.

Configuration is read from config/<env>.yaml, the same file the API server uses.

Example:
  moviemindctl ask "评分最高的科幻电影"
  moviemindctl intro lookup 1292052
  moviemindctl --env prod intro refresh`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "configuration environment (local, prod)")

	rootCmd.AddCommand(askCmd, introCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "moviemindctl %s\n", version.String())
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and a logger for the selected environment.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envName)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
