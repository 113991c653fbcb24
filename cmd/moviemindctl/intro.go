package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moviemind/moviemind/internal/repository/intro"
)

var introFile string

var introCmd = &cobra.Command{
	Use:   "intro",
	Short: "Inspect the movie introductions file",
}

var introLookupCmd = &cobra.Command{
	Use:   "lookup <douban_id>",
	Short: "Print the introduction for a douban id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openIntro()
		if err != nil {
			return err
		}
		text := cache.Lookup(args[0])
		if text == "" {
			return fmt.Errorf("no introduction for douban id %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var introRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the introductions file and report how many entries it holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := openIntro()
		if err != nil {
			return err
		}
		n, err := cache.Refresh()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"file": cache.Path(), "entries": n})
	},
}

func init() {
	introCmd.PersistentFlags().StringVar(&introFile, "file", "", "introductions file (default: catalog.intro_file from config)")
	introCmd.AddCommand(introLookupCmd, introRefreshCmd)
}

func openIntro() (*intro.Cache, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	path := cfg.Catalog.IntroFile
	if introFile != "" {
		path = introFile
	}
	return intro.New(path, logger), nil
}
