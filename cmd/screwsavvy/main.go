// Package main is the ScrewSavvy CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/cli"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

type rootOptions struct {
	configPath string
	debug      bool
	format     string
	serverURL  string
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "screwsavvy",
		Short: "Fastener recommendation assistant over your screw catalogues",
		Long: `ScrewSavvy ingests screw catalogues and spec sheets into a vector store
and answers fastener questions with retrieval-augmented generation.

Credentials are read from the environment or a .env file:
  QDRANT_URL, QDRANT_API_KEY, REPLICATE_API_TOKEN`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.format, "output", "o", string(cli.OutputText), "output format: text or json")

	root.AddCommand(
		newServerCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newSearchCmd(opts),
		newFeedbackCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies environment overrides. When the
// default file does not exist the built-in defaults are used. The returned
// path is empty in that case, so nothing is written back.
func loadConfig(path string) (*config.Config, string, error) {
	var cfg *config.Config
	resolved := ""
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, "", err
		}
		if abs, absErr := filepath.Abs(path); absErr == nil {
			resolved = abs
		} else {
			resolved = path
		}
	} else if path != defaultConfigPath {
		return nil, "", fmt.Errorf("config file %s: %w", path, err)
	} else {
		cfg = config.Default()
	}
	config.ApplyEnv(cfg, os.LookupEnv)
	return cfg, resolved, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("screwsavvy version %s\n", version)
		},
	}
}
