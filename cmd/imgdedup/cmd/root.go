/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/config"
	"github.com/ssargent/imgdedup/pkg/di"
)

type contextKey string

const configContextKey contextKey = "config"

// container is injected by main() before Execute() runs.
var container *di.Container

// SetContainer wires the dependency injection container into the cmd package.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imgdedup",
	Short: "imgdedup - fuzzy image duplicate finder",
	Long: `imgdedup indexes a directory of images into a memory-mapped thumbnail
cache and B+ tree signature index, then finds and relocates near-duplicates.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			cmd.Println("imgdedup " + Version)
			os.Exit(0)
		}

		configPath, _ := cmd.Flags().GetString("config")
		workDir, _ := cmd.Flags().GetString("work-dir")
		verbose, _ := cmd.Flags().GetBool("verbose")

		var cfg *config.Config
		if configPath != "" && config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		if workDir != "" {
			cfg.WorkDir = workDir
		}
		cfg.Verbose = cfg.Verbose || verbose

		cmd.SetContext(context.WithValue(cmd.Context(), configContextKey, cfg))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose progress/diagnostic output")
	rootCmd.PersistentFlags().StringP("work-dir", "w", ".", "Directory to synchronize/match/dedup against")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
}

// configFromContext retrieves the *config.Config stashed by PersistentPreRunE.
func configFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configContextKey).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("config not found in context")
	}
	return cfg, nil
}
