/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the imgdedup REST API server, fronting the directory synchronizer,
fuzzy match engine, and signature index.

Example:
  imgdedup serve --api-key=mysecretkey --port=8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd)
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			return fmt.Errorf("--api-key is required")
		}

		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}

		built, err := container.BuildServerDeps(cfg)
		if err != nil {
			return fmt.Errorf("failed to build server dependencies: %w", err)
		}
		defer built.Close()

		serverFactory := container.GetServerFactory()
		serverStarter := serverFactory.CreateServerStarter()

		serverConfig := api.ServerConfig{
			Port:    port,
			APIKey:  apiKey,
			DataDir: cfg.DataDir,
		}

		return serverStarter.StartServer(built.ServerDeps, serverConfig)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key for authentication (required)")
}
