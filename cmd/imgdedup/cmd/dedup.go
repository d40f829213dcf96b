/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/match"
)

// dedupCmd represents the dedup command
var dedupCmd = &cobra.Command{
	Use:   "dedup [filename] [offset]",
	Short: "Move a confirmed duplicate into the output folder",
	Long: `Relocates filename (relative to work-dir) into out-path, named by a
stable hash of its canonical path, and removes it from the thumbnail cache
and signature index. offset is the cache offset reported by "imgdedup match".

Examples:
  imgdedup dedup dup.jpg 1048 -o ./dedup-out`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("out-path"); v != "" {
			cfg.OutPath = v
		}

		offset, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[1], err)
		}

		cache, tree, closeAll, err := openCacheAndTree(cfg)
		if err != nil {
			return err
		}
		defer closeAll()

		path := filepath.Join(cfg.WorkDir, args[0])
		dest, err := match.Dedup(cache, tree, path, uint32(offset), cfg.OutPath)
		if err != nil {
			return fmt.Errorf("dedup failed: %w", err)
		}

		cmd.Printf("moved %s -> %s\n", args[0], dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupCmd)

	dedupCmd.Flags().StringP("out-path", "o", "", "Destination folder for moved duplicates (default: config's out_path)")
}
