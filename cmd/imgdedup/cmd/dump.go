/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/bptree"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Render the signature index as text",
	Long: `Writes a textual rendering of the B+ tree's node/leaf structure (--all)
or a one-line summary of its depth and item counts (--info).

Examples:
  imgdedup dump --all
  imgdedup dump --info`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("cache-index"); v != "" {
			cfg.CacheIndexPath = v
		}
		if v, _ := cmd.Flags().GetString("cache-data"); v != "" {
			cfg.CacheDataPath = v
		}

		all, _ := cmd.Flags().GetBool("all")
		info, _ := cmd.Flags().GetBool("info")
		if !all && !info {
			info = true
		}

		_, tree, closeAll, err := openCacheAndTree(cfg)
		if err != nil {
			return err
		}
		defer closeAll()

		renderDump(cmd, tree, all, info)
		return nil
	},
}

// renderDump writes tree's stats summary (info) and/or full node/leaf text
// (all) to cmd's output, shared by both the dump command and `sync --dump`.
func renderDump(cmd *cobra.Command, tree *bptree.Tree, all, info bool) {
	if info {
		stats := tree.Stats()
		cmd.Printf("depth=%d nodes=%d leaves=%d items=%d used=%d bytes\n",
			stats.Depth, stats.NNodes, stats.NLeaves, stats.NItems, stats.UsedSize)
	}
	if all {
		fmt.Fprint(cmd.OutOrStdout(), tree.Dump())
	}
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Bool("all", false, "Dump the full node/leaf structure")
	dumpCmd.Flags().Bool("info", false, "Print depth and item-count summary (default)")
	dumpCmd.Flags().String("cache-index", "", "Override the B+ tree index file location")
	dumpCmd.Flags().String("cache-data", "", "Override the thumbnail cache file location")
}
