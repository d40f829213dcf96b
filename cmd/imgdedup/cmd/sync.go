/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/config"
	imgsync "github.com/ssargent/imgdedup/pkg/sync"
	"github.com/ssargent/imgdedup/pkg/thumbcache"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the thumbnail cache against work-dir",
	Long: `Walks work-dir (recursively with -r), thumbnailing and indexing any
image whose recorded mtime is stale or missing.

Examples:
  imgdedup sync -w ./photos -r
  imgdedup sync --cache-index ./idx.bpt --cache-data ./thumbs.tmc
  imgdedup sync --no-update`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd)
		if err != nil {
			return err
		}
		applySyncFlags(cmd, cfg)

		if cfg.CacheNoUpdate {
			cmd.Println("--no-update set, skipping synchronize")
			return nil
		}
		if cfg.CacheDontUse {
			cmd.Println("--no-cache set, skipping synchronize")
			return nil
		}

		cache, tree, closeAll, err := openCacheAndTree(cfg)
		if err != nil {
			return err
		}
		defer closeAll()

		if cfg.CacheDump {
			renderDump(cmd, tree, true, true)
			return nil
		}

		synchronizer := imgsync.New(cache, tree, cfg.Recursive)
		if cfg.Verbose {
			synchronizer.Logf = func(format string, a ...any) { cmd.Printf(format+"\n", a...) }
		}

		report, err := synchronizer.Synchronize(cfg.WorkDir)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if report.Skipped {
			cmd.Println("Cache is up-to-date")
			return nil
		}
		cmd.Printf("scan %s: %d added, %d updated\n", report.ScanID, report.Added, report.Updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories")
	syncCmd.Flags().String("cache-index", "", "Override the B+ tree index file location")
	syncCmd.Flags().String("cache-data", "", "Override the thumbnail cache file location")
	syncCmd.Flags().Bool("no-cache", false, "Disable the thumbnail cache entirely")
	syncCmd.Flags().Bool("no-update", false, "Skip the synchronize pass, use the cache as-is")
	syncCmd.Flags().Bool("dump", false, "Dump the cache/tree instead of synchronizing")
}

// applySyncFlags layers sync-specific flag overrides onto cfg.
func applySyncFlags(cmd *cobra.Command, cfg *config.Config) {
	if r, _ := cmd.Flags().GetBool("recursive"); r {
		cfg.Recursive = true
	}
	if v, _ := cmd.Flags().GetString("cache-index"); v != "" {
		cfg.CacheIndexPath = v
	}
	if v, _ := cmd.Flags().GetString("cache-data"); v != "" {
		cfg.CacheDataPath = v
	}
	if v, _ := cmd.Flags().GetBool("no-cache"); v {
		cfg.CacheDontUse = true
	}
	if v, _ := cmd.Flags().GetBool("no-update"); v {
		cfg.CacheNoUpdate = true
	}
	if v, _ := cmd.Flags().GetBool("dump"); v {
		cfg.CacheDump = true
	}
}

// openCacheAndTree opens the thumbnail cache and B+ tree index named by cfg,
// creating their parent directory if needed, and returns a closer for both.
func openCacheAndTree(cfg *config.Config) (*thumbcache.Cache, *bptree.Tree, func(), error) {
	indexPath := cfg.CacheIndexPath
	if indexPath == "" {
		indexPath = filepath.Join(cfg.WorkDir, ".imgdedup", "index.bpt")
	}
	dataPath := cfg.CacheDataPath
	if dataPath == "" {
		dataPath = filepath.Join(cfg.WorkDir, ".imgdedup", "thumbs.tmc")
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0750); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0750); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache, err := thumbcache.Open(dataPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open thumbnail cache: %w", err)
	}
	tree, err := bptree.Open(indexPath, bptree.DupBin)
	if err != nil {
		cache.Close()
		return nil, nil, nil, fmt.Errorf("failed to open signature index: %w", err)
	}

	return cache, tree, func() {
		tree.Close()
		cache.Close()
	}, nil
}
