/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/config"
	"github.com/ssargent/imgdedup/pkg/match"
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match [filename]",
	Short: "Find near duplicates of an indexed file",
	Long: `Thumbnails and signatures filename (relative to work-dir), range-scans
the signature index, and confirms candidates with a pixel-level fuzzy
compare.

The -m method flag is accepted for compatibility with the source CLI but
imgdedup only implements the pixel comparator ("p"); other method codes fall
back to it.

Examples:
  imgdedup match photo.jpg -w ./photos
  imgdedup match photo.jpg -p 50 -t 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd)
		if err != nil {
			return err
		}
		applyCompareFlags(cmd, cfg)

		cache, tree, closeAll, err := openCacheAndTree(cfg)
		if err != nil {
			return err
		}
		defer closeAll()

		engine := match.New(cache, tree)
		engine.Tolerance = float32(cfg.PixelTolerance)
		engine.MaxPixelDiff = cfg.PixelsDiff
		if cfg.Verbose {
			engine.Logf = func(format string, a ...any) { cmd.Printf(format+"\n", a...) }
		}

		filename := args[0]
		path := filepath.Join(cfg.WorkDir, filename)
		matches, err := engine.FindMatches(path, filename, match.DefaultMaxMatches)
		if err != nil {
			return fmt.Errorf("match failed: %w", err)
		}

		if len(matches) == 0 {
			cmd.Println("No matches found")
			return nil
		}
		for _, m := range matches {
			cmd.Printf("%s (offset=%d, signature=%v)\n", m.Filename, m.Offset, m.Signature)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("method", "m", "p", "Compare method: a, r, hr, hh, p (only p is implemented)")
	matchCmd.Flags().IntP("pixels-diff", "p", 0, "Max mismatched pixels tolerated (0: use config default)")
	matchCmd.Flags().Float64P("tolerance", "t", 0, "Per-channel absolute difference tolerance (0: use config default)")
}

// applyCompareFlags layers the match command's compare-knob overrides onto cfg.
func applyCompareFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("method"); v != "" {
		cfg.CompareMethod = v
	}
	if v, _ := cmd.Flags().GetInt("pixels-diff"); v > 0 {
		cfg.PixelsDiff = v
	}
	if v, _ := cmd.Flags().GetFloat64("tolerance"); v > 0 {
		cfg.PixelTolerance = v
	}
}
