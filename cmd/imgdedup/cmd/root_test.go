package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/ssargent/imgdedup/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromContextMissing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := configFromContext(cmd)
	assert.Error(t, err)
}

func TestConfigFromContextPresent(t *testing.T) {
	cmd := &cobra.Command{}
	cfg := config.DefaultConfig()
	cmd.SetContext(context.WithValue(context.Background(), configContextKey, cfg))

	got, err := configFromContext(cmd)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestApplySyncFlagsOverridesConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().BoolP("recursive", "r", false, "")
	cmd.Flags().String("cache-index", "", "")
	cmd.Flags().String("cache-data", "", "")
	cmd.Flags().Bool("no-cache", false, "")
	cmd.Flags().Bool("no-update", false, "")
	cmd.Flags().Bool("dump", false, "")

	require.NoError(t, cmd.Flags().Set("recursive", "true"))
	require.NoError(t, cmd.Flags().Set("cache-index", "/tmp/idx.bpt"))
	require.NoError(t, cmd.Flags().Set("no-update", "true"))

	cfg := config.DefaultConfig()
	applySyncFlags(cmd, cfg)

	assert.True(t, cfg.Recursive)
	assert.Equal(t, "/tmp/idx.bpt", cfg.CacheIndexPath)
	assert.True(t, cfg.CacheNoUpdate)
	assert.False(t, cfg.CacheDontUse)
}
