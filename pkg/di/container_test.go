package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ssargent/imgdedup/pkg/config"
)

func TestBuildServerDeps(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.WorkDir = dir
	cfg.DataDir = filepath.Join(dir, "system-data")
	cfg.Security.SystemKey = ""

	c := NewContainer()
	built, err := c.BuildServerDeps(cfg)
	if err != nil {
		t.Fatalf("BuildServerDeps returned error: %v", err)
	}
	defer built.Close()

	if built.ServerDeps.Synchronizer == nil {
		t.Fatal("expected a non-nil Synchronizer")
	}
	if built.ServerDeps.Matcher == nil {
		t.Fatal("expected a non-nil Matcher")
	}
	if built.ServerDeps.Tree == nil {
		t.Fatal("expected a non-nil Tree")
	}
	if built.ServerDeps.System == nil {
		t.Fatal("expected a non-nil System")
	}
	if !built.ServerDeps.System.IsOpen() {
		t.Fatal("expected the system store to be open")
	}
}

func TestBuildServerDepsHonorsCacheOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.WorkDir = dir
	cfg.DataDir = filepath.Join(dir, "system-data")
	cfg.CacheIndexPath = filepath.Join(dir, "custom-index.bpt")
	cfg.CacheDataPath = filepath.Join(dir, "custom-thumbs.tmc")
	cfg.Security.SystemKey = ""

	c := NewContainer()
	built, err := c.BuildServerDeps(cfg)
	if err != nil {
		t.Fatalf("BuildServerDeps returned error: %v", err)
	}
	defer built.Close()

	if _, err := os.Stat(cfg.CacheIndexPath); err != nil {
		t.Fatalf("expected the index file at the override path: %v", err)
	}
	if _, err := os.Stat(cfg.CacheDataPath); err != nil {
		t.Fatalf("expected the cache file at the override path: %v", err)
	}
}
