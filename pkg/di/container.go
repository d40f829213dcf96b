// Package di provides dependency injection container
package di

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ssargent/imgdedup/pkg/api" //nolint:depguard
	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/config"
	"github.com/ssargent/imgdedup/pkg/match"
	imgsync "github.com/ssargent/imgdedup/pkg/sync"
	"github.com/ssargent/imgdedup/pkg/system"
	"github.com/ssargent/imgdedup/pkg/thumbcache"
)

// Container holds all the dependencies for the application
type Container struct {
	systemServiceFactory api.SystemServiceFactory
	serverFactory        api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		systemServiceFactory: api.NewSystemServiceFactory(),
		serverFactory:        api.NewServerFactory(),
	}
}

// GetSystemServiceFactory returns the system service factory
func (c *Container) GetSystemServiceFactory() api.SystemServiceFactory {
	return c.systemServiceFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetSystemServiceFactory allows overriding the system service factory (for testing)
func (c *Container) SetSystemServiceFactory(factory api.SystemServiceFactory) {
	c.systemServiceFactory = factory
}

// BuiltDeps bundles the opened domain services together with their close
// function, so callers (cmd/imgdedup's serve command) can defer a single
// teardown.
type BuiltDeps struct {
	ServerDeps api.ServerDeps
	Close      func()
}

// BuildServerDeps opens the thumbnail cache, B+ tree index, and system store
// named by cfg, and wires them into the Synchronizer/Matcher pair the REST
// API fronts. Paths default to cfg.WorkDir/.imgdedup/{thumbs.tmc,index.bpt}
// unless cfg.CacheDataPath/CacheIndexPath override them.
func (c *Container) BuildServerDeps(cfg *config.Config) (*BuiltDeps, error) {
	indexPath := cfg.CacheIndexPath
	if indexPath == "" {
		indexPath = filepath.Join(cfg.WorkDir, ".imgdedup", "index.bpt")
	}
	dataPath := cfg.CacheDataPath
	if dataPath == "" {
		dataPath = filepath.Join(cfg.WorkDir, ".imgdedup", "thumbs.tmc")
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache, err := thumbcache.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open thumbnail cache: %w", err)
	}

	tree, err := bptree.Open(indexPath, bptree.DupBin)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to open signature index: %w", err)
	}

	sysSvc, err := system.New(system.Config{
		DataDir:          cfg.DataDir,
		EncryptionKey:    cfg.Security.SystemKey,
		EnableEncryption: cfg.Security.SystemKey != "",
	})
	if err != nil {
		tree.Close()
		cache.Close()
		return nil, fmt.Errorf("failed to construct system service: %w", err)
	}
	if err := sysSvc.Open(); err != nil {
		tree.Close()
		cache.Close()
		return nil, fmt.Errorf("failed to open system store: %w", err)
	}

	deps := api.ServerDeps{
		Synchronizer: imgsync.New(cache, tree, cfg.Recursive),
		Matcher:      match.New(cache, tree),
		Tree:         tree,
		System:       sysSvc,
	}

	return &BuiltDeps{
		ServerDeps: deps,
		Close: func() {
			sysSvc.Close()
			tree.Close()
			cache.Close()
		},
	}, nil
}
