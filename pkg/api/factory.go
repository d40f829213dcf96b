// Package api provides factory implementations for dependency injection
package api

import (
	"github.com/ssargent/imgdedup/pkg/system"
)

// DefaultSystemServiceFactory is the default implementation of SystemServiceFactory
type DefaultSystemServiceFactory struct{}

// NewSystemServiceFactory creates a new system service factory
func NewSystemServiceFactory() SystemServiceFactory {
	return &DefaultSystemServiceFactory{}
}

// CreateSystemService creates a new system service with the given config
func (f *DefaultSystemServiceFactory) CreateSystemService(
	dataDir, encryptionKey string,
	enableEncryption bool,
) (*system.Service, error) {
	return system.New(system.Config{
		DataDir:          dataDir,
		EncryptionKey:    encryptionKey,
		EnableEncryption: enableEncryption,
	})
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(deps ServerDeps, config ServerConfig) error {
	return StartServer(deps, config)
}
