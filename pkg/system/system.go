// Package system is the ambient, off-core store for operator-facing
// metadata: API keys used to guard the REST API, and persisted Config
// overrides. It is the imgdedup analogue of the teacher's pkg/api.SystemService,
// rebuilt over pkg/storage's pebble wrapper instead of a second bespoke
// append-log KV store, since pkg/storage already exists in the pack for
// exactly this kind of side-store duty. The image-dedup core (arena, bptree,
// thumbcache) never imports this package.
package system

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ssargent/imgdedup/pkg/storage"
)

// APIKey represents an API key stored in the system store.
type APIKey struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// Config holds construction parameters for a Service.
type Config struct {
	DataDir          string
	EncryptionKey    string
	EnableEncryption bool
}

// Service provides CRUD over API keys and arbitrary config values, optionally
// encrypting values at rest with AES-GCM the same way the teacher's
// SystemService does.
type Service struct {
	store  *storage.DefaultStorage
	config Config
	gcm    cipher.AEAD
	isOpen bool
}

const (
	apiKeyPrefix = "apikey:"
	configPrefix = "config:"
)

// New creates a Service. The pebble store is not opened until Open is called.
func New(config Config) (*Service, error) {
	var gcm cipher.AEAD
	if config.EnableEncryption && config.EncryptionKey != "" {
		block, err := aes.NewCipher([]byte(config.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("system: create cipher: %w", err)
		}
		gcm, err = cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("system: create GCM: %w", err)
		}
	}

	return &Service{config: config, gcm: gcm}, nil
}

// Open opens the underlying pebble store rooted at DataDir/system.
func (s *Service) Open() error {
	if s.isOpen {
		return nil
	}

	db, err := storage.NewDefaultStorage(filepath.Join(s.config.DataDir, "system"))
	if err != nil {
		return fmt.Errorf("system: open store: %w", err)
	}

	s.store = db
	s.isOpen = true
	return nil
}

// Close shuts down the system service.
func (s *Service) Close() error {
	if !s.isOpen {
		return nil
	}
	s.isOpen = false
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// IsOpen reports whether Open has succeeded without a matching Close.
func (s *Service) IsOpen() bool {
	return s.isOpen
}

func (s *Service) encrypt(plaintext []byte) ([]byte, error) {
	if s.gcm == nil {
		return plaintext, nil
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("system: generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Service) decrypt(ciphertext []byte) ([]byte, error) {
	if s.gcm == nil {
		return ciphertext, nil
	}
	if len(ciphertext) < s.gcm.NonceSize() {
		return nil, fmt.Errorf("system: ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:s.gcm.NonceSize()], ciphertext[s.gcm.NonceSize():]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("system: decrypt: %w", err)
	}
	return plaintext, nil
}

// StoreAPIKey stores an API key.
func (s *Service) StoreAPIKey(apiKey APIKey) error {
	if !s.isOpen {
		return fmt.Errorf("system: service is not open")
	}
	data, err := json.Marshal(apiKey)
	if err != nil {
		return fmt.Errorf("system: marshal API key: %w", err)
	}
	encrypted, err := s.encrypt(data)
	if err != nil {
		return fmt.Errorf("system: encrypt API key: %w", err)
	}
	return s.store.Put([]byte(apiKeyPrefix+apiKey.ID), encrypted)
}

// GetAPIKey retrieves an API key by id.
func (s *Service) GetAPIKey(keyID string) (*APIKey, error) {
	if !s.isOpen {
		return nil, fmt.Errorf("system: service is not open")
	}
	encrypted, err := s.store.Get([]byte(apiKeyPrefix + keyID))
	if err != nil {
		return nil, fmt.Errorf("system: get API key: %w", err)
	}
	data, err := s.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("system: decrypt API key: %w", err)
	}
	var apiKey APIKey
	if err := json.Unmarshal(data, &apiKey); err != nil {
		return nil, fmt.Errorf("system: unmarshal API key: %w", err)
	}
	return &apiKey, nil
}

// ListAPIKeys returns every stored API key id.
func (s *Service) ListAPIKeys() ([]string, error) {
	if !s.isOpen {
		return nil, fmt.Errorf("system: service is not open")
	}
	keys, err := s.store.ListKeys([]byte(apiKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("system: list API keys: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(apiKeyPrefix):])
	}
	return ids, nil
}

// DeleteAPIKey removes an API key by id.
func (s *Service) DeleteAPIKey(keyID string) error {
	if !s.isOpen {
		return fmt.Errorf("system: service is not open")
	}
	return s.store.DeleteKey([]byte(apiKeyPrefix + keyID))
}

// ValidateAPIKey reports whether apiKeyValue matches an active, unexpired key.
func (s *Service) ValidateAPIKey(apiKeyValue string) (bool, error) {
	ids, err := s.ListAPIKeys()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		apiKey, err := s.GetAPIKey(id)
		if err != nil {
			continue
		}
		if apiKey.Key != apiKeyValue || !apiKey.IsActive {
			continue
		}
		if apiKey.ExpiresAt != nil && time.Now().After(*apiKey.ExpiresAt) {
			return false, nil
		}
		return true, nil
	}
	return false, nil
}

// StoreConfigValue stores an arbitrary JSON-serializable config value under key.
func (s *Service) StoreConfigValue(key string, value interface{}) error {
	if !s.isOpen {
		return fmt.Errorf("system: service is not open")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("system: marshal config value: %w", err)
	}
	encrypted, err := s.encrypt(data)
	if err != nil {
		return fmt.Errorf("system: encrypt config value: %w", err)
	}
	return s.store.Put([]byte(configPrefix+key), encrypted)
}

// GetConfigValue retrieves a config value stored under key into value.
func (s *Service) GetConfigValue(key string, value interface{}) error {
	if !s.isOpen {
		return fmt.Errorf("system: service is not open")
	}
	encrypted, err := s.store.Get([]byte(configPrefix + key))
	if err != nil {
		return fmt.Errorf("system: get config value: %w", err)
	}
	data, err := s.decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("system: decrypt config value: %w", err)
	}
	return json.Unmarshal(data, value)
}

// InitializeSystem bootstraps a fresh system store with a root API key and a
// default system-info config entry, the Go analogue of the teacher's
// InitializeSystem/imgdedup init CLI flow.
func (s *Service) InitializeSystem(systemAPIKey string) error {
	if err := s.Open(); err != nil {
		return fmt.Errorf("system: open: %w", err)
	}
	defer s.Close()

	apiKey := APIKey{
		ID:          "system-root",
		Key:         systemAPIKey,
		Description: "System root API key for administrative operations",
		CreatedAt:   time.Now(),
		IsActive:    true,
	}
	if err := s.StoreAPIKey(apiKey); err != nil {
		return fmt.Errorf("system: store root API key: %w", err)
	}

	info := map[string]interface{}{
		"initialized_at":     time.Now().Format(time.RFC3339),
		"encryption_enabled": s.config.EnableEncryption,
	}
	return s.StoreConfigValue("system-info", info)
}
