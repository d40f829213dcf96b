package system

import (
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T, encrypt bool) *Service {
	t.Helper()
	cfg := Config{DataDir: filepath.Join(t.TempDir(), "data")}
	if encrypt {
		cfg.EnableEncryption = true
		cfg.EncryptionKey = "0123456789abcdef0123456789abcdef"[:32]
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndGetAPIKey(t *testing.T) {
	s := openTemp(t, false)

	if err := s.StoreAPIKey(APIKey{ID: "root", Key: "secret", IsActive: true, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("StoreAPIKey: %v", err)
	}

	got, err := s.GetAPIKey("root")
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if got.Key != "secret" {
		t.Fatalf("GetAPIKey.Key = %q, want %q", got.Key, "secret")
	}

	ok, err := s.ValidateAPIKey("secret")
	if err != nil {
		t.Fatalf("ValidateAPIKey: %v", err)
	}
	if !ok {
		t.Fatalf("ValidateAPIKey(secret) = false, want true")
	}

	ok, err = s.ValidateAPIKey("wrong")
	if err != nil {
		t.Fatalf("ValidateAPIKey: %v", err)
	}
	if ok {
		t.Fatalf("ValidateAPIKey(wrong) = true, want false")
	}
}

func TestAPIKeyRoundTripWithEncryption(t *testing.T) {
	s := openTemp(t, true)

	if err := s.StoreAPIKey(APIKey{ID: "root", Key: "top-secret", IsActive: true, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("StoreAPIKey: %v", err)
	}

	got, err := s.GetAPIKey("root")
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if got.Key != "top-secret" {
		t.Fatalf("GetAPIKey.Key = %q, want %q", got.Key, "top-secret")
	}
}

func TestListAndDeleteAPIKeys(t *testing.T) {
	s := openTemp(t, false)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.StoreAPIKey(APIKey{ID: id, Key: id + "-key", IsActive: true, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("StoreAPIKey(%s): %v", id, err)
		}
	}

	ids, err := s.ListAPIKeys()
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ListAPIKeys = %v, want 3 entries", ids)
	}

	if err := s.DeleteAPIKey("b"); err != nil {
		t.Fatalf("DeleteAPIKey: %v", err)
	}
	ids, err = s.ListAPIKeys()
	if err != nil {
		t.Fatalf("ListAPIKeys after delete: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ListAPIKeys after delete = %v, want 2 entries", ids)
	}
}

func TestConfigValueRoundTrip(t *testing.T) {
	s := openTemp(t, false)

	type settings struct {
		Tolerance float64 `json:"tolerance"`
	}
	want := settings{Tolerance: 1.5}
	if err := s.StoreConfigValue("match-settings", want); err != nil {
		t.Fatalf("StoreConfigValue: %v", err)
	}

	var got settings
	if err := s.GetConfigValue("match-settings", &got); err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if got != want {
		t.Fatalf("GetConfigValue = %+v, want %+v", got, want)
	}
}

func TestInitializeSystemBootstrapsRootKey(t *testing.T) {
	cfg := Config{DataDir: filepath.Join(t.TempDir(), "data")}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.InitializeSystem("bootstrap-key"); err != nil {
		t.Fatalf("InitializeSystem: %v", err)
	}

	if err := s.Open(); err != nil {
		t.Fatalf("reopen after InitializeSystem: %v", err)
	}
	defer s.Close()

	ok, err := s.ValidateAPIKey("bootstrap-key")
	if err != nil {
		t.Fatalf("ValidateAPIKey: %v", err)
	}
	if !ok {
		t.Fatalf("InitializeSystem did not store a validatable root key")
	}
}
