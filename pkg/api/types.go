package api

// APIResponse is the envelope every handler replies with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Port    int
	APIKey  string
	DataDir string

	SystemKey           string
	SystemDataDir       string
	SystemEncryptionKey string
	EnableEncryption    bool
}

// SyncRequest is the body of POST /api/v1/sync.
type SyncRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// DedupRequest is the body of POST /api/v1/dedup.
type DedupRequest struct {
	Path    string `json:"path"`
	Offset  uint32 `json:"offset"`
	OutPath string `json:"out_path"`
}

// StatsResponse wraps tree statistics; it carries no cache figures.
// handleStats (GET /api/v1/stats) sends bptree.Stats directly, not this type.
type StatsResponse struct {
	Tree interface{} `json:"tree"`
}
