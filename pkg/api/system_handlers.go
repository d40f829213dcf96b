package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/imgdedup/pkg/system"
)

// handleCreateAPIKey godoc
//
//	@Summary		Create a new API key
//	@Tags			system
//	@Accept			json
//	@Produce		json
//	@Param			request	body		system.APIKey	true	"API key details"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/system/api-keys [post]
//	@Security		ApiKeyAuth
func (s *Server) handleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var apiKey system.APIKey
	if err := json.NewDecoder(r.Body).Decode(&apiKey); err != nil {
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if apiKey.ID == "" || apiKey.Key == "" {
		sendError(w, "id and key are required", http.StatusBadRequest)
		return
	}
	if apiKey.CreatedAt.IsZero() {
		apiKey.CreatedAt = time.Now()
	}
	if !apiKey.IsActive {
		apiKey.IsActive = true
	}

	if err := s.deps.System.StoreAPIKey(apiKey); err != nil {
		sendError(w, fmt.Sprintf("Failed to create API key: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"message": "API key created successfully", "id": apiKey.ID})
}

// handleListAPIKeys godoc
//
//	@Summary		List all API keys
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		500	{object}	map[string]string
//	@Router			/system/api-keys [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.deps.System.ListAPIKeys()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list API keys: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]interface{}{"api_keys": keys})
}

// handleGetAPIKey godoc
//
//	@Summary		Get API key details
//	@Tags			system
//	@Produce		json
//	@Param			id	path		string	true	"API key ID"
//	@Success		200	{object}	system.APIKey
//	@Failure		404	{object}	map[string]string
//	@Router			/system/api-keys/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")
	if keyID == "" {
		sendError(w, "API key ID is required", http.StatusBadRequest)
		return
	}
	apiKey, err := s.deps.System.GetAPIKey(keyID)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get API key: %v", err), http.StatusNotFound)
		return
	}
	sendSuccess(w, apiKey)
}

// handleDeleteAPIKey godoc
//
//	@Summary		Delete an API key
//	@Tags			system
//	@Produce		json
//	@Param			id	path		string	true	"API key ID"
//	@Success		200	{object}	map[string]string
//	@Router			/system/api-keys/{id} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "id")
	if keyID == "" {
		sendError(w, "API key ID is required", http.StatusBadRequest)
		return
	}
	if err := s.deps.System.DeleteAPIKey(keyID); err != nil {
		sendError(w, fmt.Sprintf("Failed to delete API key: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]string{"message": "API key deleted successfully"})
}

// handleGetSystemConfig godoc
//
//	@Summary		Get a persisted system configuration value
//	@Tags			system
//	@Produce		json
//	@Param			key	path		string	true	"Configuration key"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/system/config/{key} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetSystemConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		sendError(w, "Configuration key is required", http.StatusBadRequest)
		return
	}
	var value interface{}
	if err := s.deps.System.GetConfigValue(key, &value); err != nil {
		sendError(w, fmt.Sprintf("Failed to get config: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]interface{}{"key": key, "value": value})
}

// handleSetSystemConfig godoc
//
//	@Summary		Set a persisted system configuration value
//	@Tags			system
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string			true	"Configuration key"
//	@Param			value	body		interface{}	true	"Configuration value"
//	@Success		200		{object}	map[string]string
//	@Router			/system/config/{key} [put]
//	@Security		ApiKeyAuth
func (s *Server) handleSetSystemConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		sendError(w, "Configuration key is required", http.StatusBadRequest)
		return
	}
	var value interface{}
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		sendError(w, "Invalid JSON request", http.StatusBadRequest)
		return
	}
	if err := s.deps.System.StoreConfigValue(key, value); err != nil {
		sendError(w, fmt.Sprintf("Failed to set config: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]string{"message": "Configuration updated successfully"})
}
