/*
imgdedup REST API

A thin REST surface over the directory synchronizer, fuzzy match engine, and
signature index: sync a folder, find near-duplicates of an indexed file, move
a confirmed duplicate aside, and inspect the index.

Version: 1.0.0
Host: localhost:8080
BasePath: /api/v1

SecurityDefinitions:
  - ApiKeyAuth:
    type: apiKey
    in: header
    name: X-API-Key

swagger:meta
*/
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// StartServer starts the HTTP server with all routes configured.
func StartServer(deps ServerDeps, config ServerConfig) error {
	metrics := NewMetrics()
	server := NewServer(deps, config, metrics)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		r.Post("/sync", metrics.InstrumentHandler("POST", "/api/v1/sync", server.handleSync))
		r.Get("/match/{filename}", metrics.InstrumentHandler("GET", "/api/v1/match/{filename}", server.handleMatch))
		r.Post("/dedup", metrics.InstrumentHandler("POST", "/api/v1/dedup", server.handleDedup))
		r.Get("/tree/range", metrics.InstrumentHandler("GET", "/api/v1/tree/range", server.handleTreeRange))
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", server.handleStats))

		r.Post("/system/api-keys", metrics.InstrumentHandler("POST", "/api/v1/system/api-keys", server.handleCreateAPIKey))
		r.Get("/system/api-keys", metrics.InstrumentHandler("GET", "/api/v1/system/api-keys", server.handleListAPIKeys))
		r.Get("/system/api-keys/{id}", metrics.InstrumentHandler("GET", "/api/v1/system/api-keys/{id}", server.handleGetAPIKey))
		r.Delete("/system/api-keys/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/system/api-keys/{id}", server.handleDeleteAPIKey))
		r.Get("/system/config/{key}", metrics.InstrumentHandler("GET", "/api/v1/system/config/{key}", server.handleGetSystemConfig))
		r.Put("/system/config/{key}", metrics.InstrumentHandler("PUT", "/api/v1/system/config/{key}", server.handleSetSystemConfig))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", config.Port)),
	))

	addr := fmt.Sprintf(":%d", config.Port)
	fmt.Printf("Starting imgdedup REST API server on %s\n", addr)
	fmt.Printf("Metrics available at: http://localhost:%d/metrics\n", config.Port)
	log.Fatal(http.ListenAndServe(addr, r))

	return nil
}
