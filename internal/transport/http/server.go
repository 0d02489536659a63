// Package httptransport builds the HTTP server and its middleware chain.
package httptransport

import (
	"log"
	"net/http"

	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/config"
)

// NewServer creates the *http.Server for the configured listen address. The
// server's own error log (TLS handshakes, header parse failures) goes to logger.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger zerolog.Logger) *http.Server {
	serverLogger := logger.With().Str("component", "http.server").Logger()
	return &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          log.New(serverLogger, "", 0),
	}
}
