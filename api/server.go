package api

import (
	"net/http"
	"os"
	"time"

	"github.com/roperito/roperito-backend/pkg/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 120 * time.Second
	// ShutdownTimeout bounds how long in-flight requests get to finish.
	ShutdownTimeout = 15 * time.Second
)

// NewServer builds the HTTP server for handler. PORT overrides the configured
// port so platform-assigned ports win. WriteTimeout stays unset because
// realtime connections are long lived.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
}
