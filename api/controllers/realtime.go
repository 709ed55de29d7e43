package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/roperito/roperito-backend/api/middleware"
	"github.com/roperito/roperito-backend/api/responses"
	"github.com/roperito/roperito-backend/internal/notifications"
	"github.com/roperito/roperito-backend/pkg/auth/session"
	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/logger"
)

// NewUpgrader accepts any origin when allowed is empty.
func NewUpgrader(allowed []string) *websocket.Upgrader {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimSpace(o); o != "" {
			origins[strings.ToLower(o)] = struct{}{}
		}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := origins[strings.ToLower(origin)]
			return ok
		},
	}
}

// Realtime verifies the caller's access token and then upgrades the request
// to a websocket bound to that user. Browsers cannot set headers on the
// handshake, so the token may also arrive as ?token=.
func Realtime(cfg *config.Config, verifier session.AccessSessionChecker, registry *notifications.Registry, logg *logger.Logger) http.HandlerFunc {
	upgrader := NewUpgrader(cfg.Realtime.AllowedOrigins)
	timing := notifications.TimingFromConfig(cfg.Realtime)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if registry == nil {
			unavailable(w, r, logg, "realtime")
			return
		}

		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			var err error
			if token, err = middleware.BearerToken(r); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		claims, err := middleware.VerifyAccessToken(ctx, cfg.JWT, verifier, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure.
			logg.Warn(logg.WithUserID(ctx, claims.UserID.String()), "websocket upgrade failed: "+err.Error())
			return
		}

		ctx = logg.WithComponent(logg.WithUserID(ctx, claims.UserID.String()), "realtime")
		logg.Debug(ctx, "realtime client connected")
		notifications.NewClient(registry, conn, claims.UserID, timing, logg).Serve(ctx)
		logg.Debug(ctx, "realtime client disconnected")
	}
}
