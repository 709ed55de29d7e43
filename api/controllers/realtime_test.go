package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roperito/roperito-backend/internal/notifications"
	"github.com/roperito/roperito-backend/pkg/config"
)

type stubSessionChecker struct {
	live bool
}

func (s stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.live, nil
}

func realtimeConfig() *config.Config {
	return &config.Config{
		JWT: testJWTConfig(),
		Realtime: config.RealtimeConfig{
			SendBuffer: 4,
			PingPeriod: time.Second,
			PongWait:   5 * time.Second,
			WriteWait:  time.Second,
		},
	}
}

func TestRealtimeRejectsMissingToken(t *testing.T) {
	handler := Realtime(realtimeConfig(), stubSessionChecker{live: true}, notifications.NewRegistry(nil), discardLogger())
	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/realtime", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRealtimeRejectsRevokedSession(t *testing.T) {
	cfg := realtimeConfig()
	token, _ := mintTestToken(t, cfg.JWT, uuid.New())
	handler := Realtime(cfg, stubSessionChecker{live: false}, notifications.NewRegistry(nil), discardLogger())

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/realtime?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRealtimeBindsConnectionToUser(t *testing.T) {
	cfg := realtimeConfig()
	user := uuid.New()
	token, _ := mintTestToken(t, cfg.JWT, user)
	registry := notifications.NewRegistry(nil)

	srv := httptest.NewServer(Realtime(cfg, stubSessionChecker{live: true}, registry, discardLogger()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return registry.Connections(user) == 1 }, 2*time.Second, 10*time.Millisecond)

	delivered, _ := registry.Deliver("seller-reply", user, []byte(`{"event":"seller-reply"}`))
	assert.Equal(t, 1, delivered)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"seller-reply"}`, string(msg))
}

func TestUpgraderOriginAllowList(t *testing.T) {
	up := NewUpgrader([]string{"https://roperito.app"})

	req := httptest.NewRequest(http.MethodGet, "/realtime", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "https://Roperito.app")
	assert.True(t, up.CheckOrigin(req))
}
