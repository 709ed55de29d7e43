package api

import (
	"net/http"
	"testing"

	"github.com/roperito/roperito-backend/pkg/config"
)

func TestNewServerUsesConfiguredPort(t *testing.T) {
	t.Setenv("PORT", "")
	srv := NewServer(&config.Config{App: config.AppConfig{Port: "8081"}}, http.NotFoundHandler())
	if srv.Addr != ":8081" {
		t.Fatalf("expected :8081 got %s", srv.Addr)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Fatal("expected read header timeout")
	}
}

func TestNewServerPrefersPlatformPort(t *testing.T) {
	t.Setenv("PORT", "9999")
	srv := NewServer(&config.Config{App: config.AppConfig{Port: "8081"}}, http.NotFoundHandler())
	if srv.Addr != ":9999" {
		t.Fatalf("expected :9999 got %s", srv.Addr)
	}
}
