package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roperito/roperito-backend/api/middleware"
	"github.com/roperito/roperito-backend/pkg/logger"
)

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

// newRequest builds a request carrying userID (when non-nil) and chi path params.
func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, userID)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, body.String())
	}
	return env.Error.Code
}
