package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/roperito/roperito-backend/api/controllers"
	"github.com/roperito/roperito-backend/api/middleware"
	"github.com/roperito/roperito-backend/internal/orders"
	"github.com/roperito/roperito-backend/internal/ratings"
	pkgAuth "github.com/roperito/roperito-backend/pkg/auth"
	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/db/models"
	"github.com/roperito/roperito-backend/pkg/logger"
	"github.com/roperito/roperito-backend/pkg/metrics"
	"github.com/roperito/roperito-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, uuid.UUID, error) {
	return "", "", uuid.Nil, nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type memoryRedis struct {
	data map[string]string
}

func (m *memoryRedis) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryRedis) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	return true, 0, nil
}

type recordingOrders struct {
	orders.Service
	created      int
	lastDeleted  uuid.UUID
	lastFetched  uuid.UUID
	lastListRole orders.PartyRole
}

func (r *recordingOrders) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDetail, error) {
	r.created++
	return &orders.OrderDetail{ID: uuid.New(), ProductID: input.ProductID, BuyerID: input.BuyerID}, nil
}

func (r *recordingOrders) Get(ctx context.Context, orderID, requesterID uuid.UUID) (*orders.OrderDetail, error) {
	r.lastFetched = orderID
	return &orders.OrderDetail{ID: orderID}, nil
}

func (r *recordingOrders) DeleteByProduct(ctx context.Context, productID, requesterID uuid.UUID) error {
	r.lastDeleted = productID
	return nil
}

func (r *recordingOrders) List(ctx context.Context, userID uuid.UUID, role orders.PartyRole, params pagination.Params) (*orders.OrderList, error) {
	r.lastListRole = role
	return &orders.OrderList{}, nil
}

type summaryRatings struct {
	ratings.Service
}

func (summaryRatings) Summary(ctx context.Context, sellerID uuid.UUID) (*ratings.Summary, error) {
	return &ratings.Summary{SellerID: sellerID, Count: 1, Average: decimal.NewFromInt(5)}, nil
}

func (summaryRatings) Create(ctx context.Context, input ratings.CreateInput) (*models.Rating, error) {
	return nil, errors.New("should not be reached")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "roperito", ExpirationMinutes: 10},
		Realtime: config.RealtimeConfig{
			SendBuffer: 4,
			PingPeriod: time.Second,
			PongWait:   5 * time.Second,
			WriteWait:  time.Second,
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func bearer(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "buyer@example.com",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func newTestRouter(d Deps) http.Handler {
	if d.Config == nil {
		d.Config = testConfig()
	}
	if d.Logger == nil {
		d.Logger = testLogger()
	}
	if d.Sessions == nil {
		d.Sessions = stubSessionManager{}
	}
	return NewRouter(d)
}

func do(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(Deps{Ready: map[string]controllers.Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	}})

	if rec := do(router, http.MethodGet, "/health/live", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected live 200 got %d", rec.Code)
	}

	rec := do(router, http.MethodGet, "/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redis":"down"`) {
		t.Fatalf("expected redis failure in body, got %s", rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(Deps{Orders: &recordingOrders{}})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/favorites"},
		{http.MethodPost, "/api/v1/ratings"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodGet, "/api/v1/orders/message"},
	}
	for _, tc := range cases {
		rec := do(router, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestPublicRatingSummary(t *testing.T) {
	router := newTestRouter(Deps{Ratings: summaryRatings{}})
	seller := uuid.New()

	rec := do(router, http.MethodGet, "/api/v1/ratings/user/"+seller.String(), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), seller.String()) {
		t.Fatalf("expected seller id in body, got %s", rec.Body.String())
	}
}

func TestOrderRoutesResolveParams(t *testing.T) {
	cfg := testConfig()
	svc := &recordingOrders{}
	router := newTestRouter(Deps{Config: cfg, Orders: svc})
	auth := map[string]string{"Authorization": bearer(t, cfg, uuid.New())}

	orderID := uuid.New()
	if rec := do(router, http.MethodGet, "/api/v1/orders/"+orderID.String(), "", auth); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastFetched != orderID {
		t.Fatalf("expected order %s got %s", orderID, svc.lastFetched)
	}

	productID := uuid.New()
	if rec := do(router, http.MethodDelete, "/api/v1/orders/"+productID.String(), "", auth); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastDeleted != productID {
		t.Fatalf("expected product %s got %s", productID, svc.lastDeleted)
	}

	if rec := do(router, http.MethodGet, "/api/v1/users/orders/selling", "", auth); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastListRole != orders.RoleSeller {
		t.Fatalf("expected seller role got %v", svc.lastListRole)
	}
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	cfg := testConfig()
	svc := &recordingOrders{}
	router := newTestRouter(Deps{Config: cfg, Orders: svc, Redis: &memoryRedis{data: map[string]string{}}})

	headers := map[string]string{
		"Authorization":              bearer(t, cfg, uuid.New()),
		middleware.IdempotencyHeader: "order-1",
	}
	body := `{"product_id":"` + uuid.NewString() + `"}`

	first := do(router, http.MethodPost, "/api/v1/orders", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := do(router, http.MethodPost, "/api/v1/orders", body, headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatal("expected replay header")
	}
	if svc.created != 1 {
		t.Fatalf("expected one create call, got %d", svc.created)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical bodies")
	}
}

func TestMetricsEndpointUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := newTestRouter(Deps{
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Ratings:  summaryRatings{},
	})

	do(router, http.MethodGet, "/api/v1/ratings/user/"+uuid.NewString(), "", nil)

	rec := do(router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `/api/v1/ratings/user/{userId}`) {
		t.Fatalf("expected route pattern label in metrics output")
	}
}
