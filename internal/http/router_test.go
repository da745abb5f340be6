package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-climb-backend/internal/config"
	"github.com/tbourn/go-climb-backend/internal/docstore"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := docstore.Open(context.Background(), config.StoreConfig{
		Driver:        config.DriverRedis,
		RedisAddr:     mr.Addr(),
		RedisPrefix:   "router:",
		OpTimeout:     2 * time.Second,
		TxMaxAttempts: 50,
		TxBaseBackoff: time.Millisecond,
		TxMaxBackoff:  5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/",
		RateRPS:        100,
		RateBurst:      100,
		IdempotencyTTL: time.Hour,
		Store:          config.StoreConfig{OpTimeout: time.Second},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newEngine(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestStore(t), cfg)
	return r
}

func call(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

const gymBody = `{"name":"Boulder Hub","slug":"BHub","location":{"city":"Berlin","country":"DE"},
	"gradingSystem":["6a","6b","6c"],"gradingType":"french","walls":[{"id":1,"name":"Slab"},{"id":2,"name":"Cave"}]}`

const routeBody = `{"wallId":1,"setterId":"setter-1","grade":"6b","createdAt":"2024-03-01T10:00:00Z","styleTags":["crimpy"]}`

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newEngine(t, testConfig())

	w := call(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("request id or security headers missing: %#v", w.Header())
	}

	if w := call(r, http.MethodGet, "/", "", nil); w.Code != http.StatusOK || jsonBody(t, w)["message"] != "Welcome to backend" {
		t.Fatalf("GET / = %d %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodGet, "/ready", "", nil); w.Code != http.StatusOK || jsonBody(t, w)["store"] != "redis" {
		t.Fatalf("GET /ready = %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w := call(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound || jsonBody(t, w)["code"] != "not_found" {
		t.Fatalf("GET /nope = %d %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
	if w := call(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newEngine(t, cfg)

	w := call(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = call(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.test"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin must not be echoed, got %q", got)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newEngine(t, cfg)

	if w := call(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/index.html = %d", w.Code)
	}
}

func TestRegisterRoutes_GymAndRouteFlow(t *testing.T) {
	r := newEngine(t, testConfig())

	w := call(r, http.MethodPost, "/gyms/registration/create", gymBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register gym = %d %s", w.Code, w.Body.String())
	}
	if b := jsonBody(t, w); b["gymId"] != "bhub-berlin-de" || b["status"] != "created" {
		t.Fatalf("register gym body: %v", b)
	}
	w = call(r, http.MethodPost, "/gyms/registration/create", gymBody, nil)
	if b := jsonBody(t, w); w.Code != http.StatusOK || b["status"] != "already_exists" {
		t.Fatalf("second registration: %d %v", w.Code, b)
	}

	for want := 1.0; want <= 2; want++ {
		w = call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", routeBody, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("create route = %d %s", w.Code, w.Body.String())
		}
		if got := jsonBody(t, w)["routeId"]; got != want {
			t.Fatalf("routeId = %v, want %v", got, want)
		}
	}

	w = call(r, http.MethodGet, "/gyms/bhub-berlin-de", "", nil)
	if b := jsonBody(t, w); w.Code != http.StatusOK || b["routeCounter"] != 2.0 {
		t.Fatalf("get gym: %d %v", w.Code, b)
	}

	w = call(r, http.MethodGet, "/gyms/bhub-berlin-de/routes/2", "", nil)
	if b := jsonBody(t, w); w.Code != http.StatusOK || b["grade"] != "6b" || b["isActive"] != true || b["wallId"] != 1.0 {
		t.Fatalf("get route: %d %v", w.Code, b)
	}

	if w := call(r, http.MethodPost, "/gyms/nowhere-x-y/routes/create", routeBody, nil); w.Code != http.StatusNotFound {
		t.Fatalf("route on missing gym = %d", w.Code)
	}
	bad := strings.Replace(routeBody, `"wallId":1`, `"wallId":9`, 1)
	if w := call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", bad, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown wall = %d %s", w.Code, w.Body.String())
	}
	if w := call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", `{"wallId":1}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid route = %d", w.Code)
	}
}

func TestRegisterRoutes_UserFlow(t *testing.T) {
	r := newEngine(t, testConfig())
	body := `{"createdAt":"2024-03-01T10:00:00Z","displayName":"Alex","stats":{"hardestGrade":"6a","totalPoints":0,"totalSends":0}}`

	w := call(r, http.MethodPost, "/users/registration/create/u-1", body, nil)
	if b := jsonBody(t, w); w.Code != http.StatusOK || b["status"] != "created" || b["userId"] != "u-1" {
		t.Fatalf("register user: %d %v", w.Code, b)
	}
	changed := strings.Replace(body, "Alex", "Sam", 1)
	w = call(r, http.MethodPost, "/users/registration/create/u-1", changed, nil)
	if b := jsonBody(t, w); w.Code != http.StatusOK || b["status"] != "already_exists" {
		t.Fatalf("re-register user: %d %v", w.Code, b)
	}

	w = call(r, http.MethodGet, "/users/u-1", "", nil)
	if b := jsonBody(t, w); w.Code != http.StatusOK || b["displayName"] != "Alex" {
		t.Fatalf("get user: %d %v", w.Code, b)
	}
	if w := call(r, http.MethodGet, "/users/ghost", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing user = %d", w.Code)
	}
}

func TestRegisterRoutes_IdempotentReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newEngine(t, cfg)

	if w := call(r, http.MethodPost, "/gyms/registration/create", gymBody, nil); w.Code != http.StatusOK {
		t.Fatalf("register gym = %d", w.Code)
	}

	key := map[string]string{"Idempotency-Key": "req-1"}
	w := call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", routeBody, key)
	if w.Code != http.StatusOK || jsonBody(t, w)["routeId"] != 1.0 {
		t.Fatalf("first create = %d %s", w.Code, w.Body.String())
	}

	for i := 0; i < 2; i++ {
		w = call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", routeBody, key)
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d = %d %s", i, w.Code, w.Body.String())
		}
		if b := jsonBody(t, w); b["routeId"] != 1.0 || b["replayed"] != true {
			t.Fatalf("replay body: %v", b)
		}
		if w.Header().Get("Idempotency-Replayed") != "true" {
			t.Fatalf("missing Idempotency-Replayed header")
		}
	}

	w = call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", routeBody, map[string]string{"Idempotency-Key": "req-2"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("fresh key past the burst = %d, want 429", w.Code)
	}

	if w := call(r, http.MethodPost, "/gyms/bhub-berlin-de/routes/create", routeBody, map[string]string{"Idempotency-Key": "bad key"}); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed key = %d", w.Code)
	}
}

func TestRegisterRoutes_BasePathAndGzip(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v1"
	r := newEngine(t, cfg)

	if w := call(r, http.MethodPost, "/api/v1/gyms/registration/create", gymBody, nil); w.Code != http.StatusOK {
		t.Fatalf("prefixed register = %d", w.Code)
	}
	if w := call(r, http.MethodGet, "/gyms/bhub-berlin-de", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unprefixed path must 404, got %d", w.Code)
	}

	w := call(r, http.MethodGet, "/api/v1/gyms/bhub-berlin-de", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got %d %q", w.Code, w.Header().Get("Content-Encoding"))
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
