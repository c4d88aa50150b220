package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/config"
	apihttp "github.com/geocoder89/jobsapi/internal/http"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTLifetimeMinutes: 60,
		RateLimit:          100,
		RateWindowSeconds:  60,
	}

	return apihttp.NewRouter(log, nil, nil, cfg)
}

func TestRouter_UnknownRouteIs404(t *testing.T) {
	r := newTestRouter()

	for _, tc := range []struct {
		name   string
		method string
		path   string
		auth   string
	}{
		{"unknown path", http.MethodGet, "/nope", ""},
		{"unknown nested path", http.MethodGet, "/api/v1/nope", ""},
		{"wrong method", http.MethodGet, "/api/v1/auth/login", ""},
		{"unknown path with token", http.MethodGet, "/nope", "Bearer whatever"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)

			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
			}

			var resp struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
			}

			if resp.Msg != "Route does not exist" {
				t.Fatalf("got msg %q", resp.Msg)
			}
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_ReadyzWithoutPool(t *testing.T) {
	// a nil pool means nothing to ping, so readiness passes
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestRouter_Landing(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("got content type %q", ct)
	}

	if !strings.Contains(w.Body.String(), "Jobs API") {
		t.Fatalf("landing page missing title: %s", w.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestRouter_JobsRequireAuth(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
}

func TestRouter_NonJSONBodyRejected(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("email=a@b.c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnsupportedMediaType, w.Body.String())
	}
}
