package middlewares_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/auth"
	"github.com/geocoder89/jobsapi/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Msg  string `json:"msg"`
	Code string `json:"code"`
}

func newGuardedRouter(t *testing.T, m *auth.Manager) (*gin.Engine, *bool) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reached := false

	r := gin.New()
	r.Use(middlewares.ErrorHandler(log))
	r.Use(middlewares.RequestID())

	guard := middlewares.NewAuthMiddleware(m)

	r.GET("/protected", guard.RequireAuth(), func(ctx *gin.Context) {
		reached = true

		id, _ := middlewares.UserIDFromContext(ctx)
		name, _ := middlewares.UserNameFromContext(ctx)

		ctx.JSON(http.StatusOK, gin.H{"userId": id, "name": name})
	})

	return r, &reached
}

func doGet(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	if header != "" {
		req.Header.Set("Authorization", header)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	r, reached := newGuardedRouter(t, m)

	w := doGet(r, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}

	if *reached {
		t.Fatalf("handler ran despite missing Authorization header")
	}

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}

	if body.Msg == "" {
		t.Fatalf("expected a msg in the error body")
	}
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	token, err := m.GenerateToken("user-1", "Alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	for _, header := range []string{
		"Token " + token,
		"bearer " + token, // scheme is case-sensitive here
		"Bearer",
		"Bearer ",
	} {
		r, reached := newGuardedRouter(t, m)

		w := doGet(r, header)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: got status %d, want %d", header, w.Code, http.StatusUnauthorized)
		}

		if *reached {
			t.Fatalf("header %q: handler ran despite malformed header", header)
		}
	}
}

func TestRequireAuth_TamperedToken(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	r, reached := newGuardedRouter(t, m)

	token, err := m.GenerateToken("user-1", "Alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	// single byte mutation in the signature
	mutated := []byte(token)
	if mutated[len(mutated)-1] == 'A' {
		mutated[len(mutated)-1] = 'B'
	} else {
		mutated[len(mutated)-1] = 'A'
	}

	w := doGet(r, "Bearer "+string(mutated))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}

	if *reached {
		t.Fatalf("handler ran with a tampered token")
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	r, reached := newGuardedRouter(t, m)

	token, err := m.GenerateToken("user-42", "Alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	w := doGet(r, "Bearer "+token)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	if !*reached {
		t.Fatalf("handler did not run with a valid token")
	}

	var body struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}

	if body.UserID != "user-42" || body.Name != "Alice" {
		t.Fatalf("identity mismatch: %+v", body)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	issuer := auth.NewManager("test-secret", -1*time.Second)
	verifier := auth.NewManager("test-secret", time.Hour)
	r, reached := newGuardedRouter(t, verifier)

	token, err := issuer.GenerateToken("user-1", "Alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	w := doGet(r, "Bearer "+token)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusUnauthorized)
	}

	if *reached {
		t.Fatalf("handler ran with an expired token")
	}
}
