package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/jobsapi/internal/domain/job"
	"github.com/geocoder89/jobsapi/internal/http/handlers"
	"github.com/geocoder89/jobsapi/internal/http/middlewares"
)

func newBindRouter() *gin.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(middlewares.ErrorHandler(log))

	r.POST("/bind", func(ctx *gin.Context) {
		var req job.CreateRequest

		if !handlers.BindJSON(ctx, &req) {
			return
		}

		ctx.JSON(http.StatusOK, req)
	})

	return r
}

func postBind(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBindFields(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var resp struct {
		Msg    string `json:"msg"`
		Fields []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"fields"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}

	if resp.Msg == "" {
		t.Fatalf("error body missing msg: %s", w.Body.String())
	}

	rules := map[string]string{}
	for _, f := range resp.Fields {
		rules[f.Field] = f.Rule
	}
	return rules
}

func TestBindJSON_ReportsJSONFieldNames(t *testing.T) {
	r := newBindRouter()

	w := postBind(r, `{"status":"ghosted"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	rules := decodeBindFields(t, w)

	// field names in the detail must be json names, not Go names
	if rules["company"] != "required" {
		t.Fatalf("want company/required, got %v", rules)
	}

	if rules["position"] != "required" {
		t.Fatalf("want position/required, got %v", rules)
	}

	if rules["status"] != "oneof" {
		t.Fatalf("want status/oneof, got %v", rules)
	}

	if _, leaked := rules["Company"]; leaked {
		t.Fatalf("Go field name leaked into error detail: %v", rules)
	}
}

func TestBindJSON_MalformedBody(t *testing.T) {
	r := newBindRouter()

	w := postBind(r, `{"company":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	rules := decodeBindFields(t, w)

	if rules[""] != "json" {
		t.Fatalf("want a json syntax detail, got %v", rules)
	}
}

func TestBindJSON_TypeMismatch(t *testing.T) {
	r := newBindRouter()

	w := postBind(r, `{"company":123,"position":"Engineer"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	rules := decodeBindFields(t, w)

	if rules["company"] != "type" {
		t.Fatalf("want company/type, got %v", rules)
	}
}
