package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"scriptsum/internal/apperr"
	"scriptsum/internal/chunker"
	"scriptsum/internal/config"
	"scriptsum/internal/domain"
	"scriptsum/internal/embedding/tfidf"
	"scriptsum/internal/llm/extractive"
	"scriptsum/internal/service"
	"scriptsum/internal/session"
	"scriptsum/internal/summarizer"
	"scriptsum/internal/vectorstore/memory"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const script = `JERRY: What is the deal with airline food?
ELAINE: Nobody cares, Jerry.
GEORGE: I was in the pool! I was in the pool!
KRAMER: Giddy up.`

func newService(t *testing.T, fallback string) *service.RAGService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	if fallback != "" {
		if err := os.WriteFile(path, []byte(fallback), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	svc, err := service.NewRAGService(service.Options{
		Chunker:      chunker.NewRecursiveChunker(1000, 200),
		NewEmbedder:  func() (domain.Embedder, error) { return tfidf.NewEmbedder(), nil },
		NewStore:     func(ctx context.Context) (domain.VectorStore, error) { return memory.NewStorage(), nil },
		Model:        extractive.New(summarizer.NewFrequencySummarizer(), 3),
		Sessions:     session.NewMemoryStore(),
		FallbackPath: path,
		Question:     config.DefaultQuestion,
		TopK:         4,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func newRouter(svc ScriptService) *gin.Engine {
	return NewRouter(Options{Service: svc, RequestTimeout: time.Minute, AllowedOrigins: []string{"*"}})
}

func do(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSummaryWithoutScript(t *testing.T) {
	r := newRouter(newService(t, ""))
	w := do(r, http.MethodGet, "/api/summary", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != `{"error":"No script provided."}` {
		t.Errorf("body = %s", got)
	}
	if w.Header().Get(headerErrorCode) != "BAD_REQUEST" {
		t.Errorf("error code header = %q", w.Header().Get(headerErrorCode))
	}
}

func TestSubmitThenSummarize(t *testing.T) {
	r := newRouter(newService(t, ""))

	w := do(r, http.MethodPost, "/api/script", `{"script":`+mustJSON(t, script)+`}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != `{"message":"Script received successfully."}` {
		t.Errorf("submit body = %s", got)
	}
	if w.Header().Get(headerSessionID) != session.DefaultID {
		t.Errorf("session header = %q", w.Header().Get(headerSessionID))
	}

	w = do(r, http.MethodGet, "/api/summary", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary status = %d body=%s", w.Code, w.Body.String())
	}
	var sum service.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(sum.Summary) == "" {
		t.Error("empty summary")
	}
	if !reflect.DeepEqual(sum.ActorList, []string{"- Actor 1", "- Actor 2", "- Actor 3"}) {
		t.Errorf("actorList = %v", sum.ActorList)
	}
}

func TestSummaryFallsBackToFile(t *testing.T) {
	r := newRouter(newService(t, script))
	w := do(r, http.MethodGet, "/api/summary", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitMalformedBody(t *testing.T) {
	r := newRouter(newService(t, ""))
	w := do(r, http.MethodPost, "/api/script", `{"script":`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSummaryOfScriptWithoutWords(t *testing.T) {
	for _, script := range []string{"1234 5678 !!!", "the and of to"} {
		r := newRouter(newService(t, ""))
		if w := do(r, http.MethodPost, "/api/script", `{"script":`+mustJSON(t, script)+`}`, nil); w.Code != http.StatusOK {
			t.Fatalf("%q: submit status = %d", script, w.Code)
		}
		w := do(r, http.MethodGet, "/api/summary", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%q: summary status = %d body=%s", script, w.Code, w.Body.String())
		}
		var sum service.Summary
		if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
			t.Fatal(err)
		}
		if len(sum.ActorList) != 3 {
			t.Errorf("%q: actorList = %v", script, sum.ActorList)
		}
	}
}

func TestSubmitLenientBodies(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		stored string
	}{
		{"empty body", "", ""},
		{"missing field", `{}`, ""},
		{"null script", `{"script":null}`, ""},
		{"number script", `{"script":42}`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, "")
			r := newRouter(svc)
			w := do(r, http.MethodPost, "/api/script", tt.body, map[string]string{"Content-Type": "application/json"})
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
			doc, err := svc.ResolveScript(context.Background(), session.DefaultID)
			if tt.stored == "" {
				if !errors.Is(err, service.ErrNoScript) {
					t.Errorf("expected no script, got %+v %v", doc, err)
				}
				return
			}
			if err != nil || doc.Content != tt.stored {
				t.Errorf("stored %q, %v; want %q", doc.Content, err, tt.stored)
			}
		})
	}
}

func TestSessionsAreSeparate(t *testing.T) {
	r := newRouter(newService(t, ""))
	do(r, http.MethodPost, "/api/script", `{"script":"ELAINE: Get out!"}`, map[string]string{headerSessionID: "a"})

	if w := do(r, http.MethodGet, "/api/summary", "", map[string]string{headerSessionID: "a"}); w.Code != http.StatusOK {
		t.Errorf("session a status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/summary", "", map[string]string{headerSessionID: "b"}); w.Code != http.StatusBadRequest {
		t.Errorf("session b status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/summary", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("default session status = %d", w.Code)
	}
}

func TestCreateSessionSetsCookie(t *testing.T) {
	r := newRouter(newService(t, ""))
	w := do(r, http.MethodPost, "/api/sessions", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.SessionID == "" {
		t.Fatalf("body = %s", w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie || cookies[0].Value != body.SessionID {
		t.Fatalf("cookies = %v", cookies)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/script", strings.NewReader(`{"script":"GEORGE: Serenity now!"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Header().Get(headerSessionID) != body.SessionID {
		t.Errorf("cookie session not used: %q", rec.Header().Get(headerSessionID))
	}
}

func TestHealth(t *testing.T) {
	w := do(newRouter(newService(t, "")), http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(headerRequestID) == "" {
		t.Error("missing request id")
	}
}

func TestPreflight(t *testing.T) {
	w := do(newRouter(newService(t, "")), http.MethodOptions, "/api/script", "", map[string]string{"Origin": "http://localhost:3000"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

type stubService struct {
	summarize func(ctx context.Context) (*service.Summary, error)
}

func (s stubService) SubmitScript(ctx context.Context, sessionID, script string) error { return nil }

func (s stubService) Summarize(ctx context.Context, sessionID string, observe service.Observer) (*service.Summary, error) {
	return s.summarize(ctx)
}

func TestFailureStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"upstream", apperr.Upstream("Language model failed.", errors.New("503")), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Language model failed."},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out."},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(stubService{summarize: func(context.Context) (*service.Summary, error) { return nil, tt.err }})
			w := do(r, http.MethodGet, "/api/summary", "", nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d", w.Code)
			}
			if w.Header().Get(headerErrorCode) != tt.code {
				t.Errorf("code = %q", w.Header().Get(headerErrorCode))
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] != tt.message {
				t.Errorf("error = %q", body["error"])
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	svc := stubService{summarize: func(ctx context.Context) (*service.Summary, error) {
		<-ctx.Done()
		return nil, apperr.Upstream("Language model failed.", ctx.Err())
	}}
	r := NewRouter(Options{Service: svc, RequestTimeout: 20 * time.Millisecond})
	w := do(r, http.MethodGet, "/api/summary", "", nil)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	r := newRouter(stubService{summarize: func(context.Context) (*service.Summary, error) { panic("boom") }})
	w := do(r, http.MethodGet, "/api/summary", "", nil)
	if w.Code != http.StatusInternalServerError || w.Body.String() != `{"error":"Internal server error."}` {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestSummaryWebSocket(t *testing.T) {
	svc := newService(t, "")
	if err := svc.SubmitScript(context.Background(), "ws", script); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newRouter(svc))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/summary/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{headerSessionID: {"ws"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var stages []string
	var result wsFrame
	for {
		var f wsFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		if f.Type == "progress" {
			stages = append(stages, f.Stage)
			continue
		}
		result = f
		break
	}
	if result.Type != "result" || result.Summary == "" || len(result.ActorList) != 3 {
		t.Fatalf("result frame = %+v", result)
	}
	want := []string{"loading", "splitting", "embedding", "indexing", "answering", "done"}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v", stages)
	}
}

func TestSummaryWebSocketError(t *testing.T) {
	srv := httptest.NewServer(newRouter(newService(t, "")))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/summary/ws?session_id=empty"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var f wsFrame
	for f.Type == "" || f.Type == "progress" {
		f = wsFrame{}
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	if f.Type != "error" || f.Error != "No script provided." || f.Code != "BAD_REQUEST" {
		t.Errorf("frame = %+v", f)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
