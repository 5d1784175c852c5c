package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"algoarena/internal/common/security"
	"algoarena/internal/platform/logger"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerIncludesAuthenticatedUser(t *testing.T) {
	security.InitJWT([]byte("middleware-test-secret"))
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.SetGlobal(logger.NewWithCore(core))
	defer restore()

	handler := RequestLogger(jwtauth.Verifier(security.TokenAuth)(Authenticator(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)))

	token, err := security.GenerateToken("u42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/submission/s1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != "u42" {
		t.Fatalf("expected user_id on request log line, got %v", fields)
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Fatalf("unexpected status field: %v", fields["status"])
	}
}

func TestRequestLoggerOmitsUserForAnonymousRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.SetGlobal(logger.NewWithCore(core))
	defer restore()

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log line, got %d", len(entries))
	}
	if _, ok := entries[0].ContextMap()["user_id"]; ok {
		t.Fatalf("anonymous request must not carry user_id")
	}
}
