package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqlporter/sqlporter/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{Version: 1}
	cfg.Conversion.Workers = 1
	return New(cfg, slog.New(slog.DiscardHandler), 0)
}

// serveMux creates an http.ServeMux with the server's routes registered.
func serveMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

func TestHealthEndpoint(t *testing.T) {
	mux := serveMux(testServer(t))

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want %q", resp["status"], "ok")
	}
}

func TestDialectsEndpoint(t *testing.T) {
	mux := serveMux(testServer(t))

	req := httptest.NewRequest("GET", "/api/dialects", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp DialectsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Dialects) == 0 {
		t.Error("no dialects returned")
	}
	found := false
	for _, d := range resp.Dialects {
		if d == "snowflake" {
			found = true
		}
	}
	if !found {
		t.Errorf("dialects = %v, want snowflake present", resp.Dialects)
	}
}

func TestRulesEndpointRequiresPair(t *testing.T) {
	mux := serveMux(testServer(t))

	req := httptest.NewRequest("GET", "/api/rules?source=snowflake", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestConvertEndpoint(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scripts")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	sql := "CREATE OR REPLACE TABLE t (id NUMBER);"
	if err := os.WriteFile(filepath.Join(src, "t.sql"), []byte(sql), 0o644); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(ConvertRequest{
		SourceDialect: "snowflake",
		TargetDialect: "oracle",
		SourceDir:     src,
	})
	req := httptest.NewRequest("POST", "/api/convert", bytes.NewReader(body))
	w := httptest.NewRecorder()
	serveMux(testServer(t)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ConvertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" {
		t.Errorf("run status = %q, want success", resp.Status)
	}
	if len(resp.FileResults) != 1 || resp.FileResults[0].File != "t.sql" {
		t.Errorf("file results = %+v", resp.FileResults)
	}
}

func TestConvertEndpointBadDialect(t *testing.T) {
	body, _ := json.Marshal(ConvertRequest{
		SourceDialect: "db2",
		TargetDialect: "oracle",
		SourceDir:     t.TempDir(),
	})
	req := httptest.NewRequest("POST", "/api/convert", bytes.NewReader(body))
	w := httptest.NewRecorder()
	serveMux(testServer(t)).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestConvertEndpointNoInput(t *testing.T) {
	body, _ := json.Marshal(ConvertRequest{
		SourceDialect: "snowflake",
		TargetDialect: "oracle",
		SourceDir:     t.TempDir(),
	})
	req := httptest.NewRequest("POST", "/api/convert", bytes.NewReader(body))
	w := httptest.NewRecorder()
	serveMux(testServer(t)).ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	var resp ConvertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" || resp.Status != "error" {
		t.Errorf("response = %+v, want error status with message", resp)
	}
}
