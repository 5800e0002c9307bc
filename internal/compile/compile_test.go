package compile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumeopt/internal/config"
	"resumeopt/internal/errors"
)

var testLogger = errors.NewLogger(slog.LevelError)

func testConfig(endpoint string) config.CompileConfig {
	return config.CompileConfig{
		Enabled:  true,
		Endpoint: endpoint,
		Engine:   "pdflatex",
		Timeout:  5 * time.Second,
	}
}

func TestCompileSuccess(t *testing.T) {
	source := "\\documentclass{article}\\begin{document}hi\\end{document}"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/compile" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req compileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Source != source {
			t.Error("Request should carry the submitted source")
		}
		if req.Engine != "pdflatex" {
			t.Errorf("Expected engine 'pdflatex', got '%s'", req.Engine)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.5 fake pdf body"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger)

	pdf, err := client.Compile(context.Background(), source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("Returned bytes should start with the PDF magic number")
	}
}

func TestCompileServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "undefined control sequence", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger)

	_, err := client.Compile(context.Background(), "\\broken{")
	if err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeCompilationFailed {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeCompilationFailed, appErr.Code)
	}
}

func TestCompileNonPDFResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), testLogger)

	_, err := client.Compile(context.Background(), "\\documentclass{article}")
	if err == nil {
		t.Fatal("Expected error when the response body is not a PDF")
	}
}

func TestCompileDisabled(t *testing.T) {
	cfg := config.CompileConfig{Enabled: false}
	client := NewClient(cfg, testLogger)

	if client.Enabled() {
		t.Error("Client should report disabled")
	}
	_, err := client.Compile(context.Background(), "anything")
	if err == nil {
		t.Fatal("Disabled client should refuse to compile")
	}
}
