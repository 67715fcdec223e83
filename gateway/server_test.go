package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortform-pipeline/config"
)

func testServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Gateway.Port = "0"
	cfg.Paths.Raw = t.TempDir()
	return New(cfg, zap.NewNop().Sugar()), cfg
}

func multipartUpload(t *testing.T, filename, body, metadata string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, body); err != nil {
		t.Fatal(err)
	}
	if metadata != "" {
		if err := w.WriteField("metadata", metadata); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadStoresFileUnderFreshName(t *testing.T) {
	srv, cfg := testServer(t)

	body, contentType := multipartUpload(t, "my vacation.mp4", "video bytes", "")
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Filename string `json:"filename"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.Status != "processing_started" {
		t.Fatalf("status field = %q", resp.Status)
	}
	if resp.Filename == "my vacation.mp4" {
		t.Fatal("original filename leaked into storage name")
	}
	if !strings.HasSuffix(resp.Filename, ".mp4") {
		t.Fatalf("stored name lost extension: %q", resp.Filename)
	}

	stored, err := os.ReadFile(filepath.Join(cfg.Paths.Raw, resp.Filename))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(stored) != "video bytes" {
		t.Fatalf("stored content = %q", stored)
	}
}

func TestUploadWritesMetadataSidecar(t *testing.T) {
	srv, cfg := testServer(t)

	meta := `{"script": "beach day", "options": {"generate_bgm": false}}`
	body, contentType := multipartUpload(t, "clip.mp4", "bytes", meta)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	sidecar := filepath.Join(cfg.Paths.Raw, resp.Filename+"_metadata.json")
	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	if string(data) != meta {
		t.Fatalf("sidecar content = %q", data)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/upload", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("OPTIONS", "/upload", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q", got)
	}
}
