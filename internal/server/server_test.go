package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"image-recognise-go/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Addr:           ":0",
		Backend:        "webhook",
		RequestTimeout: 5 * time.Second,
		JPEGQuality:    95,
		LogLevel:       "info",
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

// analyzeForm builds the multipart body the web page submits.
func analyzeForm(t *testing.T, imageData []byte, filename, query, endpoint string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if imageData != nil {
		part, err := w.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file failed: %v", err)
		}
		part.Write(imageData)
	}
	w.WriteField("query", query)
	w.WriteField("endpoint", endpoint)
	w.Close()

	return &buf, w.FormDataContentType()
}

func TestIndexPage(t *testing.T) {
	srv := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Image Recognition App") {
		t.Error("Expected index page content")
	}
}

func TestHealthz(t *testing.T) {
	srv := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestAnalyzeMissingImage(t *testing.T) {
	srv := New(testConfig(), nil)

	body, contentType := analyzeForm(t, nil, "", "", "http://example.com")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing image, got %d", rec.Code)
	}
}

func TestAnalyzeMissingEndpoint(t *testing.T) {
	srv := New(testConfig(), nil)

	body, contentType := analyzeForm(t, pngBytes(t), "photo.png", "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing endpoint, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "endpoint") {
		t.Errorf("Expected configuration error message, got %s", rec.Body.String())
	}
}

func TestAnalyzeUnsupportedFileType(t *testing.T) {
	srv := New(testConfig(), nil)

	body, contentType := analyzeForm(t, []byte("hello"), "notes.txt", "", "http://example.com")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unsupported file type, got %d", rec.Code)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"output":"{\"detected_objects\":[{\"name\":\"cat\",\"confidence\":\"0.95\"}]}"}]`))
	}))
	defer webhookSrv.Close()

	srv := New(testConfig(), nil)

	body, contentType := analyzeForm(t, pngBytes(t), "photo.png", "what do you see?", webhookSrv.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		DetectedObjects []struct {
			Name       string          `json:"name"`
			Confidence json.RawMessage `json:"confidence"`
		} `json:"detected_objects"`
		RawResponse json.RawMessage `json:"raw_response"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}

	if len(result.DetectedObjects) != 1 || result.DetectedObjects[0].Name != "cat" {
		t.Fatalf("Expected single 'cat' object, got %v", result.DetectedObjects)
	}
	if len(result.RawResponse) == 0 {
		t.Error("Expected raw response included for diagnostics")
	}
}

func TestAnalyzeWebhookFailure(t *testing.T) {
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer webhookSrv.Close()

	srv := New(testConfig(), nil)

	body, contentType := analyzeForm(t, pngBytes(t), "photo.png", "", webhookSrv.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502 for webhook failure, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("Expected error message in body, got %s", rec.Body.String())
	}
}

func TestAnalyzeDefaultEndpoint(t *testing.T) {
	webhookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"output":"nothing"}]`))
	}))
	defer webhookSrv.Close()

	cfg := testConfig()
	cfg.WebhookURL = webhookSrv.URL
	srv := New(cfg, nil)

	// No per-request endpoint: the configured default applies.
	body, contentType := analyzeForm(t, pngBytes(t), "photo.png", "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with configured default endpoint, got %d", rec.Code)
	}

	var result struct {
		DetectedObjects []any `json:"detected_objects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(result.DetectedObjects) != 0 {
		t.Errorf("Expected empty object list for non-JSON output, got %d", len(result.DetectedObjects))
	}
}
