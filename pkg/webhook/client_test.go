package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"image-recognise-go/pkg/types"
)

func TestDetectSuccess(t *testing.T) {
	var gotContentType string
	var gotRequest types.DetectionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"output":"hello"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Detect(context.Background(), "aW1n", "what is this?")
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", gotContentType)
	}
	if gotRequest.Image != "aW1n" {
		t.Errorf("Expected image field forwarded, got %q", gotRequest.Image)
	}
	if gotRequest.Query != "what is this?" {
		t.Errorf("Expected query field forwarded, got %q", gotRequest.Query)
	}

	seq, ok := resp.Body.([]any)
	if !ok || len(seq) != 1 {
		t.Fatalf("Expected decoded one-element sequence, got %#v", resp.Body)
	}
	if string(resp.Raw) != `[{"output":"hello"}]` {
		t.Errorf("Expected verbatim raw body, got %s", resp.Raw)
	}
}

func TestDetectNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Detect(context.Background(), "x", "")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *NetworkError, got %v", err)
	}
}

func TestDetectUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Detect(context.Background(), "x", "")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *NetworkError for unreachable endpoint, got %v", err)
	}
}

func TestDetectInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Detect(context.Background(), "x", "")

	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Expected *DecodeError, got %v", err)
	}
}

func TestDetectTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClientWithTimeout(srv.URL, 20*time.Millisecond)
	_, err := client.Detect(context.Background(), "x", "")

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected *NetworkError on timeout, got %v", err)
	}
}

func TestNewClientTrimsEndpoint(t *testing.T) {
	client := NewClient("  https://example.com/webhook \n")
	if client.Endpoint() != "https://example.com/webhook" {
		t.Errorf("Expected trimmed endpoint, got %q", client.Endpoint())
	}
}
