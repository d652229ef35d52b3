// Package imagerecognise provides a high-level interface for recognising
// objects in images through a remote inference service.
//
// An image (file, URL or decoded in memory) plus an optional free-text
// question is normalized to a base64 JPEG, posted to a configurable webhook
// (or a local Ollama vision model), and the loosely formatted reply is
// parsed into a list of detected objects.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imagerecognise "image-recognise-go"
//	)
//
//	func main() {
//		rec := imagerecognise.NewWebhook("https://n8n.example.com/webhook/image-recognition")
//
//		img, err := imagerecognise.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := rec.Analyze(context.Background(), img, "what do you see?")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		for _, obj := range result.Objects {
//			fmt.Printf("%s (%s)\n", obj.Name, obj.ConfidenceText())
//		}
//	}
package imagerecognise

import (
	"context"
	"image"
	"log/slog"

	"image-recognise-go/pkg/backend"
	"image-recognise-go/pkg/normalize"
	"image-recognise-go/pkg/ollama"
	"image-recognise-go/pkg/recognize"
	"image-recognise-go/pkg/webhook"
)

// Version of the library.
const Version = "1.0.0"

// Recognizer analyses images through a single inference backend.
type Recognizer struct {
	pipeline *recognize.Pipeline
}

// NewWebhook creates a Recognizer that posts to the given webhook URL.
func NewWebhook(endpoint string) *Recognizer {
	return NewWithBackend(webhook.NewClient(endpoint))
}

// NewOllama creates a Recognizer backed by a local Ollama vision model.
func NewOllama(serverURL, model string) (*Recognizer, error) {
	b, err := ollama.NewClient(serverURL, model)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(b), nil
}

// NewWithBackend creates a Recognizer over a custom backend.
func NewWithBackend(b backend.Backend) *Recognizer {
	return &Recognizer{
		pipeline: recognize.New(b, normalize.NewEncoder(), slog.Default()),
	}
}

// Analyze runs one analysis for the image and optional query.
func (r *Recognizer) Analyze(ctx context.Context, img image.Image, query string) (*recognize.Result, error) {
	return r.pipeline.Analyze(ctx, img, query)
}

// LoadImage decodes an image from a file path or http(s) URL.
func LoadImage(source string) (image.Image, error) {
	return normalize.Load(source)
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
