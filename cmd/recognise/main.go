package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"image-recognise-go/pkg/backend"
	"image-recognise-go/pkg/normalize"
	"image-recognise-go/pkg/ollama"
	"image-recognise-go/pkg/recognize"
	"image-recognise-go/pkg/webhook"
)

func main() {
	var in, query, url, backendName, model, rawOut string
	var sendSize, sendQ int

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&query, "query", "", "optional question about the image")
	flag.StringVar(&backendName, "backend", "webhook", "backend to use: webhook or ollama")
	flag.StringVar(&url, "url", "", "webhook URL, or ollama server URL (default http://localhost:11434)")
	flag.StringVar(&model, "model", "llava", "model name (ollama backend)")
	flag.StringVar(&rawOut, "raw", "", "write raw service response JSON to this file")
	flag.IntVar(&sendSize, "sendsize", 0, "max long side sent to the service (px), 0=original")
	flag.IntVar(&sendQ, "sendq", 95, "JPEG quality for the image sent to the service (1-100)")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL [-query text] [-backend webhook|ollama] [-url endpoint]", filepath.Base(os.Args[0]))
	}

	var b backend.Backend
	var err error

	switch backendName {
	case "webhook":
		if url == "" {
			log.Fatal("webhook backend requires -url")
		}
		b = webhook.NewClient(url)
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		b, err = ollama.NewClient(url, model)
		if err != nil {
			log.Fatalf("Failed to create Ollama client: %v", err)
		}
	default:
		log.Fatalf("Unknown backend: %s (use 'webhook' or 'ollama')", backendName)
	}

	img, err := normalize.Load(in)
	if err != nil {
		log.Fatal(err)
	}
	bounds := img.Bounds()
	log.Printf("loaded %s (%dx%d)", in, bounds.Dx(), bounds.Dy())

	encoder := normalize.NewEncoder()
	encoder.Quality = sendQ
	encoder.MaxDim = sendSize

	pipeline := recognize.New(b, encoder, nil)
	result, err := pipeline.Analyze(context.Background(), img, query)
	if err != nil {
		log.Fatal(err)
	}

	if len(result.Objects) == 0 {
		fmt.Println("No objects detected in the image.")
	} else {
		fmt.Printf("Detected %d object(s):\n", len(result.Objects))
		for _, obj := range result.Objects {
			fmt.Printf("  %-30s %s\n", obj.Name, obj.ConfidenceText())
		}
	}

	if rawOut != "" {
		var pretty json.RawMessage = result.Raw
		js, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			js = result.Raw
		}
		if err := os.WriteFile(rawOut, js, 0o644); err != nil {
			log.Printf("failed to write raw response: %v", err)
		} else {
			log.Printf("wrote %s", rawOut)
		}
	}
}
