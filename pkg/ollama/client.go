// Package ollama implements an optional inference backend that talks to a
// local Ollama vision model directly, bypassing the webhook. The model reply
// is wrapped into the same response shape the webhook produces so the rest
// of the pipeline applies unchanged.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"image-recognise-go/pkg/types"
)

// DefaultPrompt asks the model for the detected-object JSON the extractor
// understands. A user query is appended when present.
const DefaultPrompt = `Identify the objects in this image.

Return JSON only, in this exact shape:
{"detected_objects": [{"name": "string", "confidence": 0.0}]}

No markdown, no commentary outside the JSON.`

// Client wraps the Ollama API client behind the Backend interface.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama backend for the given server URL and model.
// Any path on the URL (such as /api/chat) is ignored.
func NewClient(ollamaURL, model string) (*Client, error) {
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	base := &url.URL{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}
	return &Client{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Detect sends the image and query to the vision model and returns the reply
// as a one-element sequence carrying the model text in its "output" field.
func (c *Client) Detect(ctx context.Context, imageB64, query string) (*types.DetectionResponse, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second) // generous bound for CPU inference
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %v", err)
	}

	prompt := DefaultPrompt
	if query != "" {
		prompt = prompt + "\n\nThe user also asks: " + query
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream: &streamFalse,
	}

	var content string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}
	if content == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	body := []any{map[string]any{"output": content}}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %v", err)
	}

	return &types.DetectionResponse{
		Body: body,
		Raw:  raw,
	}, nil
}
