package backend

import (
	"context"

	"image-recognise-go/pkg/types"
)

// Backend performs one object-detection round trip against an inference
// service, taking the transport-encoded image and an optional free-text
// question.
type Backend interface {
	Detect(ctx context.Context, imageB64, query string) (*types.DetectionResponse, error)
}
