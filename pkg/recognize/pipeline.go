// Package recognize wires the analysis pipeline: normalize the image,
// send it to the inference backend, extract the detected objects.
package recognize

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"

	"image-recognise-go/pkg/backend"
	"image-recognise-go/pkg/extract"
	"image-recognise-go/pkg/normalize"
	"image-recognise-go/pkg/types"
)

// ErrNoEndpoint is returned when an analysis is attempted without a
// configured inference backend. Callers should block the action instead of
// invoking the pipeline.
var ErrNoEndpoint = errors.New("no inference endpoint configured")

// Result is the outcome of one analysis run.
type Result struct {
	// Objects are the detected objects, in service order. Empty when the
	// service reply carried no usable payload.
	Objects []types.DetectedObject `json:"detected_objects"`
	// Raw is the verbatim service response, kept for diagnostics display.
	Raw json.RawMessage `json:"raw_response,omitempty"`
}

// Pipeline runs one analysis per call. Each run is independent: no state is
// shared across invocations.
type Pipeline struct {
	encoder   *normalize.Encoder
	backend   backend.Backend
	extractor *extract.Extractor
	log       *slog.Logger
}

// New creates a Pipeline over the given backend. A nil backend is allowed
// and makes every Analyze call fail with ErrNoEndpoint.
func New(b backend.Backend, enc *normalize.Encoder, log *slog.Logger) *Pipeline {
	if enc == nil {
		enc = normalize.NewEncoder()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		encoder:   enc,
		backend:   b,
		extractor: extract.New(log),
		log:       log,
	}
}

// Analyze runs normalize, detect and extract for a single image and query.
// Backend failures terminate the run; extraction failures degrade to an
// empty object list.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image, query string) (*Result, error) {
	if p.backend == nil {
		return nil, ErrNoEndpoint
	}

	imageB64, err := p.encoder.EncodeBase64(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.backend.Detect(ctx, imageB64, query)
	if err != nil {
		return nil, err
	}

	objects := p.extractor.DetectedObjects(resp)
	if objects == nil {
		objects = []types.DetectedObject{}
	}
	p.log.Info("analysis complete", "objects", len(objects))

	return &Result{
		Objects: objects,
		Raw:     resp.Raw,
	}, nil
}
