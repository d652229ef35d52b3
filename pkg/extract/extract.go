// Package extract locates the detected-object payload inside a loosely
// formatted inference response. The service replies with a sequence whose
// first element carries model text in an "output" field; the JSON of
// interest is either wrapped in a markdown code fence inside that text or is
// the text itself.
//
// Extraction is total: every malformed input degrades to an empty result and
// a logged diagnostic, never an error.
package extract

import (
	"encoding/json"
	"log/slog"
	"regexp"

	"image-recognise-go/pkg/types"
)

// fencedJSON matches a ```json fenced block. The fence marker and language
// tag must have exact surrounding newlines; the body capture is non-greedy
// and spans newlines.
var fencedJSON = regexp.MustCompile("(?s)```json\n(.*?)\n```")

type detectionPayload struct {
	DetectedObjects []types.DetectedObject `json:"detected_objects"`
}

// Extractor pulls detected objects out of detection responses, reporting
// degradations to its logger.
type Extractor struct {
	log *slog.Logger
}

// New creates an Extractor. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// DetectedObjects returns the objects embedded in resp, in the order the
// service returned them. Every failure branch (missing sequence, missing or
// non-string output, invalid JSON, absent detected_objects field) yields an
// empty slice.
func (e *Extractor) DetectedObjects(resp *types.DetectionResponse) []types.DetectedObject {
	if resp == nil {
		e.log.Debug("extract: nil response")
		return nil
	}

	seq, ok := resp.Body.([]any)
	if !ok || len(seq) == 0 {
		e.log.Debug("extract: response is not a non-empty sequence")
		return nil
	}

	first, ok := seq[0].(map[string]any)
	if !ok {
		e.log.Debug("extract: first element is not an object")
		return nil
	}

	output, _ := first["output"].(string) // empty string when absent or wrong type

	jsonText := output
	if m := fencedJSON.FindStringSubmatch(output); m != nil {
		jsonText = m[1]
	}

	var payload detectionPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		e.log.Debug("extract: output is not a detection payload", "error", err)
		return nil
	}

	return payload.DetectedObjects
}

// DetectedObjects is a convenience wrapper around a default Extractor.
func DetectedObjects(resp *types.DetectionResponse) []types.DetectedObject {
	return New(nil).DetectedObjects(resp)
}
