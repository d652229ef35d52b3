package types

import (
	"encoding/json"
	"strings"
)

// DetectionRequest is the JSON body sent to the inference webhook.
type DetectionRequest struct {
	Image string `json:"image"` // base64 JPEG
	Query string `json:"query"`
}

// DetectionResponse holds the webhook reply. The service's response shape is
// loosely specified, so the decoded top-level value is kept as-is alongside
// the verbatim body for diagnostics display.
type DetectionResponse struct {
	Body any
	Raw  json.RawMessage
}

// DetectedObject is one entry of the "detected_objects" array embedded in the
// model output. Confidence may arrive as a JSON string or number and is kept
// verbatim so it can be presented exactly as returned.
type DetectedObject struct {
	Name       string          `json:"name"`
	Confidence json.RawMessage `json:"confidence,omitempty"`
}

// ConfidenceText returns the confidence value as display text, without
// surrounding JSON quotes.
func (o DetectedObject) ConfidenceText() string {
	if len(o.Confidence) == 0 {
		return "N/A"
	}
	return strings.Trim(string(o.Confidence), `"`)
}
