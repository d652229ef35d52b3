package webhook

// NetworkError reports a transport-level failure of the webhook request:
// connection refused, DNS failure, timeout, or a non-2xx status.
type NetworkError struct {
	Message string
}

func (e *NetworkError) Error() string {
	return "webhook request failed: " + e.Message
}

// DecodeError reports a webhook response body that is not valid JSON.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string {
	return "failed to parse webhook response: " + e.Message
}
