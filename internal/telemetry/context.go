package telemetry

import "encoding/json"

// eventContext is the subset of the client's free-form context payload the
// aggregator cares about. Unknown fields are ignored; wrong-shaped payloads
// decode to the zero value instead of failing.
type eventContext struct {
	FlowID  string `json:"flowId"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func decodeContext(raw json.RawMessage) eventContext {
	var ctx eventContext
	if len(raw) == 0 {
		return ctx
	}
	// Best effort: a malformed blob leaves ctx zeroed.
	_ = json.Unmarshal(raw, &ctx)
	return ctx
}

// extractFlowID returns the explicit flow id from the context payload, or the
// synthesized fallback when the context is missing one
func extractFlowID(raw json.RawMessage, fallback string) string {
	if id := decodeContext(raw).FlowID; id != "" {
		return id
	}
	return fallback
}

// extractErrorMessage returns the validation message from the context payload
// if present
func extractErrorMessage(raw json.RawMessage) (string, bool) {
	msg := decodeContext(raw).Message
	return msg, msg != ""
}
