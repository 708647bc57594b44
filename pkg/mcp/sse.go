package mcp

import (
	"encoding/json"
	"strings"
)

// MCP servers answer each JSON-RPC request with a single Server-Sent-Events
// frame: an "event:" line naming the event and a "data:" line carrying the
// JSON-RPC response body. Parsing lives here so the transport code never has
// to know about the framing.

// ParseEvent decodes the first SSE frame in text. The returned data is the
// decoded JSON object from the "data:" line; if that line is not valid JSON
// the raw string is preserved under a "raw" key rather than failing. The only
// parse error is empty input.
func ParseEvent(text string) (event string, data map[string]any, err error) {
	if strings.TrimSpace(text) == "" {
		return "", nil, ErrEmptySSEInput
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			var decoded map[string]any
			if jsonErr := json.Unmarshal([]byte(payload), &decoded); jsonErr != nil {
				data = map[string]any{"raw": payload}
			} else {
				data = decoded
			}
			return event, data, nil
		}
	}
	return event, data, nil
}

// ExtractResult parses an SSE frame and classifies the JSON-RPC response.
// ok is true when the body carries a "result" key, in which case payload is
// its value. When the body carries an "error" key, payload is the error
// object and errMsg its "message" field. Anything else is reported as an
// invalid response. err is non-nil only for unparseable (empty) input.
func ExtractResult(text string) (ok bool, payload any, errMsg string, err error) {
	_, data, err := ParseEvent(text)
	if err != nil {
		return false, nil, "", err
	}
	if data == nil {
		return false, nil, "Invalid MCP response format", nil
	}

	if result, found := data["result"]; found {
		return true, result, "", nil
	}
	if errObj, found := data["error"]; found {
		msg := "Unknown MCP error"
		if m, isMap := errObj.(map[string]any); isMap {
			if s, isStr := m["message"].(string); isStr && s != "" {
				msg = s
			}
		}
		return false, errObj, msg, nil
	}
	return false, data, "Invalid MCP response format", nil
}
