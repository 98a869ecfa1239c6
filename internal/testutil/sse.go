package testutil

import (
	"strings"
	"testing"
)

// SSEEvent is one event parsed out of a text/event-stream body.
type SSEEvent struct {
	Type string
	Data string
}

// ParseSSEEvents splits a server-sent event stream into events.
// Events are blank-line delimited; multiple data lines within one
// event are joined with a newline, a data line without a preceding
// event line yields the "message" type, and comment lines (leading
// colon) are skipped. Malformed input fails the test.
func ParseSSEEvents(t *testing.T, body string) []SSEEvent {
	t.Helper()

	if strings.TrimRight(body, "\n") != "" && !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("sse stream does not end with a blank line: %q", tail(body))
	}

	var events []SSEEvent
	for _, block := range strings.Split(body, "\n\n") {
		ev, ok := parseSSEBlock(t, block)
		if ok {
			events = append(events, ev)
		}
	}
	return events
}

func parseSSEBlock(t *testing.T, block string) (SSEEvent, bool) {
	t.Helper()

	var ev SSEEvent
	var data []string
	seen := false

	for _, line := range strings.Split(block, "\n") {
		switch {
		case line == "", strings.HasPrefix(line, ":"):
			// blank padding or comment
		case strings.HasPrefix(line, "event: "):
			if seen {
				t.Fatalf("sse event %q has more than one event line", ev.Type)
			}
			ev.Type = strings.TrimPrefix(line, "event: ")
			seen = true
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		default:
			t.Fatalf("unexpected sse line: %q", line)
		}
	}

	if !seen && len(data) == 0 {
		return SSEEvent{}, false
	}
	if !seen {
		ev.Type = "message"
	}
	ev.Data = strings.Join(data, "\n")
	return ev, true
}

// FindEvent returns the first event of the given type, or nil.
func FindEvent(events []SSEEvent, eventType string) *SSEEvent {
	for i := range events {
		if events[i].Type == eventType {
			return &events[i]
		}
	}
	return nil
}

// FindAllEvents returns every event of the given type in stream order.
func FindAllEvents(events []SSEEvent, eventType string) []SSEEvent {
	var out []SSEEvent
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func tail(s string) string {
	if len(s) > 40 {
		return "..." + s[len(s)-40:]
	}
	return s
}
