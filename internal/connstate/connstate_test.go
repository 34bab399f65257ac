package connstate

import "testing"

func TestClassifyStrings(t *testing.T) {
	cases := []struct {
		in   string
		want State
	}{
		{"open", Connected},
		{"connected", Connected},
		{"active", Connected},
		{"online", Connected},
		{"  OPEN ", Connected},
		{"close", Disconnected},
		{"offline", Disconnected},
		{"timeout", Disconnected},
		{"qr", Disconnected},
		{"DELIVERY_ACK", Unknown},
		{"send_failure", Unknown},
		{"internal_error", Unknown},
		{"invalid_session", Unknown},
		{"banana", Unknown},
		{"", Unknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.in); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClassifyShapes(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want State
	}{
		{"state field", map[string]any{"state": "open"}, Connected},
		{"status field", map[string]any{"status": "close"}, Disconnected},
		{"nested instance state", map[string]any{"instance": map[string]any{"state": "open"}}, Connected},
		{"nested instance status", map[string]any{"instance": map[string]any{"status": "connecting"}}, Disconnected},
		{"connection state", map[string]any{"connection": map[string]any{"state": "up"}}, Connected},
		{"connectionState key", map[string]any{"connectionState": "offline"}, Disconnected},
		{"connected flag true", map[string]any{"connected": true}, Connected},
		{"connected flag false", map[string]any{"connected": false}, Disconnected},
		{"isConnected flag", map[string]any{"isConnected": true}, Connected},
		{"boolean state passes through", map[string]any{"state": true}, Connected},
		{"single-key unwrap", map[string]any{"wrapper": map[string]any{"state": "open"}}, Connected},
		{"unwrap is single level only", map[string]any{"a": map[string]any{"b": map[string]any{"state": "open"}}}, Unknown},
		{"two keys never unwrap", map[string]any{"a": map[string]any{"state": "open"}, "b": 1}, Unknown},
		{"empty object", map[string]any{}, Unknown},
		{"nil payload", nil, Unknown},
		{"numeric candidate", map[string]any{"state": 1.0}, Unknown},
		{"priority state over flags", map[string]any{"state": "close", "connected": true}, Disconnected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.in); got != tc.want {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want State
	}{
		{"gateway status body", `{"instance":{"instanceName":"main","state":"open"}}`, Connected},
		{"wrapped body", `{"wrapper":{"state":"open"}}`, Connected},
		{"bare string", `"connected"`, Connected},
		{"bare bool", `false`, Disconnected},
		{"empty body", ``, Unknown},
		{"malformed body", `{"state":`, Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyJSON([]byte(tc.raw)); got != tc.want {
				t.Fatalf("ClassifyJSON = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if Connected.String() != "connected" || Disconnected.String() != "disconnected" || Unknown.String() != "unknown" {
		t.Fatal("unexpected State string values")
	}
}
