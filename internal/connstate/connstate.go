// Package connstate normalizes the status payloads returned by WhatsApp
// gateway deployments into a single connectivity tri-state. Different
// gateway versions report connectivity under different field names and
// shapes, so classification probes a fixed list of known locations instead
// of binding to one response type.
package connstate

import (
	"encoding/json"
	"strings"
)

// State is the normalized connectivity tri-state.
type State int8

const (
	// Unknown means the payload carried no recognizable connectivity signal.
	Unknown State = iota
	// Connected means the instance reported an established session.
	Connected
	// Disconnected means the instance reported a closed or pending session.
	Disconnected
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

var connectedValues = map[string]struct{}{
	"open": {}, "connected": {}, "online": {}, "up": {},
	"ready": {}, "authenticated": {}, "logged": {}, "active": {},
}

var disconnectedValues = map[string]struct{}{
	"close": {}, "closed": {}, "disconnected": {}, "offline": {},
	"down": {}, "pairing": {}, "connecting": {}, "qr": {},
	"waiting": {}, "timeout": {},
}

// notConnectivity marks strings that are event acknowledgements or error
// codes rather than connectivity signals.
var notConnectivity = []string{"ack", "fail", "error", "invalid"}

// ClassifyJSON decodes a raw response body and classifies it. Undecodable
// bodies yield Unknown; classification never fails.
func ClassifyJSON(raw []byte) State {
	if len(raw) == 0 {
		return Unknown
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Unknown
	}
	return Classify(payload)
}

// Classify resolves a decoded payload of arbitrary shape to a State.
//
// Probe order: state, status, instance.state, instance.status,
// connection.state, connectionState; then the connected/isConnected boolean
// flags; finally, when the payload is an object with exactly one key, the
// nested value is unwrapped once and the state/status probe retried.
func Classify(payload any) State {
	switch v := payload.(type) {
	case nil:
		return Unknown
	case bool, string:
		return classifyCandidate(v)
	case map[string]any:
		if candidate, ok := probe(v); ok {
			return classifyCandidate(candidate)
		}
		if flag, ok := probeBoolFlags(v); ok {
			return classifyCandidate(flag)
		}
		if inner, ok := singleValue(v); ok {
			if m, ok := inner.(map[string]any); ok {
				if candidate, ok := probeStateStatus(m); ok {
					return classifyCandidate(candidate)
				}
			}
		}
		return Unknown
	default:
		return Unknown
	}
}

func probe(m map[string]any) (any, bool) {
	if c, ok := probeStateStatus(m); ok {
		return c, true
	}
	for _, key := range []string{"instance", "connection"} {
		nested, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		if key == "connection" {
			if c, ok := nested["state"]; ok {
				return c, true
			}
			continue
		}
		if c, ok := probeStateStatus(nested); ok {
			return c, true
		}
	}
	if c, ok := m["connectionState"]; ok {
		return c, true
	}
	return nil, false
}

func probeStateStatus(m map[string]any) (any, bool) {
	if c, ok := m["state"]; ok {
		return c, true
	}
	if c, ok := m["status"]; ok {
		return c, true
	}
	return nil, false
}

func probeBoolFlags(m map[string]any) (string, bool) {
	for _, key := range []string{"connected", "isConnected"} {
		if flag, ok := m[key].(bool); ok {
			if flag {
				return "open", true
			}
			return "close", true
		}
	}
	return "", false
}

func singleValue(m map[string]any) (any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	for _, v := range m {
		return v, true
	}
	return nil, false
}

func classifyCandidate(candidate any) State {
	switch v := candidate.(type) {
	case bool:
		if v {
			return Connected
		}
		return Disconnected
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if _, ok := connectedValues[s]; ok {
			return Connected
		}
		if _, ok := disconnectedValues[s]; ok {
			return Disconnected
		}
		for _, marker := range notConnectivity {
			if strings.Contains(s, marker) {
				return Unknown
			}
		}
		return Unknown
	default:
		return Unknown
	}
}
