// Package fsm holds the per-user conversation state machine. States are a
// closed set of Go types; storage backends persist them through a small
// kind-tagged JSON envelope.
package fsm

import (
	"encoding/json"
	"fmt"
)

// State is a conversation state. Exactly the types in this package
// implement it.
type State interface {
	kind() string
}

// AwaitingAccessCode means the next text message is treated as an access
// code. This is the state of new users and of users who finished all
// their courses.
type AwaitingAccessCode struct{}

// InProgress means the user is enrolled and lessons flow on schedule;
// free text is ignored outside a typed-answer prompt.
type InProgress struct{}

// AwaitingTypedAnswer means a text-input lesson is open and the next text
// message is graded against it
type AwaitingTypedAnswer struct {
	LessonID int64 `json:"lesson_id"`
	Attempts int   `json:"attempts"`
}

// AwaitingSupport means the next text message is relayed to the support
// group
type AwaitingSupport struct{}

func (AwaitingAccessCode) kind() string  { return "awaiting_access_code" }
func (InProgress) kind() string          { return "in_progress" }
func (AwaitingTypedAnswer) kind() string { return "awaiting_typed_answer" }
func (AwaitingSupport) kind() string     { return "awaiting_support" }

type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes a state into its storage envelope
func Marshal(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state data: %v", err)
	}
	return json.Marshal(envelope{Kind: s.kind(), Data: data})
}

// Unmarshal decodes a storage envelope back into a state
func Unmarshal(raw []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state envelope: %v", err)
	}
	switch env.Kind {
	case "awaiting_access_code":
		return AwaitingAccessCode{}, nil
	case "in_progress":
		return InProgress{}, nil
	case "awaiting_typed_answer":
		var s AwaitingTypedAnswer
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal typed answer state: %v", err)
		}
		return s, nil
	case "awaiting_support":
		return AwaitingSupport{}, nil
	default:
		return nil, fmt.Errorf("unknown state kind %q", env.Kind)
	}
}
