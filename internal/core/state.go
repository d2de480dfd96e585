package core

import "encoding/json"

// TaskState is the closed vocabulary of task lifecycle states. Reporters may
// send arbitrary strings; the five canonical values drive aggregation,
// notification and cleanup, while anything else is preserved verbatim as an
// Other state and treated as non-terminal.
type TaskState struct {
	kind stateKind
	raw  string
}

type stateKind uint8

const (
	kindIdle stateKind = iota
	kindWorking
	kindPending
	kindError
	kindDone
	kindOther
)

var (
	StateIdle    = TaskState{kind: kindIdle}
	StateWorking = TaskState{kind: kindWorking}
	StatePending = TaskState{kind: kindPending}
	StateError   = TaskState{kind: kindError}
	StateDone    = TaskState{kind: kindDone}
)

// StateOther wraps a state string outside the canonical vocabulary.
func StateOther(raw string) TaskState {
	return TaskState{kind: kindOther, raw: raw}
}

// ParseTaskState maps a reported string onto the canonical vocabulary.
// Matching is exact; unrecognized values round-trip verbatim through Other.
func ParseTaskState(s string) TaskState {
	switch s {
	case "IDLE":
		return StateIdle
	case "WORKING":
		return StateWorking
	case "PENDING":
		return StatePending
	case "ERROR":
		return StateError
	case "DONE":
		return StateDone
	default:
		return StateOther(s)
	}
}

// String returns the canonical upper-case name, or the verbatim raw value
// for Other states.
func (s TaskState) String() string {
	switch s.kind {
	case kindIdle:
		return "IDLE"
	case kindWorking:
		return "WORKING"
	case kindPending:
		return "PENDING"
	case kindError:
		return "ERROR"
	case kindDone:
		return "DONE"
	default:
		return s.raw
	}
}

// IsTerminal reports whether the state is DONE.
func (s TaskState) IsTerminal() bool { return s.kind == kindDone }

// IsIdle reports whether the state is IDLE.
func (s TaskState) IsIdle() bool { return s.kind == kindIdle }

// IsWorking reports whether the state is WORKING.
func (s TaskState) IsWorking() bool { return s.kind == kindWorking }

// IsPending reports whether the state is PENDING.
func (s TaskState) IsPending() bool { return s.kind == kindPending }

// IsError reports whether the state is ERROR.
func (s TaskState) IsError() bool { return s.kind == kindError }

// IsDone reports whether the state is DONE.
func (s TaskState) IsDone() bool { return s.kind == kindDone }

// IsOther reports whether the state is outside the canonical vocabulary.
func (s TaskState) IsOther() bool { return s.kind == kindOther }

// MarshalJSON serializes the state as its string form.
func (s TaskState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the state from its string form.
func (s *TaskState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseTaskState(str)
	return nil
}

// MarshalYAML serializes the state as its string form.
func (s TaskState) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
