package core

// AggregateState derives the single status shown by the tray indicator from
// all non-terminal tasks. Priority is fixed: ERROR > PENDING > WORKING >
// IDLE. States outside the canonical vocabulary count as non-terminal but
// never outrank a canonical one. The result is independent of map iteration
// order.
func AggregateState(tasks map[string]*Task) TaskState {
	var anyError, anyPending, anyWorking bool
	for _, t := range tasks {
		if t.State.IsTerminal() {
			continue
		}
		switch {
		case t.State.IsError():
			anyError = true
		case t.State.IsPending():
			anyPending = true
		case t.State.IsWorking():
			anyWorking = true
		}
	}
	switch {
	case anyError:
		return StateError
	case anyPending:
		return StatePending
	case anyWorking:
		return StateWorking
	default:
		return StateIdle
	}
}
