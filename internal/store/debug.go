package store

import (
	"sort"
	"unicode/utf8"

	"github.com/tallr-app/tallr/internal/core"
)

// Trace retention bounds. Traces are diagnostic only; when the caps are hit
// the oldest material goes first.
const (
	maxTraces      = 64
	maxHistory     = 100
	maxBufferBytes = 64 * 1024
)

// UpdateTrace replaces the debug trace for its task id, clamping history
// and buffer retention. The trace is persisted but not pushed to the UI.
func (s *Store) UpdateTrace(trace *core.DebugTrace) error {
	if trace == nil || trace.TaskID == "" {
		return core.ErrValidation(core.CodeMissingTaskID, "debug trace requires a task id")
	}
	clamped := clampTrace(trace.Clone())

	return s.mutateQuiet(func(snap *core.Snapshot, now int64) error {
		snap.Debug[clamped.TaskID] = clamped
		s.traceKeys.Add(clamped.TaskID, struct{}{})
		return nil
	})
}

// TraceFor returns the trace recorded for a task, or an inert empty trace
// when none exists.
func (s *Store) TraceFor(taskID string) *core.DebugTrace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trace, ok := s.snap.Debug[taskID]; ok {
		return trace.Clone()
	}
	return emptyTrace(taskID)
}

// LatestTrace returns the trace with the newest detection entry, or an
// inert empty trace when none are recorded.
func (s *Store) LatestTrace() *core.DebugTrace {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *core.DebugTrace
	bestAt := int64(-1)
	for _, trace := range s.snap.Debug {
		if at := trace.LastDetectionAt(); at > bestAt {
			best, bestAt = trace, at
		}
	}
	if best == nil {
		return emptyTrace("none")
	}
	return best.Clone()
}

// reindexTraces rebuilds the trace LRU from the current snapshot, oldest
// detection first so evictions drop the stalest traces. Caller holds the
// lock.
func (s *Store) reindexTraces() {
	ids := make([]string, 0, len(s.snap.Debug))
	for id, trace := range s.snap.Debug {
		ids = append(ids, id)
		s.snap.Debug[id] = clampTrace(trace)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.snap.Debug[ids[i]].LastDetectionAt() < s.snap.Debug[ids[j]].LastDetectionAt()
	})
	for _, id := range ids {
		s.traceKeys.Add(id, struct{}{})
	}
}

func emptyTrace(taskID string) *core.DebugTrace {
	return &core.DebugTrace{
		TaskID:           taskID,
		CurrentState:     "IDLE",
		DetectionHistory: []core.DetectionEntry{},
	}
}

func clampTrace(trace *core.DebugTrace) *core.DebugTrace {
	if len(trace.DetectionHistory) > maxHistory {
		tail := trace.DetectionHistory[len(trace.DetectionHistory)-maxHistory:]
		trace.DetectionHistory = append([]core.DetectionEntry(nil), tail...)
	}
	if len(trace.CleanedBuffer) > maxBufferBytes {
		tail := trace.CleanedBuffer[len(trace.CleanedBuffer)-maxBufferBytes:]
		for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
			tail = tail[1:]
		}
		trace.CleanedBuffer = tail
	}
	return trace
}
