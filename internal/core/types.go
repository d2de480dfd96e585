package core

// Project is a repository-backed workspace that owns zero or more tasks.
// RepoPath is the natural dedup key: at most one Project exists per path.
type Project struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	RepoPath     string  `json:"repo_path"`
	PreferredIDE string  `json:"preferred_ide"`
	GithubURL    *string `json:"github_url,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	if p.GithubURL != nil {
		u := *p.GithubURL
		cp.GithubURL = &u
	}
	return &cp
}

// Task is one tracked agent session within a project.
type Task struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	Agent           string          `json:"agent"`
	Title           string          `json:"title"`
	State           TaskState       `json:"state"`
	Details         *string         `json:"details,omitempty"`
	Pinned          bool            `json:"pinned"`
	DetectionMethod string          `json:"detection_method,omitempty"`
	Confidence      *float64        `json:"confidence,omitempty"`
	NetworkContext  *NetworkContext `json:"network_context,omitempty"`
	SessionContext  *SessionContext `json:"session_context,omitempty"`
	CreatedAt       int64           `json:"created_at"`
	UpdatedAt       int64           `json:"updated_at"`
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Details != nil {
		d := *t.Details
		cp.Details = &d
	}
	if t.Confidence != nil {
		c := *t.Confidence
		cp.Confidence = &c
	}
	cp.NetworkContext = t.NetworkContext.Clone()
	cp.SessionContext = t.SessionContext.Clone()
	return &cp
}

// NetworkContext carries request-level signals captured by network
// interception. Durations and response times are milliseconds.
type NetworkContext struct {
	ActiveRequests      int      `json:"active_requests"`
	AverageResponseTime int      `json:"average_response_time"`
	ThinkingDuration    int64    `json:"thinking_duration,omitempty"`
	LastActivity        int64    `json:"last_activity,omitempty"`
	RequestTypes        []string `json:"request_types,omitempty"`
}

// Clone returns a deep copy.
func (n *NetworkContext) Clone() *NetworkContext {
	if n == nil {
		return nil
	}
	cp := *n
	if n.RequestTypes != nil {
		cp.RequestTypes = append([]string(nil), n.RequestTypes...)
	}
	return &cp
}

// SessionContext carries signals parsed from the agent's session file.
type SessionContext struct {
	SessionID          string          `json:"session_id,omitempty"`
	MessageCount       int             `json:"message_count,omitempty"`
	LastMessage        *SessionMessage `json:"last_message,omitempty"`
	WaitingTime        int64           `json:"waiting_time,omitempty"`
	ConversationLength int             `json:"conversation_length,omitempty"`
}

// Clone returns a deep copy.
func (s *SessionContext) Clone() *SessionContext {
	if s == nil {
		return nil
	}
	cp := *s
	if s.LastMessage != nil {
		m := *s.LastMessage
		cp.LastMessage = &m
	}
	return &cp
}

// SessionMessage is the most recent message observed in a session file.
type SessionMessage struct {
	MessageType string `json:"message_type"`
	Timestamp   string `json:"timestamp"`
	Preview     string `json:"preview"`
}

// EnhancedContext is the structured evidence accompanying a
// confidence-gated state update.
type EnhancedContext struct {
	Network         *NetworkContext `json:"network,omitempty"`
	Session         *SessionContext `json:"session,omitempty"`
	DetectionMethod string          `json:"detection_method"`
	Confidence      float64         `json:"confidence"`
	Timestamp       int64           `json:"timestamp"`
	RawData         any             `json:"raw_data,omitempty"`
}

// DetectionEntry records one observed state transition in a debug trace.
type DetectionEntry struct {
	Timestamp  int64  `json:"timestamp"`
	From       string `json:"from"`
	To         string `json:"to"`
	Details    string `json:"details"`
	Confidence string `json:"confidence"`
}

// DebugTrace is the rolling diagnostic buffer kept per task. Purely
// informational; retention is bounded, nothing else is guaranteed.
type DebugTrace struct {
	TaskID           string           `json:"task_id"`
	CleanedBuffer    string           `json:"cleaned_buffer"`
	CurrentState     string           `json:"current_state"`
	DetectionHistory []DetectionEntry `json:"detection_history"`
	PatternTests     any              `json:"pattern_tests,omitempty"`
	Confidence       *string          `json:"confidence,omitempty"`
	IsActive         *bool            `json:"is_active,omitempty"`
}

// Clone returns a deep copy. PatternTests is opaque JSON and is shared.
func (d *DebugTrace) Clone() *DebugTrace {
	if d == nil {
		return nil
	}
	cp := *d
	if d.DetectionHistory != nil {
		cp.DetectionHistory = append([]DetectionEntry(nil), d.DetectionHistory...)
	}
	if d.Confidence != nil {
		c := *d.Confidence
		cp.Confidence = &c
	}
	if d.IsActive != nil {
		a := *d.IsActive
		cp.IsActive = &a
	}
	return &cp
}

// LastDetectionAt returns the newest detection timestamp, or 0 when the
// trace has no history.
func (d *DebugTrace) LastDetectionAt() int64 {
	var max int64
	for _, e := range d.DetectionHistory {
		if e.Timestamp > max {
			max = e.Timestamp
		}
	}
	return max
}

// Snapshot is the full authoritative state: the unit of persistence and the
// unit pushed to the UI. UpdatedAt is monotonically non-decreasing for the
// process lifetime.
type Snapshot struct {
	Projects         map[string]*Project    `json:"projects"`
	Tasks            map[string]*Task       `json:"tasks"`
	Debug            map[string]*DebugTrace `json:"debug"`
	UpdatedAt        int64                  `json:"updated_at"`
	LastExternalPing int64                  `json:"last_external_ping,omitempty"`
}

// NewSnapshot returns an empty snapshot with allocated maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Projects: make(map[string]*Project),
		Tasks:    make(map[string]*Task),
		Debug:    make(map[string]*DebugTrace),
	}
}

// Clone returns a deep copy safe to hand to readers.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := &Snapshot{
		Projects:         make(map[string]*Project, len(s.Projects)),
		Tasks:            make(map[string]*Task, len(s.Tasks)),
		Debug:            make(map[string]*DebugTrace, len(s.Debug)),
		UpdatedAt:        s.UpdatedAt,
		LastExternalPing: s.LastExternalPing,
	}
	for id, p := range s.Projects {
		cp.Projects[id] = p.Clone()
	}
	for id, t := range s.Tasks {
		cp.Tasks[id] = t.Clone()
	}
	for id, d := range s.Debug {
		cp.Debug[id] = d.Clone()
	}
	return cp
}

// Normalize allocates any nil maps. Used after decoding persisted state so
// callers never see nil maps.
func (s *Snapshot) Normalize() {
	if s.Projects == nil {
		s.Projects = make(map[string]*Project)
	}
	if s.Tasks == nil {
		s.Tasks = make(map[string]*Task)
	}
	if s.Debug == nil {
		s.Debug = make(map[string]*DebugTrace)
	}
}
