package notify

import (
	"fmt"
	"strings"

	"github.com/tallr-app/tallr/internal/core"
)

// previewLimit bounds message previews embedded in notification bodies.
const previewLimit = 50

// Payload is a single notification pushed to the UI shell.
type Payload struct {
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	TaskID          string   `json:"task_id"`
	State           string   `json:"state"`
	Project         string   `json:"project"`
	Confidence      *float64 `json:"confidence,omitempty"`
	DetectionMethod string   `json:"detection_method,omitempty"`
}

// BuildBasic builds the payload for a plain state update. The body is the
// state name itself.
func BuildBasic(projectName, agent string, state core.TaskState, taskID string) Payload {
	return Payload{
		Title:   fmt.Sprintf("%s - %s", projectName, agent),
		Body:    state.String(),
		TaskID:  taskID,
		State:   state.String(),
		Project: projectName,
	}
}

// BuildEnhanced builds the payload for a confidence-gated update. PENDING
// bodies carry thinking time and the most recent message preview when the
// context provides them. With debug set the title shows the confidence.
func BuildEnhanced(projectName, agent string, state core.TaskState, ectx *core.EnhancedContext, taskID string, debug bool) Payload {
	title := fmt.Sprintf("%s - %s", projectName, agent)
	body := state.String()

	if state.IsPending() {
		if n := ectx.Network; n != nil && n.ThinkingDuration > 0 {
			body = fmt.Sprintf("%s (after %ds thinking)", body, n.ThinkingDuration/1000)
		}
		if s := ectx.Session; s != nil && s.LastMessage != nil {
			body = fmt.Sprintf("%s: %s", body, truncatePreview(s.LastMessage.Preview))
		}
	}

	if debug {
		title = fmt.Sprintf("%s (%.0f%%)", title, ectx.Confidence*100)
	}

	confidence := ectx.Confidence
	return Payload{
		Title:           title,
		Body:            body,
		TaskID:          taskID,
		State:           state.String(),
		Project:         projectName,
		Confidence:      &confidence,
		DetectionMethod: ectx.DetectionMethod,
	}
}

// EnhancedDetails renders the human-readable detection summary stored in a
// task's details field for an enhanced update.
func EnhancedDetails(ectx *core.EnhancedContext) string {
	parts := []string{
		fmt.Sprintf("Detection: %s (confidence: %.1f%%)", ectx.DetectionMethod, ectx.Confidence*100),
	}

	if n := ectx.Network; n != nil {
		if n.ActiveRequests > 0 {
			parts = append(parts, fmt.Sprintf("Active requests: %d", n.ActiveRequests))
		}
		if n.AverageResponseTime > 0 {
			parts = append(parts, fmt.Sprintf("Avg response: %dms", n.AverageResponseTime))
		}
		if n.ThinkingDuration > 0 {
			parts = append(parts, fmt.Sprintf("Thinking: %ds", n.ThinkingDuration/1000))
		}
	}

	if s := ectx.Session; s != nil {
		if s.MessageCount > 0 {
			parts = append(parts, fmt.Sprintf("Messages: %d", s.MessageCount))
		}
		if s.LastMessage != nil {
			parts = append(parts, fmt.Sprintf("Last: %s", s.LastMessage.Preview))
		}
	}

	return strings.Join(parts, " | ")
}

func truncatePreview(s string) string {
	r := []rune(s)
	if len(r) <= previewLimit {
		return s
	}
	return string(r[:previewLimit-3]) + "..."
}
