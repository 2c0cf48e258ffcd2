package models

import "time"

// ChatTurn is one user message plus everything the turn produced.
// Turns are immutable once stored and append-only per session.
type ChatTurn struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"session_id"`
	Message      string            `json:"message"`
	Response     string            `json:"response"`
	Action       *Action           `json:"browser_action,omitempty"`
	Screenshot   string            `json:"screenshot,omitempty"` // base64 PNG
	Extracted    map[string]string `json:"extracted,omitempty"`
	Project      *Project          `json:"project,omitempty"`
	TaskResult   *TaskResult       `json:"browser_use_result,omitempty"`
	NeedsBrowser bool              `json:"needs_browser"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ChatRequest is the payload for one chat turn. UseAgent requests the
// multi-step task agent instead of single-action execution.
type ChatRequest struct {
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	WsEndpoint string `json:"ws_endpoint,omitempty"`
	UseAgent   bool   `json:"use_browser_use,omitempty"`
}

// ChatResponse is the turn result returned to the caller
type ChatResponse struct {
	ID           string            `json:"id"`
	Response     string            `json:"response"`
	Action       *Action           `json:"browser_action,omitempty"`
	Screenshot   string            `json:"screenshot,omitempty"`
	Extracted    map[string]string `json:"extracted,omitempty"`
	Project      *Project          `json:"project,omitempty"`
	TaskResult   *TaskResult       `json:"browser_use_result,omitempty"`
	NeedsBrowser bool              `json:"needs_browser"`
	VNCURL       string            `json:"vnc_url,omitempty"`
}

// TaskResult is what one multi-step agent run produced. Summary is the
// human-readable account of what happened; Steps lists the executed actions
// in order.
type TaskResult struct {
	Success   bool              `json:"success"`
	Task      string            `json:"task"`
	Summary   string            `json:"result"`
	Steps     []string          `json:"steps,omitempty"`
	Extracted map[string]string `json:"extracted_data,omitempty"`
}

// RunTaskRequest is the payload for a one-shot navigate-and-extract task
type RunTaskRequest struct {
	WsEndpoint string `json:"wsEndpoint"`
	TargetURL  string `json:"targetUrl"`
}

// RunTaskResponse carries what the task extracted plus the raw model output
// the plan was parsed from.
type RunTaskResponse struct {
	Extracted map[string]string `json:"extracted"`
	AIOutput  string            `json:"aiOutput"`
}
