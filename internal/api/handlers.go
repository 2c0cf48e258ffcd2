package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shehryarbajwa/browserpilot/internal/browser"
	"github.com/shehryarbajwa/browserpilot/internal/chatlog"
	"github.com/shehryarbajwa/browserpilot/internal/intent"
	"github.com/shehryarbajwa/browserpilot/internal/notify"
	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// Sessions is the subset of session.Manager the handlers need
type Sessions interface {
	Create(ctx context.Context, ttl int, stealth bool) (*models.Session, error)
	Get(id string) (*models.Session, error)
	List(status models.SessionStatus) []*models.Session
	Delete(id string) error
	AcquireTurn(id string) error
	ReleaseTurn(id string)
}

// Decider produces the routing decision for one turn
type Decider interface {
	Decide(ctx context.Context, message string, cls intent.Classification, summary string) models.RouterDecision
}

// Runner executes one browser action
type Runner interface {
	Execute(ctx context.Context, wsEndpoint string, action models.Action) *browser.Result
}

// TaskRunner plans and executes a whole multi-step task
type TaskRunner interface {
	Run(ctx context.Context, wsEndpoint, task string) (*models.TaskResult, string, []byte, error)
}

// Projects generates and serves project scaffolds
type Projects interface {
	Generate(message string) (*models.Project, error)
	Get(id string) (*models.Project, error)
	List() []*models.Project
	Export(id string, w io.Writer) error
}

// Options carries the handler-facing configuration
type Options struct {
	SessionTTL int
	Stealth    bool
	VNCURL     string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions   Sessions
	classifier intent.Classifier
	decider    Decider
	runner     Runner
	agent      TaskRunner
	projects   Projects
	turns      chatlog.Store
	hub        *notify.Hub
	opts       Options
}

// NewHandler wires the turn pipeline. All collaborators are passed in
// explicitly; there is no global state behind the handlers.
func NewHandler(sessions Sessions, classifier intent.Classifier, decider Decider,
	runner Runner, agent TaskRunner, projects Projects, turns chatlog.Store, hub *notify.Hub, opts Options) *Handler {
	return &Handler{
		sessions:   sessions,
		classifier: classifier,
		decider:    decider,
		runner:     runner,
		agent:      agent,
		projects:   projects,
		turns:      turns,
		hub:        hub,
		opts:       opts,
	}
}

// CreateSession handles POST /api/create-session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if r.Body != nil {
		// Body is optional; defaults apply when absent or empty
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ttl := req.TTL
	if ttl == 0 {
		ttl = h.opts.SessionTTL
	}

	sess, err := h.sessions.Create(r.Context(), ttl, h.opts.Stealth)
	if err != nil {
		log.Error("api: session creation failed", "error", err)
		http.Error(w, "Failed to create browser session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateSessionResponse{
		WsEndpoint: sess.ConnectURL,
		SessionID:  sess.ID,
	})
}

// Chat handles POST /api/chat. The pipeline is strictly sequential:
// classify, decide, maybe execute, persist, notify.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Message == "" {
		http.Error(w, "session_id and message are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cls := h.classifier.Classify(req.Message)

	// The rolling summary is best-effort context, not turn state
	summary, err := h.turns.RecentSummary(ctx, req.SessionID, 3)
	if err != nil {
		log.Warn("api: failed to build summary, continuing without", "session", req.SessionID, "error", err)
		summary = ""
	}

	decision := h.decider.Decide(ctx, req.Message, cls, summary)

	turn := models.ChatTurn{
		ID:           uuid.New().String(),
		SessionID:    req.SessionID,
		Message:      req.Message,
		Response:     decision.Reply,
		Action:       decision.Action,
		NeedsBrowser: decision.NeedsBrowser,
		CreatedAt:    time.Now(),
	}

	if cls.NeedsProject {
		project, err := h.projects.Generate(req.Message)
		if err != nil {
			log.Warn("api: scaffold generation failed", "error", err)
			turn.Response += "\n\nI couldn't generate the project files this time."
		} else {
			turn.Project = project
		}
	}

	switch {
	case req.UseAgent && cls.NeedsBrowser:
		if endpoint := h.resolveEndpoint(req); endpoint != "" {
			h.runTask(ctx, &turn, endpoint, req.Message)
		} else {
			turn.Response += "\n\nNo live browser session is attached, so I couldn't run that task."
		}
	case decision.Action != nil:
		if endpoint := h.resolveEndpoint(req); endpoint != "" {
			h.runAction(ctx, &turn, endpoint, *decision.Action)
		} else {
			turn.Response += "\n\nNo live browser session is attached, so I couldn't run that action."
		}
	}

	if err := h.turns.Append(ctx, turn); err != nil {
		log.Error("api: failed to persist turn", "session", req.SessionID, "error", err)
		http.Error(w, "Failed to save chat turn", http.StatusInternalServerError)
		return
	}

	h.hub.Broadcast(req.SessionID, notify.Envelope{Type: "chat", Data: turn})

	resp := models.ChatResponse{
		ID:           turn.ID,
		Response:     turn.Response,
		Action:       turn.Action,
		Screenshot:   turn.Screenshot,
		Extracted:    turn.Extracted,
		Project:      turn.Project,
		TaskResult:   turn.TaskResult,
		NeedsBrowser: turn.NeedsBrowser,
	}
	if turn.NeedsBrowser {
		resp.VNCURL = h.opts.VNCURL
	}

	writeJSON(w, http.StatusOK, resp)
}

// resolveEndpoint prefers the endpoint the client supplied, falling back to
// the session's provisioned browser when it is still running.
func (h *Handler) resolveEndpoint(req models.ChatRequest) string {
	if req.WsEndpoint != "" {
		return req.WsEndpoint
	}
	sess, err := h.sessions.Get(req.SessionID)
	if err != nil || sess.Status != models.StatusRunning {
		return ""
	}
	return sess.ConnectURL
}

// runAction executes the action and folds the outcome into the turn. A
// failed action degrades the reply, it never aborts the turn.
func (h *Handler) runAction(ctx context.Context, turn *models.ChatTurn, endpoint string, action models.Action) {
	if err := h.sessions.AcquireTurn(turn.SessionID); err != nil {
		log.Warn("api: turn slot unavailable", "session", turn.SessionID, "error", err)
		turn.Response += "\n\nThe browser is busy with another action for this session, try again in a moment."
		return
	}
	defer h.sessions.ReleaseTurn(turn.SessionID)

	if !action.Known() {
		log.Debug("api: unknown action type, executor will screenshot only", "type", action.Type)
	}

	result := h.runner.Execute(ctx, endpoint, action)
	if result == nil {
		turn.Response += "\n\nThe browser action didn't complete, so there's no screenshot for this step."
		return
	}

	turn.Screenshot = base64.StdEncoding.EncodeToString(result.Screenshot)
	turn.Extracted = result.Extracted
}

// runTask hands the whole message to the multi-step agent. Like runAction,
// failures degrade the reply instead of aborting the turn.
func (h *Handler) runTask(ctx context.Context, turn *models.ChatTurn, endpoint, task string) {
	if err := h.sessions.AcquireTurn(turn.SessionID); err != nil {
		log.Warn("api: turn slot unavailable", "session", turn.SessionID, "error", err)
		turn.Response += "\n\nThe browser is busy with another action for this session, try again in a moment."
		return
	}
	defer h.sessions.ReleaseTurn(turn.SessionID)

	result, _, shot, err := h.agent.Run(ctx, endpoint, task)
	if err != nil {
		log.Warn("api: task agent failed", "session", turn.SessionID, "error", err)
		turn.Response += "\n\nI couldn't work out a plan for that task."
		return
	}

	turn.TaskResult = result
	turn.Extracted = result.Extracted
	if len(shot) > 0 {
		turn.Screenshot = base64.StdEncoding.EncodeToString(shot)
	}
}

// RunTask handles POST /api/run-task: a one-shot plan-and-execute against a
// caller-supplied endpoint, no session bookkeeping involved.
func (h *Handler) RunTask(w http.ResponseWriter, r *http.Request) {
	var req models.RunTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.WsEndpoint == "" || req.TargetURL == "" {
		http.Error(w, "Missing wsEndpoint or targetUrl", http.StatusBadRequest)
		return
	}

	task := fmt.Sprintf("Navigate to %s and extract the page title and first paragraph text.", req.TargetURL)

	result, raw, _, err := h.agent.Run(r.Context(), req.WsEndpoint, task)
	if err != nil {
		log.Error("api: run-task failed", "url", req.TargetURL, "error", err)
		http.Error(w, "Failed to run task", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.RunTaskResponse{
		Extracted: result.Extracted,
		AIOutput:  raw,
	})
}

// ChatHistory handles GET /api/chat-history/{session_id}
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	history, err := h.turns.History(r.Context(), sessionID)
	if err != nil {
		log.Error("api: failed to load history", "session", sessionID, "error", err)
		http.Error(w, "Failed to load chat history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []models.ChatTurn{}
	}

	writeJSON(w, http.StatusOK, history)
}

// ListSessions handles GET /api/sessions, optionally filtered by ?status=
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	status := models.SessionStatus(r.URL.Query().Get("status"))

	sessions := h.sessions.List(status)
	if sessions == nil {
		sessions = []*models.Session{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.sessions.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminated", "id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
