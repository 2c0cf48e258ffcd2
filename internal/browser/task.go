package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// Planner turns a free-form task into an ordered action list
type Planner interface {
	Plan(ctx context.Context, task string) ([]models.Action, string, error)
}

// ActionRunner executes one action; nil means the action failed
type ActionRunner interface {
	Execute(ctx context.Context, wsEndpoint string, action models.Action) *Result
}

// Agent runs a whole task: ask the planner for actions, execute them in
// order, collect what they produced. One failed step marks the run
// unsuccessful but later steps still execute; partial extraction is better
// than none.
type Agent struct {
	planner Planner
	runner  ActionRunner
}

// NewAgent creates a task agent over the planner and action runner
func NewAgent(planner Planner, runner ActionRunner) *Agent {
	return &Agent{planner: planner, runner: runner}
}

// Run plans and executes the task against the remote browser. The returned
// raw string is the provider text the plan was parsed from; the screenshot is
// the last one any step captured. Planning failure is the only error; step
// failures are folded into the result.
func (a *Agent) Run(ctx context.Context, wsEndpoint, task string) (*models.TaskResult, string, []byte, error) {
	actions, raw, err := a.planner.Plan(ctx, task)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to plan task: %w", err)
	}

	result := &models.TaskResult{
		Success:   true,
		Task:      task,
		Extracted: make(map[string]string),
	}
	var lastShot []byte

	for _, action := range actions {
		step := describeAction(action)

		out := a.runner.Execute(ctx, wsEndpoint, action)
		if out == nil {
			result.Success = false
			result.Steps = append(result.Steps, step+" (failed)")
			log.Warn("browser: task step failed", "step", step)
			continue
		}

		result.Steps = append(result.Steps, step)
		for k, v := range out.Extracted {
			result.Extracted[k] = v
		}
		if len(out.Screenshot) > 0 {
			lastShot = out.Screenshot
		}
	}

	result.Summary = summarize(result)
	log.Info("browser: task finished", "steps", len(result.Steps), "success", result.Success)

	return result, raw, lastShot, nil
}

func describeAction(a models.Action) string {
	switch a.Type {
	case models.ActionGoto:
		return "goto " + a.URL
	case models.ActionClick:
		return "click " + a.Selector
	case models.ActionFill:
		return "fill " + a.Selector
	case models.ActionExtract:
		return "extract " + strings.Join(a.Selectors, ", ")
	case models.ActionScroll:
		return "scroll " + a.Direction
	case models.ActionScreenshot:
		return "screenshot"
	default:
		return string(a.Type)
	}
}

func summarize(r *models.TaskResult) string {
	var b strings.Builder
	if r.Success {
		fmt.Fprintf(&b, "Completed %d step(s).", len(r.Steps))
	} else {
		fmt.Fprintf(&b, "Ran %d step(s), some failed.", len(r.Steps))
	}
	if len(r.Extracted) > 0 {
		fmt.Fprintf(&b, " Extracted %d value(s).", len(r.Extracted))
	}
	return b.String()
}
