package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// maxPlanActions caps how many actions one task run may execute
const maxPlanActions = 5

// Plan asks the chain for an ordered action list for the task. The raw
// provider text is returned alongside the parsed plan so callers can expose
// it. An empty plan from every provider is an error; unlike Decide there is
// no meaningful reply to fall back to.
func (d *Dispatcher) Plan(ctx context.Context, task string) ([]models.Action, string, error) {
	prompt := Prompt{Kind: KindTask, Message: task}

	for _, p := range d.providers {
		text, err := p.Try(ctx, prompt)
		if err != nil || text == "" {
			log.Warn("dispatch: planner failed, trying next", "provider", p.Name(), "error", err)
			continue
		}

		actions := ParsePlan(text)
		if len(actions) == 0 {
			log.Warn("dispatch: provider produced no usable plan", "provider", p.Name())
			continue
		}
		return actions, text, nil
	}

	return nil, "", fmt.Errorf("no provider produced an action plan")
}

// ParsePlan extracts the actions array from provider text. Unknown action
// types are kept (they execute as screenshot-only no-ops); entries without a
// type are dropped. The plan is truncated to maxPlanActions.
func ParsePlan(text string) []models.Action {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return nil
	}

	raw := gjson.Get(candidate, "actions")
	if !raw.IsArray() {
		return nil
	}

	var actions []models.Action
	for _, item := range raw.Array() {
		var action models.Action
		if err := json.Unmarshal([]byte(item.Raw), &action); err != nil || action.Type == "" {
			continue
		}
		actions = append(actions, action)
		if len(actions) == maxPlanActions {
			break
		}
	}
	return actions
}
