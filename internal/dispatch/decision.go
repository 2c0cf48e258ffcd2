package dispatch

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// ParseDecision extracts a RouterDecision from whatever text a provider
// produced. Models rarely return bare JSON, so the outermost {...} span is
// located first. When no valid JSON is found the raw text becomes the reply
// and the structure is dropped.
func ParseDecision(text string, fallbackNeedsBrowser bool) models.RouterDecision {
	decision := models.RouterDecision{
		Reply:        strings.TrimSpace(text),
		NeedsBrowser: fallbackNeedsBrowser,
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return decision
	}

	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return decision
	}

	if reply := gjson.Get(candidate, "response"); reply.Exists() && reply.String() != "" {
		decision.Reply = reply.String()
	}
	if nb := gjson.Get(candidate, "needs_browser"); nb.Exists() {
		decision.NeedsBrowser = nb.Bool()
	}
	if raw := gjson.Get(candidate, "action"); raw.IsObject() {
		var action models.Action
		if err := json.Unmarshal([]byte(raw.Raw), &action); err == nil && action.Type != "" {
			decision.Action = &action
		}
	}

	return decision
}
