package models

// ActionType identifies one operation in the fixed browser action vocabulary.
type ActionType string

const (
	ActionGoto       ActionType = "goto"
	ActionClick      ActionType = "click"
	ActionFill       ActionType = "fill"
	ActionExtract    ActionType = "extract"
	ActionScreenshot ActionType = "screenshot"
	ActionScroll     ActionType = "scroll"
)

// Action is one structured browser operation decided by the LLM.
// Exactly one variant is active; only the fields that variant needs are set.
// An unknown type is treated as a no-op that still yields a screenshot.
type Action struct {
	Type      ActionType `json:"type"`
	URL       string     `json:"url,omitempty"`
	Selector  string     `json:"selector,omitempty"`
	Text      string     `json:"text,omitempty"`
	Selectors []string   `json:"selectors,omitempty"`
	Direction string     `json:"direction,omitempty"`
}

// Known reports whether the action type is part of the fixed vocabulary.
func (a *Action) Known() bool {
	switch a.Type {
	case ActionGoto, ActionClick, ActionFill, ActionExtract, ActionScreenshot, ActionScroll:
		return true
	}
	return false
}

// RouterDecision is what the dispatcher produces for one turn.
// Reply is always non-empty; Action may be nil.
type RouterDecision struct {
	Reply        string  `json:"response"`
	Action       *Action `json:"action,omitempty"`
	NeedsBrowser bool    `json:"needs_browser"`
}
