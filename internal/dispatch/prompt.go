package dispatch

import (
	"fmt"
	"strings"
)

// BuildPrompt produces the provider-facing prompt text for a turn. All
// providers in the chain receive the same prompt so the fallback ordering is
// the only thing that differs between them.
func BuildPrompt(p Prompt) string {
	var b strings.Builder

	if p.Summary != "" {
		fmt.Fprintf(&b, "Previous conversation context:\n%s\n\n", p.Summary)
	}

	switch p.Kind {
	case KindBrowser:
		b.WriteString(`You are an AI agent controlling a web browser.
Decide the single browser action that best serves the user's request.
Allowed action types: goto, click, fill, extract, screenshot, scroll.
Respond with JSON only, in this shape:
{"response": "<what you are doing, in one sentence>", "needs_browser": true, "action": {"type": "goto", "url": "https://example.com"}}
For click/fill include "selector" (and "text" for fill); for extract include
"selectors" as a list of CSS selectors; for scroll include "direction"
("up" or "down").
`)
	case KindTask:
		b.WriteString(`You are an AI agent controlling a browser.
Break the task below into an ordered list of browser actions.
Allowed action types: goto, click, fill, extract, screenshot, scroll.
Respond with JSON only, in this shape:
{"actions": [{"type": "goto", "url": "https://example.com"}, {"type": "extract", "selectors": ["title", "p"]}]}
`)
	case KindProject:
		b.WriteString(`You are a project scaffolding assistant. The user wants a new
application generated. Restate what is being built and confirm it.
Respond with JSON only:
{"response": "<restate what is being built>", "needs_browser": false}
`)
	default:
		b.WriteString(`You are a helpful assistant for a browser automation demo.
Respond with JSON only:
{"response": "<your conversational reply>", "needs_browser": false}
`)
	}

	fmt.Fprintf(&b, "\nUser request: %s", p.Message)
	return b.String()
}
