package dispatch

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

var taskURLPattern = regexp.MustCompile(`https?://\S+`)

// Synthesizer is the terminal step of the chain: a deterministic reply built
// from local message matching. It never fails, so every turn ends with a
// non-empty reply even when both remote providers are down.
type Synthesizer struct{}

// NewSynthesizer creates the terminal fallback
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

func (s *Synthesizer) Name() string { return "canned" }

// Try builds a typed decision and marshals it, so the output is always
// well-formed JSON for the decision parser downstream.
func (s *Synthesizer) Try(_ context.Context, p Prompt) (string, error) {
	if p.Kind == KindTask {
		return s.planFor(p)
	}

	decision := models.RouterDecision{
		Reply:        s.replyFor(p),
		NeedsBrowser: p.Kind == KindBrowser,
	}

	out, err := json.Marshal(decision)
	if err != nil {
		// Marshalling a plain struct cannot realistically fail; fall back to
		// the bare reply text to keep the never-fails guarantee.
		return decision.Reply, nil
	}
	return string(out), nil
}

// planFor emits a deterministic plan: visit the first URL in the task and
// extract the title and first paragraph. Without a URL the plan is a bare
// screenshot of whatever page is open.
func (s *Synthesizer) planFor(p Prompt) (string, error) {
	var actions []models.Action
	if url := taskURLPattern.FindString(p.Message); url != "" {
		actions = []models.Action{
			{Type: models.ActionGoto, URL: strings.TrimRight(url, ".,)")},
			{Type: models.ActionExtract, Selectors: []string{"title", "p"}},
		}
	} else {
		actions = []models.Action{{Type: models.ActionScreenshot}}
	}

	out, err := json.Marshal(map[string][]models.Action{"actions": actions})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *Synthesizer) replyFor(p Prompt) string {
	lower := strings.ToLower(p.Message)

	switch {
	case containsAny(lower, "hello", "hi ", "hey", "good morning", "good afternoon"):
		return "Hello! I can browse websites, extract content, take screenshots, and scaffold demo projects. What would you like to do?"
	case containsAny(lower, "what can you do", "help", "how do you work", "capabilities"):
		return "I can navigate to websites, click elements, fill forms, extract text, take screenshots, and generate starter projects. Try something like \"go to google.com\"."
	case p.Kind == KindProject:
		return "I'll set up a starter project for that. Give me a moment while the scaffold is generated."
	case p.Kind == KindBrowser || containsAny(lower, "browse", "website", "scrape", "screenshot"):
		return "I'd normally work that out with the language model, but it's unreachable right now. I can still run direct browser commands like \"go to <url>\" or \"screenshot\"."
	default:
		return "I'm a browser automation assistant. Ask me to visit a website, extract some content, or build a starter project."
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
