package dispatch

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/shehryarbajwa/browserpilot/internal/intent"
	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// Dispatcher walks the provider chain in order until one produces usable
// text, then parses a RouterDecision out of it. The final provider is the
// local synthesizer, so Decide always terminates with a non-empty reply.
type Dispatcher struct {
	providers []Provider
}

// NewDispatcher builds a dispatcher over the given chain. Order matters:
// earlier success short-circuits later providers.
func NewDispatcher(providers ...Provider) *Dispatcher {
	return &Dispatcher{providers: providers}
}

// NewChain assembles the standard chain: OpenAI primary, optional relay
// secondary, local synthesizer terminal.
func NewChain(openAIKey, model, relayBaseURL, relayKey string) *Dispatcher {
	providers := []Provider{NewOpenAIProvider(openAIKey, model)}
	if relayBaseURL != "" {
		providers = append(providers, NewRelayProvider(relayBaseURL, relayKey))
	}
	providers = append(providers, NewSynthesizer())
	return NewDispatcher(providers...)
}

// Decide produces the decision for one turn.
func (d *Dispatcher) Decide(ctx context.Context, message string, cls intent.Classification, summary string) models.RouterDecision {
	prompt := Prompt{
		Kind:    KindGeneral,
		Message: message,
		Summary: summary,
	}
	switch {
	case cls.NeedsProject:
		prompt.Kind = KindProject
	case cls.NeedsBrowser:
		prompt.Kind = KindBrowser
	}

	for _, p := range d.providers {
		text, err := p.Try(ctx, prompt)
		if err != nil || text == "" {
			log.Warn("dispatch: provider failed, trying next", "provider", p.Name(), "error", err)
			continue
		}

		decision := ParseDecision(text, cls.NeedsBrowser)
		if decision.Reply == "" {
			log.Warn("dispatch: provider gave empty reply, trying next", "provider", p.Name())
			continue
		}

		log.Debug("dispatch: decision made", "provider", p.Name(),
			"needsBrowser", decision.NeedsBrowser, "hasAction", decision.Action != nil)
		return decision
	}

	// Unreachable when the synthesizer terminates the chain, but a
	// dispatcher built without it must still answer something.
	return models.RouterDecision{Reply: "Something went wrong on my side, please try again."}
}
