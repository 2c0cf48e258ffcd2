// Package dispatch routes one chat turn through an ordered chain of LLM
// providers until one yields a usable decision. The ordering is data, not
// control flow: primary, then relay, then the local synthesizer, which
// never fails.
package dispatch

import (
	"context"
	"fmt"
)

// PromptKind selects the prompt shape for one turn
type PromptKind int

const (
	KindGeneral PromptKind = iota
	KindBrowser
	KindProject
	KindTask
)

// Prompt carries everything a provider needs to answer one turn
type Prompt struct {
	Kind    PromptKind
	Message string
	Summary string // rolling summary of the last few turns, may be empty
}

// Provider is one step in the fallback chain. Try returns the raw text the
// backend produced; any error or empty string moves the chain to the next
// provider.
type Provider interface {
	Name() string
	Try(ctx context.Context, p Prompt) (string, error)
}

// errEmptyResponse is returned when a backend answers with no content
var errEmptyResponse = fmt.Errorf("provider returned empty content")
