package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

// cjkRejectRatio is the cheap "wrong language" filter: relay agents have
// been observed answering in Chinese regardless of the request language, so
// any response with more than 30% CJK runes is rejected.
const cjkRejectRatio = 0.3

// defaultAgents is the ordered list of named relay agents tried in sequence
var defaultAgents = []string{
	"web-navigator",
	"task-runner",
	"general-assistant",
}

// RelayProvider is the secondary step: an OpenAI-compatible relay endpoint
// with an ordered list of named agent variants. The first agent that returns
// non-empty, non-foreign-language text wins.
type RelayProvider struct {
	client  *openai.Client
	agents  []string
	timeout time.Duration
}

// NewRelayProvider creates the secondary provider against baseURL
func NewRelayProvider(baseURL, apiKey string) *RelayProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizeBaseURL(baseURL)

	return &RelayProvider{
		client:  openai.NewClientWithConfig(cfg),
		agents:  defaultAgents,
		timeout: defaultTimeout,
	}
}

// normalizeBaseURL strips trailing slashes before the suffix check so
// ".../v1" and ".../v1/" both come out as ".../v1", never ".../v1/v1".
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}

func (p *RelayProvider) Name() string { return "relay" }

// Try walks the agent list in order and returns the first acceptable answer.
func (p *RelayProvider) Try(ctx context.Context, prompt Prompt) (string, error) {
	text := BuildPrompt(prompt)

	var lastErr error = errEmptyResponse
	for _, agent := range p.agents {
		content, err := p.ask(ctx, agent, text)
		if err != nil {
			log.Debug("dispatch: relay agent failed", "agent", agent, "error", err)
			lastErr = err
			continue
		}
		if ratio := cjkRatio(content); ratio > cjkRejectRatio {
			log.Debug("dispatch: relay agent rejected, wrong language", "agent", agent, "cjkRatio", ratio)
			lastErr = fmt.Errorf("agent %s answered in the wrong language", agent)
			continue
		}
		return content, nil
	}

	return "", fmt.Errorf("all relay agents failed: %w", lastErr)
}

func (p *RelayProvider) ask(ctx context.Context, agent, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       agent,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// cjkRatio returns the fraction of runes in the CJK ideograph, hiragana and
// katakana ranges.
func cjkRatio(s string) float64 {
	if s == "" {
		return 0
	}
	var cjk, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			cjk++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(cjk) / float64(total)
}
