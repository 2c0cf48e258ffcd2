package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

type fakePlanner struct {
	actions []models.Action
	raw     string
	err     error
}

func (f *fakePlanner) Plan(context.Context, string) ([]models.Action, string, error) {
	return f.actions, f.raw, f.err
}

type fakeActionRunner struct {
	results map[models.ActionType]*Result
	ran     []models.ActionType
}

func (f *fakeActionRunner) Execute(_ context.Context, _ string, action models.Action) *Result {
	f.ran = append(f.ran, action.Type)
	return f.results[action.Type]
}

func TestAgentRunsPlanInOrder(t *testing.T) {
	planner := &fakePlanner{
		actions: []models.Action{
			{Type: models.ActionGoto, URL: "https://example.com"},
			{Type: models.ActionExtract, Selectors: []string{"title"}},
		},
		raw: `{"actions": []}`,
	}
	runner := &fakeActionRunner{results: map[models.ActionType]*Result{
		models.ActionGoto:    {Screenshot: []byte{1}},
		models.ActionExtract: {Screenshot: []byte{2}, Extracted: map[string]string{"title": "Example Domain"}},
	}}

	agent := NewAgent(planner, runner)
	result, raw, shot, err := agent.Run(context.Background(), "wss://host", "get the title of example.com")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, []models.ActionType{models.ActionGoto, models.ActionExtract}, runner.ran)
	assert.Equal(t, []string{"goto https://example.com", "extract title"}, result.Steps)
	assert.Equal(t, "Example Domain", result.Extracted["title"])
	assert.Equal(t, []byte{2}, shot, "last screenshot wins")
	assert.Equal(t, planner.raw, raw)
	assert.NotEmpty(t, result.Summary)
}

func TestAgentContinuesPastFailedStep(t *testing.T) {
	planner := &fakePlanner{
		actions: []models.Action{
			{Type: models.ActionClick, Selector: "#missing"},
			{Type: models.ActionScreenshot},
		},
	}
	runner := &fakeActionRunner{results: map[models.ActionType]*Result{
		models.ActionScreenshot: {Screenshot: []byte{7}},
	}}

	agent := NewAgent(planner, runner)
	result, _, shot, err := agent.Run(context.Background(), "wss://host", "click then screenshot")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, []string{"click #missing (failed)", "screenshot"}, result.Steps)
	assert.Equal(t, []byte{7}, shot)
}

func TestAgentPlanFailure(t *testing.T) {
	planner := &fakePlanner{err: errors.New("all providers down")}
	agent := NewAgent(planner, &fakeActionRunner{})

	_, _, _, err := agent.Run(context.Background(), "wss://host", "anything")
	assert.Error(t, err)
}
