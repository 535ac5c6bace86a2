package suggest

import (
	"context"
	"log/slog"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
)

type fakeCompletion struct {
	calls   int
	answer  string
	lastReq openai.ChatCompletionRequest
	err     error
}

func (f *fakeCompletion) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.answer}},
		},
	}, nil
}

func testRecipe() *domain.Recipe {
	return &domain.Recipe{
		ID:      "r1",
		Title:   "Mushroom Risotto",
		Cuisine: "italian",
		Ingredients: []domain.Ingredient{
			{Name: "arborio rice"},
			{Name: "porcini mushrooms"},
		},
	}
}

func newSuggester(client CompletionClient, cfg Config) *Suggester {
	return New(client, nil, cfg, slog.Default())
}

func TestSuggest_BuildsPromptFromRecipe(t *testing.T) {
	client := &fakeCompletion{answer: "  A dry white wine works well.  "}
	s := newSuggester(client, DefaultConfig())

	got, err := s.Suggest(context.Background(), "user-1", KindPairing, testRecipe())
	require.NoError(t, err)

	assert.Equal(t, "A dry white wine works well.", got)
	require.Len(t, client.lastReq.Messages, 2)
	prompt := client.lastReq.Messages[1].Content
	assert.Contains(t, prompt, "Mushroom Risotto")
	assert.Contains(t, prompt, "arborio rice, porcini mushrooms")
	assert.Contains(t, prompt, "pairings")
}

func TestSuggest_RateLimitPerUser(t *testing.T) {
	client := &fakeCompletion{answer: "ok"}
	cfg := DefaultConfig()
	cfg.RatePerMinute = 2
	s := newSuggester(client, cfg)

	recipes := []*domain.Recipe{
		{ID: "a", Title: "Recipe A"},
		{ID: "b", Title: "Recipe B"},
		{ID: "c", Title: "Recipe C"},
	}

	// Burst budget is two requests; the third is rejected.
	for i := 0; i < 2; i++ {
		_, err := s.Suggest(context.Background(), "user-1", KindPairing, recipes[i])
		require.NoError(t, err)
	}
	_, err := s.Suggest(context.Background(), "user-1", KindPairing, recipes[2])
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)

	// Another user has an independent budget.
	_, err = s.Suggest(context.Background(), "user-2", KindPairing, recipes[2])
	assert.NoError(t, err)
}

func TestSuggest_InvalidInput(t *testing.T) {
	s := newSuggester(&fakeCompletion{answer: "ok"}, DefaultConfig())

	_, err := s.Suggest(context.Background(), "user-1", KindPairing, &domain.Recipe{ID: "r1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = s.Suggest(context.Background(), "user-1", Kind("nonsense"), testRecipe())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSuggest_ProviderFailure(t *testing.T) {
	client := &fakeCompletion{err: assert.AnError}
	s := newSuggester(client, DefaultConfig())

	_, err := s.Suggest(context.Background(), "user-1", KindVariation, testRecipe())

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSuggest_KindsProduceDistinctPrompts(t *testing.T) {
	client := &fakeCompletion{answer: "ok"}
	s := newSuggester(client, DefaultConfig())

	_, err := s.Suggest(context.Background(), "user-1", KindVariation, testRecipe())
	require.NoError(t, err)
	assert.Contains(t, client.lastReq.Messages[1].Content, "vegetarian")

	_, err = s.Suggest(context.Background(), "user-1", KindImprovement, testRecipe())
	require.NoError(t, err)
	assert.Contains(t, client.lastReq.Messages[1].Content, "improvements")
}
