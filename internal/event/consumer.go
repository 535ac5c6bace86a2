// Package event consumes recipe lifecycle events from Kafka and drives
// index synchronization. Handlers only carry the recipe ID; the current
// state is always re-read from Postgres so out-of-order or replayed events
// converge on the truth instead of the payload snapshot.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/activity"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/service"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/kafka"
)

// Topics this consumer subscribes to.
var (
	TopicRecipeCreated = kafka.Topic("recipe", "created")
	TopicRecipeUpdated = kafka.Topic("recipe", "updated")
	TopicRecipeDeleted = kafka.Topic("recipe", "deleted")
)

// recipePayload is the event data shape shared by all recipe topics.
type recipePayload struct {
	ID string `json:"id"`
}

// Handlers reacts to recipe lifecycle events. Index write failures are
// logged and swallowed: the index is rebuildable and the recipe mutation
// has already been committed, so retrying the message cannot help once the
// database read succeeded.
type Handlers struct {
	sync     *service.SyncService
	repo     repository.RecipeRepository
	activity *activity.Publisher
	logger   *slog.Logger
}

// NewHandlers creates the event handler set.
func NewHandlers(
	sync *service.SyncService,
	repo repository.RecipeRepository,
	activityPub *activity.Publisher,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{sync: sync, repo: repo, activity: activityPub, logger: logger}
}

// HandleRecipeCreated indexes a newly created recipe and announces it on
// the activity stream.
func (h *Handlers) HandleRecipeCreated(ctx context.Context, event *kafka.Event) error {
	recipe, err := h.resync(ctx, event)
	if err != nil || recipe == nil {
		return err
	}

	h.activity.Publish(ctx, activity.Event{
		Type:       "recipe.created",
		RecipeID:   recipe.ID,
		Title:      recipe.Title,
		AuthorID:   recipe.AuthorID,
		AuthorName: recipe.AuthorName,
	})
	return nil
}

// HandleRecipeUpdated re-projects an updated recipe. Visibility changes
// are handled by the sync service: a now-private recipe gets removed.
func (h *Handlers) HandleRecipeUpdated(ctx context.Context, event *kafka.Event) error {
	_, err := h.resync(ctx, event)
	return err
}

// HandleRecipeDeleted removes a recipe from the index.
func (h *Handlers) HandleRecipeDeleted(ctx context.Context, event *kafka.Event) error {
	payload, ok := h.decode(event)
	if !ok {
		return nil
	}

	if err := h.sync.DeleteRecipe(ctx, payload.ID); err != nil {
		h.logger.Warn("failed to delete recipe from index",
			slog.String("recipe_id", payload.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// resync re-reads the recipe and pushes its current state into the index.
// It returns the recipe when it exists, nil when it was already deleted.
// Only database errors propagate; they are the one retryable failure.
func (h *Handlers) resync(ctx context.Context, event *kafka.Event) (*recipeState, error) {
	payload, ok := h.decode(event)
	if !ok {
		return nil, nil
	}

	recipe, err := h.repo.GetByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Deleted between the event and now; remove any stale document.
			if delErr := h.sync.DeleteRecipe(ctx, payload.ID); delErr != nil {
				h.logger.Warn("failed to delete stale recipe from index",
					slog.String("recipe_id", payload.ID),
					slog.String("error", delErr.Error()),
				)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("load recipe %s: %w", payload.ID, err)
	}

	if err := h.sync.SyncRecipe(ctx, recipe); err != nil {
		h.logger.Warn("failed to sync recipe to index",
			slog.String("recipe_id", recipe.ID),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return &recipeState{
		ID:         recipe.ID,
		Title:      recipe.Title,
		AuthorID:   recipe.AuthorID,
		AuthorName: recipe.AuthorName,
	}, nil
}

type recipeState struct {
	ID         string
	Title      string
	AuthorID   string
	AuthorName string
}

func (h *Handlers) decode(event *kafka.Event) (recipePayload, bool) {
	var payload recipePayload
	if err := event.UnmarshalData(&payload); err != nil || payload.ID == "" {
		h.logger.Warn("malformed recipe event, skipping",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
		)
		return recipePayload{}, false
	}
	return payload, true
}
