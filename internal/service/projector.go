package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
)

// ProjectRecipe converts an authoritative recipe row into the document shape
// the search index stores. The projection is lossy on purpose: the index
// only needs what search matches, filters and ranks on.
func ProjectRecipe(r *domain.Recipe) (*domain.RecipeDocument, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("project recipe: missing id")
	}
	if r.Title == "" {
		return nil, fmt.Errorf("project recipe %s: missing title", r.ID)
	}

	visibility := domain.VisibilityPrivate
	if r.IsPublic {
		visibility = domain.VisibilityPublic
	}

	ingredients := make([]domain.IngredientDoc, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, domain.IngredientDoc{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	instructions := make([]domain.InstructionDoc, 0, len(r.Instructions))
	for _, step := range r.Instructions {
		instructions = append(instructions, domain.InstructionDoc{
			StepNumber:  step.StepNumber,
			Description: step.Description,
		})
	}

	return &domain.RecipeDocument{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Cuisine:      r.Cuisine,
		Difficulty:   r.Difficulty,
		CookingTime:  r.CookingTime,
		Servings:     r.Servings,
		Visibility:   visibility,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		Ingredients:  ingredients,
		Instructions: instructions,
		AvgRating:    r.AvgRating,
		RatingCount:  r.RatingCount,
		CommentCount: r.CommentCount,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// BuildFacets turns raw ingredient usage counts into facet documents.
// Names are normalized, so variants of the same ingredient merge into one
// facet with their counts summed.
func BuildFacets(counts map[string]int) []domain.IngredientFacet {
	merged := make(map[string]int, len(counts))
	for name, count := range counts {
		normalized := domain.NormalizeIngredientName(name)
		if normalized == "" {
			continue
		}
		merged[normalized] += count
	}

	facets := make([]domain.IngredientFacet, 0, len(merged))
	for name, count := range merged {
		facets = append(facets, domain.IngredientFacet{
			Name:       name,
			UsageCount: count,
			Category:   domain.CategorizeIngredient(name),
		})
	}

	sort.Slice(facets, func(i, j int) bool { return facets[i].Name < facets[j].Name })
	return facets
}
