package validator

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchInput struct {
	Query      string   `json:"query" validate:"omitempty,max=200"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Take       int      `json:"take" validate:"gte=0,lte=100"`
	Names      []string `json:"names" validate:"omitempty,min=1,dive,required"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(&searchInput{Query: "chicken", Difficulty: "easy", Take: 20})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldMessages(t *testing.T) {
	err := Validate(&searchInput{Difficulty: "impossible", Take: 500})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "must be one of: easy medium hard", fields["Difficulty"])
	assert.Equal(t, "must be less than or equal to 100", fields["Take"])
}

func TestValidate_DiveIntoSlice(t *testing.T) {
	err := Validate(&searchInput{Names: []string{"flour", ""}})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"difficulty":"medium","take":10}`))

	var in searchInput
	require.NoError(t, DecodeAndValidate(req, &in))
	assert.Equal(t, "medium", in.Difficulty)
	assert.Equal(t, 10, in.Take)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"take":`))

	var in searchInput
	err := DecodeAndValidate(req, &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
