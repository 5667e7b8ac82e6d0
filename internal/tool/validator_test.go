package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"query":       {Type: TypeString},
			"max_results": {Type: TypeInteger},
			"urls":        {Type: TypeArray, Items: &Schema{Type: TypeString}},
			"quarterly":   {Type: TypeBoolean},
		},
		Required: []string{"query"},
	}
}

func TestValidateArgs_ValidArguments(t *testing.T) {
	err := ValidateArgs(map[string]any{
		"query":       "AAPL earnings",
		"max_results": float64(5), // JSON numbers arrive as float64
		"quarterly":   true,
	}, searchSchema())

	require.NoError(t, err)
}

func TestValidateArgs_MissingRequired(t *testing.T) {
	err := ValidateArgs(map[string]any{"max_results": 5}, searchSchema())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.Contains(t, err.Error(), "query")
}

func TestValidateArgs_WrongType(t *testing.T) {
	err := ValidateArgs(map[string]any{"query": 42}, searchSchema())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestValidateArgs_FractionalIntegerRejected(t *testing.T) {
	err := ValidateArgs(map[string]any{"query": "q", "max_results": 2.5}, searchSchema())

	require.Error(t, err)
}

func TestValidateArgs_UnknownKeysIgnored(t *testing.T) {
	err := ValidateArgs(map[string]any{"query": "q", "extra": "ignored"}, searchSchema())

	require.NoError(t, err)
}

func TestValidateArgs_NilSchemaAcceptsAnything(t *testing.T) {
	require.NoError(t, ValidateArgs(map[string]any{"whatever": 1}, nil))
}

func TestValidateArgs_NilArgsWithRequired(t *testing.T) {
	err := ValidateArgs(nil, searchSchema())
	require.Error(t, err)
}

func TestDecodeArgs_TypedRequest(t *testing.T) {
	type req struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}

	var r req
	err := DecodeArgs(map[string]any{"query": "tsmc", "max_results": float64(3)}, &r)

	require.NoError(t, err)
	assert.Equal(t, "tsmc", r.Query)
	assert.Equal(t, 3, r.MaxResults)
}
