package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_Validate(t *testing.T) {
	tests := []struct {
		name      string
		quote     Quote
		wantField string
	}{
		{name: "valid", quote: Quote{Text: "Be yourself.", Attribution: "Oscar Wilde"}},
		{name: "empty text", quote: Quote{Attribution: "Oscar Wilde"}, wantField: "text"},
		{name: "empty attribution", quote: Quote{Text: "Be yourself."}, wantField: "attribution"},
		{name: "delimiter in text", quote: Quote{Text: "a|b", Attribution: "x"}, wantField: "text"},
		{name: "delimiter in attribution", quote: Quote{Text: "a", Attribution: "x|y"}, wantField: "attribution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quote.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.wantField, validation.Field)
		})
	}
}

func TestNewQuoteSet(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		set, err := NewQuoteSet(nil)
		require.ErrorIs(t, err, ErrEmptyQuoteSet)
		assert.Nil(t, set)
	})

	t.Run("invalid quote reports index", func(t *testing.T) {
		_, err := NewQuoteSet([]Quote{
			{Text: "ok", Attribution: "a"},
			{Text: "", Attribution: "b"},
		})

		var invalid *InvalidQuoteError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 1, invalid.Index)
		assert.True(t, IsValidation(err))
	})

	t.Run("preserves order", func(t *testing.T) {
		set, err := NewQuoteSet([]Quote{
			{Text: "first", Attribution: "a"},
			{Text: "second", Attribution: "b"},
			{Text: "third", Attribution: "c"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, set.Len())

		for i, want := range []string{"first", "second", "third"} {
			q, err := set.At(i)
			require.NoError(t, err)
			assert.Equal(t, want, q.Text)
		}
	})
}

func TestQuoteSet_IsolatedFromInput(t *testing.T) {
	input := []Quote{{Text: "original", Attribution: "a"}}

	set, err := NewQuoteSet(input)
	require.NoError(t, err)

	input[0].Text = "mutated"

	q, err := set.At(0)
	require.NoError(t, err)
	assert.Equal(t, "original", q.Text)

	all := set.All()
	all[0].Text = "mutated again"

	q, err = set.At(0)
	require.NoError(t, err)
	assert.Equal(t, "original", q.Text)
}

func TestQuoteSet_AtOutOfRange(t *testing.T) {
	set, err := NewQuoteSet([]Quote{{Text: "t", Attribution: "a"}})
	require.NoError(t, err)

	for _, i := range []int{-1, 1, 100} {
		_, err := set.At(i)
		assert.True(t, IsNotFound(err), "index %d", i)
	}
}
