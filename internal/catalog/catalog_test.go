package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugrasage/sagebot-go/internal/logger"
)

func loadedCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := New(logger.New("error"))
	require.NoError(t, c.Load([]string{
		"математический анализ",
		"инженерная и компьютерная графика",
		"физика",
		"химия нефти и газа",
		"программирование микропроцессорных систем",
	}))
	return c
}

func TestHasBase(t *testing.T) {
	t.Parallel()

	c := loadedCatalog(t)

	assert.True(t, c.HasBase("физик"))
	assert.True(t, c.HasBase("график"))
	assert.False(t, c.HasBase("истори"))
}

func TestCorrect(t *testing.T) {
	t.Parallel()

	c := loadedCatalog(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"физике", "физика"},
		{"инженерной графике", "инженерная и компьютерная графика"},
		{"химия нефти", "химия нефти и газа"},
		{"программированию", "программирование микропроцессорных систем"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, ok := c.Correct(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		_, ok := c.Correct("история древнего мира")
		assert.False(t, ok)
	})

	t.Run("empty catalog", func(t *testing.T) {
		t.Parallel()
		empty := New(logger.New("error"))
		_, ok := empty.Correct("физика")
		assert.False(t, ok)
	})
}

func TestCorrectTinyRoster(t *testing.T) {
	t.Parallel()

	// With two names every term sits in half the corpus and BM25 scores
	// collapse to zero; correction must still resolve the mention.
	c := New(logger.New("error"))
	require.NoError(t, c.Load([]string{"математический анализ", "физика"}))

	got, ok := c.Correct("физике")
	require.True(t, ok)
	assert.Equal(t, "физика", got)

	got, ok = c.Correct("математическому анализу")
	require.True(t, ok)
	assert.Equal(t, "математический анализ", got)

	_, ok = c.Correct("литературе")
	assert.False(t, ok)
}

func TestLoadReplacesRoster(t *testing.T) {
	t.Parallel()

	c := loadedCatalog(t)
	require.NoError(t, c.Load([]string{"история"}))

	assert.Equal(t, 1, c.Size())
	assert.False(t, c.HasBase("физик"))
	assert.True(t, c.HasBase("истор"))
}
