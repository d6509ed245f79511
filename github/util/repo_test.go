package util

import (
	"testing"

	"git.pepabo.com/yukyan/gh-scope-collision/github/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepository(t *testing.T) {
	repo, err := ParseRepository("octo/widgets", "github.com")
	require.NoError(t, err)
	assert.Equal(t, "octo", repo.Owner)
	assert.Equal(t, "widgets", repo.Name)
	assert.Equal(t, "github.com", repo.Host)
	assert.Equal(t, "octo/widgets", repo.String())
}

func TestParseRepository_Invalid(t *testing.T) {
	for _, in := range []string{"", "widgets", "a/b/c", "/widgets", "octo/"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRepository(in, "github.com")
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrMisconfigured)
		})
	}
}
