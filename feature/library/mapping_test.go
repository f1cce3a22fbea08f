package library_test

import (
	"testing"

	"entity-mapper/core/mapper"
	"entity-mapper/feature/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMapper(t *testing.T) {
	m, err := library.NewMapper(mapper.Config{}, zap.NewNop())
	require.NoError(t, err)

	t.Run("Maps both directions", func(t *testing.T) {
		dto, err := mapper.Map[library.BookDTO](m, &library.Book{ID: 1, Title: "Dune", Tags: []*library.Tag{{ID: 2, Name: "sf"}}})
		require.NoError(t, err)
		assert.Equal(t, "Dune", dto.Title)
		require.Len(t, dto.Tags, 1)

		book, err := mapper.Map[library.Book](m, dto)
		require.NoError(t, err)
		assert.Equal(t, uint(1), book.ID)
		assert.Equal(t, "sf", book.Tags[0].Name)
	})

	t.Run("Reviews are dependent, tags and author are not", func(t *testing.T) {
		assert.True(t, m.IsDependent((*library.BookDTO)(nil), (*library.Book)(nil), "Reviews"))
		assert.False(t, m.IsDependent((*library.BookDTO)(nil), (*library.Book)(nil), "Tags"))
		assert.False(t, m.IsDependent((*library.BookDTO)(nil), (*library.Book)(nil), "Author"))
	})
}
