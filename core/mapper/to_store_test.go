package mapper_test

import (
	"context"
	"database/sql/driver"
	"strings"
	"sync"
	"testing"
	"time"

	"entity-mapper/core/mapper"
	"entity-mapper/core/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOuter(st *store.Memory) (*Outer, *Sc, *Sc) {
	a := &Sc{ID: 1, IntProp: 1}
	b := &Sc{ID: 2, IntProp: 2}
	outer := &Outer{ID: 1, Scs: []*Sc{a, b}}
	st.Seed(outer, a, b)
	return outer, a, b
}

func TestMapToStoreInsert(t *testing.T) {
	ctx := context.Background()
	m := newLibraryMapper(t, mapper.DefaultConfig())

	t.Run("New graph is added parents first", func(t *testing.T) {
		st := store.NewMemory()
		dto := &BookDTO{
			Name:    "Dune",
			Author:  &AuthorDTO{Name: "Herbert"},
			Tags:    []*TagDTO{{Name: "sf"}},
			Reviews: []*ReviewDTO{{Stars: 5}},
		}

		book, err := mapper.MapToStore[Book](ctx, m, st, dto)
		require.NoError(t, err)

		added := st.Added()
		require.Len(t, added, 4)
		assert.Same(t, book, added[0])
		assert.Same(t, book.Author, added[1])
		assert.Same(t, book.Tags[0], added[2])
		assert.Same(t, book.Reviews[0], added[3])

		require.NoError(t, st.Save(ctx))
		assert.Equal(t, 1, st.Count((*Book)(nil)))
		assert.Equal(t, 1, st.Count((*Tag)(nil)))
		assert.NotZero(t, book.ID)
	})

	t.Run("Identity without row inserts with that identity", func(t *testing.T) {
		st := store.NewMemory()

		book, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 42, Name: "Dune"})
		require.NoError(t, err)
		assert.Equal(t, uint(42), book.ID)
		assert.Len(t, st.Added(), 1)
	})

	t.Run("Session converges shared new entities", func(t *testing.T) {
		st := store.NewMemory()
		tag := &TagDTO{Name: "sf"}
		s := m.NewStoreSession(st)

		first, err := mapper.SessionMapToStore[Book](ctx, s, &BookDTO{Name: "Dune", Tags: []*TagDTO{tag}})
		require.NoError(t, err)
		second, err := mapper.SessionMapToStore[Book](ctx, s, &BookDTO{Name: "Emma", Tags: []*TagDTO{tag}})
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx))

		assert.Same(t, first.Tags[0], second.Tags[0])
		assert.Equal(t, 2, st.Count((*Book)(nil)))
		assert.Equal(t, 1, st.Count((*Tag)(nil)))
	})
}

func TestMapToStoreUpdate(t *testing.T) {
	ctx := context.Background()
	m := newLibraryMapper(t, mapper.DefaultConfig())

	t.Run("Existing row is updated in place", func(t *testing.T) {
		st := store.NewMemory()
		row := &Book{ID: 1, Name: "Dune", ConcurrencyToken: "v1"}
		st.Seed(row)

		book, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1, Name: "Dune (revised)", ConcurrencyToken: "v1"})
		require.NoError(t, err)

		assert.Same(t, row, book)
		assert.Equal(t, "Dune (revised)", row.Name)
		assert.Empty(t, st.Added())
	})

	t.Run("Mapping an unchanged source twice is idempotent", func(t *testing.T) {
		st := store.NewMemory()
		tag := &Tag{ID: 1, Name: "sf"}
		row := &Book{ID: 1, Name: "Dune", ConcurrencyToken: "v1", Tags: []*Tag{tag}}
		st.Seed(row, tag)
		dto := &BookDTO{ID: 1, Name: "Dune", ConcurrencyToken: "v1", Tags: []*TagDTO{{ID: 1, Name: "sf"}}}

		for i := 0; i < 2; i++ {
			_, err := mapper.MapToStore[Book](ctx, m, st, dto)
			require.NoError(t, err)
			require.NoError(t, st.Save(ctx))
		}

		assert.Equal(t, 1, st.Count((*Book)(nil)))
		assert.Equal(t, 1, st.Count((*Tag)(nil)))
		assert.Equal(t, []*Tag{tag}, row.Tags)
		assert.Equal(t, "Dune", row.Name)
	})

	t.Run("Stale concurrency token", func(t *testing.T) {
		st := store.NewMemory()
		row := &Book{ID: 1, Name: "Dune", ConcurrencyToken: "v2"}
		st.Seed(row)

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1, Name: "Changed", ConcurrencyToken: "v1"})
		assert.ErrorIs(t, err, mapper.ErrConcurrencyToken)
		assert.True(t, mapper.IsConcurrency(err))
		assert.Equal(t, "Dune", row.Name)
	})

	t.Run("Missing source token is accepted unless strict", func(t *testing.T) {
		st := store.NewMemory()
		st.Seed(&Book{ID: 1, Name: "Dune", ConcurrencyToken: "v2"})

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1, Name: "Changed"})
		assert.NoError(t, err)

		strict := newLibraryMapper(t, mapper.DefaultConfig(), mapper.StrictConcurrency())
		_, err = mapper.MapToStore[Book](ctx, strict, st, &BookDTO{ID: 1, Name: "Changed"})
		assert.ErrorIs(t, err, mapper.ErrMissingConcurrencyToken)
	})

	t.Run("Untracked includer is rejected", func(t *testing.T) {
		st := store.NewMemory()
		st.Seed(&Book{ID: 1})

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1}, mapper.WithIncluder(untracked{}))
		assert.ErrorIs(t, err, mapper.ErrUntrackedQuery)
	})

	t.Run("Nested reference is replaced by identity", func(t *testing.T) {
		st := store.NewMemory()
		herbert := &Author{ID: 1, Name: "Herbert"}
		austen := &Author{ID: 2, Name: "Austen"}
		row := &Book{ID: 1, Author: herbert}
		st.Seed(row, herbert, austen)

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1, Author: &AuthorDTO{ID: 2, Name: "Jane Austen"}})
		require.NoError(t, err)

		assert.Same(t, austen, row.Author)
		assert.Equal(t, "Jane Austen", austen.Name)
		require.Len(t, st.Unlinked(), 1)
		assert.Same(t, herbert, st.Unlinked()[0].Entity)
		assert.Empty(t, st.Removed())
	})

	t.Run("Nil nested reference detaches", func(t *testing.T) {
		st := store.NewMemory()
		herbert := &Author{ID: 1}
		row := &Book{ID: 1, Author: herbert}
		st.Seed(row, herbert)

		dependent := newLibraryMapper(t, mapper.DefaultConfig(), mapper.KeepPropertyOnRemoved("Author", false))
		_, err := mapper.MapToStore[Book](ctx, dependent, st, &BookDTO{ID: 1})
		require.NoError(t, err)

		assert.Nil(t, row.Author)
		assert.Equal(t, []any{herbert}, st.Removed())
	})
}

func TestMapToStoreCollections(t *testing.T) {
	ctx := context.Background()

	t.Run("Unmatched dependent elements are deleted", func(t *testing.T) {
		st := store.NewMemory()
		outer, a, b := seedOuter(st)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()), mapper.KeepPropertyOnRemoved("Scs", false))

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1, Scs: []*ScDTO{{ID: 1, IntProp: 9}}})
		require.NoError(t, err)
		require.NoError(t, st.Save(ctx))

		require.Len(t, outer.Scs, 1)
		assert.Same(t, a, outer.Scs[0])
		assert.Equal(t, 9, outer.Scs[0].IntProp)
		assert.Equal(t, 1, st.Count((*Sc)(nil)))
		assert.NotContains(t, st.Rows((*Sc)(nil)), b)
	})

	t.Run("Unmatched elements are unlinked by default", func(t *testing.T) {
		st := store.NewMemory()
		outer, _, b := seedOuter(st)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()))

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1, Scs: []*ScDTO{{ID: 1, IntProp: 9}}})
		require.NoError(t, err)

		require.Len(t, outer.Scs, 1)
		assert.Equal(t, []store.Link{{Owner: outer, Property: "Scs", Entity: b}}, st.Unlinked())
		assert.Empty(t, st.Removed())

		require.NoError(t, st.Save(ctx))
		assert.Equal(t, 2, st.Count((*Sc)(nil)))
	})

	t.Run("Updates, inserts and removes", func(t *testing.T) {
		st := store.NewMemory()
		outer, a, _ := seedOuter(st)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()))

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1, Scs: []*ScDTO{{ID: 1, IntProp: 5}, {IntProp: 3}}})
		require.NoError(t, err)

		require.Len(t, outer.Scs, 2)
		assert.Same(t, a, outer.Scs[0])
		assert.Equal(t, 5, a.IntProp)
		assert.Equal(t, 3, outer.Scs[1].IntProp)
		assert.Equal(t, []any{outer.Scs[1]}, st.Added())
	})

	t.Run("Identity found in store is attached", func(t *testing.T) {
		st := store.NewMemory()
		outer, a, b := seedOuter(st)
		c := &Sc{ID: 3, IntProp: 3}
		st.Seed(c)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()))

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1, Scs: []*ScDTO{{ID: 1, IntProp: 1}, {ID: 2, IntProp: 2}, {ID: 3, IntProp: 30}}})
		require.NoError(t, err)

		assert.Equal(t, []*Sc{a, b, c}, outer.Scs)
		assert.Equal(t, 30, c.IntProp)
		assert.Empty(t, st.Added())
	})

	t.Run("Keep unmatched", func(t *testing.T) {
		st := store.NewMemory()
		outer, _, _ := seedOuter(st)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()))

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1, Scs: []*ScDTO{{IntProp: 3}}}, mapper.WithKeepUnmatched(true))
		require.NoError(t, err)

		assert.Len(t, outer.Scs, 3)
		assert.Empty(t, st.Unlinked())
	})

	t.Run("Keep unmatched per pair", func(t *testing.T) {
		st := store.NewMemory()
		outer, _, _ := seedOuter(st)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()), mapper.KeepUnmatched(true))

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1})
		require.NoError(t, err)
		assert.Len(t, outer.Scs, 2)

		// the call option wins over the pair option
		_, err = mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1}, mapper.WithKeepUnmatched(false))
		require.NoError(t, err)
		assert.Empty(t, outer.Scs)
	})

	t.Run("Duplicated item leaves the collection untouched", func(t *testing.T) {
		st := store.NewMemory()
		outer, a, b := seedOuter(st)
		m := newOuterMapper(t, mapper.NewBuilder(mapper.DefaultConfig()))
		item := &ScDTO{IntProp: 7}

		_, err := mapper.MapToStore[Outer](ctx, m, st, &OuterDTO{ID: 1, Scs: []*ScDTO{item, item}})
		assert.ErrorIs(t, err, mapper.ErrDuplicatedListItem)
		assert.Equal(t, []*Sc{a, b}, outer.Scs)
		assert.Empty(t, st.Added())
	})
}

func TestMapToStoreKeepPolicy(t *testing.T) {
	ctx := context.Background()
	incoming := func() *OuterDTO { return &OuterDTO{ID: 1, Scs: []*ScDTO{{ID: 1}}} }

	tests := []struct {
		name    string
		builder func() *mapper.Builder
		opts    []mapper.PairOption
		removed bool
	}{
		{
			name:    "Global default keeps",
			builder: func() *mapper.Builder { return mapper.NewBuilder(mapper.DefaultConfig()) },
		},
		{
			name:    "Zero config keeps",
			builder: func() *mapper.Builder { return mapper.NewBuilder(mapper.Config{}) },
		},
		{
			name: "Global removes",
			builder: func() *mapper.Builder {
				cfg := mapper.DefaultConfig()
				cfg.DeleteOnRemoved = true
				return mapper.NewBuilder(cfg)
			},
			removed: true,
		},
		{
			name: "Type overrides global",
			builder: func() *mapper.Builder {
				return mapper.NewBuilder(mapper.DefaultConfig()).Configure((*Sc)(nil), mapper.KeepOnRemoved(false))
			},
			removed: true,
		},
		{
			name: "Pair overrides type",
			builder: func() *mapper.Builder {
				return mapper.NewBuilder(mapper.DefaultConfig()).Configure((*Sc)(nil), mapper.KeepOnRemoved(false))
			},
			opts: []mapper.PairOption{mapper.KeepEntityOnRemoved(true)},
		},
		{
			name:    "Property overrides pair",
			builder: func() *mapper.Builder { return mapper.NewBuilder(mapper.DefaultConfig()) },
			opts: []mapper.PairOption{
				mapper.KeepEntityOnRemoved(true),
				mapper.KeepPropertyOnRemoved("Scs", false),
			},
			removed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			_, _, b := seedOuter(st)
			m := newOuterMapper(t, tt.builder(), tt.opts...)

			_, err := mapper.MapToStore[Outer](ctx, m, st, incoming())
			require.NoError(t, err)

			assert.Len(t, st.Unlinked(), 1)
			if tt.removed {
				assert.Equal(t, []any{b}, st.Removed())
			} else {
				assert.Empty(t, st.Removed())
			}
			assert.Equal(t, tt.removed, m.IsDependent((*OuterDTO)(nil), (*Outer)(nil), "Scs"))
		})
	}
}

func TestMapToStorePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Update only rejects sources without identity", func(t *testing.T) {
		st := store.NewMemory()
		m := newLibraryMapper(t, mapper.DefaultConfig(), mapper.WithMapType(mapper.UpdateOnly))

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{Name: "Dune"})
		assert.ErrorIs(t, err, mapper.ErrUpdateWithoutID)
		assert.True(t, mapper.IsPolicyViolation(err))
		assert.Empty(t, st.Added())
	})

	t.Run("Update only rejects unknown identities", func(t *testing.T) {
		st := store.NewMemory()
		m := newLibraryMapper(t, mapper.DefaultConfig(), mapper.WithMapType(mapper.UpdateOnly))

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 9})
		assert.ErrorIs(t, err, mapper.ErrUpdateWithoutRecord)
	})

	t.Run("Insert only rejects existing rows", func(t *testing.T) {
		st := store.NewMemory()
		st.Seed(&Book{ID: 1})
		m := newLibraryMapper(t, mapper.DefaultConfig(), mapper.WithMapType(mapper.InsertOnly))

		_, err := mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1})
		assert.ErrorIs(t, err, mapper.ErrInsertWithExisting)
	})

	t.Run("Nested insert not allowed", func(t *testing.T) {
		st := store.NewMemory()
		m, err := mapper.NewBuilder(mapper.DefaultConfig()).
			Register((*BookDTO)(nil), (*Book)(nil)).
			Register((*TagDTO)(nil), (*Tag)(nil), mapper.WithMapType(mapper.UpdateOnly)).
			Build()
		require.NoError(t, err)
		assert.Equal(t, mapper.UpdateOnly, m.MapToDatabaseType((*TagDTO)(nil), (*Tag)(nil)))

		_, err = mapper.MapToStore[Book](ctx, m, st, &BookDTO{Name: "Dune", Tags: []*TagDTO{{Name: "new"}}})
		var policyErr *mapper.MapToDatabaseTypeError
		require.ErrorAs(t, err, &policyErr)
		assert.Equal(t, mapper.OperationInsert, policyErr.Operation)

		_, err = mapper.MapToStore[Book](ctx, m, st, &BookDTO{Name: "Dune", Tags: []*TagDTO{{ID: 5}}})
		assert.ErrorIs(t, err, mapper.ErrEntityNotFound)
	})

	t.Run("Nested update not allowed", func(t *testing.T) {
		st := store.NewMemory()
		tag := &Tag{ID: 5}
		st.Seed(&Book{ID: 1, Tags: []*Tag{tag}}, tag)
		m, err := mapper.NewBuilder(mapper.DefaultConfig()).
			Register((*BookDTO)(nil), (*Book)(nil)).
			Register((*TagDTO)(nil), (*Tag)(nil), mapper.WithMapType(mapper.InsertOnly)).
			Build()
		require.NoError(t, err)

		_, err = mapper.MapToStore[Book](ctx, m, st, &BookDTO{ID: 1, Tags: []*TagDTO{{ID: 5}}})
		assert.ErrorIs(t, err, mapper.ErrMapToDatabaseType)
	})
}

type Edition struct {
	ID               uint
	Name             string
	ConcurrencyToken time.Time
}

type EditionDTO struct {
	ID               uint
	Name             string
	ConcurrencyToken time.Time
}

// revision is a token type that cannot be compared with ==.
type revision struct {
	Parts []string
}

func (r revision) Value() (driver.Value, error) {
	return strings.Join(r.Parts, "."), nil
}

type Draft struct {
	ID               uint
	Name             string
	ConcurrencyToken revision
}

type DraftDTO struct {
	ID               uint
	Name             string
	ConcurrencyToken revision
}

func TestMapToStoreConcurrencyTokens(t *testing.T) {
	ctx := context.Background()
	m, err := mapper.NewBuilder(mapper.DefaultConfig()).
		Register((*EditionDTO)(nil), (*Edition)(nil)).
		Register((*DraftDTO)(nil), (*Draft)(nil)).
		Build()
	require.NoError(t, err)

	saved := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		token time.Time
		stale bool
	}{
		{name: "Same instant in another zone", token: saved.In(time.FixedZone("CET", 3600))},
		{name: "Same instant", token: saved},
		{name: "Other instant", token: saved.Add(time.Second), stale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			row := &Edition{ID: 1, Name: "First", ConcurrencyToken: saved}
			st.Seed(row)

			_, err := mapper.MapToStore[Edition](ctx, m, st, &EditionDTO{ID: 1, Name: "Second", ConcurrencyToken: tt.token})
			if tt.stale {
				assert.ErrorIs(t, err, mapper.ErrConcurrencyToken)
				assert.Equal(t, "First", row.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Second", row.Name)
		})
	}

	t.Run("Token that is not comparable", func(t *testing.T) {
		st := store.NewMemory()
		row := &Draft{ID: 1, Name: "First", ConcurrencyToken: revision{Parts: []string{"1", "4"}}}
		st.Seed(row)

		_, err := mapper.MapToStore[Draft](ctx, m, st, &DraftDTO{ID: 1, Name: "Second", ConcurrencyToken: revision{Parts: []string{"1", "4"}}})
		require.NoError(t, err)
		assert.Equal(t, "Second", row.Name)

		_, err = mapper.MapToStore[Draft](ctx, m, st, &DraftDTO{ID: 1, Name: "Third", ConcurrencyToken: revision{Parts: []string{"1", "3"}}})
		assert.ErrorIs(t, err, mapper.ErrConcurrencyToken)
		assert.Equal(t, "Second", row.Name)
	})
}

func TestMapToStoreCycles(t *testing.T) {
	ctx := context.Background()
	m := newLibraryMapper(t, mapper.DefaultConfig())

	st := store.NewMemory()
	author := &Author{ID: 1, Name: "Herbert"}
	dune := &Book{ID: 1, Name: "Dune", Author: author}
	author.Books = []*Book{dune}
	st.Seed(author, dune)

	authorDTO := &AuthorDTO{ID: 1, Name: "Frank Herbert"}
	duneDTO := &BookDTO{ID: 1, Name: "Dune (1965)", Author: authorDTO}
	messiahDTO := &BookDTO{Name: "Dune Messiah", Author: authorDTO}
	authorDTO.Books = []*BookDTO{duneDTO, messiahDTO}

	book, err := mapper.MapToStore[Book](ctx, m, st, duneDTO)
	require.NoError(t, err)

	assert.Same(t, dune, book)
	assert.Equal(t, "Dune (1965)", dune.Name)
	assert.Same(t, author, dune.Author)
	assert.Equal(t, "Frank Herbert", author.Name)

	require.Len(t, st.Added(), 1)
	messiah, ok := st.Added()[0].(*Book)
	require.True(t, ok)
	assert.Equal(t, "Dune Messiah", messiah.Name)
	assert.Same(t, author, messiah.Author)

	require.Len(t, author.Books, 2)
	assert.Same(t, dune, author.Books[0])
	assert.Same(t, messiah, author.Books[1])
	assert.Empty(t, st.Removed())
	assert.Empty(t, st.Unlinked())
}

func TestStoreSessionConcurrentCalls(t *testing.T) {
	m := newLibraryMapper(t, mapper.DefaultConfig())
	st := store.NewMemory()

	const calls = 8
	for i := 1; i <= calls; i++ {
		st.Seed(&Book{ID: uint(i), Name: "Draft"})
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	s := m.NewStoreSession(st)
	shared := &TagDTO{Name: "sf"}
	books := make([]*Book, calls)
	errs := make([]error, calls)

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.Background()
			if i == 0 {
				ctx = cancelled
			}
			dto := &BookDTO{ID: uint(i + 1), Name: "Final", Tags: []*TagDTO{shared}}
			books[i], errs[i] = mapper.SessionMapToStore[Book](ctx, s, dto, mapper.WithKeepUnmatched(i%2 == 0))
		}(i)
	}
	wg.Wait()

	assert.ErrorIs(t, errs[0], context.Canceled)
	var tag *Tag
	for i := 1; i < calls; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "Final", books[i].Name)
		require.Len(t, books[i].Tags, 1)
		if tag == nil {
			tag = books[i].Tags[0]
		}
		assert.Same(t, tag, books[i].Tags[0])
	}

	added := st.Added()
	require.Len(t, added, 1)
	assert.Same(t, tag, added[0])
}
