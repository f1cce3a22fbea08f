package mapper_test

import (
	"testing"

	"entity-mapper/core/mapper"

	"github.com/stretchr/testify/require"
)

type Author struct {
	ID    uint
	Name  string
	Books []*Book
}

type Book struct {
	ID               uint
	Name             string
	ConcurrencyToken string
	Author           *Author
	Tags             []*Tag
	Reviews          []*Review
}

type Tag struct {
	ID   uint
	Name string
}

type Review struct {
	ID    uint
	Stars int
	Text  string
}

type AuthorDTO struct {
	ID    uint
	Name  string
	Books []*BookDTO
}

type BookDTO struct {
	ID               uint
	Name             string
	ConcurrencyToken string
	Author           *AuthorDTO
	Tags             []*TagDTO
	Reviews          []*ReviewDTO
}

type TagDTO struct {
	ID   uint
	Name string
}

type ReviewDTO struct {
	ID    uint
	Stars int
	Text  string
}

// Outer and Sc mirror the smallest owner/collection shape.
type Outer struct {
	ID  uint
	Scs []*Sc
}

type Sc struct {
	ID      uint
	IntProp int
}

type OuterDTO struct {
	ID  uint
	Scs []*ScDTO
}

type ScDTO struct {
	ID      uint
	IntProp int
}

// untracked is an includer asking for a read-only lookup.
type untracked struct{}

func (untracked) Untracked() bool { return true }

func newLibraryMapper(t *testing.T, cfg mapper.Config, opts ...mapper.PairOption) *mapper.Mapper {
	t.Helper()

	m, err := mapper.NewBuilder(cfg).
		Register((*Book)(nil), (*BookDTO)(nil)).
		Register((*BookDTO)(nil), (*Book)(nil), opts...).
		Register((*Author)(nil), (*AuthorDTO)(nil)).
		Build()
	require.NoError(t, err)
	return m
}

func newOuterMapper(t *testing.T, b *mapper.Builder, opts ...mapper.PairOption) *mapper.Mapper {
	t.Helper()

	m, err := b.Register((*OuterDTO)(nil), (*Outer)(nil), opts...).Build()
	require.NoError(t, err)
	return m
}
