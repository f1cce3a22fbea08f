package store_test

import (
	"context"
	"testing"

	"entity-mapper/core/database"
	"entity-mapper/core/mapper"
	"entity-mapper/core/store"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type Author struct {
	ID   uint
	Name string
}

type Tag struct {
	ID   uint
	Name string
}

type Review struct {
	ID     uint
	BookID *uint
	Stars  int
	Text   string
}

type Book struct {
	ID       uint
	Name     string
	AuthorID *uint
	Author   *Author
	Tags     []*Tag `gorm:"many2many:book_tags"`
	Reviews  []*Review
}

type AuthorDTO struct {
	ID   uint
	Name string
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

type BookDTO struct {
	ID      uint
	Name    string
	Author  *AuthorDTO
	Tags    []*TagDTO
	Reviews []*ReviewDTO
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Author{}, &Tag{}, &Review{}, &Book{}))
	return db
}

func newBookMapper(t *testing.T, opts ...mapper.PairOption) *mapper.Mapper {
	t.Helper()

	m, err := mapper.NewBuilder(mapper.DefaultConfig()).
		Register((*BookDTO)(nil), (*Book)(nil), opts...).
		Build()
	require.NoError(t, err)
	return m
}

func bookQuery() *store.Query {
	return store.NewQuery().Preload("Author").Preload("Tags").Preload("Reviews")
}

// saveBook maps dto onto a fresh unit of work and saves it.
func saveBook(t *testing.T, db *gorm.DB, m *mapper.Mapper, dto *BookDTO) *Book {
	t.Helper()

	ctx := context.Background()
	st := store.NewGorm(db)
	book, err := mapper.MapToStore[Book](ctx, m, st, dto, mapper.WithIncluder(bookQuery()))
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx))
	return book
}

func loadBook(t *testing.T, db *gorm.DB, id uint) *Book {
	t.Helper()

	var book Book
	err := db.Preload("Author").Preload("Tags").Preload("Reviews").First(&book, id).Error
	require.NoError(t, err)
	return &book
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
