package library

import (
	"context"
	"errors"
	"fmt"

	"entity-mapper/core/mapper"
	"entity-mapper/core/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrBookNotFound is returned when a requested book does not exist.
var ErrBookNotFound = errors.New("library: book not found")

// Service saves and reads books through the entity mapper.
type Service struct {
	db     *gorm.DB
	mapper *mapper.Mapper
	logger *zap.Logger
}

// NewService creates a new library service.
func NewService(db *gorm.DB, m *mapper.Mapper, logger *zap.Logger) *Service {
	return &Service{db: db, mapper: m, logger: logger}
}

func bookQuery() *store.Query {
	return store.NewQuery().Preload("Author").Preload("Tags").Preload("Reviews")
}

// SaveBook inserts or updates one book graph and returns it as stored.
func (s *Service) SaveBook(ctx context.Context, dto *BookDTO) (*BookDTO, error) {
	saved, err := s.SaveBooks(ctx, []*BookDTO{dto})
	if err != nil {
		return nil, err
	}
	return saved[0], nil
}

// SaveBooks saves a batch in one unit of work. New authors and tags that several books
// of the batch share are inserted once.
func (s *Service) SaveBooks(ctx context.Context, dtos []*BookDTO) ([]*BookDTO, error) {
	st := store.NewGorm(s.db)
	books, err := s.mapBooks(ctx, st, dtos)
	if err != nil {
		return nil, err
	}
	if err := st.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save books: %w", err)
	}
	s.logger.Info("Books saved", zap.Int("count", len(books)))
	return s.toDTOs(books)
}

// PlanBooks maps a batch without saving it and reports the pending changes.
func (s *Service) PlanBooks(ctx context.Context, dtos []*BookDTO) (*Plan, error) {
	st := store.NewGorm(s.db)
	if _, err := s.mapBooks(ctx, st, dtos); err != nil {
		return nil, err
	}
	added, removed, unlinked := st.Pending()
	return &Plan{Books: len(dtos), Inserts: added, Removals: removed, Unlinks: unlinked}, nil
}

// GetBook returns the book with the given id.
func (s *Service) GetBook(ctx context.Context, id uint) (*BookDTO, error) {
	var book Book
	err := bookQuery().Apply(s.db.WithContext(ctx)).Take(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book %d: %w", id, err)
	}
	return mapper.Map[BookDTO](s.mapper, &book)
}

// ListBooks returns every book ordered by id.
func (s *Service) ListBooks(ctx context.Context) ([]*BookDTO, error) {
	var books []*Book
	q := bookQuery().Scope(func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	if err := q.Apply(s.db.WithContext(ctx)).Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return s.toDTOs(books)
}

func (s *Service) mapBooks(ctx context.Context, st mapper.Store, dtos []*BookDTO) ([]*Book, error) {
	sess := s.mapper.NewStoreSession(st)
	books := make([]*Book, 0, len(dtos))
	for i, dto := range dtos {
		book, err := mapper.SessionMapToStore[Book](ctx, sess, dto, mapper.WithIncluder(bookQuery()))
		if err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
		books = append(books, book)
	}
	return books, nil
}

// toDTOs maps books in one session so shared authors and tags stay shared.
func (s *Service) toDTOs(books []*Book) ([]*BookDTO, error) {
	sess := s.mapper.NewSession()
	out := make([]*BookDTO, 0, len(books))
	for _, b := range books {
		dto, err := mapper.SessionMap[BookDTO](sess, b)
		if err != nil {
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}
