package library

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Author writes books. Authors outlive the books that reference them.
type Author struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag labels books. Tags are shared between books.
type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:64;index"`
}

// Review belongs to exactly one book and is deleted with it.
type Review struct {
	ID       uint   `gorm:"primaryKey"`
	BookID   *uint  `gorm:"index"`
	Reviewer string `gorm:"size:255"`
	Stars    int
	Text     string `gorm:"type:text"`
}

// Book is the aggregate root of the library.
type Book struct {
	ID               uint   `gorm:"primaryKey"`
	Title            string `gorm:"size:255;not null"`
	ISBN             string `gorm:"column:isbn;size:32;index"`
	Published        *time.Time
	ConcurrencyToken string `gorm:"size:36"`
	AuthorID         *uint
	Author           *Author
	Tags             []*Tag    `gorm:"many2many:book_tags"`
	Reviews          []*Review `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BeforeSave issues a new concurrency token on every write.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	b.ConcurrencyToken = uuid.NewString()
	return nil
}

// Models lists the library tables in migration order.
func Models() []any {
	return []any{&Author{}, &Tag{}, &Book{}, &Review{}}
}

// Migrate creates or updates the library tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
