package library

import "time"

// AuthorDTO is the API shape of an Author.
type AuthorDTO struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name"`
}

// TagDTO is the API shape of a Tag.
type TagDTO struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name"`
}

// ReviewDTO is the API shape of a Review.
type ReviewDTO struct {
	ID       uint   `json:"id,omitempty"`
	Reviewer string `json:"reviewer"`
	Stars    int    `json:"stars"`
	Text     string `json:"text"`
}

// BookDTO is the API shape of a Book. A BookDTO without id creates a book; one with an
// id updates it, and must carry the concurrency token it was read with when the book
// has changed since.
type BookDTO struct {
	ID               uint         `json:"id,omitempty"`
	Title            string       `json:"title"`
	ISBN             string       `json:"isbn"`
	Published        *time.Time   `json:"published,omitempty"`
	ConcurrencyToken string       `json:"concurrency_token,omitempty"`
	Author           *AuthorDTO   `json:"author,omitempty"`
	Tags             []*TagDTO    `json:"tags"`
	Reviews          []*ReviewDTO `json:"reviews"`
}

// Catalog is the file format of catalog imports and exports.
type Catalog struct {
	Books []*BookDTO `json:"books"`
}

// Plan counts the changes saving a batch would make.
type Plan struct {
	Books    int `json:"books"`
	Inserts  int `json:"inserts"`
	Removals int `json:"removals"`
	Unlinks  int `json:"unlinks"`
}
