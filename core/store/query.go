package store

import "gorm.io/gorm"

type preload struct {
	query string
	args  []any
}

// Query shapes the lookup of a top-level entity in the Gorm store: eager loading of
// associations and extra scopes. It implements mapper.Includer.
type Query struct {
	preloads []preload
	scopes   []func(*gorm.DB) *gorm.DB
	readOnly bool
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{}
}

// Preload eager loads the named association, as gorm's Preload does.
func (q *Query) Preload(query string, args ...any) *Query {
	q.preloads = append(q.preloads, preload{query: query, args: args})
	return q
}

// Scope adds a gorm scope to the lookup.
func (q *Query) Scope(fn func(*gorm.DB) *gorm.DB) *Query {
	q.scopes = append(q.scopes, fn)
	return q
}

// ReadOnly marks rows found with q as untracked: they are not registered for saving.
// The mapper refuses such queries on the to-store path.
func (q *Query) ReadOnly() *Query {
	q.readOnly = true
	return q
}

// Untracked reports whether q was marked ReadOnly.
func (q *Query) Untracked() bool {
	return q != nil && q.readOnly
}

// Apply adds the preloads and scopes of q to db. A nil Query leaves db unchanged.
func (q *Query) Apply(db *gorm.DB) *gorm.DB {
	if q == nil {
		return db
	}
	for _, p := range q.preloads {
		db = db.Preload(p.query, p.args...)
	}
	if len(q.scopes) > 0 {
		db = db.Scopes(q.scopes...)
	}
	return db
}
