// Package mapper maps object graphs between two families of structs, such as gorm models
// and the DTOs exposed over HTTP.
//
// Pairs of struct types are registered on a Builder. Build matches their exported
// properties by name and compiles, once per pair, the functions that copy scalar
// properties and keys. Properties are classified as scalars, entities (*T) or entity
// lists ([]*T); nested pairs are discovered and compiled automatically.
//
// # Mapping to memory
//
// Map produces a new target graph. A source object reachable several times produces a
// single target, so shared references and cycles are preserved.
//
// # Mapping to a store
//
// MapToStore maps onto the rows of a Store, a unit of work such as store.Gorm. The
// top-level source is looked up by identity and updated in place, or inserted. Nested
// references and collections are reconciled against the rows already loaded: matching
// identities are updated, sources without identity are inserted, and detached rows are
// unlinked, or removed when the property is dependent. Concurrency tokens, when both
// sides carry one, must match.
//
// What may be inserted or updated is controlled per pair by MapToDatabaseType, and
// whether detached rows are removed by the keep-entity-on-removed options, resolved
// from the most specific one: property, pair, type, then Config.
//
// # Sessions
//
// NewSession and NewStoreSession share target tracking across several calls, so two
// sources referencing the same new object converge on one target.
//
// # Usage
//
//	m, err := mapper.NewBuilder(cfg.Mapping).
//	    Register((*Book)(nil), (*BookDTO)(nil)).
//	    Register((*BookDTO)(nil), (*Book)(nil), mapper.KeepPropertyOnRemoved("Reviews", false)).
//	    Build()
//
//	dto, err := mapper.Map[BookDTO](m, book)
//
//	s := m.NewStoreSession(store.NewGorm(db))
//	book, err := mapper.SessionMapToStore[Book](ctx, s, dto)
//	err = s.Save(ctx)
package mapper
