package mapper

import (
	"context"
	"reflect"
)

// MapToDatabaseType controls which store operations a source/target pair may perform.
type MapToDatabaseType int

const (
	// InsertAndUpdate allows both inserting new rows and updating existing ones.
	InsertAndUpdate MapToDatabaseType = iota
	// InsertOnly allows only new rows.
	InsertOnly
	// UpdateOnly allows only updates of existing rows.
	UpdateOnly
	// Neither forbids both.
	Neither
)

// AllowsInsert reports whether new rows may be created.
func (t MapToDatabaseType) AllowsInsert() bool {
	return t == InsertAndUpdate || t == InsertOnly
}

// AllowsUpdate reports whether existing rows may be updated.
func (t MapToDatabaseType) AllowsUpdate() bool {
	return t == InsertAndUpdate || t == UpdateOnly
}

func (t MapToDatabaseType) String() string {
	switch t {
	case InsertAndUpdate:
		return "insert_and_update"
	case InsertOnly:
		return "insert_only"
	case UpdateOnly:
		return "update_only"
	case Neither:
		return "neither"
	default:
		return "unknown"
	}
}

// Store is the unit of work the to-store path mutates.
//
// Entities are always pointers to structs. Add, Remove and Unlink only record pending
// operations; nothing becomes durable before Save.
type Store interface {
	// Add schedules a newly created entity for insertion.
	Add(entity any)

	// Remove schedules an entity for deletion.
	Remove(entity any)

	// Unlink records that entity was detached from owner's property without being deleted.
	Unlink(owner any, property string, entity any)

	// Find returns the stored entity of entityType whose idField equals id, or nil when
	// there is none. entityType is a struct type; the result is a pointer to it.
	Find(ctx context.Context, entityType reflect.Type, idField string, id any, inc Includer) (any, error)

	// Save commits every pending operation.
	Save(ctx context.Context) error
}

// Includer shapes the lookup a Store performs for the top-level entity (eager loading).
// Its content is interpreted by the Store; the mapper only checks that it keeps the
// read tracked, since found rows are mutated in place.
type Includer interface {
	Untracked() bool
}

// pairKey identifies an ordered pair of struct types.
type pairKey struct {
	source reflect.Type
	target reflect.Type
}

func (k pairKey) String() string {
	return k.source.String() + " -> " + k.target.String()
}

// structType returns the struct type behind a prototype value such as T{} or (*T)(nil).
func structType(prototype any) (reflect.Type, error) {
	if prototype == nil {
		return nil, &InvalidTypeError{Reason: "nil prototype"}
	}
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &InvalidTypeError{Type: t, Reason: "entity types must be structs"}
	}
	return t, nil
}

// typeOf returns the struct type T.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
