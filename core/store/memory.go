package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"entity-mapper/core/mapper"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ mapper.Store = (*Memory)(nil)

// Memory is an in-memory unit of work. Committed rows are kept per type; Add, Remove and
// Unlink stay pending until Save. Save assigns identities to new rows: sequential
// numbers for integer identities and uuids for string and [16]byte ones.
type Memory struct {
	mu       sync.RWMutex
	idField  string
	rows     map[reflect.Type][]any
	sequence map[reflect.Type]uint64
	added    []any
	removed  []any
	unlinks  []Link
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithIdentityField sets the identity field Save assigns. Defaults to "ID".
func WithIdentityField(name string) MemoryOption {
	return func(s *Memory) { s.idField = name }
}

// NewMemory creates an empty Memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	s := &Memory{
		idField:  "ID",
		rows:     make(map[reflect.Type][]any),
		sequence: make(map[reflect.Type]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed commits entities directly, assigning missing identities.
func (s *Memory) Seed(entities ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		s.commit(e)
	}
}

func (s *Memory) Add(entity any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, entity)
}

func (s *Memory) Remove(entity any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, entity)
}

func (s *Memory) Unlink(owner any, property string, entity any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlinks = append(s.unlinks, Link{Owner: owner, Property: property, Entity: entity})
}

// Find returns the committed row of entityType whose idField equals id. inc is ignored.
func (s *Memory) Find(ctx context.Context, entityType reflect.Type, idField string, id any, _ mapper.Includer) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	field, ok := entityType.FieldByName(idField)
	if !ok {
		return nil, fmt.Errorf("store: %s has no field %s", entityType, idField)
	}
	row, found := lo.Find(s.rows[entityType], func(row any) bool {
		return valueOf(reflect.ValueOf(row).Elem().FieldByIndex(field.Index)) == id
	})
	if !found {
		return nil, nil
	}
	return row, nil
}

// Save commits pending removals, then pending additions.
func (s *Memory) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.removed {
		t := reflect.TypeOf(e).Elem()
		s.rows[t] = lo.Without(s.rows[t], e)
	}
	for _, e := range s.added {
		if !lo.Contains(s.removed, e) {
			s.commit(e)
		}
	}
	s.added, s.removed, s.unlinks = nil, nil, nil
	return nil
}

// Count returns the number of committed rows of the prototype's type.
func (s *Memory) Count(prototype any) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[typeOf(prototype)])
}

// Rows returns the committed rows of the prototype's type.
func (s *Memory) Rows(prototype any) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]any(nil), s.rows[typeOf(prototype)]...)
}

// Added returns the pending additions.
func (s *Memory) Added() []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]any(nil), s.added...)
}

// Removed returns the pending removals.
func (s *Memory) Removed() []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]any(nil), s.removed...)
}

// Unlinked returns the pending unlinks.
func (s *Memory) Unlinked() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Link(nil), s.unlinks...)
}

func (s *Memory) commit(e any) {
	t := reflect.TypeOf(e).Elem()
	if lo.Contains(s.rows[t], e) {
		return
	}
	s.assignID(t, reflect.ValueOf(e).Elem())
	s.rows[t] = append(s.rows[t], e)
}

func (s *Memory) assignID(t reflect.Type, v reflect.Value) {
	f, ok := t.FieldByName(s.idField)
	if !ok {
		return
	}
	id := v.FieldByIndex(f.Index)
	if id.Kind() == reflect.Ptr {
		if !id.IsNil() {
			return
		}
		id.Set(reflect.New(id.Type().Elem()))
		id = id.Elem()
	}
	if !id.IsZero() {
		if id.CanUint() && id.Uint() > s.sequence[t] {
			s.sequence[t] = id.Uint()
		} else if id.CanInt() && id.Int() > 0 && uint64(id.Int()) > s.sequence[t] {
			s.sequence[t] = uint64(id.Int())
		}
		return
	}

	switch {
	case id.CanUint():
		s.sequence[t]++
		id.SetUint(s.sequence[t])
	case id.CanInt():
		s.sequence[t]++
		id.SetInt(int64(s.sequence[t]))
	case id.Kind() == reflect.String:
		id.SetString(uuid.NewString())
	case id.Kind() == reflect.Array && id.Len() == 16 && id.Type().Elem().Kind() == reflect.Uint8:
		u := uuid.New()
		reflect.Copy(id, reflect.ValueOf(u[:]))
	}
}

// valueOf returns the plain value of an identity field, dereferencing pointers.
func valueOf(v reflect.Value) any {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func typeOf(prototype any) reflect.Type {
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
