package mapper

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mapper holds the compiled operations of every registered pair. It is immutable once
// built and safe for concurrent use.
type Mapper struct {
	cfg        Config
	ops        map[pairKey]*operations
	keys       map[reflect.Type]*entityKeys
	factories  map[reflect.Type]func() reflect.Value
	dependents *dependentPolicy
	mapTypes   mapToDatabaseTypes
	logger     *zap.Logger
}

func (m *Mapper) lookup(pair pairKey) (*operations, error) {
	ops, ok := m.ops[pair]
	if !ok {
		return nil, &MapperMissingError{Source: pair.source, Target: pair.target}
	}
	return ops, nil
}

// newEntity returns a pointer to a new t, built by the registered factory if any.
func (m *Mapper) newEntity(t reflect.Type) reflect.Value {
	if factory, ok := m.factories[t]; ok {
		return factory()
	}
	return reflect.New(t)
}

// MapToDatabaseType returns the operations allowed when mapping src to dst.
func (m *Mapper) MapToDatabaseType(src, dst any) MapToDatabaseType {
	s, err := structType(src)
	if err != nil {
		return InsertAndUpdate
	}
	d, err := structType(dst)
	if err != nil {
		return InsertAndUpdate
	}
	return m.mapTypes.Get(pairKey{source: s, target: d})
}

// IsDependent reports whether entities detached from property of owner (mapped from src)
// are deleted from the store.
func (m *Mapper) IsDependent(src, owner any, property string) bool {
	s, err := structType(src)
	if err != nil {
		return false
	}
	o, err := structType(owner)
	if err != nil {
		return false
	}
	f, ok := fieldByName(o, property)
	if !ok || (f.kind != kindEntity && f.kind != kindEntityList) {
		return false
	}
	return m.dependents.IsDependent(pairKey{source: s, target: o}, property, elemStruct(f.typ))
}

// CallOption adjusts a single to-store map call.
type CallOption func(*callOptions)

type callOptions struct {
	includer      Includer
	keepUnmatched *bool
}

// WithIncluder passes inc to the Store lookup of the top-level entity.
func WithIncluder(inc Includer) CallOption {
	return func(o *callOptions) { o.includer = inc }
}

// WithKeepUnmatched overrides, for this call, whether unmatched collection elements are kept.
func WithKeepUnmatched(keep bool) CallOption {
	return func(o *callOptions) { o.keepUnmatched = &keep }
}

// Map maps src to a new T.
func Map[T, S any](m *Mapper, src *S) (*T, error) {
	return SessionMap[T](m.NewSession(), src)
}

// MapInto maps src onto an existing dst, keys included.
func MapInto[S, T any](m *Mapper, src *S, dst *T) error {
	if src == nil || dst == nil {
		return ErrNilSource
	}
	c := newCall(m, toMemory{}, m.logger)
	pair := pairKey{source: typeOf[S](), target: typeOf[T]()}
	return c.mapInto(pair, reflect.ValueOf(src), reflect.ValueOf(dst), true)
}

// MapToStore maps src onto the rows of st: the row with src's identity is updated,
// or a new one is added. Changes become durable when st is saved.
func MapToStore[T, S any](ctx context.Context, m *Mapper, st Store, src *S, opts ...CallOption) (*T, error) {
	return SessionMapToStore[T](ctx, m.NewStoreSession(st), src, opts...)
}

// Session shares target tracking across several to-memory map calls, so a source
// object reachable from several of them is mapped to a single target.
type Session struct {
	id   string
	call *call
}

// NewSession starts a to-memory session.
func (m *Mapper) NewSession() *Session {
	id := uuid.NewString()
	return &Session{id: id, call: newCall(m, toMemory{}, m.logger.With(zap.String("session", id)))}
}

// ID returns the session identifier attached to its log entries.
func (s *Session) ID() string { return s.id }

// SessionMap maps src to T within s.
func SessionMap[T, S any](s *Session, src *S) (*T, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	pair := pairKey{source: typeOf[S](), target: typeOf[T]()}
	if _, err := s.call.m.lookup(pair); err != nil {
		return nil, err
	}
	target, err := mapToNewTarget(s.call, pair, reflect.ValueOf(src))
	if err != nil {
		return nil, err
	}
	return target.Interface().(*T), nil
}

// StoreSession shares target tracking across several to-store map calls against one
// Store, so that new entities referenced from several sources are added once.
type StoreSession struct {
	id       string
	call     *call
	strategy *toStore
	store    Store
}

// NewStoreSession starts a to-store session over st.
func (m *Mapper) NewStoreSession(st Store) *StoreSession {
	id := uuid.NewString()
	strategy := &toStore{store: st}
	return &StoreSession{
		id:       id,
		call:     newCall(m, strategy, m.logger.With(zap.String("session", id))),
		strategy: strategy,
		store:    st,
	}
}

// ID returns the session identifier attached to its log entries.
func (s *StoreSession) ID() string { return s.id }

// Save commits the session's store.
func (s *StoreSession) Save(ctx context.Context) error {
	return s.store.Save(ctx)
}

// SessionMapToStore maps src onto the rows of the session's store. Calls on one session
// may run concurrently when the Store is safe for concurrent use; a source reachable from
// several of them still produces a single new target.
func SessionMapToStore[T, S any](ctx context.Context, s *StoreSession, src *S, opts ...CallOption) (*T, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	ops, err := s.call.m.lookup(pairKey{source: typeOf[S](), target: typeOf[T]()})
	if err != nil {
		return nil, err
	}

	c := s.call.with(ctx, o.keepUnmatched)
	target, err := s.strategy.mapRoot(c, ops, reflect.ValueOf(src), o.includer)
	if err != nil {
		return nil, err
	}
	return target.Interface().(*T), nil
}
