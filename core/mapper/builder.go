package mapper

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Builder collects pair registrations and type options, then compiles them into a Mapper.
// Registration problems are collected and returned together by Build.
type Builder struct {
	cfg        Config
	logger     *zap.Logger
	pairs      map[pairKey]*pairConfig
	order      []pairKey
	types      map[reflect.Type]*typeConfig
	converters converters
	factories  map[reflect.Type]func() reflect.Value
	errs       []error
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger the built Mapper writes store decisions to.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder with cfg as global defaults.
func NewBuilder(cfg Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:        cfg.withDefaults(),
		logger:     zap.NewNop(),
		pairs:      make(map[pairKey]*pairConfig),
		types:      make(map[reflect.Type]*typeConfig),
		converters: make(converters),
		factories:  make(map[reflect.Type]func() reflect.Value),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type pairConfig struct {
	mapType       MapToDatabaseType
	keepUnmatched *bool
	keepEntity    *bool
	keepProperty  map[string]bool
	strict        bool
	excluded      map[string]bool
}

// PairOption configures a registered pair.
type PairOption func(*pairConfig)

// WithMapType restricts the store operations allowed for the pair.
func WithMapType(t MapToDatabaseType) PairOption {
	return func(pc *pairConfig) { pc.mapType = t }
}

// KeepEntityOnRemoved sets, for every navigation property of the pair's target, whether
// detached entities stay in the store.
func KeepEntityOnRemoved(keep bool) PairOption {
	return func(pc *pairConfig) { pc.keepEntity = &keep }
}

// KeepPropertyOnRemoved sets whether entities detached from one navigation property
// stay in the store. It overrides KeepEntityOnRemoved.
func KeepPropertyOnRemoved(property string, keep bool) PairOption {
	return func(pc *pairConfig) {
		if pc.keepProperty == nil {
			pc.keepProperty = make(map[string]bool)
		}
		pc.keepProperty[property] = keep
	}
}

// KeepUnmatched sets whether target collection elements without a source counterpart
// are kept.
func KeepUnmatched(keep bool) PairOption {
	return func(pc *pairConfig) { pc.keepUnmatched = &keep }
}

// StrictConcurrency requires a matching concurrency token on every update of the pair.
func StrictConcurrency() PairOption {
	return func(pc *pairConfig) { pc.strict = true }
}

// ExcludeProperties leaves the named target properties untouched.
func ExcludeProperties(properties ...string) PairOption {
	return func(pc *pairConfig) {
		if pc.excluded == nil {
			pc.excluded = make(map[string]bool)
		}
		for _, p := range properties {
			pc.excluded[p] = true
		}
	}
}

type typeConfig struct {
	identity string
	token    string
	keep     *bool
}

// TypeOption configures one entity type.
type TypeOption func(*typeConfig)

// WithIdentity names the identity property of the type.
func WithIdentity(property string) TypeOption {
	return func(tc *typeConfig) { tc.identity = property }
}

// WithConcurrencyToken names the concurrency token property of the type.
func WithConcurrencyToken(property string) TypeOption {
	return func(tc *typeConfig) { tc.token = property }
}

// KeepOnRemoved sets whether entities of the type stay in the store once detached.
func KeepOnRemoved(keep bool) TypeOption {
	return func(tc *typeConfig) { tc.keep = &keep }
}

// Register registers the pair of src and dst, given as prototypes such as (*Book)(nil).
// Pairs reachable through nested properties are registered by Build with default options.
func (b *Builder) Register(src, dst any, opts ...PairOption) *Builder {
	s, err := structType(src)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	d, err := structType(dst)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}

	pair := pairKey{source: s, target: d}
	if _, ok := b.pairs[pair]; ok {
		b.errs = append(b.errs, &ConfigurationError{Subject: pair.String(), Reason: "registered more than once"})
		return b
	}

	pc := &pairConfig{}
	for _, opt := range opts {
		opt(pc)
	}
	b.pairs[pair] = pc
	b.order = append(b.order, pair)
	return b
}

// RegisterTwoWay registers a to b and b to a with the same options.
func (b *Builder) RegisterTwoWay(a, c any, opts ...PairOption) *Builder {
	return b.Register(a, c, opts...).Register(c, a, opts...)
}

// Configure sets options of an entity type.
func (b *Builder) Configure(entity any, opts ...TypeOption) *Builder {
	t, err := structType(entity)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if len(opts) == 0 {
		b.errs = append(b.errs, &ConfigurationError{Subject: t.String(), Reason: "empty configuration"})
		return b
	}
	if _, ok := b.types[t]; ok {
		b.errs = append(b.errs, &ConfigurationError{Subject: t.String(), Reason: "configured more than once"})
		return b
	}

	tc := &typeConfig{}
	for _, opt := range opts {
		opt(tc)
	}
	b.types[t] = tc
	return b
}

// WithScalarConverter registers fn to convert scalar properties of type S to type T.
func WithScalarConverter[S, T any](b *Builder, fn func(S) T) *Builder {
	s, t := typeOf[S](), typeOf[T]()
	switch {
	case fn == nil:
		b.errs = append(b.errs, &ScalarConverterError{Source: s, Target: t, Reason: "nil converter"})
	case s == t:
		b.errs = append(b.errs, &ScalarConverterError{Source: s, Target: t, Reason: "source and target types are the same"})
	case !isScalar(s) || !isScalar(t):
		b.errs = append(b.errs, &ScalarConverterError{Source: s, Target: t, Reason: "converters are for scalar types only"})
	default:
		key := pairKey{source: s, target: t}
		if _, ok := b.converters[key]; ok {
			b.errs = append(b.errs, &ConfigurationError{Subject: key.String(), Reason: "scalar converter registered more than once"})
			break
		}
		b.converters[key] = reflect.ValueOf(fn)
	}
	return b
}

// WithFactory registers fn to construct new entities of type T.
func WithFactory[T any](b *Builder, fn func() *T) *Builder {
	t := typeOf[T]()
	switch {
	case fn == nil:
		b.errs = append(b.errs, &ConfigurationError{Subject: t.String(), Reason: "nil factory"})
	case t.Kind() != reflect.Struct:
		b.errs = append(b.errs, &InvalidTypeError{Type: t, Reason: "entity types must be structs"})
	default:
		if _, ok := b.factories[t]; ok {
			b.errs = append(b.errs, &ConfigurationError{Subject: t.String(), Reason: "factory registered more than once"})
			break
		}
		b.factories[t] = func() reflect.Value {
			if e := fn(); e != nil {
				return reflect.ValueOf(e)
			}
			return reflect.New(t)
		}
	}
	return b
}

// Build compiles every registered pair and the pairs reachable from them.
func (b *Builder) Build() (*Mapper, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	m := &Mapper{
		cfg:        b.cfg,
		ops:        make(map[pairKey]*operations),
		keys:       make(map[reflect.Type]*entityKeys),
		factories:  b.factories,
		dependents: newDependentPolicy(!b.cfg.DeleteOnRemoved),
		mapTypes:   make(mapToDatabaseTypes),
		logger:     b.logger,
	}

	var errs []error
	keysOf := func(t reflect.Type) (*entityKeys, error) {
		if k, ok := m.keys[t]; ok {
			return k, nil
		}
		k, err := resolveKeys(t, b.types[t], b.cfg)
		if err != nil {
			return nil, err
		}
		m.keys[t] = k
		return k, nil
	}

	for t, tc := range b.types {
		if _, err := keysOf(t); err != nil {
			errs = append(errs, err)
			continue
		}
		if tc.keep != nil {
			m.dependents.byType[t] = *tc.keep
		}
	}

	queue := append([]pairKey(nil), b.order...)
	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]
		if _, ok := m.ops[pair]; ok {
			continue
		}

		sk, err := keysOf(pair.source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tk, err := keysOf(pair.target)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		pc := b.pairs[pair]
		if err := validatePair(pair, pc); err != nil {
			errs = append(errs, err)
			continue
		}

		ops, deps, err := compilePair(pair, pc, sk, tk, b.converters)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.ops[pair] = ops

		if pc != nil {
			m.mapTypes[pair] = pc.mapType
			if pc.keepEntity != nil {
				m.dependents.byPair[pair] = *pc.keepEntity
			}
			if len(pc.keepProperty) > 0 {
				m.dependents.byProperty[pair] = pc.keepProperty
			}
		}
		queue = append(queue, deps...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	b.logger.Debug("mapper built", zap.Int("pairs", len(m.ops)), zap.Int("types", len(m.keys)))
	return m, nil
}

// validatePair checks that options of pc name existing target properties.
func validatePair(pair pairKey, pc *pairConfig) error {
	if pc == nil {
		return nil
	}
	for name := range pc.keepProperty {
		f, ok := fieldByName(pair.target, name)
		if !ok {
			return &ConfigurationError{Subject: pair.String(), Reason: fmt.Sprintf("unknown property %s", name)}
		}
		if f.kind != kindEntity && f.kind != kindEntityList {
			return &ConfigurationError{Subject: pair.String(), Reason: fmt.Sprintf("property %s is not a navigation property", name)}
		}
	}
	for name := range pc.excluded {
		if _, ok := fieldByName(pair.target, name); !ok {
			return &ConfigurationError{Subject: pair.String(), Reason: fmt.Sprintf("cannot exclude unknown property %s", name)}
		}
	}
	if pc.mapType < InsertAndUpdate || pc.mapType > Neither {
		return &ConfigurationError{Subject: pair.String(), Reason: "invalid map to database type " + pc.mapType.String()}
	}
	return nil
}
