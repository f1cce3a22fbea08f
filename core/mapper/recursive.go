package mapper

import (
	"context"
	"reflect"

	"go.uber.org/zap"
)

// nestedMapper resolves nested entity and entity list properties. The to-memory and
// to-store paths each provide one.
type nestedMapper interface {
	mapEntity(c *call, owner *operations, p *property, src, dst reflect.Value) error
	mapList(c *call, owner *operations, p *property, src, dst reflect.Value) error
}

// call is the state of one top-level map call. The trackers are shared by every call
// of a session; ctx and keepUnmatched belong to the call alone.
type call struct {
	m             *Mapper
	existing      *existingTargetTracker
	newTargets    *newTargetTracker
	nested        nestedMapper
	log           *zap.Logger
	ctx           context.Context
	keepUnmatched *bool
}

func newCall(m *Mapper, nested nestedMapper, log *zap.Logger) *call {
	return &call{
		m:          m,
		existing:   newExistingTargetTracker(),
		newTargets: newNewTargetTracker(m.newEntity),
		nested:     nested,
		log:        log,
		ctx:        context.Background(),
	}
}

// with returns a call sharing c's trackers with its own ctx and keep-unmatched override.
func (c *call) with(ctx context.Context, keepUnmatched *bool) *call {
	next := *c
	next.ctx = ctx
	next.keepUnmatched = keepUnmatched
	return &next
}

// mapInto copies src onto dst and recurses into nested properties. src and dst are
// non-nil pointers to the structs of pair.
func (c *call) mapInto(pair pairKey, src, dst reflect.Value, mapKeys bool) error {
	if keys := c.m.keys[pair.target]; keys != nil && !keys.idIsEmpty(dst) {
		if !c.existing.StartTracking(dst.Interface()) {
			return nil
		}
	}

	ops, err := c.m.lookup(pair)
	if err != nil {
		return err
	}

	if mapKeys {
		ops.copyKeys(src, dst)
	}
	ops.copyScalars(src, dst)

	for _, p := range ops.nested {
		switch p.kind {
		case kindEntity:
			err = c.nested.mapEntity(c, ops, p, src, dst)
		case kindEntityList:
			err = c.nested.mapList(c, ops, p, src, dst)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// keepUnmatchedFor resolves the keep-unmatched flag for collections owned by ops.
func (c *call) keepUnmatchedFor(ops *operations) bool {
	if c.keepUnmatched != nil {
		return *c.keepUnmatched
	}
	if ops.keepUnmatched != nil {
		return *ops.keepUnmatched
	}
	return c.m.cfg.KeepUnmatched
}

// checkDuplicates fails when the same source element appears twice in list.
func checkDuplicates(list reflect.Value, owner *operations, p *property) error {
	seen := make(map[any]struct{}, list.Len())
	for i := 0; i < list.Len(); i++ {
		item := list.Index(i)
		if item.IsNil() {
			continue
		}
		key := item.Interface()
		if _, ok := seen[key]; ok {
			return &DuplicatedListItemError{Type: p.elem.source, Property: owner.pair.source.Name() + "." + p.name}
		}
		seen[key] = struct{}{}
	}
	return nil
}

func fieldOf(entity reflect.Value, index []int) reflect.Value {
	return entity.Elem().FieldByIndex(index)
}
