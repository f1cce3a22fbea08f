package mapper

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// toStore maps onto rows of a Store: existing rows are looked up and updated in place,
// new rows are added, detached rows are unlinked or removed.
type toStore struct {
	store Store
}

// mapRoot resolves the target of a top-level source and maps into it.
func (s *toStore) mapRoot(c *call, ops *operations, src reflect.Value, inc Includer) (reflect.Value, error) {
	if inc != nil && inc.Untracked() {
		return reflect.Value{}, ErrUntrackedQuery
	}
	if target, ok := c.newTargets.Tracked(src.Interface(), ops.pair.target); ok {
		return target, nil
	}

	mapType := c.m.mapTypes.Get(ops.pair)
	hasID := ops.sourceHasID(src)
	if hasID {
		row, err := s.find(c, ops, src, inc)
		if err != nil {
			return reflect.Value{}, err
		}
		if row.IsValid() {
			if !mapType.AllowsUpdate() {
				return reflect.Value{}, fmt.Errorf("%w: %s (id=%v)", ErrInsertWithExisting, ops.pair, ops.targetID(src))
			}
			if err := checkConcurrency(ops, src, row); err != nil {
				return reflect.Value{}, err
			}
			c.log.Debug("update", zap.Stringer("pair", ops.pair), zap.Any("id", ops.targetID(src)))
			return row, c.mapInto(ops.pair, src, row, false)
		}
	}

	if !mapType.AllowsInsert() {
		if !hasID {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUpdateWithoutID, ops.pair)
		}
		return reflect.Value{}, fmt.Errorf("%w: %s (id=%v)", ErrUpdateWithoutRecord, ops.pair, ops.targetID(src))
	}
	return s.mapToNewTarget(c, ops.pair, src, hasID)
}

func (s *toStore) mapEntity(c *call, owner *operations, p *property, src, dst reflect.Value) error {
	sv, dv := fieldOf(src, p.srcIndex), fieldOf(dst, p.dstIndex)
	if sv.IsNil() {
		if !dv.IsNil() {
			s.detach(c, owner, p, dst, dv)
			dv.Set(reflect.Zero(dv.Type()))
		}
		return nil
	}

	ops, err := c.m.lookup(p.elem)
	if err != nil {
		return err
	}
	mapType := c.m.mapTypes.Get(p.elem)

	if !ops.sourceHasID(sv) {
		if !mapType.AllowsInsert() {
			return &MapToDatabaseTypeError{Source: p.elem.source, Target: p.elem.target, Operation: OperationInsert}
		}
		if !dv.IsNil() {
			s.detach(c, owner, p, dst, dv)
		}
		target, err := s.mapToNewTarget(c, p.elem, sv, false)
		if err != nil {
			return err
		}
		dv.Set(target)
		return nil
	}

	if !dv.IsNil() && ops.idEquals(sv, dv) {
		if !mapType.AllowsUpdate() {
			return &MapToDatabaseTypeError{Source: p.elem.source, Target: p.elem.target, Operation: OperationUpdate}
		}
		if err := checkConcurrency(ops, sv, dv); err != nil {
			return err
		}
		return c.mapInto(p.elem, sv, dv, false)
	}

	if !dv.IsNil() {
		s.detach(c, owner, p, dst, dv)
	}
	target, err := s.findOrAdd(c, ops, sv, mapType)
	if err != nil {
		return err
	}
	dv.Set(target)
	return c.mapInto(p.elem, sv, target, false)
}

// mapList reconciles the target collection with the source one. Matched elements are
// updated in place, new ones appended, and the rest detached unless unmatched elements
// are kept.
func (s *toStore) mapList(c *call, owner *operations, p *property, src, dst reflect.Value) error {
	sv, dv := fieldOf(src, p.srcIndex), fieldOf(dst, p.dstIndex)

	ops, err := c.m.lookup(p.elem)
	if err != nil {
		return err
	}
	mapType := c.m.mapTypes.Get(p.elem)

	if !sv.IsNil() {
		if err := checkDuplicates(sv, owner, p); err != nil {
			return err
		}
	}

	matched := make(map[any]bool, dv.Len())
	appended := make(map[any]bool)
	var added []reflect.Value

	for i := 0; i < sv.Len(); i++ {
		item := sv.Index(i)
		if item.IsNil() {
			continue
		}

		if !ops.sourceHasID(item) {
			if !mapType.AllowsInsert() {
				return &MapToDatabaseTypeError{Source: p.elem.source, Target: p.elem.target, Operation: OperationInsert}
			}
			target, err := s.mapToNewTarget(c, p.elem, item, false)
			if err != nil {
				return err
			}
			added = appendOnce(added, appended, target)
			continue
		}

		if existing, ok := findByID(ops, dv, item); ok {
			if !mapType.AllowsUpdate() {
				return &MapToDatabaseTypeError{Source: p.elem.source, Target: p.elem.target, Operation: OperationUpdate}
			}
			if err := checkConcurrency(ops, item, existing); err != nil {
				return err
			}
			if err := c.mapInto(p.elem, item, existing, false); err != nil {
				return err
			}
			matched[existing.Interface()] = true
			continue
		}

		target, err := s.findOrAdd(c, ops, item, mapType)
		if err != nil {
			return err
		}
		if err := c.mapInto(p.elem, item, target, false); err != nil {
			return err
		}
		added = appendOnce(added, appended, target)
	}

	keep := c.keepUnmatchedFor(owner)
	out := reflect.MakeSlice(p.dstType, 0, dv.Len()+len(added))
	for i := 0; i < dv.Len(); i++ {
		element := dv.Index(i)
		if element.IsNil() {
			continue
		}
		if keep || matched[element.Interface()] {
			out = reflect.Append(out, element)
			continue
		}
		s.detach(c, owner, p, dst, element)
	}
	for _, target := range added {
		out = reflect.Append(out, target)
	}
	dv.Set(out)
	return nil
}

// mapToNewTarget creates the target for src, registers it with the store before its
// children are mapped, and maps into it. A target already produced in the session is
// returned as is.
func (s *toStore) mapToNewTarget(c *call, pair pairKey, src reflect.Value, mapKeys bool) (reflect.Value, error) {
	target, mapped := c.newTargets.NewTargetIfNotExist(src.Interface(), pair.target)
	if mapped {
		return target, nil
	}
	s.store.Add(target.Interface())
	c.log.Debug("insert", zap.Stringer("pair", pair))
	return target, c.mapInto(pair, src, target, mapKeys)
}

// findOrAdd returns the row whose identity equals src's, creating it when the pair
// allows inserts. Keys are copied onto the result.
func (s *toStore) findOrAdd(c *call, ops *operations, src reflect.Value, mapType MapToDatabaseType) (reflect.Value, error) {
	if target, ok := c.newTargets.Tracked(src.Interface(), ops.pair.target); ok {
		return target, nil
	}

	row, err := s.find(c, ops, src, nil)
	if err != nil {
		return reflect.Value{}, err
	}

	if !row.IsValid() {
		if !mapType.AllowsInsert() {
			return reflect.Value{}, &EntityNotFoundError{Type: ops.pair.target, ID: ops.targetID(src)}
		}
		target, mapped := c.newTargets.NewTargetIfNotExist(src.Interface(), ops.pair.target)
		if !mapped {
			s.store.Add(target.Interface())
			c.log.Debug("insert", zap.Stringer("pair", ops.pair), zap.Any("id", ops.targetID(src)))
		}
		ops.copyKeys(src, target)
		return target, nil
	}

	if !mapType.AllowsUpdate() {
		return reflect.Value{}, &MapToDatabaseTypeError{Source: ops.pair.source, Target: ops.pair.target, Operation: OperationUpdate}
	}
	if err := checkConcurrency(ops, src, row); err != nil {
		return reflect.Value{}, err
	}
	ops.copyKeys(src, row)
	return row, nil
}

func (s *toStore) find(c *call, ops *operations, src reflect.Value, inc Includer) (reflect.Value, error) {
	id := ops.targetID(src)
	found, err := s.store.Find(c.ctx, ops.pair.target, ops.targetKeys.id.name, id, inc)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("find %s (id=%v): %w", ops.pair.target, id, err)
	}
	if found == nil {
		return reflect.Value{}, nil
	}

	row := reflect.ValueOf(found)
	if row.Kind() != reflect.Ptr || row.Type().Elem() != ops.pair.target {
		return reflect.Value{}, &InvalidTypeError{Type: row.Type(), Reason: "store returned a value that is not a *" + ops.pair.target.Name()}
	}
	if row.IsNil() {
		return reflect.Value{}, nil
	}
	return row, nil
}

// detach takes entity off owner's property: it is always unlinked, and removed from the
// store when the property is dependent.
func (s *toStore) detach(c *call, owner *operations, p *property, dst, entity reflect.Value) {
	e := entity.Interface()
	s.store.Unlink(dst.Interface(), p.name, e)
	if c.m.dependents.IsDependent(owner.pair, p.name, p.elem.target) {
		s.store.Remove(e)
		c.log.Debug("remove", zap.Stringer("pair", p.elem), zap.String("property", p.name))
		return
	}
	c.log.Debug("unlink", zap.Stringer("pair", p.elem), zap.String("property", p.name))
}

// checkConcurrency guards an update of row with src.
func checkConcurrency(ops *operations, src, row reflect.Value) error {
	if ops.strict {
		if ops.sourceKeys.tokenIsEmpty(src) {
			return &MissingConcurrencyTokenError{Type: ops.pair.source, ID: ops.targetID(src)}
		}
		if !scalarEqual(ops.tokenConvert(ops.sourceKeys.token.get(src)), ops.targetKeys.token.get(row)) {
			return &ConcurrencyTokenError{Source: ops.pair.source, Target: ops.pair.target, ID: ops.targetID(src)}
		}
		return nil
	}
	if ops.tokensConflict(src, row) {
		return &ConcurrencyTokenError{Source: ops.pair.source, Target: ops.pair.target, ID: ops.targetID(src)}
	}
	return nil
}

func findByID(ops *operations, list, src reflect.Value) (reflect.Value, bool) {
	for i := 0; i < list.Len(); i++ {
		element := list.Index(i)
		if !element.IsNil() && ops.idEquals(src, element) {
			return element, true
		}
	}
	return reflect.Value{}, false
}

func appendOnce(list []reflect.Value, seen map[any]bool, v reflect.Value) []reflect.Value {
	key := v.Interface()
	if seen[key] {
		return list
	}
	seen[key] = true
	return append(list, v)
}
