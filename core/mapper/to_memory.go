package mapper

import "reflect"

// toMemory builds detached target graphs. Keys are copied, nothing is looked up.
type toMemory struct{}

func (toMemory) mapEntity(c *call, _ *operations, p *property, src, dst reflect.Value) error {
	sv, dv := fieldOf(src, p.srcIndex), fieldOf(dst, p.dstIndex)
	if sv.IsNil() {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	if !dv.IsNil() {
		return c.mapInto(p.elem, sv, dv, true)
	}

	target, err := mapToNewTarget(c, p.elem, sv)
	if err != nil {
		return err
	}
	dv.Set(target)
	return nil
}

// mapList replaces the target list with the mapped source elements, in source order.
func (toMemory) mapList(c *call, owner *operations, p *property, src, dst reflect.Value) error {
	sv, dv := fieldOf(src, p.srcIndex), fieldOf(dst, p.dstIndex)
	if sv.IsNil() {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	if err := checkDuplicates(sv, owner, p); err != nil {
		return err
	}

	out := reflect.MakeSlice(p.dstType, 0, sv.Len())
	for i := 0; i < sv.Len(); i++ {
		item := sv.Index(i)
		if item.IsNil() {
			continue
		}
		target, err := mapToNewTarget(c, p.elem, item)
		if err != nil {
			return err
		}
		out = reflect.Append(out, target)
	}
	dv.Set(out)
	return nil
}

// mapToNewTarget returns the target the session already produced for src, or creates
// and maps a new one.
func mapToNewTarget(c *call, pair pairKey, src reflect.Value) (reflect.Value, error) {
	target, mapped := c.newTargets.NewTargetIfNotExist(src.Interface(), pair.target)
	if mapped {
		return target, nil
	}
	return target, c.mapInto(pair, src, target, true)
}
