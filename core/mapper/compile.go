package mapper

import (
	"fmt"
	"reflect"
)

// property is a compiled nested (entity or entity list) property of a pair.
type property struct {
	name     string
	kind     propertyKind
	srcIndex []int
	dstIndex []int
	dstType  reflect.Type
	// elem is the pair of struct types the property's values map between.
	elem pairKey
}

// operations is the compiled bundle for one ordered pair of struct types.
type operations struct {
	pair       pairKey
	sourceKeys *entityKeys
	targetKeys *entityKeys

	// keyed is set when both sides carry an identity, tokened when both carry a token.
	keyed        bool
	tokened      bool
	idConvert    scalarConverter
	tokenConvert scalarConverter

	copyScalars func(src, dst reflect.Value)
	copyKeys    func(src, dst reflect.Value)
	nested      []*property

	keepUnmatched *bool
	strict        bool
}

// sourceHasID reports whether src carries an identity usable against the target type.
func (o *operations) sourceHasID(src reflect.Value) bool {
	return o.keyed && !o.sourceKeys.idIsEmpty(src)
}

// targetID returns the identity of src converted to the target identity type.
func (o *operations) targetID(src reflect.Value) any {
	v := o.idConvert(o.sourceKeys.id.get(src))
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func (o *operations) idEquals(src, dst reflect.Value) bool {
	if !o.keyed {
		return false
	}
	return scalarEqual(o.idConvert(o.sourceKeys.id.get(src)), o.targetKeys.id.get(dst))
}

// tokensConflict reports a stale write: both tokens present and different.
func (o *operations) tokensConflict(src, dst reflect.Value) bool {
	if !o.tokened || o.sourceKeys.tokenIsEmpty(src) || o.targetKeys.tokenIsEmpty(dst) {
		return false
	}
	return !scalarEqual(o.tokenConvert(o.sourceKeys.token.get(src)), o.targetKeys.token.get(dst))
}

type scalarProperty struct {
	srcIndex []int
	dstIndex []int
	convert  scalarConverter
}

// compilePair matches the properties of pair by name and builds its copy functions.
// It returns the nested pairs the bundle depends on.
func compilePair(pair pairKey, pc *pairConfig, sk, tk *entityKeys, convs converters) (*operations, []pairKey, error) {
	ops := &operations{
		pair:       pair,
		sourceKeys: sk,
		targetKeys: tk,
	}
	if pc != nil {
		ops.keepUnmatched = pc.keepUnmatched
		ops.strict = pc.strict
	}

	if sk.hasID() && tk.hasID() {
		conv, ok := convs.compile(sk.id.typ, tk.id.typ)
		if !ok {
			return nil, nil, &KeyPropertyError{
				Type:     tk.typ,
				Property: tk.id.name,
				Reason:   fmt.Sprintf("identity of %s (%s) cannot convert to %s", sk.typ, sk.id.typ, tk.id.typ),
			}
		}
		ops.keyed, ops.idConvert = true, conv
	}
	if sk.hasToken() && tk.hasToken() {
		conv, ok := convs.compile(sk.token.typ, tk.token.typ)
		if !ok {
			return nil, nil, &KeyPropertyError{
				Type:     tk.typ,
				Property: tk.token.name,
				Reason:   fmt.Sprintf("concurrency token of %s cannot convert to %s", sk.token.typ, tk.token.typ),
			}
		}
		ops.tokened, ops.tokenConvert = true, conv
	}
	if ops.strict && !ops.tokened {
		return nil, nil, &KeyPropertyError{Type: tk.typ, Property: "concurrency token", Reason: "strict concurrency needs tokens on both types of " + pair.String()}
	}

	var (
		scalars []scalarProperty
		deps    []pairKey
	)
	for _, tf := range fieldsOf(pair.target) {
		if pc != nil && pc.excluded[tf.name] {
			continue
		}
		if (tk.id != nil && tf.name == tk.id.name) || (tk.token != nil && tf.name == tk.token.name) {
			continue
		}
		sf, ok := fieldByName(pair.source, tf.name)
		if !ok {
			continue
		}
		if sf.kind == kindUnsupported || tf.kind == kindUnsupported {
			return nil, nil, &InvalidTypeError{
				Type:   tf.typ,
				Reason: fmt.Sprintf("property %s of %s has an unsupported type", tf.name, pair),
			}
		}
		if sf.kind != tf.kind {
			continue
		}

		switch tf.kind {
		case kindScalar:
			conv, ok := convs.compile(sf.typ, tf.typ)
			if !ok {
				return nil, nil, &ScalarConverterError{
					Source: sf.typ,
					Target: tf.typ,
					Reason: fmt.Sprintf("no conversion for property %s of %s", tf.name, pair),
				}
			}
			scalars = append(scalars, scalarProperty{srcIndex: sf.index, dstIndex: tf.index, convert: conv})

		case kindEntity, kindEntityList:
			elem := pairKey{source: elemStruct(sf.typ), target: elemStruct(tf.typ)}
			ops.nested = append(ops.nested, &property{
				name:     tf.name,
				kind:     tf.kind,
				srcIndex: sf.index,
				dstIndex: tf.index,
				dstType:  tf.typ,
				elem:     elem,
			})
			deps = append(deps, elem)
		}
	}

	ops.copyScalars = func(src, dst reflect.Value) {
		s, d := src.Elem(), dst.Elem()
		for _, p := range scalars {
			d.FieldByIndex(p.dstIndex).Set(p.convert(s.FieldByIndex(p.srcIndex)))
		}
	}

	ops.copyKeys = func(src, dst reflect.Value) {
		if ops.keyed {
			tk.id.get(dst).Set(ops.idConvert(sk.id.get(src)))
		}
		if ops.tokened && !sk.tokenIsEmpty(src) {
			tk.token.get(dst).Set(ops.tokenConvert(sk.token.get(src)))
		}
	}

	return ops, deps, nil
}

// elemStruct returns the struct type behind *T or []*T.
func elemStruct(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.Elem()
}
