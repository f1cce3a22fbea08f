package mapper

import "reflect"

type keyField struct {
	name  string
	index []int
	typ   reflect.Type
}

func (f *keyField) get(entity reflect.Value) reflect.Value {
	return entity.Elem().FieldByIndex(f.index)
}

// entityKeys locates the identity and concurrency token of one struct type.
type entityKeys struct {
	typ   reflect.Type
	id    *keyField
	token *keyField
}

func (k *entityKeys) hasID() bool    { return k.id != nil }
func (k *entityKeys) hasToken() bool { return k.token != nil }

// idIsEmpty reports whether entity (a pointer) lacks an identity.
func (k *entityKeys) idIsEmpty(entity reflect.Value) bool {
	return k.id == nil || scalarEmpty(k.id.get(entity))
}

func (k *entityKeys) tokenIsEmpty(entity reflect.Value) bool {
	return k.token == nil || scalarEmpty(k.token.get(entity))
}

// idOf returns the identity of entity as a plain value, dereferencing nullable identities.
func (k *entityKeys) idOf(entity reflect.Value) any {
	v := k.id.get(entity)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func resolveKeys(t reflect.Type, tc *typeConfig, cfg Config) (*entityKeys, error) {
	keys := &entityKeys{typ: t}

	idName, explicitID := cfg.IdentityField, false
	tokenName, explicitToken := cfg.ConcurrencyTokenField, false
	if tc != nil {
		if tc.identity != "" {
			idName, explicitID = tc.identity, true
		}
		if tc.token != "" {
			tokenName, explicitToken = tc.token, true
		}
	}

	if idName == tokenName {
		return nil, &ConfigurationError{Subject: t.String(), Reason: "identity and concurrency token share property " + idName}
	}

	if f, ok := fieldByName(t, idName); ok {
		if !isComparableScalar(f.typ) {
			return nil, &KeyPropertyError{Type: t, Property: idName, Reason: "identity must be a comparable scalar"}
		}
		keys.id = &keyField{name: f.name, index: f.index, typ: f.typ}
	} else if explicitID {
		return nil, &KeyPropertyError{Type: t, Property: idName, Reason: "property not found"}
	}

	if f, ok := fieldByName(t, tokenName); ok {
		if f.kind != kindScalar {
			return nil, &KeyPropertyError{Type: t, Property: tokenName, Reason: "concurrency token must be a scalar"}
		}
		keys.token = &keyField{name: f.name, index: f.index, typ: f.typ}
	} else if explicitToken {
		return nil, &KeyPropertyError{Type: t, Property: tokenName, Reason: "property not found"}
	}

	return keys, nil
}
