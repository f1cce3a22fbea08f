package mapper

import "reflect"

// dependentPolicy decides whether an entity detached from a navigation property is
// deleted from the store or only unlinked.
//
// Resolution, most specific first: pair+property, pair, type of the detached entity, global.
type dependentPolicy struct {
	keepByDefault bool
	byType        map[reflect.Type]bool
	byPair        map[pairKey]bool
	byProperty    map[pairKey]map[string]bool
}

func newDependentPolicy(keepByDefault bool) *dependentPolicy {
	return &dependentPolicy{
		keepByDefault: keepByDefault,
		byType:        make(map[reflect.Type]bool),
		byPair:        make(map[pairKey]bool),
		byProperty:    make(map[pairKey]map[string]bool),
	}
}

// keep resolves the keep-entity-on-removed value.
func (p *dependentPolicy) keep(owner pairKey, property string, detached reflect.Type) bool {
	if props, ok := p.byProperty[owner]; ok {
		if keep, ok := props[property]; ok {
			return keep
		}
	}
	if keep, ok := p.byPair[owner]; ok {
		return keep
	}
	if keep, ok := p.byType[detached]; ok {
		return keep
	}
	return p.keepByDefault
}

// IsDependent reports whether entities detached from owner's property must be deleted.
func (p *dependentPolicy) IsDependent(owner pairKey, property string, detached reflect.Type) bool {
	return !p.keep(owner, property, detached)
}

// mapToDatabaseTypes holds the per-pair MapToDatabaseType, InsertAndUpdate when unset.
type mapToDatabaseTypes map[pairKey]MapToDatabaseType

func (m mapToDatabaseTypes) Get(pair pairKey) MapToDatabaseType {
	if t, ok := m[pair]; ok {
		return t
	}
	return InsertAndUpdate
}
