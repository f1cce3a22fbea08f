package mapper

import (
	"reflect"
	"sync"
)

// existingTargetTracker remembers which identified targets a session already mapped into.
// Keys are the target pointers themselves, so the dynamic type is part of the key.
type existingTargetTracker struct {
	mu   sync.Mutex
	seen map[any]struct{}
}

func newExistingTargetTracker() *existingTargetTracker {
	return &existingTargetTracker{seen: make(map[any]struct{})}
}

// StartTracking returns true the first time target is seen and false afterwards.
func (t *existingTargetTracker) StartTracking(target any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[target]; ok {
		return false
	}
	t.seen[target] = struct{}{}
	return true
}

type newTargetKey struct {
	source any
	target reflect.Type
}

// newTargetTracker makes sure a source object produces a single new target per target
// type within a session.
type newTargetTracker struct {
	mu      sync.Mutex
	targets map[newTargetKey]reflect.Value
	make    func(reflect.Type) reflect.Value
}

func newNewTargetTracker(factory func(reflect.Type) reflect.Value) *newTargetTracker {
	return &newTargetTracker{
		targets: make(map[newTargetKey]reflect.Value),
		make:    factory,
	}
}

// NewTargetIfNotExist returns the target already produced for source and true, or a freshly
// constructed and registered target and false.
func (t *newTargetTracker) NewTargetIfNotExist(source any, targetType reflect.Type) (reflect.Value, bool) {
	key := newTargetKey{source: source, target: targetType}

	t.mu.Lock()
	defer t.mu.Unlock()

	if target, ok := t.targets[key]; ok {
		return target, true
	}
	target := t.make(targetType)
	t.targets[key] = target
	return target, false
}

// Tracked returns the target already produced for source, if any.
func (t *newTargetTracker) Tracked(source any, targetType reflect.Type) (reflect.Value, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	target, ok := t.targets[newTargetKey{source: source, target: targetType}]
	return target, ok
}
