// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"errors"
	"sync"

	"github.com/bureau-foundation/telecap/lib/foxglove"
)

// ErrUnknownObject is returned for operations on an object name that
// was never created on the table.
var ErrUnknownObject = errors.New("unknown 3D object")

// Table maps object names to entities.
type Table struct {
	ids *IDAllocator

	mu       sync.Mutex
	entities map[string]*Entity
}

// NewTable returns an empty table drawing ids from ids. A nil
// allocator gives the table a private one.
func NewTable(ids *IDAllocator) *Table {
	if ids == nil {
		ids = NewIDAllocator()
	}
	return &Table{ids: ids, entities: make(map[string]*Entity)}
}

// Create registers name with a fresh id and no primitives, replacing
// any existing entity of that name. Returns the new id.
func (t *Table) Create(name, frameID string, frameLocked bool) uint64 {
	entity := NewEntity(t.ids.Next(), frameID, frameLocked)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entities[name] = entity
	return entity.id
}

// Has reports whether name has been created.
func (t *Table) Has(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entities[name]
	return ok
}

// ID returns the id of name.
func (t *Table) ID(name string) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entity, ok := t.entities[name]
	if !ok {
		return 0, false
	}
	return entity.id, true
}

// AddMetadata appends a key/value pair to name.
func (t *Table) AddMetadata(name, key, value string) error {
	return t.with(name, func(e *Entity) { e.AddMetadata(key, value) })
}

// Add appends a primitive to name.
func (t *Table) Add(name string, p Primitive) error {
	return t.with(name, func(e *Entity) { e.Add(p) })
}

// Update builds the replacement scene update for name at timestamp.
func (t *Table) Update(name string, timestamp uint64) (foxglove.SceneUpdate, error) {
	var update foxglove.SceneUpdate
	err := t.with(name, func(e *Entity) { update = e.Update(timestamp) })
	return update, err
}

func (t *Table) with(name string, fn func(*Entity)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	entity, ok := t.entities[name]
	if !ok {
		return ErrUnknownObject
	}
	fn(entity)
	return nil
}
