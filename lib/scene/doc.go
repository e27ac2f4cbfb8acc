// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scene builds 3D scene entities incrementally.
//
// An [Entity] is created once per object name, accumulates primitives
// and metadata across calls, and is republished whole on every write
// as a foxglove.SceneUpdate that first deletes the entity's id and
// then inserts its current geometry. There is no diffing: a viewer
// always sees the complete object.
//
// Entity ids come from an [IDAllocator]. The connection registry owns
// one allocator and shares it with every sink, so an id is unique
// across all objects the registry ever created and never changes for
// the life of its entity.
//
// A [Table] is the per-sink name -> Entity map. It is safe for
// concurrent use, because callers add primitives from their own
// goroutines while a sink worker may be publishing the same object.
package scene
