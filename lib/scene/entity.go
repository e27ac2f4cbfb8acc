// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import (
	"strconv"

	"github.com/bureau-foundation/telecap/lib/foxglove"
)

// Entity is one named 3D object. Not safe for concurrent use on its
// own; Table serializes access.
type Entity struct {
	id          uint64
	frameID     string
	frameLocked bool
	timestamp   uint64

	metadata  []foxglove.KeyValuePair
	arrows    []foxglove.ArrowPrimitive
	cubes     []foxglove.CubePrimitive
	spheres   []foxglove.SpherePrimitive
	cylinders []foxglove.CylinderPrimitive
	lines     []foxglove.LinePrimitive
	triangles []foxglove.TriangleListPrimitive
	texts     []foxglove.TextPrimitive
}

// NewEntity returns an empty entity with the given id.
func NewEntity(id uint64, frameID string, frameLocked bool) *Entity {
	return &Entity{id: id, frameID: frameID, frameLocked: frameLocked}
}

// ID returns the entity id.
func (e *Entity) ID() uint64 { return e.id }

// AddMetadata appends a key/value pair. Duplicate keys are kept.
func (e *Entity) AddMetadata(key, value string) {
	e.metadata = append(e.metadata, foxglove.KeyValuePair{Key: key, Value: value})
}

// Add appends a primitive.
func (e *Entity) Add(p Primitive) {
	p.addTo(e)
}

// SetTimestamp sets the time the entity is published at.
func (e *Entity) SetTimestamp(timestamp uint64) {
	e.timestamp = timestamp
}

// Update stamps the entity with timestamp and returns the scene update
// that replaces any earlier version of it: a deletion of the entity id
// followed by the full entity.
func (e *Entity) Update(timestamp uint64) foxglove.SceneUpdate {
	e.SetTimestamp(timestamp)
	stamp := foxglove.FromNanos(e.timestamp)
	id := strconv.FormatUint(e.id, 10)

	return foxglove.SceneUpdate{
		Deletions: []foxglove.SceneEntityDeletion{{
			Timestamp: stamp,
			Type:      foxglove.DeletionMatchingID,
			ID:        id,
		}},
		Entities: []foxglove.SceneEntity{{
			Timestamp:   stamp,
			FrameID:     e.frameID,
			ID:          id,
			FrameLocked: e.frameLocked,
			Metadata:    nonNil(e.metadata),
			Arrows:      nonNil(e.arrows),
			Cubes:       nonNil(e.cubes),
			Spheres:     nonNil(e.spheres),
			Cylinders:   nonNil(e.cylinders),
			Lines:       nonNil(e.lines),
			Triangles:   nonNil(e.triangles),
			Texts:       nonNil(e.texts),
			Models:      []foxglove.ModelPrimitive{},
		}},
	}
}
