// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import "github.com/bureau-foundation/telecap/lib/foxglove"

// Primitive is one of Arrow, Cube, Sphere, Cylinder, Line, Triangle or
// Text. Poses are 4x4 transforms relative to the entity frame. A nil
// Color means foxglove.DefaultColor; a zero Color is transparent black.
type Primitive interface {
	addTo(*Entity)
}

// Arrow points along the +X axis of its pose.
type Arrow struct {
	Pose          foxglove.Matrix4
	ShaftLength   float64
	ShaftDiameter float64
	HeadLength    float64
	HeadDiameter  float64
	Color         *foxglove.Color
}

// Cube is a box of Size centred on its pose.
type Cube struct {
	Pose  foxglove.Matrix4
	Size  foxglove.Vector3
	Color *foxglove.Color
}

// Sphere is an ellipsoid of Size centred on its pose.
type Sphere struct {
	Pose  foxglove.Matrix4
	Size  foxglove.Vector3
	Color *foxglove.Color
}

// Cylinder is a cylinder or cone. BottomScale and TopScale multiply
// the radius at each end.
type Cylinder struct {
	Pose        foxglove.Matrix4
	Size        foxglove.Vector3
	BottomScale float64
	TopScale    float64
	Color       *foxglove.Color
}

// Line is a polyline. Colors, when set, has one entry per point and
// overrides Color; Indices, when set, selects points by position.
type Line struct {
	Type           foxglove.LineType
	Pose           foxglove.Matrix4
	Thickness      float64
	ScaleInvariant bool
	Points         []foxglove.Vector3
	Color          *foxglove.Color
	Colors         []foxglove.Color
	Indices        []uint32
}

// Triangle is a triangle list; every three points (or indices) form
// one triangle.
type Triangle struct {
	Pose    foxglove.Matrix4
	Points  []foxglove.Vector3
	Color   *foxglove.Color
	Colors  []foxglove.Color
	Indices []uint32
}

// Text is a label, optionally billboarded to face the viewer.
type Text struct {
	Pose           foxglove.Matrix4
	Billboard      bool
	FontSize       float64
	ScaleInvariant bool
	Color          *foxglove.Color
	Text           string
}

func color(c *foxglove.Color) foxglove.Color {
	if c == nil {
		return foxglove.DefaultColor
	}
	return *c
}

// nonNil keeps optional arrays serialized as [] rather than null.
func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return append([]T(nil), values...)
}

func (a Arrow) addTo(e *Entity) {
	e.arrows = append(e.arrows, foxglove.ArrowPrimitive{
		Pose:          a.Pose.Pose(),
		ShaftLength:   a.ShaftLength,
		ShaftDiameter: a.ShaftDiameter,
		HeadLength:    a.HeadLength,
		HeadDiameter:  a.HeadDiameter,
		Color:         color(a.Color),
	})
}

func (c Cube) addTo(e *Entity) {
	e.cubes = append(e.cubes, foxglove.CubePrimitive{
		Pose:  c.Pose.Pose(),
		Size:  c.Size,
		Color: color(c.Color),
	})
}

func (s Sphere) addTo(e *Entity) {
	e.spheres = append(e.spheres, foxglove.SpherePrimitive{
		Pose:  s.Pose.Pose(),
		Size:  s.Size,
		Color: color(s.Color),
	})
}

func (c Cylinder) addTo(e *Entity) {
	e.cylinders = append(e.cylinders, foxglove.CylinderPrimitive{
		Pose:        c.Pose.Pose(),
		Size:        c.Size,
		BottomScale: c.BottomScale,
		TopScale:    c.TopScale,
		Color:       color(c.Color),
	})
}

func (l Line) addTo(e *Entity) {
	e.lines = append(e.lines, foxglove.LinePrimitive{
		Type:           l.Type,
		Pose:           l.Pose.Pose(),
		Thickness:      l.Thickness,
		ScaleInvariant: l.ScaleInvariant,
		Points:         nonNil(l.Points),
		Color:          color(l.Color),
		Colors:         nonNil(l.Colors),
		Indices:        nonNil(l.Indices),
	})
}

func (t Triangle) addTo(e *Entity) {
	e.triangles = append(e.triangles, foxglove.TriangleListPrimitive{
		Pose:    t.Pose.Pose(),
		Points:  nonNil(t.Points),
		Color:   color(t.Color),
		Colors:  nonNil(t.Colors),
		Indices: nonNil(t.Indices),
	})
}

func (t Text) addTo(e *Entity) {
	e.texts = append(e.texts, foxglove.TextPrimitive{
		Pose:           t.Pose.Pose(),
		Billboard:      t.Billboard,
		FontSize:       t.FontSize,
		ScaleInvariant: t.ScaleInvariant,
		Color:          color(t.Color),
		Text:           t.Text,
	})
}
