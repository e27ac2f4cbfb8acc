// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package foxglove

import "math"

// Vector2 is a 2D point or vector, in pixels for image annotations.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector3 is a 3D point or vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a rotation in x, y, z, w order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is a position and orientation.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Color is RGBA with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Opaque black, the color used when a caller supplies none.
var DefaultColor = Color{A: 1}

// Matrix4 is a row-major 4x4 homogeneous transform: m[row][column].
// The top-left 3x3 block is the rotation and the last column holds
// the translation.
type Matrix4 [4][4]float64

// Identity returns the identity transform.
func Identity() Matrix4 {
	return Matrix4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translation returns a pure translation.
func Translation(x, y, z float64) Matrix4 {
	m := Identity()
	m[0][3], m[1][3], m[2][3] = x, y, z
	return m
}

// RotationZ returns a rotation of angle radians about the Z axis.
func RotationZ(angle float64) Matrix4 {
	sin, cos := math.Sincos(angle)
	m := Identity()
	m[0][0], m[0][1] = cos, -sin
	m[1][0], m[1][1] = sin, cos
	return m
}

// Mul returns m * other.
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var result Matrix4
	for row := 0; row < 4; row++ {
		for column := 0; column < 4; column++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row][k] * other[k][column]
			}
			result[row][column] = sum
		}
	}
	return result
}

// Position returns the translation column.
func (m Matrix4) Position() Vector3 {
	return Vector3{X: m[0][3], Y: m[1][3], Z: m[2][3]}
}

// Orientation converts the rotation block to a unit quaternion. The
// block is assumed orthonormal; scale is not removed.
func (m Matrix4) Orientation() Quaternion {
	trace := m[0][0] + m[1][1] + m[2][2]
	if trace > 0 {
		s := math.Sqrt(trace+1) * 2
		return Quaternion{
			X: (m[2][1] - m[1][2]) / s,
			Y: (m[0][2] - m[2][0]) / s,
			Z: (m[1][0] - m[0][1]) / s,
			W: s / 4,
		}
	}

	// Pivot on the largest diagonal element for stability when the
	// rotation is close to 180 degrees.
	i := 0
	if m[1][1] > m[0][0] {
		i = 1
	}
	if m[2][2] > m[i][i] {
		i = 2
	}
	j := (i + 1) % 3
	k := (j + 1) % 3

	s := math.Sqrt(m[i][i]-m[j][j]-m[k][k]+1) * 2
	var q [3]float64
	q[i] = s / 4
	q[j] = (m[j][i] + m[i][j]) / s
	q[k] = (m[k][i] + m[i][k]) / s
	return Quaternion{X: q[0], Y: q[1], Z: q[2], W: (m[k][j] - m[j][k]) / s}
}

// Pose returns the position and orientation encoded by m.
func (m Matrix4) Pose() Pose {
	return Pose{Position: m.Position(), Orientation: m.Orientation()}
}
