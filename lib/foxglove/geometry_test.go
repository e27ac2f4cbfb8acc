// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package foxglove

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < tolerance }

func quaternionNear(a, b Quaternion) bool {
	// q and -q are the same rotation.
	same := near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z) && near(a.W, b.W)
	flipped := near(a.X, -b.X) && near(a.Y, -b.Y) && near(a.Z, -b.Z) && near(a.W, -b.W)
	return same || flipped
}

func rotationX(angle float64) Matrix4 {
	sin, cos := math.Sincos(angle)
	m := Identity()
	m[1][1], m[1][2] = cos, -sin
	m[2][1], m[2][2] = sin, cos
	return m
}

func rotationY(angle float64) Matrix4 {
	sin, cos := math.Sincos(angle)
	m := Identity()
	m[0][0], m[0][2] = cos, sin
	m[2][0], m[2][2] = -sin, cos
	return m
}

func TestIdentityPose(t *testing.T) {
	pose := Identity().Pose()
	if pose.Position != (Vector3{}) {
		t.Errorf("Position = %+v, want zero", pose.Position)
	}
	if pose.Orientation != (Quaternion{W: 1}) {
		t.Errorf("Orientation = %+v, want {0 0 0 1}", pose.Orientation)
	}
}

func TestTranslationColumn(t *testing.T) {
	pose := Translation(1, -2, 3.5).Pose()
	if pose.Position != (Vector3{X: 1, Y: -2, Z: 3.5}) {
		t.Errorf("Position = %+v", pose.Position)
	}
}

func TestOrientation(t *testing.T) {
	half := math.Sqrt(0.5)
	tests := []struct {
		name   string
		matrix Matrix4
		want   Quaternion
	}{
		{"z 90", RotationZ(math.Pi / 2), Quaternion{Z: half, W: half}},
		{"x 180", rotationX(math.Pi), Quaternion{X: 1}},
		{"y 180", rotationY(math.Pi), Quaternion{Y: 1}},
		{"z 180", RotationZ(math.Pi), Quaternion{Z: 1}},
		{"x 90", rotationX(math.Pi / 2), Quaternion{X: half, W: half}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.matrix.Orientation()
			if !quaternionNear(got, test.want) {
				t.Errorf("Orientation() = %+v, want %+v", got, test.want)
			}
		})
	}
}

// Rebuilding the rotation matrix from the quaternion must reproduce
// the input for arbitrary compositions, including the branches used
// when the trace is negative.
func TestOrientationReconstructsMatrix(t *testing.T) {
	for _, angles := range [][3]float64{
		{0.1, 0.2, 0.3},
		{math.Pi - 0.01, 0.5, -1.2},
		{-2.5, 3.0, 1.0},
		{math.Pi, math.Pi / 2, 0},
	} {
		m := rotationX(angles[0]).Mul(rotationY(angles[1])).Mul(RotationZ(angles[2]))
		q := m.Orientation()

		norm := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
		if !near(norm, 1) {
			t.Fatalf("angles %v: |q| = %v", angles, norm)
		}

		rebuilt := [3][3]float64{
			{1 - 2*(q.Y*q.Y+q.Z*q.Z), 2 * (q.X*q.Y - q.Z*q.W), 2 * (q.X*q.Z + q.Y*q.W)},
			{2 * (q.X*q.Y + q.Z*q.W), 1 - 2*(q.X*q.X+q.Z*q.Z), 2 * (q.Y*q.Z - q.X*q.W)},
			{2 * (q.X*q.Z - q.Y*q.W), 2 * (q.Y*q.Z + q.X*q.W), 1 - 2*(q.X*q.X+q.Y*q.Y)},
		}
		for row := 0; row < 3; row++ {
			for column := 0; column < 3; column++ {
				if math.Abs(rebuilt[row][column]-m[row][column]) > 1e-9 {
					t.Fatalf("angles %v: element [%d][%d] = %v, want %v",
						angles, row, column, rebuilt[row][column], m[row][column])
				}
			}
		}
	}
}

func TestFromNanos(t *testing.T) {
	tests := []struct {
		timestamp uint64
		want      Time
	}{
		{0, Time{}},
		{999_999_999, Time{Nsec: 999_999_999}},
		{1_000_000_000, Time{Sec: 1}},
		{1_767_225_600_123_456_789, Time{Sec: 1_767_225_600, Nsec: 123_456_789}},
	}
	for _, test := range tests {
		got := FromNanos(test.timestamp)
		if got != test.want {
			t.Errorf("FromNanos(%d) = %+v, want %+v", test.timestamp, got, test.want)
		}
		if got.Nanos() != test.timestamp {
			t.Errorf("Nanos() = %d, want %d", got.Nanos(), test.timestamp)
		}
	}
}

func TestFromNanosSaturates(t *testing.T) {
	latest := Time{Sec: math.MaxUint32, Nsec: 999_999_999}
	for _, timestamp := range []uint64{MaxNanos, MaxNanos + 1, math.MaxUint64} {
		if got := FromNanos(timestamp); got != latest {
			t.Errorf("FromNanos(%d) = %+v, want %+v", timestamp, got, latest)
		}
	}
	if latest.Nanos() != MaxNanos {
		t.Errorf("Nanos() = %d, want %d", latest.Nanos(), uint64(MaxNanos))
	}
}

func TestLogLevelString(t *testing.T) {
	if LogWarning.String() != "WARNING" {
		t.Errorf("LogWarning = %q", LogWarning.String())
	}
	if LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("out of range level = %q", LogLevel(42).String())
	}
	if LogFatal != 5 {
		t.Errorf("LogFatal = %d, want 5", LogFatal)
	}
}
