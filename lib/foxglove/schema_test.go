// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package foxglove

import (
	"encoding/json"
	"testing"

	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

func compile(t *testing.T, name string) *validator.Schema {
	t.Helper()
	data, err := Schema(name)
	if err != nil {
		t.Fatalf("Schema(%q): %v", name, err)
	}
	compiled, err := validator.CompileString(name+".json", string(data))
	if err != nil {
		t.Fatalf("compiling %s: %v\n%s", name, err, data)
	}
	return compiled
}

func validate(t *testing.T, schema *validator.Schema, message any) {
	t.Helper()
	data, err := json.Marshal(message)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := schema.Validate(document); err != nil {
		t.Fatalf("message does not validate: %v\n%s", err, data)
	}
}

func TestSchemasCompileWithTitles(t *testing.T) {
	for _, name := range SchemaNames() {
		compile(t, name)

		data, _ := Schema(name)
		var header struct {
			Title string `json:"title"`
			Type  string `json:"type"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if header.Title != name || header.Type != "object" {
			t.Errorf("%s: title=%q type=%q", name, header.Title, header.Type)
		}
	}
}

func TestSchemaUnknownName(t *testing.T) {
	if _, err := Schema("foxglove.Nothing"); err == nil {
		t.Fatal("expected error for unknown schema")
	}
}

func TestMessagesValidateAgainstSchemas(t *testing.T) {
	stamp := FromNanos(1_767_225_600_000_000_042)
	pose := Translation(1, 2, 3).Pose()

	validate(t, compile(t, LogSchema), Log{
		Timestamp: stamp, Level: LogInfo, Message: "hello", Name: "test", File: "main.go", Line: 12,
	})
	validate(t, compile(t, FrameTransformsSchema), FrameTransforms{
		Transforms: []FrameTransform{{Timestamp: stamp, ChildFrameID: "camera", Rotation: Quaternion{W: 1}}},
	})
	validate(t, compile(t, PosesInFrameSchema), PosesInFrame{
		Timestamp: stamp, FrameID: "world", Poses: []Pose{pose, pose},
	})
	validate(t, compile(t, CompressedImageSchema), CompressedImage{
		Timestamp: stamp, FrameID: "camera", Data: []byte{0xff, 0xd8}, Format: "jpeg",
	})
	validate(t, compile(t, CameraCalibrationSchema), CameraCalibration{
		Timestamp: stamp, FrameID: "camera", Width: 640, Height: 480,
		DistortionModel: "plumb_bob", D: []float64{0, 0, 0, 0, 0},
	})
	validate(t, compile(t, SceneUpdateSchema), SceneUpdate{
		Deletions: []SceneEntityDeletion{{Timestamp: stamp, ID: "1"}},
		Entities: []SceneEntity{{
			Timestamp: stamp, FrameID: "world", ID: "1",
			Metadata:  []KeyValuePair{{Key: "k", Value: "v"}},
			Arrows:    []ArrowPrimitive{},
			Cubes:     []CubePrimitive{{Pose: pose, Size: Vector3{1, 1, 1}, Color: DefaultColor}},
			Spheres:   []SpherePrimitive{},
			Cylinders: []CylinderPrimitive{},
			Lines: []LinePrimitive{{
				Pose: pose, Points: []Vector3{{}, {X: 1}}, Color: DefaultColor,
				Colors: []Color{}, Indices: []uint32{},
			}},
			Triangles: []TriangleListPrimitive{},
			Texts:     []TextPrimitive{},
			Models:    []ModelPrimitive{},
		}},
	})
	validate(t, compile(t, ImageAnnotationsSchema), ImageAnnotations{
		Circles: []CircleAnnotation{{Timestamp: stamp, Position: Vector2{10, 10}, Diameter: 4}},
		Points: []PointsAnnotation{{
			Timestamp: stamp, Type: PointsLineLoop, Points: []Vector2{{0, 0}, {5, 5}},
			OutlineColors: []Color{},
		}},
		Texts: []TextAnnotation{},
	})
}
