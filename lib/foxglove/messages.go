// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package foxglove

// CompressedImage carries one encoded image frame.
type CompressedImage struct {
	Timestamp Time   `json:"timestamp"`
	FrameID   string `json:"frame_id"`
	Data      []byte `json:"data"`
	Format    string `json:"format"`
}

// CameraCalibration describes the intrinsics of a camera.
//
// D holds the distortion coefficients for DistortionModel; K is the
// 3x3 intrinsic matrix, R the 3x3 rectification matrix and P the 3x4
// projection matrix, all row-major.
type CameraCalibration struct {
	Timestamp       Time        `json:"timestamp"`
	FrameID         string      `json:"frame_id"`
	Width           uint32      `json:"width"`
	Height          uint32      `json:"height"`
	DistortionModel string      `json:"distortion_model"`
	D               []float64   `json:"D"`
	K               [9]float64  `json:"K"`
	R               [9]float64  `json:"R"`
	P               [12]float64 `json:"P"`
}

// LogLevel is the severity of a Log record.
type LogLevel uint8

const (
	LogUnknown LogLevel = iota
	LogDebug
	LogInfo
	LogWarning
	LogError
	LogFatal
)

var logLevelNames = [...]string{"UNKNOWN", "DEBUG", "INFO", "WARNING", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if int(l) < len(logLevelNames) {
		return logLevelNames[l]
	}
	return "UNKNOWN"
}

// Log is a single log record.
type Log struct {
	Timestamp Time     `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Line      uint32   `json:"line"`
}

// FrameTransform places ChildFrameID relative to ParentFrameID.
type FrameTransform struct {
	Timestamp     Time       `json:"timestamp"`
	ParentFrameID string     `json:"parent_frame_id,omitempty"`
	ChildFrameID  string     `json:"child_frame_id,omitempty"`
	Translation   Vector3    `json:"translation"`
	Rotation      Quaternion `json:"rotation"`
}

// FrameTransforms is a batch of transforms.
type FrameTransforms struct {
	Transforms []FrameTransform `json:"transforms"`
}

// PosesInFrame is a pose track expressed in FrameID.
type PosesInFrame struct {
	Timestamp Time   `json:"timestamp"`
	FrameID   string `json:"frame_id"`
	Poses     []Pose `json:"poses"`
}

// KeyValuePair is one entry of entity metadata.
type KeyValuePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ArrowPrimitive points along the +X axis of its pose.
type ArrowPrimitive struct {
	Pose          Pose    `json:"pose"`
	ShaftLength   float64 `json:"shaft_length"`
	ShaftDiameter float64 `json:"shaft_diameter"`
	HeadLength    float64 `json:"head_length"`
	HeadDiameter  float64 `json:"head_diameter"`
	Color         Color   `json:"color"`
}

// CubePrimitive is a box of Size centred on its pose.
type CubePrimitive struct {
	Pose  Pose    `json:"pose"`
	Size  Vector3 `json:"size"`
	Color Color   `json:"color"`
}

// SpherePrimitive is an ellipsoid of Size centred on its pose.
type SpherePrimitive struct {
	Pose  Pose    `json:"pose"`
	Size  Vector3 `json:"size"`
	Color Color   `json:"color"`
}

// CylinderPrimitive is a cylinder or cone; the scales multiply the
// radius at each end.
type CylinderPrimitive struct {
	Pose        Pose    `json:"pose"`
	Size        Vector3 `json:"size"`
	BottomScale float64 `json:"bottom_scale"`
	TopScale    float64 `json:"top_scale"`
	Color       Color   `json:"color"`
}

// LineType selects how line points are joined.
type LineType uint8

const (
	LineStrip LineType = iota
	LineLoop
	LineList
)

// LinePrimitive draws connected or disjoint segments. Colors, when
// non-empty, gives one color per point and overrides Color. Indices,
// when non-empty, selects points by index.
type LinePrimitive struct {
	Type           LineType  `json:"type"`
	Pose           Pose      `json:"pose"`
	Thickness      float64   `json:"thickness"`
	ScaleInvariant bool      `json:"scale_invariant"`
	Points         []Vector3 `json:"points"`
	Color          Color     `json:"color"`
	Colors         []Color   `json:"colors"`
	Indices        []uint32  `json:"indices"`
}

// TriangleListPrimitive draws one triangle per three points (or
// indices). Colors and Indices behave as in LinePrimitive.
type TriangleListPrimitive struct {
	Pose    Pose      `json:"pose"`
	Points  []Vector3 `json:"points"`
	Color   Color     `json:"color"`
	Colors  []Color   `json:"colors"`
	Indices []uint32  `json:"indices"`
}

// TextPrimitive is a text label.
type TextPrimitive struct {
	Pose           Pose    `json:"pose"`
	Billboard      bool    `json:"billboard"`
	FontSize       float64 `json:"font_size"`
	ScaleInvariant bool    `json:"scale_invariant"`
	Color          Color   `json:"color"`
	Text           string  `json:"text"`
}

// ModelPrimitive references a 3D model by URL or inline data.
type ModelPrimitive struct {
	Pose          Pose    `json:"pose"`
	Scale         Vector3 `json:"scale"`
	Color         Color   `json:"color"`
	OverrideColor bool    `json:"override_color"`
	URL           string  `json:"url"`
	MediaType     string  `json:"media_type"`
	Data          []byte  `json:"data"`
}

// SceneEntity is a named collection of primitives sharing one frame.
type SceneEntity struct {
	Timestamp   Time                    `json:"timestamp"`
	FrameID     string                  `json:"frame_id"`
	ID          string                  `json:"id"`
	Lifetime    Duration                `json:"lifetime"`
	FrameLocked bool                    `json:"frame_locked"`
	Metadata    []KeyValuePair          `json:"metadata"`
	Arrows      []ArrowPrimitive        `json:"arrows"`
	Cubes       []CubePrimitive         `json:"cubes"`
	Spheres     []SpherePrimitive       `json:"spheres"`
	Cylinders   []CylinderPrimitive     `json:"cylinders"`
	Lines       []LinePrimitive         `json:"lines"`
	Triangles   []TriangleListPrimitive `json:"triangles"`
	Texts       []TextPrimitive         `json:"texts"`
	Models      []ModelPrimitive        `json:"models"`
}

// DeletionMatchingID removes the entity whose id equals ID.
const DeletionMatchingID uint8 = 0

// SceneEntityDeletion removes previously published entities.
type SceneEntityDeletion struct {
	Timestamp Time   `json:"timestamp"`
	Type      uint8  `json:"type"`
	ID        string `json:"id"`
}

// SceneUpdate deletes and then inserts entities.
type SceneUpdate struct {
	Deletions []SceneEntityDeletion `json:"deletions"`
	Entities  []SceneEntity         `json:"entities"`
}

// CircleAnnotation is a circle drawn over an image.
type CircleAnnotation struct {
	Timestamp    Time    `json:"timestamp"`
	Position     Vector2 `json:"position"`
	Diameter     float64 `json:"diameter"`
	Thickness    float64 `json:"thickness"`
	FillColor    Color   `json:"fill_color"`
	OutlineColor Color   `json:"outline_color"`
}

// PointsType selects how a PointsAnnotation is drawn.
type PointsType uint8

const (
	PointsUnknown PointsType = iota
	PointsPoints
	PointsLineLoop
	PointsLineStrip
	PointsLineList
)

// PointsAnnotation is a set of points or a polyline drawn over an
// image.
type PointsAnnotation struct {
	Timestamp     Time       `json:"timestamp"`
	Type          PointsType `json:"type"`
	Points        []Vector2  `json:"points"`
	OutlineColor  Color      `json:"outline_color"`
	OutlineColors []Color    `json:"outline_colors"`
	FillColor     Color      `json:"fill_color"`
	Thickness     float64    `json:"thickness"`
}

// TextAnnotation is text drawn over an image.
type TextAnnotation struct {
	Timestamp       Time    `json:"timestamp"`
	Position        Vector2 `json:"position"`
	Text            string  `json:"text"`
	FontSize        float64 `json:"font_size"`
	TextColor       Color   `json:"text_color"`
	BackgroundColor Color   `json:"background_color"`
}

// ImageAnnotations groups the overlays for one image.
type ImageAnnotations struct {
	Circles []CircleAnnotation `json:"circles"`
	Points  []PointsAnnotation `json:"points"`
	Texts   []TextAnnotation   `json:"texts"`
}
