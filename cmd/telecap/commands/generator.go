// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/registry"
	"github.com/bureau-foundation/telecap/lib/scene"
	"github.com/bureau-foundation/telecap/lib/sink"
)

// Channels written by the demo generator.
const (
	channelTransforms  = "tf"
	channelPath        = "robot/path"
	channelImage       = "camera/image"
	channelCalibration = "camera/calibration"
	channelAnnotations = "camera/annotations"
	channelIMU         = "sensors/imu"
	channelDiagnostics = "diagnostics"
	channelLog         = "log"

	objectRobot  = "robot"
	objectGround = "ground"
)

// generator produces a synthetic scene: a robot circling the world
// origin, seen by a fixed camera.
type generator struct {
	registry *registry.Registry
	target   registry.Target

	width, height int
	radius        float64

	// Angular step per frame, in radians.
	step float64

	frame int
}

func newGenerator(r *registry.Registry, target registry.Target, width, height int) *generator {
	return &generator{
		registry: r,
		target:   target,
		width:    width,
		height:   height,
		radius:   2,
		step:     0.05,
	}
}

// setup writes the static parts of the scene: the camera calibration
// and the ground grid, and builds the robot object.
func (g *generator) setup(timestamp uint64) error {
	var errs []error

	fx := float64(g.width) / 2
	cx, cy := float64(g.width)/2, float64(g.height)/2
	errs = append(errs, g.registry.WriteCameraCalibration(g.target, channelCalibration, sink.Calibration{
		Width:           uint32(g.width),
		Height:          uint32(g.height),
		DistortionModel: "plumb_bob",
		D:               []float64{0, 0, 0, 0, 0},
		K:               [9]float64{fx, 0, cx, 0, fx, cy, 0, 0, 1},
		R:               [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:               [12]float64{fx, 0, cx, 0, 0, fx, cy, 0, 0, 0, 1, 0},
	}, timestamp, "camera"))

	if _, err := g.registry.CreateObject(g.target, objectGround, "world", false); err != nil {
		errs = append(errs, err)
	}
	var grid []foxglove.Vector3
	for i := -5; i <= 5; i++ {
		grid = append(grid,
			foxglove.Vector3{X: float64(i), Y: -5}, foxglove.Vector3{X: float64(i), Y: 5},
			foxglove.Vector3{X: -5, Y: float64(i)}, foxglove.Vector3{X: 5, Y: float64(i)})
	}
	errs = append(errs,
		g.registry.AddPrimitive(g.target, objectGround, scene.Line{
			Type:      foxglove.LineList,
			Pose:      foxglove.Identity(),
			Thickness: 0.02,
			Points:    grid,
			Color:     &foxglove.Color{R: 0.5, G: 0.5, B: 0.5, A: 1},
		}),
		g.registry.AddPrimitive(g.target, objectGround, scene.Text{
			Pose:      foxglove.Translation(0, 0, 0.5),
			Billboard: true,
			FontSize:  0.3,
			Color:     &foxglove.Color{R: 1, G: 1, B: 1, A: 1},
			Text:      "origin",
		}),
		g.registry.AddMetadata(g.target, objectGround, "kind", "static"),
		g.registry.WriteObject(g.target, objectGround, timestamp),
	)

	if _, err := g.registry.CreateObject(g.target, objectRobot, "robot", true); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs,
		g.registry.AddPrimitive(g.target, objectRobot, scene.Cube{
			Pose:  foxglove.Translation(0, 0, 0.25),
			Size:  foxglove.Vector3{X: 0.6, Y: 0.4, Z: 0.5},
			Color: &foxglove.Color{R: 0.1, G: 0.4, B: 0.9, A: 1},
		}),
		g.registry.AddPrimitive(g.target, objectRobot, scene.Arrow{
			Pose:          foxglove.Translation(0, 0, 0.6),
			ShaftLength:   0.5,
			ShaftDiameter: 0.05,
			HeadLength:    0.15,
			HeadDiameter:  0.1,
			Color:         &foxglove.Color{R: 1, G: 0.3, A: 1},
		}),
		g.registry.AddMetadata(g.target, objectRobot, "kind", "robot"),
	)

	return errors.Join(errs...)
}

// emit writes one frame of every dynamic channel at timestamp.
func (g *generator) emit(timestamp uint64) error {
	frame := g.frame
	g.frame++

	angle := float64(frame) * g.step
	pose := foxglove.RotationZ(angle).Mul(foxglove.Translation(g.radius, 0, 0)).Mul(foxglove.RotationZ(math.Pi / 2))

	var errs []error
	errs = append(errs,
		g.registry.WriteFrameTransform(g.target, channelTransforms, "world", "robot", pose, timestamp),
		g.registry.AddPosition(g.target, channelPath, pose, timestamp, "world"),
		g.registry.WriteObject(g.target, objectRobot, timestamp),
	)

	img, column := g.render(angle)
	errs = append(errs,
		g.registry.WriteImage(g.target, channelImage, img, timestamp, "camera"),
		g.registry.WriteImageAnnotations(g.target, channelAnnotations, foxglove.ImageAnnotations{
			Circles: []foxglove.CircleAnnotation{{
				Position:     foxglove.Vector2{X: float64(column), Y: float64(g.height) / 2},
				Diameter:     float64(g.height) / 4,
				Thickness:    2,
				OutlineColor: foxglove.Color{R: 1, G: 1, A: 1},
			}},
			Texts: []foxglove.TextAnnotation{{
				Position:  foxglove.Vector2{X: 8, Y: 16},
				Text:      fmt.Sprintf("frame %d", frame),
				FontSize:  12,
				TextColor: foxglove.Color{R: 1, G: 1, B: 1, A: 1},
			}},
		}, timestamp),
	)

	sin, cos := math.Sincos(angle)
	sample := fmt.Sprintf(`{"frame":%d,"accel":{"x":%.4f,"y":%.4f,"z":9.81},"yaw":%.4f}`,
		frame, -cos*g.radius*g.step*g.step, -sin*g.radius*g.step*g.step, math.Mod(angle, 2*math.Pi))
	errs = append(errs,
		g.registry.PushSample(g.target, channelIMU, []byte(sample), timestamp),
		g.registry.WriteRawMessage(g.target, channelDiagnostics,
			fmt.Sprintf(`{"frame": %d, "status": "ok", "battery": %.3f}`, frame, batteryLevel(frame)), timestamp),
	)

	if frame%10 == 0 {
		errs = append(errs, g.registry.WriteLog(g.target, channelLog, sink.LogRecord{
			Timestamp: timestamp,
			Level:     foxglove.LogInfo,
			Message:   fmt.Sprintf("completed frame %d", frame),
			Name:      "demo",
		}))
	}

	return errors.Join(errs...)
}

// render draws a gradient with a bright vertical band tracking the
// robot's bearing and returns the band's column.
func (g *generator) render(angle float64) (*image.RGBA, int) {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	phase := math.Mod(angle, 2*math.Pi) / (2 * math.Pi)
	column := int(phase * float64(g.width-1))
	band := max(g.width/32, 2)

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := color.RGBA{
				R: uint8(x * 200 / max(g.width-1, 1)),
				G: uint8(y * 200 / max(g.height-1, 1)),
				B: 96,
				A: 255,
			}
			if x >= column-band && x <= column+band {
				c = color.RGBA{R: 255, G: 255, B: 240, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, column
}

func batteryLevel(frame int) float64 {
	return math.Max(0, 1-float64(frame)*0.0005)
}
