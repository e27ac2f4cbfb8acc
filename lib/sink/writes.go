// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"

	"github.com/tidwall/gjson"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/scene"
)

// explicit registers channel with the well-known schemaName, or
// confirms it already has that schema. A channel registered with any
// other schema fails with catalog.ErrConflict.
func (p *pipeline) explicit(channel, schemaName string) (catalog.Entry, error) {
	if !p.IsOpen() {
		return catalog.Entry{}, ErrClosed
	}
	data, err := foxglove.Schema(schemaName)
	if err != nil {
		return catalog.Entry{}, err
	}
	entry, err := p.catalog.Ensure(channel, catalog.NewDefinition(schemaName, data))
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("writing %s: %w", schemaName, err)
	}
	return entry, nil
}

// inferred registers channel with a schema inferred from sample unless
// the channel already exists.
func (p *pipeline) inferred(channel string, sample []byte) (catalog.Entry, error) {
	entry, err := p.catalog.EnsureInferred(channel, sample)
	if err != nil {
		p.drop(channel, "schema", err)
		return catalog.Entry{}, err
	}
	return entry, nil
}

// pushDocument marshals a foxglove message and queues it.
func (p *pipeline) pushDocument(entry catalog.Entry, timestamp uint64, document any) error {
	payload, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encoding %s for channel %q: %w", entry.Definition.Name, entry.Channel, err)
	}
	return p.enqueue(item{channel: entry.Channel, channelID: entry.ChannelID, timestamp: timestamp, payload: payload})
}

// checkObject validates a sample or raw message and counts a drop when
// it is not a JSON object.
func (p *pipeline) checkObject(channel string, data []byte) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		err := fmt.Errorf("%w: channel %q expects a JSON object", ErrMalformedJSON, channel)
		p.drop(channel, "malformed", err)
		return err
	}
	return nil
}

// CreateSchema registers channel with definition immediately.
func (p *pipeline) CreateSchema(channel string, definition catalog.Definition) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	if err := definition.Compile(); err != nil {
		return err
	}
	_, err := p.catalog.Ensure(channel, definition)
	return err
}

// IsSchemaPresent reports whether channel has been registered.
func (p *pipeline) IsSchemaPresent(channel string) bool {
	return p.catalog.Has(channel)
}

// PushSample queues sample, a JSON object, on channel.
func (p *pipeline) PushSample(channel string, sample []byte, timestamp uint64) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	if err := p.checkObject(channel, sample); err != nil {
		return err
	}
	entry, err := p.inferred(channel, sample)
	if err != nil {
		return err
	}
	payload := bytes.Clone(sample)
	return p.enqueue(item{channel: channel, channelID: entry.ChannelID, timestamp: timestamp, payload: payload})
}

// WriteRawMessage queues JSON text on channel. The text is checked
// here and compacted on the worker.
func (p *pipeline) WriteRawMessage(channel, text string, timestamp uint64) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	if err := p.checkObject(channel, []byte(text)); err != nil {
		return err
	}
	entry, err := p.inferred(channel, []byte(text))
	if err != nil {
		return err
	}
	return p.enqueueStaged(staged{
		channel: channel,
		kind:    "raw",
		convert: func() (item, error) {
			var compacted bytes.Buffer
			if err := json.Compact(&compacted, []byte(text)); err != nil {
				return item{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
			}
			return item{channel: channel, channelID: entry.ChannelID, timestamp: timestamp, payload: compacted.Bytes()}, nil
		},
	})
}

// WriteImage queues img for JPEG encoding on the worker.
func (p *pipeline) WriteImage(channel string, img image.Image, timestamp uint64, frameID string) error {
	if img == nil {
		return fmt.Errorf("channel %q: nil image", channel)
	}
	entry, err := p.explicit(channel, foxglove.CompressedImageSchema)
	if err != nil {
		return err
	}
	quality, maxWidth := p.options.ImageQuality, p.options.MaxImageWidth
	return p.enqueueStaged(staged{
		channel: channel,
		kind:    "image",
		convert: func() (item, error) {
			encoded, err := encodeJPEG(img, quality, maxWidth)
			if err != nil {
				return item{}, err
			}
			payload, err := json.Marshal(foxglove.CompressedImage{
				Timestamp: foxglove.FromNanos(timestamp),
				FrameID:   frameID,
				Data:      encoded,
				Format:    "jpeg",
			})
			if err != nil {
				return item{}, err
			}
			return item{channel: channel, timestamp: timestamp, payload: payload, channelID: entry.ChannelID}, nil
		},
	})
}

// WriteCameraCalibration queues camera intrinsics on channel.
func (p *pipeline) WriteCameraCalibration(channel string, calibration Calibration, timestamp uint64, frameID string) error {
	entry, err := p.explicit(channel, foxglove.CameraCalibrationSchema)
	if err != nil {
		return err
	}
	return p.enqueueStaged(staged{
		channel: channel,
		kind:    "calibration",
		convert: func() (item, error) {
			distortion := calibration.D
			if distortion == nil {
				distortion = []float64{}
			}
			payload, err := json.Marshal(foxglove.CameraCalibration{
				Timestamp:       foxglove.FromNanos(timestamp),
				FrameID:         frameID,
				Width:           calibration.Width,
				Height:          calibration.Height,
				DistortionModel: calibration.DistortionModel,
				D:               distortion,
				K:               calibration.K,
				R:               calibration.R,
				P:               calibration.P,
			})
			if err != nil {
				return item{}, err
			}
			return item{channel: channel, timestamp: timestamp, payload: payload, channelID: entry.ChannelID}, nil
		},
	})
}

// WriteLog queues a log record on channel, stamped with the record's
// own timestamp.
func (p *pipeline) WriteLog(channel string, record LogRecord) error {
	entry, err := p.explicit(channel, foxglove.LogSchema)
	if err != nil {
		return err
	}
	return p.enqueueStaged(staged{
		channel: channel,
		kind:    "log",
		convert: func() (item, error) {
			payload, err := json.Marshal(foxglove.Log{
				Timestamp: foxglove.FromNanos(record.Timestamp),
				Level:     record.Level,
				Message:   record.Message,
				Name:      record.Name,
				File:      record.File,
				Line:      record.Line,
			})
			if err != nil {
				return item{}, err
			}
			return item{channel: channel, timestamp: record.Timestamp, payload: payload, channelID: entry.ChannelID}, nil
		},
	})
}

// WriteFrameTransform publishes one transform of child relative to
// parent. Empty frame names are left out of the message.
func (p *pipeline) WriteFrameTransform(channel, parent, child string, pose foxglove.Matrix4, timestamp uint64) error {
	entry, err := p.explicit(channel, foxglove.FrameTransformsSchema)
	if err != nil {
		return err
	}
	return p.pushDocument(entry, timestamp, foxglove.FrameTransforms{
		Transforms: []foxglove.FrameTransform{{
			Timestamp:     foxglove.FromNanos(timestamp),
			ParentFrameID: parent,
			ChildFrameID:  child,
			Translation:   pose.Position(),
			Rotation:      pose.Orientation(),
		}},
	})
}

// WriteImageAnnotations publishes overlays for the image at timestamp.
// Every annotation is stamped with timestamp.
func (p *pipeline) WriteImageAnnotations(channel string, annotations foxglove.ImageAnnotations, timestamp uint64) error {
	entry, err := p.explicit(channel, foxglove.ImageAnnotationsSchema)
	if err != nil {
		return err
	}
	return p.pushDocument(entry, timestamp, stampAnnotations(annotations, timestamp))
}

func stampAnnotations(in foxglove.ImageAnnotations, timestamp uint64) foxglove.ImageAnnotations {
	stamp := foxglove.FromNanos(timestamp)
	out := foxglove.ImageAnnotations{
		Circles: make([]foxglove.CircleAnnotation, len(in.Circles)),
		Points:  make([]foxglove.PointsAnnotation, len(in.Points)),
		Texts:   make([]foxglove.TextAnnotation, len(in.Texts)),
	}
	for i, circle := range in.Circles {
		circle.Timestamp = stamp
		out.Circles[i] = circle
	}
	for i, points := range in.Points {
		points.Timestamp = stamp
		if points.Points == nil {
			points.Points = []foxglove.Vector2{}
		}
		if points.OutlineColors == nil {
			points.OutlineColors = []foxglove.Color{}
		}
		out.Points[i] = points
	}
	for i, text := range in.Texts {
		text.Timestamp = stamp
		out.Texts[i] = text
	}
	return out
}

// CreateObject starts a 3D object, discarding any earlier object of
// the same name, and returns its id.
func (p *pipeline) CreateObject(name, frameID string, frameLocked bool) uint64 {
	return p.objects.Create(name, frameID, frameLocked)
}

// AddMetadata attaches a key/value pair to object.
func (p *pipeline) AddMetadata(object, key, value string) error {
	if err := p.objects.AddMetadata(object, key, value); err != nil {
		return fmt.Errorf("%w: %q", err, object)
	}
	return nil
}

// AddPrimitive appends a primitive to object.
func (p *pipeline) AddPrimitive(object string, primitive scene.Primitive) error {
	if err := p.objects.Add(object, primitive); err != nil {
		return fmt.Errorf("%w: %q", err, object)
	}
	return nil
}

// WriteObject publishes object on the channel of the same name.
func (p *pipeline) WriteObject(object string, timestamp uint64) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	update, err := p.objects.Update(object, timestamp)
	if err != nil {
		return fmt.Errorf("%w: %q", err, object)
	}
	entry, err := p.explicit(object, foxglove.SceneUpdateSchema)
	if err != nil {
		return err
	}
	return p.pushDocument(entry, timestamp, update)
}

// AddPosition appends pose to the track on channel and publishes the
// retained poses.
func (p *pipeline) AddPosition(channel string, pose foxglove.Matrix4, timestamp uint64, frameID string) error {
	if !p.IsOpen() {
		return ErrClosed
	}
	entry, err := p.explicit(channel, foxglove.PosesInFrameSchema)
	if err != nil {
		return err
	}

	p.positionsMu.Lock()
	track := append(p.positions[channel], pose.Pose())
	if limit := p.options.PositionHistory; limit > 0 && len(track) > limit {
		track = append(track[:0:0], track[len(track)-limit:]...)
	}
	p.positions[channel] = track
	poses := append([]foxglove.Pose(nil), track...)
	p.positionsMu.Unlock()

	return p.pushDocument(entry, timestamp, foxglove.PosesInFrame{
		Timestamp: foxglove.FromNanos(timestamp),
		FrameID:   frameID,
		Poses:     poses,
	})
}
