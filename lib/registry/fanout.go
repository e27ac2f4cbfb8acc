// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"image"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/scene"
	"github.com/bureau-foundation/telecap/lib/sink"
)

// CreateSchema registers channel with an explicit schema on each sink.
func (r *Registry) CreateSchema(t Target, channel string, definition catalog.Definition) error {
	return r.each(t, func(s sink.Sink) error { return s.CreateSchema(channel, definition) })
}

// PushSample queues a JSON object on channel.
func (r *Registry) PushSample(t Target, channel string, sample []byte, timestamp uint64) error {
	return r.each(t, func(s sink.Sink) error { return s.PushSample(channel, sample, timestamp) })
}

// WriteImage queues an image for JPEG encoding on each sink. img must
// not be modified after the call.
func (r *Registry) WriteImage(t Target, channel string, img image.Image, timestamp uint64, frameID string) error {
	return r.each(t, func(s sink.Sink) error { return s.WriteImage(channel, img, timestamp, frameID) })
}

// WriteCameraCalibration queues camera intrinsics on each sink.
func (r *Registry) WriteCameraCalibration(t Target, channel string, calibration sink.Calibration, timestamp uint64, frameID string) error {
	return r.each(t, func(s sink.Sink) error {
		return s.WriteCameraCalibration(channel, calibration, timestamp, frameID)
	})
}

// WriteRawMessage queues JSON object text on each sink.
func (r *Registry) WriteRawMessage(t Target, channel, text string, timestamp uint64) error {
	return r.each(t, func(s sink.Sink) error { return s.WriteRawMessage(channel, text, timestamp) })
}

// WriteLog queues a log record on each sink.
func (r *Registry) WriteLog(t Target, channel string, record sink.LogRecord) error {
	return r.each(t, func(s sink.Sink) error { return s.WriteLog(channel, record) })
}

// WriteFrameTransform publishes the pose of child relative to parent
// on each sink.
func (r *Registry) WriteFrameTransform(t Target, channel, parent, child string, pose foxglove.Matrix4, timestamp uint64) error {
	return r.each(t, func(s sink.Sink) error {
		return s.WriteFrameTransform(channel, parent, child, pose, timestamp)
	})
}

// WriteImageAnnotations publishes image overlays on each sink.
func (r *Registry) WriteImageAnnotations(t Target, channel string, annotations foxglove.ImageAnnotations, timestamp uint64) error {
	return r.each(t, func(s sink.Sink) error { return s.WriteImageAnnotations(channel, annotations, timestamp) })
}

// CreateObject starts object name on each sink and returns the id each
// sink assigned, keyed by connection name.
func (r *Registry) CreateObject(t Target, name, frameID string, frameLocked bool) (map[string]uint64, error) {
	ids := make(map[string]uint64)
	err := r.each(t, func(s sink.Sink) error {
		ids[s.Name()] = s.CreateObject(name, frameID, frameLocked)
		return nil
	})
	return ids, err
}

// AddMetadata attaches a key/value pair to object on each sink.
func (r *Registry) AddMetadata(t Target, object, key, value string) error {
	return r.each(t, func(s sink.Sink) error { return s.AddMetadata(object, key, value) })
}

// AddPrimitive appends an arrow, cube, sphere, cylinder, line,
// triangle list or text to object on each sink.
func (r *Registry) AddPrimitive(t Target, object string, primitive scene.Primitive) error {
	return r.each(t, func(s sink.Sink) error { return s.AddPrimitive(object, primitive) })
}

// WriteObject publishes object on each sink. Sinks where the object
// was never created report sink.ErrUnknownObject; the rest still
// publish.
func (r *Registry) WriteObject(t Target, object string, timestamp uint64) error {
	return r.each(t, func(s sink.Sink) error { return s.WriteObject(object, timestamp) })
}

// AddPosition appends pose to the track on channel in each sink and
// publishes the retained poses.
func (r *Registry) AddPosition(t Target, channel string, pose foxglove.Matrix4, timestamp uint64, frameID string) error {
	return r.each(t, func(s sink.Sink) error { return s.AddPosition(channel, pose, timestamp, frameID) })
}
