// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package foxglove

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
)

// Schema names. The reader classifies channels by these.
const (
	CompressedImageSchema   = "foxglove.CompressedImage"
	CameraCalibrationSchema = "foxglove.CameraCalibration"
	LogSchema               = "foxglove.Log"
	FrameTransformsSchema   = "foxglove.FrameTransforms"
	PosesInFrameSchema      = "foxglove.PosesInFrame"
	SceneUpdateSchema       = "foxglove.SceneUpdate"
	ImageAnnotationsSchema  = "foxglove.ImageAnnotations"
)

var wellKnown = map[string]struct {
	prototype   any
	description string
}{
	CompressedImageSchema:   {CompressedImage{}, "A compressed image"},
	CameraCalibrationSchema: {CameraCalibration{}, "Camera calibration parameters"},
	LogSchema:               {Log{}, "A log message"},
	FrameTransformsSchema:   {FrameTransforms{}, "An array of FrameTransform messages"},
	PosesInFrameSchema:      {PosesInFrame{}, "An array of timestamped poses for an object or reference frame in 3D space"},
	SceneUpdateSchema:       {SceneUpdate{}, "An update to the entities displayed in a 3D scene"},
	ImageAnnotationsSchema:  {ImageAnnotations{}, "Array of annotations for a 2D image"},
}

var (
	schemaOnce  sync.Once
	schemaCache map[string][]byte
	schemaErr   error
)

// Schema returns the JSON Schema document for a well-known message
// name. The documents are generated once from the message structs.
func Schema(name string) ([]byte, error) {
	schemaOnce.Do(func() {
		schemaCache = make(map[string][]byte, len(wellKnown))
		for schemaName, entry := range wellKnown {
			data, err := generate(schemaName, entry.description, entry.prototype)
			if err != nil {
				schemaErr = fmt.Errorf("generating %s: %w", schemaName, err)
				return
			}
			schemaCache[schemaName] = data
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	data, ok := schemaCache[name]
	if !ok {
		return nil, fmt.Errorf("unknown foxglove schema %q", name)
	}
	return data, nil
}

// SchemaNames lists the well-known schema names.
func SchemaNames() []string {
	names := make([]string, 0, len(wellKnown))
	for name := range wellKnown {
		names = append(names, name)
	}
	return names
}

func generate(name, description string, prototype any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	document := reflector.Reflect(prototype)
	document.ID = ""
	document.Title = name
	document.Description = description
	return json.Marshal(document)
}
