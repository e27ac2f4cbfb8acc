// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Reserved sample fields that carry schema annotations.
const (
	DescriptionField = "__private_foxglove_description__"
	CommentField     = "__private_foxglove_comment__"
)

const (
	defaultDescription = "Generated by wrapper based on provided JSON"
	propertyComment    = "Generated by wrapper"
)

var (
	// ErrMalformed is returned when a sample is not valid JSON.
	ErrMalformed = errors.New("malformed JSON sample")

	// ErrNotObject is returned when a sample is valid JSON but not an
	// object.
	ErrNotObject = errors.New("JSON sample is not an object")
)

// Infer derives a shallow JSON Schema for channel from one sample.
// Strings, booleans and numbers map to their JSON Schema types and
// objects recurse; arrays and nulls are left untyped. The schema is a
// best-effort description for generic viewers, not a validator.
func Infer(channel string, sample []byte) (Definition, error) {
	if !gjson.ValidBytes(sample) {
		return Definition{}, ErrMalformed
	}
	root := gjson.ParseBytes(sample)
	if !root.IsObject() {
		return Definition{}, ErrNotObject
	}

	description := defaultDescription
	if value := root.Get(DescriptionField); value.Exists() {
		description = value.String()
	}
	comment := ""
	if value := root.Get(CommentField); value.Exists() {
		comment = value.String()
	}

	data, err := json.Marshal(map[string]any{
		"title":       channel,
		"description": description,
		"$comment":    comment,
		"type":        "object",
		"properties":  properties(root),
	})
	if err != nil {
		return Definition{}, err
	}
	return NewDefinition(channel, data), nil
}

func properties(object gjson.Result) map[string]any {
	result := make(map[string]any)
	object.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			result[key.String()] = property("string")
		case value.Type == gjson.True || value.Type == gjson.False:
			result[key.String()] = property("boolean")
		case value.Type == gjson.Number:
			result[key.String()] = property("number")
		case value.IsObject():
			nested := property("object")
			nested["properties"] = properties(value)
			result[key.String()] = nested
		}
		return true
	})
	return result
}

func property(kind string) map[string]any {
	return map[string]any{"type": kind, "comment": propertyComment}
}
