// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FromJSON transcodes a JSON document to CBOR. Integral numbers become
// CBOR integers and everything else follows the obvious mapping.
func FromJSON(data []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var document any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	encoded, err := Marshal(normalizeNumbers(document))
	if err != nil {
		return nil, fmt.Errorf("encoding CBOR: %w", err)
	}
	return encoded, nil
}

// ToJSON transcodes a CBOR document back to JSON. Byte strings come out
// base64-encoded, matching encoding/json's handling of []byte.
func ToJSON(data []byte) ([]byte, error) {
	var document any
	if err := Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decoding CBOR: %w", err)
	}
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return encoded, nil
}

func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}
		float, err := typed.Float64()
		if err != nil {
			// Unreachable for input that json.Decoder accepted.
			return typed.String()
		}
		return float
	case map[string]any:
		for key, element := range typed {
			typed[key] = normalizeNumbers(element)
		}
		return typed
	case []any:
		for index, element := range typed {
			typed[index] = normalizeNumbers(element)
		}
		return typed
	default:
		return value
	}
}
