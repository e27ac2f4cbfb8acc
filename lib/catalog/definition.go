// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/zeebo/blake3"
)

// EncodingJSONSchema is the only schema encoding telecap produces.
const EncodingJSONSchema = "jsonschema"

// Definition is a schema as registered with a container or server.
type Definition struct {
	// Name is the schema title. For well-known shapes it is the
	// foxglove type name; for inferred schemas it is the channel.
	Name     string
	Encoding string
	Data     []byte
}

// NewDefinition returns a jsonschema Definition.
func NewDefinition(name string, data []byte) Definition {
	return Definition{Name: name, Encoding: EncodingJSONSchema, Data: data}
}

// Compile checks that Data is a valid JSON Schema document.
func (d Definition) Compile() error {
	if d.Encoding != EncodingJSONSchema {
		return fmt.Errorf("schema %q: unsupported encoding %q", d.Name, d.Encoding)
	}
	if _, err := jsonschema.CompileString(d.Name+".json", string(d.Data)); err != nil {
		return fmt.Errorf("schema %q: %w", d.Name, err)
	}
	return nil
}

// Digest is a BLAKE3 fingerprint of a Definition.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// schemaDomainKey is the ASCII domain name zero-padded to 32 bytes.
var schemaDomainKey = [32]byte{
	't', 'e', 'l', 'e', 'c', 'a', 'p', '.', 's', 'c', 'h', 'e', 'm', 'a', 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns the keyed BLAKE3 digest of name, encoding and
// data. JSON data is compacted first so whitespace differences do not
// count as a different schema.
func Fingerprint(d Definition) Digest {
	hasher, err := blake3.NewKeyed(schemaDomainKey[:])
	if err != nil {
		panic("catalog: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(d.Name))
	hasher.Write([]byte{0})
	hasher.Write([]byte(d.Encoding))
	hasher.Write([]byte{0})

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, d.Data); err == nil {
		hasher.Write(compacted.Bytes())
	} else {
		hasher.Write(d.Data)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
