// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrConflict is returned when a channel is redefined with a schema
// that differs from the one it was registered with.
var ErrConflict = errors.New("channel already registered with a different schema")

// Registrar creates the schema and channel in the backing writer and
// returns the id to write messages with. It is called with the catalog
// lock held and must not call back into the catalog.
type Registrar func(channel string, definition Definition) (uint64, error)

// Entry is one registered channel.
type Entry struct {
	Channel    string
	Definition Definition
	Digest     Digest
	ChannelID  uint64
	Inferred   bool
}

// Catalog is the per-sink channel table. Safe for concurrent use.
type Catalog struct {
	register Registrar

	mu      sync.Mutex
	entries map[string]Entry
}

// New returns an empty catalog that registers new channels through
// register.
func New(register Registrar) *Catalog {
	return &Catalog{register: register, entries: make(map[string]Entry)}
}

// Ensure registers channel with definition unless it already exists.
// An existing channel with an identical definition is returned as is;
// a different definition fails with ErrConflict.
func (c *Catalog) Ensure(channel string, definition Definition) (Entry, error) {
	digest := Fingerprint(definition)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[channel]; ok {
		if existing.Digest != digest {
			return existing, fmt.Errorf("%w: channel %q has schema %q (%s), got %q (%s)",
				ErrConflict, channel, existing.Definition.Name, existing.Digest.String()[:12],
				definition.Name, digest.String()[:12])
		}
		return existing, nil
	}
	return c.registerLocked(channel, definition, digest, false)
}

// EnsureInferred returns the entry for channel, inferring and
// registering a schema from sample if the channel is new. Later
// samples never change the schema.
func (c *Catalog) EnsureInferred(channel string, sample []byte) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[channel]; ok {
		return existing, nil
	}
	definition, err := Infer(channel, sample)
	if err != nil {
		return Entry{}, err
	}
	return c.registerLocked(channel, definition, Fingerprint(definition), true)
}

func (c *Catalog) registerLocked(channel string, definition Definition, digest Digest, inferred bool) (Entry, error) {
	id, err := c.register(channel, definition)
	if err != nil {
		return Entry{}, fmt.Errorf("registering channel %q: %w", channel, err)
	}
	entry := Entry{
		Channel:    channel,
		Definition: definition,
		Digest:     digest,
		ChannelID:  id,
		Inferred:   inferred,
	}
	c.entries[channel] = entry
	return entry, nil
}

// Lookup returns the entry for channel.
func (c *Catalog) Lookup(channel string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[channel]
	return entry, ok
}

// Has reports whether channel is registered.
func (c *Catalog) Has(channel string) bool {
	_, ok := c.Lookup(channel)
	return ok
}

// Entries returns every entry sorted by channel name.
func (c *Catalog) Entries() []Entry {
	c.mu.Lock()
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Channel < entries[j].Channel })
	return entries
}

// ChannelIDs returns the registered channel ids.
func (c *Catalog) ChannelIDs() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uint64, 0, len(c.entries))
	for _, entry := range c.entries {
		ids = append(ids, entry.ChannelID)
	}
	return ids
}
