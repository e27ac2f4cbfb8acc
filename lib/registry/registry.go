// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry maps connection names to sinks and fans writes out
// to them.
//
// Every write method takes a [Target]: [All] for every open connection
// or [To] for a list of names. Delivery to one sink never depends on
// another: an unknown name or a failing sink contributes an error to
// the joined result while the remaining sinks still receive the write.
//
// The registry owns the 3D object id allocator shared by its sinks, so
// ids are unique across every connection it opens.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bureau-foundation/telecap/lib/mcapfile"
	"github.com/bureau-foundation/telecap/lib/scene"
	"github.com/bureau-foundation/telecap/lib/sink"
)

// ErrUnknownConnection is returned for a connection name that is not
// open.
var ErrUnknownConnection = errors.New("unknown connection")

// Options configures a Registry.
type Options struct {
	// Sink is the template for every sink the registry opens. Name and
	// Objects are set per sink.
	Sink sink.Options

	// File defaults for OpenFile.
	Compression mcapfile.Compression
	Level       mcapfile.Level
	ChunkSize   int64

	// SendBuffer is the per-viewer queue length for OpenNetwork.
	SendBuffer int
}

// Registry is a set of named sinks. Safe for concurrent use.
type Registry struct {
	options Options
	ids     *scene.IDAllocator
	logger  *slog.Logger

	mu    sync.RWMutex
	sinks map[string]sink.Sink
}

// New returns an empty registry.
func New(options Options) *Registry {
	logger := options.Sink.Logger
	if logger == nil {
		logger = slog.Default()
		options.Sink.Logger = logger
	}
	return &Registry{
		options: options,
		ids:     scene.NewIDAllocator(),
		logger:  logger,
		sinks:   make(map[string]sink.Sink),
	}
}

// Objects returns the id allocator shared by the registry's sinks.
func (r *Registry) Objects() *scene.IDAllocator { return r.ids }

// FileOptions returns the registry defaults for a file sink named name.
func (r *Registry) FileOptions(name string) sink.FileOptions {
	options := r.options.Sink
	options.Name = name
	return sink.FileOptions{
		Options:     options,
		Compression: r.options.Compression,
		Level:       r.options.Level,
		ChunkSize:   r.options.ChunkSize,
	}
}

// NetworkOptions returns the registry defaults for a network sink.
func (r *Registry) NetworkOptions(host string, port int, name, label string) sink.NetworkOptions {
	options := r.options.Sink
	options.Name = name
	return sink.NetworkOptions{
		Options:     options,
		Host:        host,
		Port:        port,
		ServerLabel: label,
		SendBuffer:  r.options.SendBuffer,
	}
}

// OpenFile opens a file sink at path under name, which defaults to
// path. An open connection of the same name is closed first.
func (r *Registry) OpenFile(path, name string) (*sink.FileSink, error) {
	if name == "" {
		name = path
	}
	return r.OpenFileWith(path, r.FileOptions(name))
}

// OpenFileWith opens a file sink with explicit options. Name defaults
// to path.
func (r *Registry) OpenFileWith(path string, options sink.FileOptions) (*sink.FileSink, error) {
	if options.Name == "" {
		options.Name = path
	}
	options.Objects = r.ids
	r.evict(options.Name)

	s, err := sink.OpenFile(path, options)
	if err != nil {
		return nil, err
	}
	r.insert(s)
	return s, nil
}

// OpenNetwork starts a live server on host:port under name. label is
// the server name shown to viewers and defaults to name.
func (r *Registry) OpenNetwork(host string, port int, name, label string) (*sink.NetworkSink, error) {
	return r.OpenNetworkWith(r.NetworkOptions(host, port, name, label))
}

// OpenNetworkWith opens a network sink with explicit options.
func (r *Registry) OpenNetworkWith(options sink.NetworkOptions) (*sink.NetworkSink, error) {
	if options.Name == "" {
		return nil, errors.New("network connection requires a name")
	}
	options.Objects = r.ids
	r.evict(options.Name)

	s, err := sink.OpenNetwork(options)
	if err != nil {
		return nil, err
	}
	r.insert(s)
	return s, nil
}

// evict closes and removes the connection called name, if any. It runs
// before the replacement is opened so a file path or port can be
// reused.
func (r *Registry) evict(name string) {
	r.mu.Lock()
	previous, ok := r.sinks[name]
	delete(r.sinks, name)
	r.mu.Unlock()

	if ok {
		r.retire(name, previous)
	}
}

func (r *Registry) retire(name string, previous sink.Sink) {
	r.logger.Info("replacing connection", "connection", name)
	if err := previous.Close(); err != nil {
		r.logger.Warn("closing replaced connection", "connection", name, "error", err)
	}
}

// insert stores s. A sink opened under the same name by a concurrent
// call between evict and insert is closed.
func (r *Registry) insert(s sink.Sink) {
	r.mu.Lock()
	previous, raced := r.sinks[s.Name()]
	r.sinks[s.Name()] = s
	r.mu.Unlock()

	if raced {
		r.retire(s.Name(), previous)
	}
	r.logger.Info("connection opened", "connection", s.Name(), "kind", string(s.Kind()))
}

// Close closes and removes one connection.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	s, ok := r.sinks[name]
	delete(r.sinks, name)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}
	return s.Close()
}

// CloseAll closes every connection. Every sink is closed even if some
// fail.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = make(map[string]sink.Sink)
	r.mu.Unlock()

	var errs []error
	for _, name := range sortedNames(sinks) {
		if err := sinks[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetSync switches sync mode on one connection.
func (r *Registry) SetSync(name string, enabled bool) error {
	s, ok := r.Sink(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}
	s.SetSync(enabled)
	return nil
}

// Sink returns the sink open under name.
func (r *Registry) Sink(name string) (sink.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	return s, ok
}

// Names lists the open connections in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.sinks)
}

// Stats returns the counters of every open connection, sorted by name.
func (r *Registry) Stats() []sink.Stats {
	sinks, _ := r.resolve(All())
	stats := make([]sink.Stats, 0, len(sinks))
	for _, s := range sinks {
		stats = append(stats, s.Stats())
	}
	return stats
}

func sortedNames(sinks map[string]sink.Sink) []string {
	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
