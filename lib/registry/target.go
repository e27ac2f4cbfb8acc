// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/telecap/lib/sink"
)

// Target selects the connections a write goes to.
type Target struct {
	all   bool
	names []string
}

// All targets every open connection.
func All() Target { return Target{all: true} }

// To targets the named connections. Names are resolved at write time.
func To(names ...string) Target { return Target{names: names} }

func (t Target) String() string {
	if t.all {
		return "all"
	}
	return fmt.Sprintf("%q", t.names)
}

// resolve returns the sinks t selects, in name order for All and in
// the given order for To. Unknown names are reported in the error
// alongside the sinks that were found.
func (r *Registry) resolve(t Target) ([]sink.Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t.all {
		sinks := make([]sink.Sink, 0, len(r.sinks))
		for _, name := range sortedNames(r.sinks) {
			sinks = append(sinks, r.sinks[name])
		}
		return sinks, nil
	}

	var errs []error
	sinks := make([]sink.Sink, 0, len(t.names))
	for _, name := range t.names {
		s, ok := r.sinks[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownConnection, name))
			continue
		}
		sinks = append(sinks, s)
	}
	return sinks, errors.Join(errs...)
}

// each calls fn on every sink t selects. A failing sink does not stop
// delivery to the rest; every failure is joined into the result.
func (r *Registry) each(t Target, fn func(sink.Sink) error) error {
	sinks, err := r.resolve(t)
	errs := []error{err}
	for _, s := range sinks {
		if err := fn(s); err != nil {
			errs = append(errs, fmt.Errorf("connection %q: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
