// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/telecap/lib/catalog"
	"github.com/bureau-foundation/telecap/lib/clock"
	"github.com/bureau-foundation/telecap/lib/codec"
	"github.com/bureau-foundation/telecap/lib/foxglove"
	"github.com/bureau-foundation/telecap/lib/metrics"
	"github.com/bureau-foundation/telecap/lib/scene"
)

// backend is the kind-specific half of a sink: where schemas are
// registered and messages end up.
type backend interface {
	kind() Kind

	// register creates the channel and returns the id write takes.
	register(channel string, definition catalog.Definition, encoding string) (uint64, error)

	write(channelID, timestamp uint64, data []byte) error

	// release closes the file or server after the worker has exited.
	release() error
}

// pipeline is the worker, queue and catalog shared by every sink kind.
// FileSink and NetworkSink embed it and supply a backend.
type pipeline struct {
	name    string
	options Options
	backend backend
	catalog *catalog.Catalog
	objects *scene.Table
	logger  *slog.Logger
	clock   clock.Clock
	metrics *metrics.Metrics

	queue *queue
	sync  atomic.Bool

	// drainMu is held for a whole worker cycle. A sync-mode producer
	// takes it to enqueue so it never races a half-finished drain.
	drainMu sync.Mutex

	flushMu     sync.Mutex
	flushed     uint64
	flushSignal chan struct{}

	positionsMu sync.Mutex
	positions   map[string][]foxglove.Pose

	stopping  chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
	closeErr  error

	written     atomic.Uint64
	dropped     atomic.Uint64
	writeErrors atomic.Uint64

	lastErrorMu sync.Mutex
	lastError   string
}

func newPipeline(options Options, b backend) *pipeline {
	options = options.withDefaults()
	p := &pipeline{
		name:        options.Name,
		options:     options,
		backend:     b,
		objects:     scene.NewTable(options.Objects),
		logger:      options.Logger.With("sink", options.Name),
		clock:       options.Clock,
		metrics:     options.Metrics,
		queue:       newQueue(),
		flushSignal: make(chan struct{}),
		positions:   make(map[string][]foxglove.Pose),
		stopping:    make(chan struct{}),
		finished:    make(chan struct{}),
	}
	p.catalog = catalog.New(func(channel string, definition catalog.Definition) (uint64, error) {
		return b.register(channel, definition, options.Encoding)
	})
	p.sync.Store(options.Sync)
	return p
}

func (p *pipeline) start() {
	go p.run()
}

// run is the worker loop. It keeps cycling after stop is requested
// until the queue is empty.
func (p *pipeline) run() {
	defer close(p.finished)

	ticker := p.clock.NewTicker(p.options.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.queue.notify:
		case <-ticker.C:
		case <-p.stopping:
		}

		p.cycle()

		select {
		case <-p.stopping:
			if p.queue.len() == 0 {
				return
			}
		default:
		}
	}
}

// cycle drains one batch: staged conversions first, then the main
// queue in order.
func (p *pipeline) cycle() {
	p.drainMu.Lock()
	defer p.drainMu.Unlock()

	taken := p.queue.take()
	if !taken.empty() {
		start := p.clock.Now()
		for _, s := range taken.staged {
			converted, err := s.convert()
			if err != nil {
				p.drop(s.channel, "convert_"+s.kind, err)
				continue
			}
			p.deliver(converted)
		}
		for _, queued := range taken.items {
			p.deliver(queued)
		}
		p.metrics.ObserveFlush(p.name, p.clock.Now().Sub(start).Seconds())
	}
	p.metrics.QueueDepth(p.name, p.queue.len())
	p.markFlushed(taken.through)
}

func (p *pipeline) deliver(message item) {
	data := message.payload
	if p.options.Encoding == EncodingCBOR {
		encoded, err := codec.FromJSON(message.payload)
		if err != nil {
			p.drop(message.channel, "encode", err)
			return
		}
		data = encoded
	}

	if err := p.backend.write(message.channelID, message.timestamp, data); err != nil {
		p.writeErrors.Add(1)
		p.metrics.WriteError(p.name)
		p.recordError(err)
		p.logger.Warn("write failed, message dropped", "channel", message.channel, "error", err)
		return
	}
	p.written.Add(1)
	p.metrics.MessageWritten(p.name, string(p.backend.kind()))
}

func (p *pipeline) drop(channel, reason string, err error) {
	p.dropped.Add(1)
	p.metrics.Dropped(p.name, reason)
	p.recordError(err)
	p.logger.Warn("message dropped", "channel", channel, "reason", reason, "error", err)
}

func (p *pipeline) recordError(err error) {
	p.lastErrorMu.Lock()
	p.lastError = err.Error()
	p.lastErrorMu.Unlock()
}

// markFlushed publishes that every item up to through is done and
// wakes sync waiters.
func (p *pipeline) markFlushed(through uint64) {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()
	if through <= p.flushed {
		return
	}
	p.flushed = through
	close(p.flushSignal)
	p.flushSignal = make(chan struct{})
}

func (p *pipeline) waitFlushed(seq uint64) error {
	timeout := p.clock.After(p.options.SyncTimeout)
	for {
		p.flushMu.Lock()
		flushed, signal := p.flushed, p.flushSignal
		p.flushMu.Unlock()
		if flushed >= seq {
			return nil
		}
		select {
		case <-signal:
		case <-timeout:
			return ErrSyncTimeout
		}
	}
}

// await runs push and, in sync mode, waits until the pushed item is
// flushed.
func (p *pipeline) await(push func() (uint64, error)) error {
	if !p.sync.Load() {
		_, err := push()
		return err
	}

	p.drainMu.Lock()
	seq, err := push()
	p.drainMu.Unlock()
	if err != nil {
		return err
	}
	return p.waitFlushed(seq)
}

func (p *pipeline) enqueue(message item) error {
	return p.await(func() (uint64, error) { return p.queue.push(message) })
}

func (p *pipeline) enqueueStaged(s staged) error {
	return p.await(func() (uint64, error) { return p.queue.stage(s) })
}

// Name returns the sink name.
func (p *pipeline) Name() string { return p.name }

// Kind reports whether this is a file or network sink.
func (p *pipeline) Kind() Kind { return p.backend.kind() }

// IsOpen reports whether the sink still accepts writes.
func (p *pipeline) IsOpen() bool { return !p.queue.isClosed() }

// SetSync switches sync mode. It affects writes that start after the
// call.
func (p *pipeline) SetSync(enabled bool) { p.sync.Store(enabled) }

// Close stops intake, waits for the worker to drain everything already
// queued, then releases the file or server. Closing twice is a no-op.
func (p *pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.queue.close()
		close(p.stopping)
		<-p.finished

		if err := p.backend.release(); err != nil {
			p.closeErr = fmt.Errorf("closing sink %q: %w", p.name, err)
		}
		p.metrics.ForgetSink(p.name)
		p.logger.Info("sink closed",
			"written", p.written.Load(),
			"dropped", p.dropped.Load(),
			"write_errors", p.writeErrors.Load(),
		)
	})
	return p.closeErr
}

// Stats returns a snapshot of the sink's counters.
func (p *pipeline) Stats() Stats {
	p.lastErrorMu.Lock()
	lastError := p.lastError
	p.lastErrorMu.Unlock()

	return Stats{
		Name:        p.name,
		Kind:        p.backend.kind(),
		Open:        p.IsOpen(),
		Sync:        p.sync.Load(),
		Pending:     p.queue.len(),
		Channels:    len(p.catalog.Entries()),
		Written:     p.written.Load(),
		Dropped:     p.dropped.Load(),
		WriteErrors: p.writeErrors.Load(),
		LastError:   lastError,
	}
}
