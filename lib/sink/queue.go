// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import "sync"

// item is one message ready for the writer. Its channel was registered
// by the producer before the item was queued.
type item struct {
	seq       uint64
	channel   string
	channelID uint64
	timestamp uint64
	payload   []byte
}

// staged is raw producer input that the worker turns into an item.
type staged struct {
	seq     uint64
	channel string
	kind    string
	convert func() (item, error)
}

// batch is everything taken by one worker cycle. through is the
// highest sequence number assigned when the batch was taken, so every
// item at or below it is either in the batch or was already flushed.
type batch struct {
	staged  []staged
	items   []item
	through uint64
}

func (b batch) empty() bool { return len(b.staged) == 0 && len(b.items) == 0 }

// queue holds pending work. One mutex guards both lists and the
// sequence counter so sequence order matches list order.
type queue struct {
	mu      sync.Mutex
	items   []item
	staged  []staged
	lastSeq uint64
	closed  bool

	// notify has capacity 1 so a push never blocks: if a signal is
	// already pending, the worker will see this item too.
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(it item) (uint64, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrClosed
	}
	q.lastSeq++
	it.seq = q.lastSeq
	q.items = append(q.items, it)
	q.mu.Unlock()

	q.signal()
	return it.seq, nil
}

func (q *queue) stage(s staged) (uint64, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrClosed
	}
	q.lastSeq++
	s.seq = q.lastSeq
	q.staged = append(q.staged, s)
	q.mu.Unlock()

	q.signal()
	return s.seq, nil
}

func (q *queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// take removes and returns all pending work.
func (q *queue) take() batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	taken := batch{staged: q.staged, items: q.items, through: q.lastSeq}
	q.staged = nil
	q.items = nil
	return taken
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) + len(q.staged)
}

// close refuses further pushes. It reports false if the queue was
// already closed.
func (q *queue) close() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.closed = true
	return true
}

func (q *queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
