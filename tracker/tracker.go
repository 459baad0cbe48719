/*
 * This file is part of Go AXI Perf.
 *
 * Go AXI Perf is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go AXI Perf is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go AXI Perf. If not, see <https://www.gnu.org/licenses/>.
 */

// Package tracker correlates request issue and completion events of one
// channel and produces the round-trip duration of every request.
package tracker

import (
	"errors"
	"fmt"

	"github.com/network-quality/goaxiperf/utilities"
)

// ErrProtocolDesync is returned when a completion does not match any
// outstanding request. It indicates a lost or duplicated completion.
var ErrProtocolDesync = errors.New("protocol desync")

type OrderingMode uint32

const (
	InOrder    OrderingMode = 0
	OutOfOrder OrderingMode = 1
)

func (m OrderingMode) String() string {
	switch m {
	case InOrder:
		return "in-order"
	case OutOfOrder:
		return "out-of-order"
	}
	return fmt.Sprintf("unknown ordering (%d)", uint32(m))
}

// Tracker is implemented by the two ordering variants. CanIssue and NextID
// only inspect the state; Issue and Complete mutate it.
type Tracker interface {
	Mode() OrderingMode
	Capacity() int
	Outstanding() int
	CanIssue() bool
	// NextID is the id the next issued request carries.
	NextID() uint32
	// Issue records a request issued at now. The caller must have checked
	// CanIssue.
	Issue(now uint32) uint32
	// Complete matches a completion and returns the elapsed time, wrapped to
	// the counter width.
	Complete(id uint32, now uint32) (uint32, error)
	Reset()
}

// New builds the tracker variant selected by mode with a pool of
// 2^idWidth entries.
func New(mode OrderingMode, idWidth uint, counterWidth uint) (Tracker, error) {
	if idWidth > 16 {
		return nil, fmt.Errorf("id width of %d bits is not supported", idWidth)
	}
	capacity := 1 << idWidth
	counterMask := uint32(utilities.Mask(counterWidth))
	switch mode {
	case InOrder:
		return newInOrder(capacity, counterMask), nil
	case OutOfOrder:
		return newOutOfOrder(capacity, counterMask), nil
	}
	return nil, fmt.Errorf("unknown ordering mode %d", mode)
}

// inOrder keeps the issue timestamps in a ring FIFO. Every request carries
// id 0; the FIFO alone establishes the pairing.
type inOrder struct {
	timestamps  []uint32
	head        int
	count       int
	counterMask uint32
}

func newInOrder(capacity int, counterMask uint32) *inOrder {
	return &inOrder{timestamps: make([]uint32, capacity), counterMask: counterMask}
}

func (t *inOrder) Mode() OrderingMode { return InOrder }

func (t *inOrder) Capacity() int { return len(t.timestamps) }

func (t *inOrder) Outstanding() int { return t.count }

func (t *inOrder) CanIssue() bool { return t.count < len(t.timestamps) }

func (t *inOrder) NextID() uint32 { return 0 }

func (t *inOrder) Issue(now uint32) uint32 {
	if !t.CanIssue() {
		panic("issue on a full in-order tracker")
	}
	tail := (t.head + t.count) % len(t.timestamps)
	t.timestamps[tail] = now
	t.count++
	return 0
}

func (t *inOrder) Complete(id uint32, now uint32) (uint32, error) {
	if t.count == 0 {
		return 0, fmt.Errorf("completion of id %d with no outstanding request: %w", id, ErrProtocolDesync)
	}
	issued := t.timestamps[t.head]
	t.head = (t.head + 1) % len(t.timestamps)
	t.count--
	return (now - issued) & t.counterMask, nil
}

func (t *inOrder) Reset() {
	t.head = 0
	t.count = 0
}

// outOfOrder allocates ids from a free-list queue and keeps the issue
// timestamp of each allocated id in a table indexed by id.
type outOfOrder struct {
	free        []uint32
	freeHead    int
	freeCount   int
	timestamps  []uint32
	allocated   []bool
	counterMask uint32
}

func newOutOfOrder(capacity int, counterMask uint32) *outOfOrder {
	t := &outOfOrder{
		free:        make([]uint32, capacity),
		timestamps:  make([]uint32, capacity),
		allocated:   make([]bool, capacity),
		counterMask: counterMask,
	}
	t.Reset()
	return t
}

func (t *outOfOrder) Mode() OrderingMode { return OutOfOrder }

func (t *outOfOrder) Capacity() int { return len(t.free) }

func (t *outOfOrder) Outstanding() int { return len(t.free) - t.freeCount }

func (t *outOfOrder) CanIssue() bool { return t.freeCount > 0 }

func (t *outOfOrder) NextID() uint32 {
	if t.freeCount == 0 {
		return 0
	}
	return t.free[t.freeHead]
}

func (t *outOfOrder) Issue(now uint32) uint32 {
	if !t.CanIssue() {
		panic("issue on an exhausted id pool")
	}
	id := t.free[t.freeHead]
	t.freeHead = (t.freeHead + 1) % len(t.free)
	t.freeCount--
	t.allocated[id] = true
	t.timestamps[id] = now
	return id
}

func (t *outOfOrder) Complete(id uint32, now uint32) (uint32, error) {
	if int(id) >= len(t.allocated) || !t.allocated[id] {
		return 0, fmt.Errorf("completion of unallocated id %d: %w", id, ErrProtocolDesync)
	}
	t.allocated[id] = false
	tail := (t.freeHead + t.freeCount) % len(t.free)
	t.free[tail] = id
	t.freeCount++
	return (now - t.timestamps[id]) & t.counterMask, nil
}

func (t *outOfOrder) Reset() {
	for i := range t.free {
		t.free[i] = uint32(i)
		t.allocated[i] = false
		t.timestamps[i] = 0
	}
	t.freeHead = 0
	t.freeCount = len(t.free)
}
