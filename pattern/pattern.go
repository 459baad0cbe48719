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

// Package pattern implements the credit-gated scheduler that decides, for
// every tick, which channel may issue a request.
package pattern

import (
	"fmt"

	"github.com/network-quality/goaxiperf/register"
	"github.com/network-quality/goaxiperf/utilities"
)

// Channels is the number of request streams (read, write).
const Channels = 2

type Entry struct {
	AddrHint uint32 `json:"addr"`
	Delay    uint16 `json:"delay"`
	Enabled  bool   `json:"en"`
}

type CouplingMode uint32

const (
	Sync        CouplingMode = 0
	Independent CouplingMode = 1
)

func (m CouplingMode) String() string {
	switch m {
	case Sync:
		return "sync"
	case Independent:
		return "independent"
	}
	return fmt.Sprintf("unknown coupling (%d)", uint32(m))
}

// CreditMode selects when a channel runs out of credit.
type CreditMode int

const (
	// CreditCountsTotal treats the credit as the total number of requests.
	// A channel is live while its credit is non-zero.
	CreditCountsTotal CreditMode = iota
	// CreditCountsRemainingAfterCurrent treats the credit as the number of
	// requests left after the one being issued; a channel stops after the
	// request that fires at credit zero. The credit never wraps.
	CreditCountsRemainingAfterCurrent
)

func (m CreditMode) String() string {
	switch m {
	case CreditCountsTotal:
		return "total"
	case CreditCountsRemainingAfterCurrent:
		return "remaining-after-current"
	}
	return "unknown"
}

// Requests returns how many requests a credit value allows under the mode.
func (m CreditMode) Requests(credit uint32) uint64 {
	if m == CreditCountsRemainingAfterCurrent {
		return uint64(credit) + 1
	}
	return uint64(credit)
}

type channel struct {
	Table  *register.File[Entry]
	Credit register.Field[uint32]

	cursor    int
	countdown uint16
	exhausted bool
}

// Scheduler holds the pattern tables and credits of both channels.
type Scheduler struct {
	creditMode  CreditMode
	counterMask uint32

	Enable   register.Field[bool]
	Coupling register.Field[CouplingMode]

	channels [Channels]channel
}

type channelStep struct {
	cursor    int
	countdown uint16
	credit    uint32
	exhausted bool
	fired     bool
}

// Decision is the outcome of evaluating one tick. It is computed from the
// current state only and applied by Commit.
type Decision struct {
	Fire [Channels]bool
	Hint [Channels]uint32

	next   [Channels]channelStep
	enable bool
	flush  bool
}

func NewScheduler(items int, counterWidth uint, creditMode CreditMode) *Scheduler {
	s := &Scheduler{
		creditMode:  creditMode,
		counterMask: uint32(utilities.Mask(counterWidth)),
		Enable:      register.NewField(false),
		Coupling:    register.NewField(Sync),
	}
	for i := range s.channels {
		s.channels[i].Table = register.NewFile(items, Entry{})
		s.channels[i].Credit = register.NewField[uint32](0)
	}
	return s
}

func (s *Scheduler) CreditMode() CreditMode {
	return s.creditMode
}

func (s *Scheduler) Items() int {
	return s.channels[0].Table.Len()
}

func (s *Scheduler) Running() bool {
	return s.Enable.Value()
}

func (s *Scheduler) Table(ch int) *register.File[Entry] {
	return s.channels[ch].Table
}

func (s *Scheduler) Credit(ch int) *register.Field[uint32] {
	return &s.channels[ch].Credit
}

// Cursor is the table index the channel consults next.
func (s *Scheduler) Cursor(ch int) int {
	return s.channels[ch].cursor
}

func (s *Scheduler) Countdown(ch int) uint16 {
	return s.channels[ch].countdown
}

func (s *Scheduler) Exhausted(ch int) bool {
	return s.channels[ch].exhausted
}

func (s *Scheduler) exhaustedAtStart(credit uint32) bool {
	return s.creditMode == CreditCountsTotal && credit == 0
}

// fire computes the credit after one request and whether the channel has
// nothing left to issue afterwards.
func (s *Scheduler) fire(credit uint32) (uint32, bool) {
	if s.creditMode == CreditCountsRemainingAfterCurrent {
		if credit == 0 {
			return 0, true
		}
		return (credit - 1) & s.counterMask, false
	}
	next := (credit - 1) & s.counterMask
	return next, next == 0
}

func (s *Scheduler) current(ch int) channelStep {
	c := &s.channels[ch]
	return channelStep{
		cursor:    c.cursor,
		countdown: c.countdown,
		credit:    c.Credit.Value(),
		exhausted: c.exhausted,
	}
}

func (s *Scheduler) advanceCursor(cursor int) int {
	cursor++
	if cursor >= s.Items() {
		return 0
	}
	return cursor
}

// step evaluates one channel on its own (INDEPENDENT coupling).
func (s *Scheduler) step(ch int, ready bool, d *Decision) {
	next := s.current(ch)
	d.next[ch] = next
	if next.exhausted {
		return
	}
	if next.countdown != 0 {
		d.next[ch].countdown = next.countdown - 1
		return
	}
	entry := s.channels[ch].Table.Value(next.cursor)
	if !entry.Enabled {
		d.next[ch].cursor = s.advanceCursor(next.cursor)
		return
	}
	if !ready {
		return
	}
	s.applyFire(ch, entry, d)
}

func (s *Scheduler) applyFire(ch int, entry Entry, d *Decision) {
	cur := s.current(ch)
	credit, exhausted := s.fire(cur.credit)
	d.Fire[ch] = true
	d.Hint[ch] = entry.AddrHint
	d.next[ch] = channelStep{
		cursor:    s.advanceCursor(cur.cursor),
		countdown: entry.Delay,
		credit:    credit,
		exhausted: exhausted,
		fired:     true,
	}
}

// Evaluate decides the firing of both channels given the downstream
// readiness of each. It does not mutate the scheduler.
func (s *Scheduler) Evaluate(ready [Channels]bool) Decision {
	d := Decision{enable: s.Enable.Value()}
	for ch := range d.next {
		d.next[ch] = s.current(ch)
	}
	if !s.Enable.Value() {
		return d
	}
	if w, ok := s.Enable.PendingWrite(); ok && !w {
		d.enable = false
		d.flush = true
		return d
	}

	switch s.Coupling.Value() {
	case Independent:
		for ch := 0; ch < Channels; ch++ {
			s.step(ch, ready[ch], &d)
		}
		d.enable = !(d.next[0].exhausted && d.next[1].exhausted)
	default:
		s.stepSync(ready, &d)
		d.enable = !(d.next[0].exhausted || d.next[1].exhausted)
	}
	return d
}

func (s *Scheduler) stepSync(ready [Channels]bool, d *Decision) {
	var entries [Channels]Entry
	canStep := true
	for ch := 0; ch < Channels; ch++ {
		c := &s.channels[ch]
		if c.exhausted {
			return
		}
		if c.countdown != 0 {
			d.next[ch].countdown = c.countdown - 1
			canStep = false
			continue
		}
		entries[ch] = c.Table.Value(c.cursor)
		if entries[ch].Enabled && !ready[ch] {
			canStep = false
		}
	}
	if !canStep {
		return
	}
	for ch := 0; ch < Channels; ch++ {
		if entries[ch].Enabled {
			s.applyFire(ch, entries[ch], d)
		} else {
			d.next[ch].cursor = s.advanceCursor(s.channels[ch].cursor)
		}
	}
}

// Commit applies a decision and then the pending external writes. Table and
// credit writes are only accepted while the generator is stopped; an enable
// write restarts both channels from the first table entry.
func (s *Scheduler) Commit(d Decision) {
	wasRunning := s.Enable.Value()
	if wasRunning {
		for ch := range s.channels {
			s.channels[ch].Table.DiscardWrites()
			s.channels[ch].Credit.DiscardWrite()
		}
		if w, ok := s.Enable.PendingWrite(); ok && w {
			s.Enable.DiscardWrite()
		}
	}

	for ch := range s.channels {
		c := &s.channels[ch]
		next := d.next[ch]
		if d.flush {
			next = channelStep{credit: next.credit}
		}
		c.cursor = next.cursor
		c.countdown = next.countdown
		c.exhausted = next.exhausted
		if next.fired {
			c.Credit.Set(next.credit)
		}
		c.Table.Commit()
		c.Credit.Commit()
		c.Credit.Load(c.Credit.Value() & s.counterMask)
	}

	if d.enable != wasRunning {
		s.Enable.Set(d.enable)
	}
	s.Enable.Commit()
	s.Coupling.Commit()

	if !wasRunning && s.Enable.Value() {
		for ch := range s.channels {
			c := &s.channels[ch]
			c.cursor = 0
			c.countdown = 0
			c.exhausted = s.exhaustedAtStart(c.Credit.Value())
		}
	}
}
