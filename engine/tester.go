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

// Package engine assembles the per-channel pipelines (scheduler, address
// sequencer, latency tracker, statistics) into a tester that advances in
// synchronous ticks.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/network-quality/goaxiperf/addrgen"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/register"
	"github.com/network-quality/goaxiperf/stats"
	"github.com/network-quality/goaxiperf/tracker"
	"github.com/network-quality/goaxiperf/utilities"
)

const Channels = pattern.Channels

type ChannelKind int

const (
	Read  ChannelKind = 0
	Write ChannelKind = 1
)

func (c ChannelKind) String() string {
	switch c {
	case Read:
		return "r"
	case Write:
		return "w"
	}
	return "unknown"
}

func ChannelKinds() []ChannelKind {
	return []ChannelKind{Read, Write}
}

// Transaction is a request handed to the endpoint.
type Transaction struct {
	Channel ChannelKind
	ID      uint32
	Addr    uint32
	Len     uint32
	Hint    uint32
}

// Endpoint is the downstream collaborator. AddrReady and PeekCompletion
// must not change the endpoint; Step delivers what the tester did during
// the tick: the requests it issued and whether it consumed the completion
// presented by PeekCompletion.
type Endpoint interface {
	AddrReady(ch ChannelKind) bool
	PeekCompletion(ch ChannelKind) (id uint32, ok bool)
	Step(issued [Channels]utilities.Optional[Transaction], completed [Channels]bool)
}

type CompletionRecord struct {
	Tick     uint64      `Description:"Tick"`
	Channel  ChannelKind `Description:"Channel"`
	ID       uint32      `Description:"ID"`
	Duration uint32      `Description:"Duration"`
}

// ErrNotIdle is returned by RunUntilIdle when the tick budget runs out.
var ErrNotIdle = errors.New("tester did not become idle")

type Config struct {
	Capabilities Capabilities
	CreditMode   pattern.CreditMode
	Debug        *debug.DebugWithPrefix
	// OnCompletion, when set, is called for every matched completion.
	OnCompletion func(CompletionRecord)
}

// Channel is the pipeline of one request stream.
type Channel struct {
	Kind       ChannelKind
	Sequencer  *addrgen.Sequencer
	Tracker    tracker.Tracker
	Stats      *stats.Collector
	Dispatched register.Field[uint32]
	Ordering   register.Field[tracker.OrderingMode]
}

type Tester struct {
	caps        Capabilities
	counterMask uint32
	endpoint    Endpoint
	debugging   *debug.DebugWithPrefix
	hook        func(CompletionRecord)

	Scheduler *pattern.Scheduler
	TimeEn    register.Field[bool]
	Time      register.Field[uint32]

	channels [Channels]*Channel
	ticks    uint64
	fatal    error
}

func New(endpoint Endpoint, config Config) (*Tester, error) {
	caps := config.Capabilities
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	counterWidth := uint(caps.CounterWidth)
	t := &Tester{
		caps:        caps,
		counterMask: uint32(utilities.Mask(counterWidth)),
		endpoint:    endpoint,
		debugging:   config.Debug,
		hook:        config.OnCompletion,
		Scheduler:   pattern.NewScheduler(int(caps.RwPatternItems), counterWidth, config.CreditMode),
	}
	for _, kind := range ChannelKinds() {
		tr, err := tracker.New(tracker.InOrder, uint(caps.IdWidth), counterWidth)
		if err != nil {
			return nil, err
		}
		collector, err := stats.New(int(caps.HistogramItems), int(caps.LastValuesItems), counterWidth)
		if err != nil {
			return nil, err
		}
		t.channels[kind] = &Channel{
			Kind:      kind,
			Sequencer: addrgen.NewSequencer(uint(caps.AddrWidth)),
			Tracker:   tr,
			Stats:     collector,
		}
	}
	return t, nil
}

func (t *Tester) Capabilities() Capabilities {
	return t.caps
}

func (t *Tester) Channel(ch ChannelKind) *Channel {
	return t.channels[ch]
}

// Ticks is the number of ticks executed so far (independent of time_en).
func (t *Tester) Ticks() uint64 {
	return t.ticks
}

// Err is the sticky fatal error, if any.
func (t *Tester) Err() error {
	return t.fatal
}

func (t *Tester) Control() Control {
	return Control{
		TimeEn:      t.TimeEn.Value(),
		RwMode:      t.Scheduler.Coupling.Value(),
		GeneratorEn: t.Scheduler.Running(),
		ROrdering:   t.channels[Read].Ordering.Value(),
		WOrdering:   t.channels[Write].Ordering.Value(),
	}
}

// WriteControl stages an external write of the control word.
func (t *Tester) WriteControl(c Control) {
	t.TimeEn.Write(c.TimeEn)
	t.Scheduler.Coupling.Write(c.RwMode)
	t.Scheduler.Enable.Write(c.GeneratorEn)
	t.channels[Read].Ordering.Write(c.ROrdering)
	t.channels[Write].Ordering.Write(c.WOrdering)
}

// Pending is dispatched - input_cnt, wrapped to the counter width.
func (t *Tester) Pending(ch ChannelKind) uint32 {
	c := t.channels[ch]
	return (c.Dispatched.Value() - c.Stats.InputCnt.Value()) & t.counterMask
}

// Idle reports that the generator stopped and every dispatched request was
// collected on both channels.
func (t *Tester) Idle() bool {
	if t.Scheduler.Running() {
		return false
	}
	for _, kind := range ChannelKinds() {
		if t.Pending(kind) != 0 {
			return false
		}
	}
	return true
}

// Tick advances the tester by one step. Everything is evaluated from the
// state at the start of the tick and committed afterwards; external writes
// are committed last so they win over internally computed values.
func (t *Tester) Tick() error {
	if t.fatal != nil {
		return t.fatal
	}
	now := t.Time.Value()
	busy := !t.Idle()

	var ready [Channels]bool
	for _, kind := range ChannelKinds() {
		ready[kind] = t.channels[kind].Tracker.CanIssue() && t.endpoint.AddrReady(kind)
	}
	decision := t.Scheduler.Evaluate(ready)

	var completions [Channels]utilities.Optional[uint32]
	for _, kind := range ChannelKinds() {
		if id, ok := t.endpoint.PeekCompletion(kind); ok {
			completions[kind] = utilities.Some(id)
		}
	}

	var completed [Channels]bool
	for _, kind := range ChannelKinds() {
		if utilities.IsNone(completions[kind]) {
			continue
		}
		c := t.channels[kind]
		id := utilities.GetSome(completions[kind])
		duration, err := c.Tracker.Complete(id, now)
		if err != nil {
			t.fatal = fmt.Errorf("channel %s at tick %d: %w", kind, t.ticks, err)
			t.debugging.Debugf("%v\n", t.fatal)
			return t.fatal
		}
		completed[kind] = true
		c.Stats.Observe(duration, now)
		if t.hook != nil {
			t.hook(CompletionRecord{Tick: t.ticks, Channel: kind, ID: id, Duration: duration})
		}
	}

	var issued [Channels]utilities.Optional[Transaction]
	for _, kind := range ChannelKinds() {
		if !decision.Fire[kind] {
			continue
		}
		c := t.channels[kind]
		addr, length := c.Sequencer.Advance()
		id := c.Tracker.Issue(now)
		c.Dispatched.Set((c.Dispatched.Value() + 1) & t.counterMask)
		issued[kind] = utilities.Some(Transaction{
			Channel: kind,
			ID:      id,
			Addr:    addr,
			Len:     length,
			Hint:    decision.Hint[kind],
		})
	}

	if busy {
		t.Scheduler.Coupling.DiscardWrite()
	}
	wasRunning := t.Scheduler.Running()
	t.Scheduler.Commit(decision)
	if wasRunning != t.Scheduler.Running() {
		t.debugging.Debugf("generator %s at tick %d\n",
			utilities.Conditional(t.Scheduler.Running(), "started", "stopped"), t.ticks)
	}
	t.endpoint.Step(issued, completed)

	if t.TimeEn.Value() {
		t.Time.Set((now + 1) & t.counterMask)
	}
	t.Time.Commit()
	t.TimeEn.Commit()

	for _, c := range t.channels {
		c.Sequencer.Commit()
		c.Stats.Commit()
		c.Dispatched.Commit()
		c.Stats.Enabled = t.TimeEn.Value()
		if err := t.commitOrdering(c, busy); err != nil {
			t.fatal = err
			return err
		}
	}
	t.ticks++
	return nil
}

// commitOrdering swaps the tracker variant. Changes are only accepted while
// the tester is idle.
func (t *Tester) commitOrdering(c *Channel, busy bool) error {
	if busy {
		c.Ordering.DiscardWrite()
		return nil
	}
	if !c.Ordering.Commit() || c.Ordering.Value() == c.Tracker.Mode() {
		return nil
	}
	tr, err := tracker.New(c.Ordering.Value(), uint(t.caps.IdWidth), uint(t.caps.CounterWidth))
	if err != nil {
		return err
	}
	c.Tracker = tr
	t.debugging.Debugf("channel %s switched to %s ordering\n", c.Kind, tr.Mode())
	return nil
}

// RunUntilIdle ticks until the tester is idle, the budget of ticks is spent
// or the context is cancelled. A budget of 0 means no limit.
func (t *Tester) RunUntilIdle(ctx context.Context, budget uint64) error {
	for spent := uint64(0); !t.Idle(); spent++ {
		if budget != 0 && spent >= budget {
			return fmt.Errorf("%w after %d ticks", ErrNotIdle, spent)
		}
		if spent%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := t.Tick(); err != nil {
			return err
		}
	}
	return nil
}
