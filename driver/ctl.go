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

// Package driver runs test jobs on a tester reachable through a word bus.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/job"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/regmap"
	"github.com/network-quality/goaxiperf/utilities"
)

var (
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrNegativePending  = errors.New("negative pending transaction count")
)

// Bus is a little-endian 32-bit word access to the register map of a
// tester.
type Bus interface {
	Read32(ctx context.Context, offset uint32) (uint32, error)
	Write32(ctx context.Context, offset uint32, value uint32) error
}

// Ctl holds the application logic of a tester driver on top of a Bus.
type Ctl struct {
	bus          Bus
	pollInterval time.Duration
	creditMode   pattern.CreditMode
	debugging    *debug.DebugWithPrefix

	layout *regmap.Layout
}

func NewCtl(bus Bus, pollInterval time.Duration, creditMode pattern.CreditMode, debugging *debug.DebugWithPrefix) *Ctl {
	return &Ctl{bus: bus, pollInterval: pollInterval, creditMode: creditMode, debugging: debugging}
}

// LoadConfig queries the capabilities of the tester and derives the
// register layout from them.
func (c *Ctl) LoadConfig(ctx context.Context) (engine.Capabilities, error) {
	buf := make([]byte, 0, engine.CapabilitiesSize)
	for offset := uint32(0); offset < engine.CapabilitiesSize; offset += regmap.WordSize {
		v, err := c.bus.Read32(ctx, regmap.CapabilitiesOffset+offset)
		if err != nil {
			return engine.Capabilities{}, fmt.Errorf("reading capabilities: %w", err)
		}
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	caps, err := engine.DecodeCapabilities(buf)
	if err != nil {
		return engine.Capabilities{}, err
	}
	if err := caps.Validate(); err != nil {
		return engine.Capabilities{}, fmt.Errorf("tester reported unusable capabilities: %w", err)
	}
	layout := regmap.NewLayout(caps)
	c.layout = &layout
	c.debugging.Debugf("loaded capabilities, register map size 0x%x\n", layout.Size())
	return caps, nil
}

func (c *Ctl) Layout(ctx context.Context) (regmap.Layout, error) {
	if c.layout == nil {
		if _, err := c.LoadConfig(ctx); err != nil {
			return regmap.Layout{}, err
		}
	}
	return *c.layout, nil
}

func (c *Ctl) CheckIdentity(ctx context.Context) error {
	id, err := c.bus.Read32(ctx, regmap.IdentityOffset)
	if err != nil {
		return err
	}
	if id != regmap.Identity {
		return fmt.Errorf("got 0x%08x, expected 0x%08x: %w", id, regmap.Identity, ErrIdentityMismatch)
	}
	return nil
}

func (c *Ctl) WriteControl(ctx context.Context, control engine.Control, resetTime bool) error {
	if err := c.bus.Write32(ctx, regmap.ControlOffset, engine.EncodeControl(control)); err != nil {
		return err
	}
	if resetTime {
		return c.bus.Write32(ctx, regmap.TimeOffset, 0)
	}
	return nil
}

func (c *Ctl) Time(ctx context.Context) (uint32, error) {
	return c.bus.Read32(ctx, regmap.TimeOffset)
}

// ApplyConfig uploads the job. It resets the dispatched counters, the
// histogram counters and the statistics, with the minimum preset to the
// largest representable value.
func (c *Ctl) ApplyConfig(ctx context.Context, j job.TestJob) error {
	l, err := c.Layout(ctx)
	if err != nil {
		return err
	}
	if err := j.Validate(l.Capabilities, c.creditMode); err != nil {
		return err
	}
	counterMax := uint32(utilities.Mask(uint(l.Capabilities.CounterWidth)))
	for _, kind := range engine.ChannelKinds() {
		ch := j.Channels[kind]
		for i, entry := range ch.Pattern {
			w0, w1 := regmap.EncodePatternEntry(entry)
			if err := c.bus.Write32(ctx, l.PatternEntry(kind, i), w0); err != nil {
				return err
			}
			if err := c.bus.Write32(ctx, l.PatternEntry(kind, i)+regmap.WordSize, w1); err != nil {
				return err
			}
		}
		if err := c.bus.Write32(ctx, l.Dispatched(kind), 0); err != nil {
			return err
		}
		for i, v := range ch.AddrGen.Words() {
			if err := c.bus.Write32(ctx, l.AddrGen(kind, regmap.AddrGenWord(i)), v); err != nil {
				return err
			}
		}
		for i, k := range ch.StatConfig.HistogramKeys {
			if err := c.bus.Write32(ctx, l.HistogramKey(kind, i), k); err != nil {
				return err
			}
		}
		for offset := l.ChannelBase(kind) + l.HistogramCountersOffset; offset < l.ChannelBase(kind)+l.ChannelSize; offset += regmap.WordSize {
			v := uint32(0)
			if offset == l.Stat(kind, regmap.MinVal) {
				v = counterMax
			}
			if err := c.bus.Write32(ctx, offset, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Ctl) IsGeneratorRunning(ctx context.Context) (bool, error) {
	v, err := c.bus.Read32(ctx, regmap.ControlOffset)
	if err != nil {
		return false, err
	}
	return engine.DecodeControl(v).GeneratorEn, nil
}

// PendingTransactions is the number of transactions dispatched but not yet
// collected.
func (c *Ctl) PendingTransactions(ctx context.Context, kind engine.ChannelKind) (uint32, error) {
	l, err := c.Layout(ctx)
	if err != nil {
		return 0, err
	}
	dispatched, err := c.bus.Read32(ctx, l.Dispatched(kind))
	if err != nil {
		return 0, err
	}
	collected, err := c.bus.Read32(ctx, l.Stat(kind, regmap.InputCnt))
	if err != nil {
		return 0, err
	}
	if dispatched < collected {
		return 0, fmt.Errorf("channel %s: %d dispatched, %d collected: %w", kind, dispatched, collected, ErrNegativePending)
	}
	return dispatched - collected, nil
}

func (c *Ctl) readWords(ctx context.Context, offset uint32, count int) ([]uint32, error) {
	words := make([]uint32, count)
	for i := range words {
		v, err := c.bus.Read32(ctx, offset+uint32(i)*regmap.WordSize)
		if err != nil {
			return nil, err
		}
		words[i] = v
	}
	return words, nil
}

// DownloadChannelReport reads all counters, the histogram and the other
// report registers of a channel.
func (c *Ctl) DownloadChannelReport(ctx context.Context, kind engine.ChannelKind, histogramKeys []uint32) (job.ChannelReport, error) {
	l, err := c.Layout(ctx)
	if err != nil {
		return job.ChannelReport{}, err
	}
	rep := job.ChannelReport{HistogramKeys: histogramKeys}
	if rep.Credit, err = c.bus.Read32(ctx, l.AddrGen(kind, regmap.Credit)); err != nil {
		return job.ChannelReport{}, err
	}
	if rep.DispatchedCntr, err = c.bus.Read32(ctx, l.Dispatched(kind)); err != nil {
		return job.ChannelReport{}, err
	}
	if rep.HistogramCounters, err = c.readWords(ctx, l.HistogramCounter(kind, 0), int(l.Capabilities.HistogramItems)); err != nil {
		return job.ChannelReport{}, err
	}
	if rep.LastValues, err = c.readWords(ctx, l.LastValue(kind, 0), int(l.Capabilities.LastValuesItems)); err != nil {
		return job.ChannelReport{}, err
	}
	scalars, err := c.readWords(ctx, l.Stat(kind, regmap.MinVal), int(regmap.StatWords))
	if err != nil {
		return job.ChannelReport{}, err
	}
	rep.MinVal, rep.MaxVal, rep.SumVal, rep.InputCnt, rep.LastTime = scalars[0], scalars[1], scalars[2], scalars[3], scalars[4]
	return rep, nil
}

func (c *Ctl) idle(ctx context.Context) (bool, error) {
	running, err := c.IsGeneratorRunning(ctx)
	if err != nil || running {
		return false, err
	}
	for _, kind := range engine.ChannelKinds() {
		pending, err := c.PendingTransactions(ctx, kind)
		if err != nil || pending > 0 {
			return false, err
		}
	}
	return true, nil
}

// stopTimeout bounds the disable write issued after an aborted run.
const stopTimeout = time.Second

// waitIdle polls until the generator stopped and every dispatched
// transaction was collected on both channels.
func (c *Ctl) waitIdle(ctx context.Context) error {
	for polls := 0; ; polls++ {
		done, err := c.idle(ctx)
		if err != nil {
			return err
		}
		if done {
			c.debugging.Debugf("idle after %d polls\n", polls)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// stop disables the generator after an aborted run. It does not depend on
// ctx being alive. time_en stays set so that the transactions still in
// flight are collected when they complete.
func (c *Ctl) stop(ctx context.Context, j job.TestJob) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	if err := c.WriteControl(stopCtx, j.Control(true, false), false); err != nil {
		c.debugging.Warnf("could not stop the generator: %v\n", err)
		return
	}
	c.debugging.Debugf("generator stopped after an aborted run\n")
}

// drain waits for a tester left busy by an earlier, aborted run. The
// generator is disabled with time_en set and the leftover transactions are
// collected before the counters of the new run are reset.
func (c *Ctl) drain(ctx context.Context, j job.TestJob) error {
	done, err := c.idle(ctx)
	if err != nil || done {
		return err
	}
	c.debugging.Debugf("tester is busy, draining before the test\n")
	if err := c.WriteControl(ctx, j.Control(true, false), false); err != nil {
		return err
	}
	if err := c.waitIdle(ctx); err != nil {
		return fmt.Errorf("draining the previous run: %w", err)
	}
	return nil
}

// ExecTest runs the job and downloads the report. Nothing is written when
// the identity does not match or the job does not fit the tester. When the
// run is aborted after the generator was enabled, the generator is disabled
// before returning.
func (c *Ctl) ExecTest(ctx context.Context, j job.TestJob) (job.TestReport, error) {
	l, err := c.Layout(ctx)
	if err != nil {
		return job.TestReport{}, err
	}
	if err := c.CheckIdentity(ctx); err != nil {
		return job.TestReport{}, err
	}
	if err := j.Validate(l.Capabilities, c.creditMode); err != nil {
		return job.TestReport{}, err
	}
	if err := c.drain(ctx, j); err != nil {
		return job.TestReport{}, err
	}

	if err := c.WriteControl(ctx, j.Control(false, false), true); err != nil {
		return job.TestReport{}, err
	}
	if err := c.ApplyConfig(ctx, j); err != nil {
		return job.TestReport{}, err
	}
	if err := c.WriteControl(ctx, j.Control(true, true), false); err != nil {
		c.stop(ctx, j)
		return job.TestReport{}, err
	}
	c.debugging.Debugf("test started\n")

	if err := c.waitIdle(ctx); err != nil {
		c.stop(ctx, j)
		return job.TestReport{}, err
	}
	c.debugging.Debugf("test finished\n")

	if err := c.WriteControl(ctx, j.Control(false, false), false); err != nil {
		c.stop(ctx, j)
		return job.TestReport{}, err
	}
	rep := job.TestReport{}
	if rep.Time, err = c.Time(ctx); err != nil {
		return job.TestReport{}, err
	}
	for _, kind := range engine.ChannelKinds() {
		if rep.Channels[kind], err = c.DownloadChannelReport(ctx, kind, j.Channels[kind].StatConfig.HistogramKeys); err != nil {
			return job.TestReport{}, err
		}
	}
	return rep, nil
}
