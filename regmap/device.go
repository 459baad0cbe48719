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

package regmap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/network-quality/goaxiperf/addrgen"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/register"
	"github.com/network-quality/goaxiperf/utilities"
)

var (
	ErrUnaligned  = errors.New("unaligned access")
	ErrOutOfRange = errors.New("access out of range")
)

const patternEnableBit = 16

// EncodePatternEntry returns the two words of a pattern entry.
func EncodePatternEntry(e pattern.Entry) (uint32, uint32) {
	word1 := uint32(e.Delay)
	if e.Enabled {
		word1 |= 1 << patternEnableBit
	}
	return e.AddrHint, word1
}

func decodePatternWord1(e pattern.Entry, v uint32) pattern.Entry {
	e.Delay = uint16(v)
	e.Enabled = (v>>patternEnableBit)&1 != 0
	return e
}

// Device exposes a tester through 32-bit word accesses. Reads return the
// committed state; writes are staged and take effect on the next tick. It
// is not safe for concurrent use.
type Device struct {
	tester *engine.Tester
	layout Layout
	caps   []byte
}

func NewDevice(tester *engine.Tester) *Device {
	return &Device{
		tester: tester,
		layout: NewLayout(tester.Capabilities()),
		caps:   tester.Capabilities().Encode(),
	}
}

func (d *Device) Layout() Layout {
	return d.layout
}

func (d *Device) Tester() *engine.Tester {
	return d.tester
}

func (d *Device) check(offset uint32) error {
	if offset%WordSize != 0 {
		return fmt.Errorf("offset 0x%x: %w", offset, ErrUnaligned)
	}
	if offset >= d.layout.Size() {
		return fmt.Errorf("offset 0x%x (size 0x%x): %w", offset, d.layout.Size(), ErrOutOfRange)
	}
	return nil
}

// location is a decoded channel block offset.
type location struct {
	ch    engine.ChannelKind
	inner uint32
}

func (d *Device) locate(offset uint32) location {
	rel := offset - ChannelsOffset
	return location{
		ch:    engine.ChannelKind(rel / d.layout.ChannelSize),
		inner: rel % d.layout.ChannelSize,
	}
}

func (d *Device) generatorWord(ch engine.ChannelKind, w AddrGenWord) (*addrgen.Generator, int) {
	seq := d.tester.Channel(ch).Sequencer
	if w >= TransLen {
		return seq.Length, int(w - TransLen)
	}
	return seq.Address, int(w - Addr)
}

func (d *Device) Read32(offset uint32) (uint32, error) {
	if err := d.check(offset); err != nil {
		return 0, err
	}
	switch {
	case offset == IdentityOffset:
		return Identity, nil
	case offset == ControlOffset:
		return engine.EncodeControl(d.tester.Control()), nil
	case offset == TimeOffset:
		return d.tester.Time.Value(), nil
	case offset < ChannelsOffset:
		return binary.LittleEndian.Uint32(d.caps[offset-CapabilitiesOffset:]), nil
	}
	return d.readChannel(d.locate(offset)), nil
}

func (d *Device) readChannel(loc location) uint32 {
	l := d.layout
	c := d.tester.Channel(loc.ch)
	s := c.Stats
	switch inner := loc.inner; {
	case inner < l.DispatchedOffset:
		w0, w1 := EncodePatternEntry(d.tester.Scheduler.Table(int(loc.ch)).Value(int(inner / PatternEntrySize)))
		return utilities.Conditional(inner%PatternEntrySize == 0, w0, w1)
	case inner == l.DispatchedOffset:
		return c.Dispatched.Value()
	case inner < l.StatsOffset:
		w := AddrGenWord((inner - l.AddrGenOffset) / WordSize)
		if w == Credit {
			return d.tester.Scheduler.Credit(int(loc.ch)).Value()
		}
		g, field := d.generatorWord(loc.ch, w)
		config := g.Config()
		return [...]uint32{config.State, config.Step, config.Mask, uint32(config.Mode), config.Offset}[field]
	case inner < l.HistogramCountersOffset:
		return s.Histogram.Keys.Value(int((inner - l.StatsOffset) / WordSize))
	case inner < l.LastValuesOffset:
		return s.Histogram.Counters.Value(int((inner - l.HistogramCountersOffset) / WordSize))
	case inner < l.ScalarStatsOffset:
		return s.LastValues.Value(int((inner - l.LastValuesOffset) / WordSize))
	}
	return d.scalar(loc.ch, StatWord((loc.inner-l.ScalarStatsOffset)/WordSize)).Value()
}

func (d *Device) scalar(ch engine.ChannelKind, w StatWord) *register.Field[uint32] {
	s := d.tester.Channel(ch).Stats
	switch w {
	case MinVal:
		return &s.MinVal
	case MaxVal:
		return &s.MaxVal
	case SumVal:
		return &s.SumVal
	case InputCnt:
		return &s.InputCnt
	}
	return &s.LastTime
}

// Write32 stages a write. Writes to the identity and capability words are
// ignored.
func (d *Device) Write32(offset uint32, value uint32) error {
	if err := d.check(offset); err != nil {
		return err
	}
	switch {
	case offset == IdentityOffset:
	case offset == ControlOffset:
		d.tester.WriteControl(engine.DecodeControl(value))
	case offset == TimeOffset:
		d.tester.Time.Write(value)
	case offset < ChannelsOffset:
	default:
		d.writeChannel(d.locate(offset), value)
	}
	return nil
}

func (d *Device) writeChannel(loc location, value uint32) {
	l := d.layout
	c := d.tester.Channel(loc.ch)
	s := c.Stats
	// Counters and statistics are COUNTER_WIDTH bits wide.
	counter := value & uint32(utilities.Mask(uint(d.tester.Capabilities().CounterWidth)))
	switch inner := loc.inner; {
	case inner < l.DispatchedOffset:
		table := d.tester.Scheduler.Table(int(loc.ch))
		i := int(inner / PatternEntrySize)
		entry, staged := table.PendingWrite(i)
		if !staged {
			entry = table.Value(i)
		}
		if inner%PatternEntrySize == 0 {
			entry.AddrHint = value
		} else {
			entry = decodePatternWord1(entry, value)
		}
		table.Write(i, entry)
	case inner == l.DispatchedOffset:
		c.Dispatched.Write(counter)
	case inner < l.StatsOffset:
		w := AddrGenWord((inner - l.AddrGenOffset) / WordSize)
		if w == Credit {
			d.tester.Scheduler.Credit(int(loc.ch)).Write(value)
			return
		}
		g, field := d.generatorWord(loc.ch, w)
		value = uint32(uint64(value) & utilities.Mask(g.Width()))
		switch field {
		case 0:
			g.State.Write(value)
		case 1:
			g.Step.Write(value)
		case 2:
			g.Mask.Write(value)
		case 3:
			g.Mode.Write(addrgen.Mode(value & 1))
		case 4:
			g.Offset.Write(value)
		}
	case inner < l.HistogramCountersOffset:
		s.Histogram.Keys.Write(int((inner-l.StatsOffset)/WordSize), value)
	case inner < l.LastValuesOffset:
		s.Histogram.Counters.Write(int((inner-l.HistogramCountersOffset)/WordSize), counter)
	case inner < l.ScalarStatsOffset:
		s.LastValues.Write(int((inner-l.LastValuesOffset)/WordSize), counter)
	default:
		d.scalar(loc.ch, StatWord((inner-l.ScalarStatsOffset)/WordSize)).Write(counter)
	}
}
