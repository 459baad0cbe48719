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

// Package regmap describes the word-addressed register map of a tester and
// decodes bus accesses onto it.
package regmap

import (
	"fmt"

	"github.com/network-quality/goaxiperf/engine"
)

const (
	// Identity is "TEST" read as a big-endian u32.
	Identity uint32 = 0x54455354

	IdentityOffset     uint32 = 0
	ControlOffset      uint32 = 4
	TimeOffset         uint32 = 8
	CapabilitiesOffset uint32 = 12
	ChannelsOffset            = CapabilitiesOffset + engine.CapabilitiesSize

	WordSize         uint32 = 4
	PatternEntrySize uint32 = 8
)

// AddrGenWord indexes the address generator block of a channel.
type AddrGenWord uint32

const (
	Credit AddrGenWord = iota
	Addr
	AddrStep
	AddrMask
	AddrMode
	AddrOffset
	TransLen
	TransLenStep
	TransLenMask
	TransLenMode
	AddrGenWords
)

var addrGenNames = [...]string{
	"credit", "addr", "addr_step", "addr_mask", "addr_mode", "addr_offset",
	"trans_len", "trans_len_step", "trans_len_mask", "trans_len_mode",
}

func (w AddrGenWord) String() string {
	if w < AddrGenWords {
		return addrGenNames[w]
	}
	return fmt.Sprintf("addr_gen[%d]", uint32(w))
}

// StatWord indexes the scalar statistics that follow the last values.
type StatWord uint32

const (
	MinVal StatWord = iota
	MaxVal
	SumVal
	InputCnt
	LastTime
	StatWords
)

var statNames = [...]string{"min_val", "max_val", "sum_val", "input_cnt", "last_time"}

func (w StatWord) String() string {
	if w < StatWords {
		return statNames[w]
	}
	return fmt.Sprintf("stat[%d]", uint32(w))
}

// Layout holds the offsets that depend on the capabilities. Offsets in a
// channel block are relative to the block start.
type Layout struct {
	Capabilities engine.Capabilities

	DispatchedOffset        uint32
	AddrGenOffset           uint32
	StatsOffset             uint32
	HistogramCountersOffset uint32
	LastValuesOffset        uint32
	ScalarStatsOffset       uint32
	ChannelSize             uint32
}

func NewLayout(caps engine.Capabilities) Layout {
	h := uint32(caps.HistogramItems)
	l := Layout{Capabilities: caps}
	l.DispatchedOffset = uint32(caps.RwPatternItems) * PatternEntrySize
	l.AddrGenOffset = l.DispatchedOffset + WordSize
	l.StatsOffset = l.AddrGenOffset + uint32(AddrGenWords)*WordSize
	l.HistogramCountersOffset = l.StatsOffset + (h-1)*WordSize
	l.LastValuesOffset = l.HistogramCountersOffset + h*WordSize
	l.ScalarStatsOffset = l.LastValuesOffset + uint32(caps.LastValuesItems)*WordSize
	l.ChannelSize = l.ScalarStatsOffset + uint32(StatWords)*WordSize
	return l
}

// StatsSize is the size of the stats block: (H-1) keys, H counters, L last
// values and five scalars.
func (l Layout) StatsSize() uint32 {
	return l.ChannelSize - l.StatsOffset
}

func (l Layout) Size() uint32 {
	return ChannelsOffset + engine.Channels*l.ChannelSize
}

func (l Layout) ChannelBase(ch engine.ChannelKind) uint32 {
	return ChannelsOffset + uint32(ch)*l.ChannelSize
}

// PatternEntry is the offset of the first word of pattern entry i.
func (l Layout) PatternEntry(ch engine.ChannelKind, i int) uint32 {
	return l.ChannelBase(ch) + uint32(i)*PatternEntrySize
}

func (l Layout) Dispatched(ch engine.ChannelKind) uint32 {
	return l.ChannelBase(ch) + l.DispatchedOffset
}

func (l Layout) AddrGen(ch engine.ChannelKind, w AddrGenWord) uint32 {
	return l.ChannelBase(ch) + l.AddrGenOffset + uint32(w)*WordSize
}

func (l Layout) HistogramKey(ch engine.ChannelKind, i int) uint32 {
	return l.ChannelBase(ch) + l.StatsOffset + uint32(i)*WordSize
}

func (l Layout) HistogramCounter(ch engine.ChannelKind, i int) uint32 {
	return l.ChannelBase(ch) + l.HistogramCountersOffset + uint32(i)*WordSize
}

func (l Layout) LastValue(ch engine.ChannelKind, i int) uint32 {
	return l.ChannelBase(ch) + l.LastValuesOffset + uint32(i)*WordSize
}

func (l Layout) Stat(ch engine.ChannelKind, w StatWord) uint32 {
	return l.ChannelBase(ch) + l.ScalarStatsOffset + uint32(w)*WordSize
}

func (l Layout) String() string {
	return fmt.Sprintf("id: 0x%04x\n", IdentityOffset) +
		fmt.Sprintf("control: 0x%04x\n", ControlOffset) +
		fmt.Sprintf("time: 0x%04x\n", TimeOffset) +
		fmt.Sprintf("capabilities: 0x%04x\n", CapabilitiesOffset) +
		fmt.Sprintf("r: 0x%04x\n", l.ChannelBase(engine.Read)) +
		fmt.Sprintf("w: 0x%04x\n", l.ChannelBase(engine.Write)) +
		fmt.Sprintf("  pattern: +0x%04x (%d entries)\n", 0, l.Capabilities.RwPatternItems) +
		fmt.Sprintf("  dispatched_cntr: +0x%04x\n", l.DispatchedOffset) +
		fmt.Sprintf("  addr_gen_config: +0x%04x\n", l.AddrGenOffset) +
		fmt.Sprintf("  histogram_keys: +0x%04x\n", l.StatsOffset) +
		fmt.Sprintf("  histogram_counters: +0x%04x\n", l.HistogramCountersOffset) +
		fmt.Sprintf("  last_values: +0x%04x\n", l.LastValuesOffset) +
		fmt.Sprintf("  min/max/sum/input_cnt/last_time: +0x%04x\n", l.ScalarStatsOffset) +
		fmt.Sprintf("size: 0x%04x\n", l.Size())
}
