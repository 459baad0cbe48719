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

package engine

import (
	"fmt"

	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/tracker"
)

const (
	controlTimeEn = 1 << iota
	controlRwMode
	controlGeneratorEn
	controlROrdering
	controlWOrdering
)

// Control is the decoded control word.
type Control struct {
	TimeEn      bool
	RwMode      pattern.CouplingMode
	GeneratorEn bool
	ROrdering   tracker.OrderingMode
	WOrdering   tracker.OrderingMode
}

func (c Control) Ordering(ch ChannelKind) tracker.OrderingMode {
	if ch == Write {
		return c.WOrdering
	}
	return c.ROrdering
}

func (c Control) String() string {
	return fmt.Sprintf("time_en=%t rw_mode=%s generator_en=%t r_ordering=%s w_ordering=%s",
		c.TimeEn, c.RwMode, c.GeneratorEn, c.ROrdering, c.WOrdering)
}

func bit(b bool, mask uint32) uint32 {
	if b {
		return mask
	}
	return 0
}

// EncodeControl packs the control bits; reserved bits are zero.
func EncodeControl(c Control) uint32 {
	return bit(c.TimeEn, controlTimeEn) |
		bit(c.RwMode != pattern.Sync, controlRwMode) |
		bit(c.GeneratorEn, controlGeneratorEn) |
		bit(c.ROrdering != tracker.InOrder, controlROrdering) |
		bit(c.WOrdering != tracker.InOrder, controlWOrdering)
}

// DecodeControl ignores the reserved bits.
func DecodeControl(v uint32) Control {
	c := Control{
		TimeEn:      v&controlTimeEn != 0,
		GeneratorEn: v&controlGeneratorEn != 0,
	}
	if v&controlRwMode != 0 {
		c.RwMode = pattern.Independent
	}
	if v&controlROrdering != 0 {
		c.ROrdering = tracker.OutOfOrder
	}
	if v&controlWOrdering != 0 {
		c.WOrdering = tracker.OutOfOrder
	}
	return c
}
