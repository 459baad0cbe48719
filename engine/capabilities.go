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
	"encoding/binary"
	"fmt"
)

// CapabilitiesSize is the size of the serialized capability block.
const CapabilitiesSize = 16

// Capabilities are the build-time parameters of a tester.
type Capabilities struct {
	CounterWidth    uint16 `json:"counter_width"`
	RwPatternItems  uint16 `json:"rw_pattern_items"`
	HistogramItems  uint16 `json:"histogram_items"`
	LastValuesItems uint16 `json:"last_values_items"`
	IdWidth         uint16 `json:"id_width"`
	AddrWidth       uint16 `json:"addr_width"`
	DataWidth       uint16 `json:"data_width"`
}

func DefaultCapabilities() Capabilities {
	return Capabilities{
		CounterWidth:    32,
		RwPatternItems:  1024,
		HistogramItems:  32,
		LastValuesItems: 4096,
		IdWidth:         6,
		AddrWidth:       32,
		DataWidth:       512,
	}
}

func (c Capabilities) Validate() error {
	if c.CounterWidth < 1 || c.CounterWidth > 32 {
		return fmt.Errorf("cannot use a counter width of %d bits (1..32)", c.CounterWidth)
	}
	if c.AddrWidth < 1 || c.AddrWidth > 32 {
		return fmt.Errorf("cannot use an address width of %d bits (1..32)", c.AddrWidth)
	}
	if c.RwPatternItems < 1 {
		return fmt.Errorf("cannot use an empty pattern table")
	}
	if c.HistogramItems < 2 {
		return fmt.Errorf("cannot use a histogram with fewer than 2 items (got %d)", c.HistogramItems)
	}
	if c.LastValuesItems < 1 {
		return fmt.Errorf("cannot use an empty last values buffer")
	}
	if c.IdWidth > 16 {
		return fmt.Errorf("cannot use an id width of %d bits (at most 16)", c.IdWidth)
	}
	if c.DataWidth == 0 || c.DataWidth%8 != 0 {
		return fmt.Errorf("cannot use a data width of %d bits (a non-zero multiple of 8)", c.DataWidth)
	}
	return nil
}

// Encode serializes the capabilities as seven little-endian u16 followed by
// a reserved u16.
func (c Capabilities) Encode() []byte {
	buf := make([]byte, CapabilitiesSize)
	for i, v := range []uint16{
		c.CounterWidth, c.RwPatternItems, c.HistogramItems, c.LastValuesItems,
		c.IdWidth, c.AddrWidth, c.DataWidth,
	} {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

func DecodeCapabilities(buf []byte) (Capabilities, error) {
	if len(buf) < CapabilitiesSize {
		return Capabilities{}, fmt.Errorf("capability block of %d bytes is too short", len(buf))
	}
	u16 := func(i int) uint16 { return binary.LittleEndian.Uint16(buf[i*2:]) }
	return Capabilities{
		CounterWidth:    u16(0),
		RwPatternItems:  u16(1),
		HistogramItems:  u16(2),
		LastValuesItems: u16(3),
		IdWidth:         u16(4),
		AddrWidth:       u16(5),
		DataWidth:       u16(6),
	}, nil
}

func (c Capabilities) String() string {
	return fmt.Sprintf("COUNTER_WIDTH: %d\n", c.CounterWidth) +
		fmt.Sprintf("RW_PATTERN_ITEMS: %d\n", c.RwPatternItems) +
		fmt.Sprintf("HISTOGRAM_ITEMS: %d\n", c.HistogramItems) +
		fmt.Sprintf("LAST_VALUES_ITEMS: %d\n", c.LastValuesItems) +
		fmt.Sprintf("ID_WIDTH: %d\n", c.IdWidth) +
		fmt.Sprintf("ADDR_WIDTH: %d\n", c.AddrWidth) +
		fmt.Sprintf("DATA_WIDTH: %d\n", c.DataWidth)
}
