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

package addrgen

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	// AddressPolynomial is the (reflected) CRC-32 polynomial used for
	// address sequences in CRC mode.
	AddressPolynomial uint32 = crc32.IEEE
	// LengthPolynomial is the CRC-8 polynomial (x^8 + x^2 + x + 1) used for
	// length sequences in CRC mode.
	LengthPolynomial uint8 = 0x07
)

// Crc8Table is a lookup table for a non-reflected CRC-8 with zero initial
// value and no final xor.
type Crc8Table [256]uint8

func MakeCrc8Table(poly uint8) *Crc8Table {
	table := new(Crc8Table)
	for i := 0; i < 256; i++ {
		crc := uint8(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func Crc8(table *Crc8Table, data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc = table[crc^b]
	}
	return crc
}

// Hasher computes the successor of a state in CRC mode. The result is not
// yet truncated to the field width.
type Hasher interface {
	Next(state uint32, width uint) uint32
}

type crc32Hasher struct {
	table *crc32.Table
}

// NewCrc32Hasher hashes the little-endian bytes of the state that cover
// the field width.
func NewCrc32Hasher(poly uint32) Hasher {
	return &crc32Hasher{table: crc32.MakeTable(poly)}
}

func (h *crc32Hasher) Next(state uint32, width uint) uint32 {
	return crc32.Checksum(stateBytes(state, width), h.table)
}

type crc8Hasher struct {
	table *Crc8Table
}

func NewCrc8Hasher(poly uint8) Hasher {
	return &crc8Hasher{table: MakeCrc8Table(poly)}
}

func (h *crc8Hasher) Next(state uint32, width uint) uint32 {
	return uint32(Crc8(h.table, stateBytes(state, width)))
}

func stateBytes(state uint32, width uint) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], state)
	n := (width + 7) / 8
	if n == 0 {
		n = 1
	} else if n > 4 {
		n = 4
	}
	return buf[:n]
}
