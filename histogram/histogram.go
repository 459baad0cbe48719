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

// Package histogram buckets observed durations by ascending boundary keys.
package histogram

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/network-quality/goaxiperf/register"
	"github.com/network-quality/goaxiperf/utilities"
)

// Table has items counters and items-1 keys. Bucket 0 counts values below
// key[0], the last bucket counts values from key[items-2] up and bucket i
// counts values in [key[i-1], key[i]).
type Table struct {
	Keys     *register.File[uint32]
	Counters *register.File[uint32]

	keys        []uint32
	counterMask uint32
}

func New(items int, counterWidth uint) (*Table, error) {
	if items < 2 {
		return nil, fmt.Errorf("a histogram needs at least 2 items, got %d", items)
	}
	return &Table{
		Keys:        register.NewFile[uint32](items-1, 0),
		Counters:    register.NewFile[uint32](items, 0),
		keys:        make([]uint32, items-1),
		counterMask: uint32(utilities.Mask(counterWidth)),
	}, nil
}

func (t *Table) Items() int {
	return t.Counters.Len()
}

// Bucket finds the counter a value belongs to.
func (t *Table) Bucket(value uint32) int {
	pos, found := slices.BinarySearch(t.keys, value)
	if found {
		return pos + 1
	}
	return pos
}

// Observe stages the increment of the bucket of value.
func (t *Table) Observe(value uint32) int {
	bucket := t.Bucket(value)
	t.Counters.Set(bucket, (t.Counters.Value(bucket)+1)&t.counterMask)
	return bucket
}

func (t *Table) Commit() {
	refresh := t.Keys.HasPendingWrites()
	t.Keys.Commit()
	t.Counters.Commit()
	if refresh {
		t.keys = t.Keys.Values()
	}
}

// Load replaces keys immediately and clears the counters.
func (t *Table) Load(keys []uint32) error {
	if len(keys) != t.Keys.Len() {
		return fmt.Errorf("expected %d histogram keys, got %d", t.Keys.Len(), len(keys))
	}
	for i, k := range keys {
		t.Keys.Write(i, k)
	}
	t.Keys.Commit()
	t.keys = t.Keys.Values()
	t.Counters.Fill(0)
	return nil
}
