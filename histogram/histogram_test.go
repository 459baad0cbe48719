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

package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketBoundaries(t *testing.T) {
	h, err := New(4, 32)
	require.NoError(t, err)
	require.NoError(t, h.Load([]uint32{10, 20, 30}))

	cases := map[uint32]int{
		0: 0, 9: 0,
		10: 1, 19: 1,
		20: 2, 29: 2,
		30: 3, 31: 3, 0xFFFFFFFF: 3,
	}
	for value, bucket := range cases {
		assert.Equal(t, bucket, h.Bucket(value), "value %d", value)
	}
}

func TestObserveIsCommittedOnce(t *testing.T) {
	h, _ := New(3, 32)
	require.NoError(t, h.Load([]uint32{5, 50}))

	h.Observe(7)
	assert.Equal(t, []uint32{0, 0, 0}, h.Counters.Values())
	h.Commit()
	assert.Equal(t, []uint32{0, 1, 0}, h.Counters.Values())

	h.Observe(1)
	h.Commit()
	h.Observe(60)
	h.Commit()
	assert.Equal(t, []uint32{1, 1, 1}, h.Counters.Values())
}

func TestExternalKeyWritesRefreshLookup(t *testing.T) {
	h, _ := New(2, 32)
	require.NoError(t, h.Load([]uint32{100}))
	assert.Equal(t, 0, h.Bucket(50))

	h.Keys.Write(0, 10)
	h.Commit()
	assert.Equal(t, 1, h.Bucket(50))
}

func TestCounterWriteWinsOverIncrement(t *testing.T) {
	h, _ := New(2, 32)
	require.NoError(t, h.Load([]uint32{100}))
	h.Observe(1)
	h.Counters.Write(0, 0)
	h.Commit()
	assert.Equal(t, uint32(0), h.Counters.Value(0))
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := New(1, 32)
	assert.Error(t, err)

	h, _ := New(4, 32)
	assert.Error(t, h.Load([]uint32{1, 2}))
}

func TestCounterWraps(t *testing.T) {
	h, _ := New(2, 2)
	require.NoError(t, h.Load([]uint32{100}))
	for i := 0; i < 5; i++ {
		h.Observe(0)
		h.Commit()
	}
	assert.Equal(t, uint32(1), h.Counters.Value(0))
}
