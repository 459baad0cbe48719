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

package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	axitesting "github.com/network-quality/goaxiperf/testing"
	"github.com/network-quality/goaxiperf/utilities"
)

func newCollector(t *testing.T, lastValues int) *Collector {
	c, err := New(4, lastValues, 32)
	require.NoError(t, err)
	require.NoError(t, c.Histogram.Load([]uint32{10, 20, 30}))
	c.Enabled = true
	return c
}

func observe(c *Collector, duration uint32, now uint32) {
	c.Observe(duration, now)
	c.Commit()
}

func TestResetPresetsMinimum(t *testing.T) {
	c := newCollector(t, 4)
	s := c.Snapshot()
	assert.Equal(t, uint32(0xFFFFFFFF), s.MinVal)
	assert.Equal(t, uint32(0), s.MaxVal)
	assert.Equal(t, uint32(0), s.InputCnt)

	narrow, err := New(2, 2, 12)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFF), narrow.MinVal.Value())
}

func TestObserveUpdatesAggregates(t *testing.T) {
	c := newCollector(t, 4)
	observe(c, 15, 100)
	observe(c, 5, 110)
	observe(c, 40, 120)

	s := c.Snapshot()
	assert.Equal(t, uint32(5), s.MinVal)
	assert.Equal(t, uint32(40), s.MaxVal)
	assert.Equal(t, uint32(60), s.SumVal)
	assert.Equal(t, uint32(3), s.InputCnt)
	assert.Equal(t, uint32(120), s.LastTime)
	assert.Equal(t, []uint32{1, 1, 0, 1}, s.HistogramCounters)
	assert.Equal(t, []uint32{15, 5, 40, 0}, s.LastValues)
}

func TestObserveDisabledIsNoop(t *testing.T) {
	c := newCollector(t, 4)
	c.Enabled = false
	assert.False(t, c.Observe(7, 1))
	c.Commit()
	assert.Equal(t, uint32(0), c.InputCnt.Value())
}

func TestLastValuesWrapAround(t *testing.T) {
	c := newCollector(t, 3)
	for i := uint32(1); i <= 5; i++ {
		observe(c, i, i)
	}
	assert.Equal(t, []uint32{4, 5, 3}, c.LastValues.Values())
}

func TestExternalWriteWinsOverObservation(t *testing.T) {
	c := newCollector(t, 4)
	c.Observe(9, 3)
	c.InputCnt.Write(100)
	c.Commit()
	assert.Equal(t, uint32(100), c.InputCnt.Value())
	assert.Equal(t, uint32(9), c.MinVal.Value())
}

func TestAggregateInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, lastValues := range []int{1, 8, 64} {
		c := newCollector(t, lastValues)
		n := rng.Intn(200)
		for i := 0; i < n; i++ {
			observe(c, uint32(rng.Intn(50)+1), uint32(i))
		}
		s := c.Snapshot()
		assert.Equal(t, uint64(s.InputCnt), axitesting.SumCounters(s.HistogramCounters))
		assert.Equal(t, utilities.Min(lastValues, int(s.InputCnt)), axitesting.NonZero(s.LastValues))
		if s.InputCnt > 0 {
			assert.GreaterOrEqual(t, s.MaxVal, s.MinVal)
		} else {
			assert.Equal(t, uint32(0xFFFFFFFF), s.MinVal)
		}
	}
}

func TestInvalidSizes(t *testing.T) {
	_, err := New(1, 4, 32)
	assert.Error(t, err)
	_, err = New(4, 0, 32)
	assert.Error(t, err)
}
