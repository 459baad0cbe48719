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

package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	assert.Equal(t, uint64(0), Mask(0))
	assert.Equal(t, uint64(0xff), Mask(8))
	assert.Equal(t, uint64(0xffffffff), Mask(32))
	assert.Equal(t, ^uint64(0), Mask(64))
	assert.Equal(t, ^uint64(0), Mask(70))
}

func TestOptional(t *testing.T) {
	some := Some[uint32](7)
	none := None[uint32]()

	assert.True(t, IsSome(some))
	assert.False(t, IsNone(some))
	assert.True(t, IsNone(none))
	assert.Equal(t, uint32(7), GetSome(some))
	assert.Equal(t, uint32(3), GetOr(none, 3))
	assert.Panics(t, func() { GetSome(none) })
}

func TestCalculateAverageAndDeviation(t *testing.T) {
	assert.Equal(t, 0.0, CalculateAverage([]uint32{}))
	assert.InEpsilon(t, 2.5, CalculateAverage([]uint32{1, 2, 3, 4}), 0.000001)
	assert.InEpsilon(t, 2.0, CalculateStandardDeviation([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.000001)
}

func TestFilterFmapSum(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6}
	even := Filter(values, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, even)
	doubled := Fmap(even, func(v int) uint64 { return uint64(v * 2) })
	assert.Equal(t, []uint64{4, 8, 12}, doubled)
	assert.Equal(t, uint64(24), Sum(doubled))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,048,576", FormatCount(1048576))
	assert.Equal(t, "12", FormatCount(uint32(12)))
	assert.Equal(t, "1,234.50", FormatFloat(1234.5, 2))
}

func TestConditional(t *testing.T) {
	assert.Equal(t, "yes", Conditional(true, "yes", "no"))
	assert.Equal(t, 2, Conditional(false, 1, 2))
}

func TestIsInterfaceNil(t *testing.T) {
	var p *int
	assert.True(t, IsInterfaceNil(nil))
	assert.True(t, IsInterfaceNil(p))
	assert.False(t, IsInterfaceNil(3))
}
