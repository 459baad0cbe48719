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

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDidPanic(t *testing.T) {
	assert.True(t, DidPanic(func() { panic("boom") }))
	assert.False(t, DidPanic(func() {}))
}

func TestCounting(t *testing.T) {
	assert.Equal(t, 2, NonZero([]uint32{0, 3, 0, 9}))
	assert.Equal(t, uint64(0x1FFFFFFFE), SumCounters([]uint32{0xFFFFFFFF, 0xFFFFFFFF}))
}
