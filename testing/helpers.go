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

// Package testing holds helpers shared by the package tests.
package testing

// DidPanic reports whether doer panics.
func DidPanic(doer func()) (didPanic bool) {
	didPanic = false

	defer func() {
		if recovering := recover(); recovering != nil {
			didPanic = true
		}
	}()

	doer()

	return
}

// NonZero counts the non-zero values (the occupancy of a last-values buffer
// that only ever records durations of at least one tick).
func NonZero(values []uint32) int {
	count := 0
	for _, v := range values {
		if v != 0 {
			count++
		}
	}
	return count
}

// SumCounters adds up histogram counters without overflowing.
func SumCounters(counters []uint32) uint64 {
	var sum uint64
	for _, c := range counters {
		sum += uint64(c)
	}
	return sum
}
