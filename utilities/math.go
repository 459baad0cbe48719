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
	"math"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func CalculateAverage[T Number](elements []T) float64 {
	if len(elements) == 0 {
		return 0
	}
	total := float64(0)
	for i := 0; i < len(elements); i++ {
		total += float64(elements[i])
	}
	return total / float64(len(elements))
}

func CalculateStandardDeviation[T Number](elements []T) float64 {
	if len(elements) == 0 {
		return 0
	}
	average := CalculateAverage(elements)

	// The variance is the average of the squared differences from the mean.
	sds := float64(0)
	for _, value := range elements {
		sds += math.Pow(float64(value)-average, 2)
	}
	variance := sds / float64(len(elements))

	return math.Sqrt(variance)
}

// Mask returns a value with the lowest width bits set.
func Mask(width uint) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << width) - 1
}

func Min[T constraints.Ordered](x, y T) T {
	if x < y {
		return x
	}
	return y
}

func Max[T constraints.Ordered](x, y T) T {
	if x > y {
		return x
	}
	return y
}

func Filter[S any](elements []S, predicate func(S) bool) []S {
	result := make([]S, 0, len(elements))
	for _, e := range elements {
		if predicate(e) {
			result = append(result, e)
		}
	}
	return result
}

func Fmap[S any, F any](elements []S, mapper func(S) F) []F {
	result := make([]F, len(elements))
	for i, e := range elements {
		result[i] = mapper(e)
	}
	return result
}

func Sum[T Number](elements []T) T {
	total := T(0)
	for _, e := range elements {
		total += e
	}
	return total
}
