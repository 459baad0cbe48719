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

// Package register models configuration/status fields that are shared
// between the tester logic and an external bus master. Every field keeps a
// held value, the next value computed by the logic during the current tick
// and a pending external write. Commit makes the external write win over the
// internally computed value.
package register

import (
	"github.com/network-quality/goaxiperf/utilities"
)

type Field[T any] struct {
	held  T
	next  utilities.Optional[T]
	write utilities.Optional[T]
}

func NewField[T any](initial T) Field[T] {
	return Field[T]{held: initial, next: utilities.None[T](), write: utilities.None[T]()}
}

// Value is the committed value (the one visible during the current tick).
func (f *Field[T]) Value() T {
	return f.held
}

// Set stages the internally computed next value.
func (f *Field[T]) Set(next T) {
	f.next = utilities.Some(next)
}

// Write stages an external write.
func (f *Field[T]) Write(value T) {
	f.write = utilities.Some(value)
}

func (f *Field[T]) PendingWrite() (T, bool) {
	if utilities.IsSome(f.write) {
		return utilities.GetSome(f.write), true
	}
	var zero T
	return zero, false
}

// DiscardWrite drops a staged external write (used for fields that only
// accept writes in certain states).
func (f *Field[T]) DiscardWrite() {
	f.write = utilities.None[T]()
}

// Commit applies the pending write or, absent one, the staged next value.
// It reports whether the held value was replaced.
func (f *Field[T]) Commit() bool {
	defer func() {
		f.next = utilities.None[T]()
		f.write = utilities.None[T]()
	}()
	if utilities.IsSome(f.write) {
		f.held = utilities.GetSome(f.write)
		return true
	}
	if utilities.IsSome(f.next) {
		f.held = utilities.GetSome(f.next)
		return true
	}
	return false
}

// Load replaces the held value immediately and drops anything staged.
func (f *Field[T]) Load(value T) {
	f.held = value
	f.next = utilities.None[T]()
	f.write = utilities.None[T]()
}

// File is a fixed-size array of fields. Only touched entries are visited on
// Commit.
type File[T any] struct {
	fields []Field[T]
	dirty  []int
}

func NewFile[T any](items int, initial T) *File[T] {
	f := &File[T]{fields: make([]Field[T], items), dirty: make([]int, 0, 4)}
	for i := range f.fields {
		f.fields[i] = NewField(initial)
	}
	return f
}

func (f *File[T]) Len() int {
	return len(f.fields)
}

func (f *File[T]) Value(i int) T {
	return f.fields[i].Value()
}

func (f *File[T]) Set(i int, next T) {
	f.fields[i].Set(next)
	f.dirty = append(f.dirty, i)
}

func (f *File[T]) Write(i int, value T) {
	f.fields[i].Write(value)
	f.dirty = append(f.dirty, i)
}

func (f *File[T]) PendingWrite(i int) (T, bool) {
	return f.fields[i].PendingWrite()
}

func (f *File[T]) HasPendingWrites() bool {
	for _, i := range f.dirty {
		if _, ok := f.fields[i].PendingWrite(); ok {
			return true
		}
	}
	return false
}

func (f *File[T]) DiscardWrites() {
	for _, i := range f.dirty {
		f.fields[i].DiscardWrite()
	}
}

func (f *File[T]) Commit() {
	for _, i := range f.dirty {
		f.fields[i].Commit()
	}
	f.dirty = f.dirty[:0]
}

// Values copies the committed values.
func (f *File[T]) Values() []T {
	result := make([]T, len(f.fields))
	for i := range f.fields {
		result[i] = f.fields[i].held
	}
	return result
}

// Fill loads every entry immediately.
func (f *File[T]) Fill(value T) {
	for i := range f.fields {
		f.fields[i].Load(value)
	}
	f.dirty = f.dirty[:0]
}
