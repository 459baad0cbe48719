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

// Package addrgen produces the (address, length) pair of every request a
// channel issues.
package addrgen

import (
	"fmt"

	"github.com/network-quality/goaxiperf/register"
	"github.com/network-quality/goaxiperf/utilities"
)

// LenWidth is the bit width of the transaction length (AXI4 LEN).
const LenWidth uint = 8

type Mode uint32

const (
	Modulo Mode = 0
	Crc    Mode = 1
)

func (m Mode) String() string {
	switch m {
	case Modulo:
		return "modulo"
	case Crc:
		return "crc"
	}
	return fmt.Sprintf("unknown mode (%d)", uint32(m))
}

func (m Mode) Valid() bool {
	return m == Modulo || m == Crc
}

// Config is the starting configuration of one generated quantity.
type Config struct {
	State  uint32
	Step   uint32
	Mask   uint32
	Mode   Mode
	Offset uint32
}

// Generator is one stateful quantity of fixed bit width. The emitted value
// is ((state & mask) + offset) truncated to the width; each accepted
// firing moves the state forward according to the mode.
type Generator struct {
	width  uint
	hasher Hasher

	State  register.Field[uint32]
	Step   register.Field[uint32]
	Mask   register.Field[uint32]
	Mode   register.Field[Mode]
	Offset register.Field[uint32]
}

func NewGenerator(width uint, hasher Hasher) *Generator {
	g := &Generator{width: width, hasher: hasher}
	g.Reset(Config{})
	return g
}

func (g *Generator) Width() uint {
	return g.width
}

func (g *Generator) truncate(v uint32) uint32 {
	return uint32(uint64(v) & utilities.Mask(g.width))
}

// Reset loads a configuration immediately.
func (g *Generator) Reset(config Config) {
	g.State.Load(g.truncate(config.State))
	g.Step.Load(g.truncate(config.Step))
	g.Mask.Load(g.truncate(config.Mask))
	g.Mode.Load(config.Mode)
	g.Offset.Load(g.truncate(config.Offset))
}

func (g *Generator) Config() Config {
	return Config{
		State:  g.State.Value(),
		Step:   g.Step.Value(),
		Mask:   g.Mask.Value(),
		Mode:   g.Mode.Value(),
		Offset: g.Offset.Value(),
	}
}

// Peek returns the value the next firing would emit.
func (g *Generator) Peek() uint32 {
	return g.truncate((g.State.Value() & g.Mask.Value()) + g.Offset.Value())
}

func (g *Generator) successor() uint32 {
	state := g.State.Value()
	switch g.Mode.Value() {
	case Crc:
		return g.truncate(g.hasher.Next(state, g.width))
	default:
		return g.truncate(state + g.Step.Value())
	}
}

// Advance returns the emitted value and stages the state update. The new
// state becomes visible after Commit.
func (g *Generator) Advance() uint32 {
	value := g.Peek()
	g.State.Set(g.successor())
	return value
}

func (g *Generator) Commit() {
	g.State.Commit()
	g.Step.Commit()
	g.Mask.Commit()
	g.Mode.Commit()
	g.Offset.Commit()
}

// Sequencer pairs the address and the length generator of one channel.
// Both advance together on every accepted firing.
type Sequencer struct {
	Address *Generator
	Length  *Generator
}

func NewSequencer(addrWidth uint) *Sequencer {
	return &Sequencer{
		Address: NewGenerator(addrWidth, NewCrc32Hasher(AddressPolynomial)),
		Length:  NewGenerator(LenWidth, NewCrc8Hasher(LengthPolynomial)),
	}
}

// Reset reloads both generators. The length has no offset.
func (s *Sequencer) Reset(address Config, length Config) {
	length.Offset = 0
	s.Address.Reset(address)
	s.Length.Reset(length)
}

func (s *Sequencer) Peek() (address uint32, length uint32) {
	return s.Address.Peek(), s.Length.Peek()
}

func (s *Sequencer) Advance() (address uint32, length uint32) {
	return s.Address.Advance(), s.Length.Advance()
}

func (s *Sequencer) Commit() {
	s.Address.Commit()
	s.Length.Commit()
}
