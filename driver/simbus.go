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

package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/network-quality/goaxiperf/regmap"
)

// SimBus drives an in-process tester. Every access is followed by
// ticksPerAccess ticks of the tester, so a polling driver makes the
// simulation progress.
type SimBus struct {
	mu             sync.Mutex
	device         *regmap.Device
	ticksPerAccess int
	writes         int
}

func NewSimBus(device *regmap.Device, ticksPerAccess int) *SimBus {
	if ticksPerAccess < 1 {
		ticksPerAccess = 1
	}
	return &SimBus{device: device, ticksPerAccess: ticksPerAccess}
}

func (b *SimBus) Device() *regmap.Device {
	return b.device
}

// Writes counts the write accesses so far.
func (b *SimBus) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

func (b *SimBus) advance() error {
	for i := 0; i < b.ticksPerAccess; i++ {
		if err := b.device.Tester().Tick(); err != nil {
			return fmt.Errorf("simulated tester failed: %w", err)
		}
	}
	return nil
}

func (b *SimBus) Read32(ctx context.Context, offset uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, err := b.device.Read32(offset)
	if err != nil {
		return 0, err
	}
	return v, b.advance()
}

func (b *SimBus) Write32(ctx context.Context, offset uint32, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if err := b.device.Write32(offset, value); err != nil {
		return err
	}
	return b.advance()
}
