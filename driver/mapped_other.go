//go:build !linux
// +build !linux

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
	"errors"
)

var errMappingUnsupported = errors.New("memory mapped buses are only supported on linux")

type MappedBus struct{}

func OpenMapped(path string, base int64, size int) (*MappedBus, error) {
	return nil, errMappingUnsupported
}

func OpenDevMem(base int64, size int) (*MappedBus, error) {
	return nil, errMappingUnsupported
}

func (b *MappedBus) Read32(ctx context.Context, offset uint32) (uint32, error) {
	return 0, errMappingUnsupported
}

func (b *MappedBus) Write32(ctx context.Context, offset uint32, value uint32) error {
	return errMappingUnsupported
}

func (b *MappedBus) Close() error {
	return nil
}
