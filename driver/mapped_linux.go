//go:build linux
// +build linux

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
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MappedBus accesses a register window through a shared memory mapping of
// a file, typically /dev/mem. Accesses are single aligned 32-bit loads and
// stores in host byte order, which is little-endian on every supported
// platform.
type MappedBus struct {
	file  *os.File
	mem   []byte
	delta int
	size  int
}

// OpenMapped maps size bytes of path starting at base. The base does not
// have to be page aligned.
func OpenMapped(path string, base int64, size int) (*MappedBus, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("cannot map a window of %d bytes", size)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	pageSize := int64(os.Getpagesize())
	aligned := base &^ (pageSize - 1)
	delta := int(base - aligned)
	mem, err := unix.Mmap(int(file.Fd()), aligned, size+delta, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap of %s at 0x%x: %w", path, base, err)
	}
	return &MappedBus{file: file, mem: mem, delta: delta, size: size}, nil
}

// OpenDevMem maps the physical window of a tester.
func OpenDevMem(base int64, size int) (*MappedBus, error) {
	return OpenMapped("/dev/mem", base, size)
}

func (b *MappedBus) word(offset uint32) (*uint32, error) {
	if offset%4 != 0 || int(offset)+4 > b.size {
		return nil, fmt.Errorf("access at 0x%x outside of the 0x%x byte window", offset, b.size)
	}
	return (*uint32)(unsafe.Pointer(&b.mem[b.delta+int(offset)])), nil
}

func (b *MappedBus) Read32(ctx context.Context, offset uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := b.word(offset)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (b *MappedBus) Write32(ctx context.Context, offset uint32, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := b.word(offset)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, value)
	return nil
}

func (b *MappedBus) Close() error {
	if err := unix.Munmap(b.mem); err != nil {
		b.file.Close()
		return err
	}
	return b.file.Close()
}
