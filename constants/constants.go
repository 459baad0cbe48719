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

package constants

import "time"

var (
	// The interval between two polls of the generator and pending counters.
	DefaultPollInterval time.Duration = 1 * time.Millisecond
	// The longest a single test may run before the driver gives up.
	DefaultTestTimeout time.Duration = 60 * time.Second

	// The number of tester ticks that elapse for each register access on a
	// simulated bus.
	DefaultSimTicksPerAccess int = 4
	// The fixed latency (in ticks) of the simulated memory on both channels.
	DefaultSimLatency uint32 = 10
	// The number of requests the simulated memory accepts before it stalls
	// the address channel (0 = unlimited).
	DefaultSimMaxOutstanding int = 0

	// The physical base address of the tester when mapped through /dev/mem.
	DefaultDevMemBase int64 = 0x43C00000
	// The size of the window mapped through /dev/mem.
	DefaultDevMemSize int = 0x10000

	// The address the serve command listens on.
	DefaultListenAddr string = "localhost:4045"
	// The timeout for dialing a remote tester.
	DefaultDialTimeout time.Duration = 5 * time.Second

	// The default determination of whether to run in debug mode.
	DefaultDebug bool = false
)
