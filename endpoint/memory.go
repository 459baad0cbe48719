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

// Package endpoint simulates the memory a tester talks to. Requests are
// accepted into a per-channel queue and complete after a configurable
// latency, following the AXI rule that responses with the same id are
// returned in issue order.
package endpoint

import (
	"fmt"
	"math/rand"

	"github.com/network-quality/goaxiperf/constants"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/utilities"
)

type Config struct {
	// Latency is the base number of ticks between acceptance and response,
	// per channel. Values below 1 are raised to 1.
	Latency [engine.Channels]uint32 `json:"latency"`
	// Jitter adds a uniformly distributed number of extra ticks in
	// [0, Jitter].
	Jitter uint32 `json:"jitter"`
	Seed   int64  `json:"seed"`
	// MaxOutstanding limits the accepted but not yet completed requests per
	// channel. 0 means no limit.
	MaxOutstanding int `json:"max_outstanding"`
	// ReadyEvery accepts addresses only on every n-th tick. 0 and 1 mean
	// always.
	ReadyEvery uint64 `json:"ready_every"`
}

func DefaultConfig() Config {
	return Config{
		Latency:        [engine.Channels]uint32{constants.DefaultSimLatency, constants.DefaultSimLatency},
		MaxOutstanding: constants.DefaultSimMaxOutstanding,
	}
}

type pending struct {
	txn engine.Transaction
	due uint64
}

type Counters struct {
	Accepted  uint64
	Completed uint64
	Beats     uint64
}

// Memory implements engine.Endpoint.
type Memory struct {
	config   Config
	rng      *rand.Rand
	tick     uint64
	queues   [engine.Channels][]pending
	injected [engine.Channels][]uint32
	counters [engine.Channels]Counters
}

func New(config Config) *Memory {
	for ch := range config.Latency {
		config.Latency[ch] = utilities.Max(config.Latency[ch], 1)
	}
	return &Memory{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

func (m *Memory) Config() Config {
	return m.config
}

func (m *Memory) Outstanding(ch engine.ChannelKind) int {
	return len(m.queues[ch])
}

func (m *Memory) Counters(ch engine.ChannelKind) Counters {
	return m.counters[ch]
}

// Inject presents a completion for id on the next tick whether or not a
// matching request exists.
func (m *Memory) Inject(ch engine.ChannelKind, id uint32) {
	m.injected[ch] = append(m.injected[ch], id)
}

func (m *Memory) AddrReady(ch engine.ChannelKind) bool {
	if m.config.MaxOutstanding > 0 && len(m.queues[ch]) >= m.config.MaxOutstanding {
		return false
	}
	if m.config.ReadyEvery > 1 && m.tick%m.config.ReadyEvery != 0 {
		return false
	}
	return true
}

// candidate is the oldest due request whose id has no older request still
// waiting.
func (m *Memory) candidate(ch engine.ChannelKind) int {
	queue := m.queues[ch]
	for i, p := range queue {
		if p.due > m.tick {
			continue
		}
		blocked := false
		for _, older := range queue[:i] {
			if older.txn.ID == p.txn.ID {
				blocked = true
				break
			}
		}
		if !blocked {
			return i
		}
	}
	return -1
}

func (m *Memory) PeekCompletion(ch engine.ChannelKind) (uint32, bool) {
	if len(m.injected[ch]) > 0 {
		return m.injected[ch][0], true
	}
	if i := m.candidate(ch); i >= 0 {
		return m.queues[ch][i].txn.ID, true
	}
	return 0, false
}

// duration is the number of ticks a request stays in the memory. A write
// first transfers its len+1 data beats.
func (m *Memory) duration(txn engine.Transaction) uint64 {
	d := uint64(m.config.Latency[txn.Channel]) + uint64(txn.Len)
	if txn.Channel == engine.Write {
		d += 1
	}
	if m.config.Jitter > 0 {
		d += uint64(m.rng.Int63n(int64(m.config.Jitter) + 1))
	}
	return d
}

func (m *Memory) Step(issued [engine.Channels]utilities.Optional[engine.Transaction], completed [engine.Channels]bool) {
	for _, ch := range engine.ChannelKinds() {
		if completed[ch] {
			if len(m.injected[ch]) > 0 {
				m.injected[ch] = m.injected[ch][1:]
			} else if i := m.candidate(ch); i >= 0 {
				m.queues[ch] = append(m.queues[ch][:i], m.queues[ch][i+1:]...)
				m.counters[ch].Completed++
			}
		}
		if utilities.IsSome(issued[ch]) {
			txn := utilities.GetSome(issued[ch])
			if txn.Channel != ch {
				panic(fmt.Sprintf("transaction for channel %s issued on channel %s", txn.Channel, ch))
			}
			m.queues[ch] = append(m.queues[ch], pending{
				txn: txn,
				due: m.tick + m.duration(txn),
			})
			m.counters[ch].Accepted++
			m.counters[ch].Beats += uint64(txn.Len) + 1
		}
	}
	m.tick++
}
