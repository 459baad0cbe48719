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

// Package job holds the description of a test run and the report it
// produces.
package job

import (
	"errors"
	"fmt"

	"github.com/sugawarayuuta/sonnet"

	"github.com/network-quality/goaxiperf/addrgen"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/tracker"
	"github.com/network-quality/goaxiperf/utilities"
)

var ErrMalformedJob = errors.New("malformed job")

// AddrGenConfig configures the address generator of one channel. Credit is
// the number of transaction attempts; the real number depends on the
// pattern and on the credit mode of the tester.
type AddrGenConfig struct {
	OrderingMode tracker.OrderingMode `json:"ordering_mode"`
	Credit       uint32               `json:"credit"`
	Addr         uint32               `json:"addr"`
	AddrStep     uint32               `json:"addr_step"`
	AddrMask     uint32               `json:"addr_mask"`
	AddrMode     addrgen.Mode         `json:"addr_mode"`
	AddrOffset   uint32               `json:"addr_offset"`
	// TransLen is the starting length (0 = one word, 1 = two words, ...).
	TransLen     uint32       `json:"trans_len"`
	TransLenStep uint32       `json:"trans_len_step"`
	TransLenMask uint32       `json:"trans_len_mask"`
	TransLenMode addrgen.Mode `json:"trans_len_mode"`
}

func DefaultAddrGenConfig() AddrGenConfig {
	return AddrGenConfig{
		OrderingMode: tracker.InOrder,
		Credit:       1000,
		AddrStep:     64,
		AddrMask:     0x1000 - 1,
		AddrMode:     addrgen.Modulo,
		TransLenMask: 1,
		TransLenMode: addrgen.Modulo,
	}
}

// Words returns the generator block in register order.
func (c AddrGenConfig) Words() []uint32 {
	return []uint32{
		c.Credit,
		c.Addr,
		c.AddrStep,
		c.AddrMask,
		uint32(c.AddrMode),
		c.AddrOffset,
		c.TransLen,
		c.TransLenStep,
		c.TransLenMask,
		uint32(c.TransLenMode),
	}
}

type StatConfig struct {
	HistogramKeys []uint32 `json:"histogram_keys"`
}

type ChannelConfig struct {
	Pattern    []pattern.Entry `json:"pattern"`
	AddrGen    AddrGenConfig   `json:"addr_gen"`
	StatConfig StatConfig      `json:"stat_config"`
}

type TestJob struct {
	RwMode   pattern.CouplingMode            `json:"rw_mode"`
	Channels [engine.Channels]ChannelConfig `json:"channel_config"`
}

// DefaultHistogramKeys spaces items-1 keys step apart, starting at step.
func DefaultHistogramKeys(items int, step uint32) []uint32 {
	keys := make([]uint32, 0, utilities.Max(items-1, 0))
	for i := 1; i < items; i++ {
		keys = append(keys, uint32(i)*step)
	}
	return keys
}

// NewTestJob returns a job that fits caps: every pattern entry enabled
// without delay, default generator settings and evenly spaced keys.
func NewTestJob(caps engine.Capabilities) TestJob {
	job := TestJob{RwMode: pattern.Sync}
	for ch := range job.Channels {
		entries := make([]pattern.Entry, caps.RwPatternItems)
		for i := range entries {
			entries[i] = pattern.Entry{Enabled: true}
		}
		job.Channels[ch] = ChannelConfig{
			Pattern:    entries,
			AddrGen:    DefaultAddrGenConfig(),
			StatConfig: StatConfig{HistogramKeys: DefaultHistogramKeys(int(caps.HistogramItems), 4)},
		}
	}
	return job
}

// WithCredit sets the credit of both channels.
func (j TestJob) WithCredit(credit uint32) TestJob {
	for ch := range j.Channels {
		j.Channels[ch].AddrGen.Credit = credit
	}
	return j
}

func (j TestJob) Control(timeEn bool, generatorEn bool) engine.Control {
	return engine.Control{
		TimeEn:      timeEn,
		RwMode:      j.RwMode,
		GeneratorEn: generatorEn,
		ROrdering:   j.Channels[engine.Read].AddrGen.OrderingMode,
		WOrdering:   j.Channels[engine.Write].AddrGen.OrderingMode,
	}
}

func malformed(ch int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: channel %s: %s", ErrMalformedJob, engine.ChannelKind(ch), fmt.Sprintf(format, args...))
}

// Validate checks that the job can be uploaded to a tester with caps.
func (j TestJob) Validate(caps engine.Capabilities, creditMode pattern.CreditMode) error {
	if j.RwMode != pattern.Sync && j.RwMode != pattern.Independent {
		return fmt.Errorf("%w: unknown rw_mode %d", ErrMalformedJob, j.RwMode)
	}
	counterMask := uint32(utilities.Mask(uint(caps.CounterWidth)))
	for ch, c := range j.Channels {
		if len(c.Pattern) != int(caps.RwPatternItems) {
			return malformed(ch, "pattern has %d entries, the tester has %d", len(c.Pattern), caps.RwPatternItems)
		}
		keys := c.StatConfig.HistogramKeys
		if len(keys) != int(caps.HistogramItems)-1 {
			return malformed(ch, "%d histogram keys given, %d expected", len(keys), caps.HistogramItems-1)
		}
		for i := 1; i < len(keys); i++ {
			if keys[i] <= keys[i-1] {
				return malformed(ch, "histogram keys must be strictly ascending (key %d: %d <= %d)", i, keys[i], keys[i-1])
			}
		}
		g := c.AddrGen
		if g.OrderingMode != tracker.InOrder && g.OrderingMode != tracker.OutOfOrder {
			return malformed(ch, "unknown ordering mode %d", g.OrderingMode)
		}
		if !g.AddrMode.Valid() || !g.TransLenMode.Valid() {
			return malformed(ch, "unknown generator mode (addr %d, len %d)", g.AddrMode, g.TransLenMode)
		}
		if g.Credit&^counterMask != 0 {
			return malformed(ch, "credit %d does not fit in %d bits", g.Credit, caps.CounterWidth)
		}
		enabled := utilities.Filter(c.Pattern, func(e pattern.Entry) bool { return e.Enabled })
		if creditMode.Requests(g.Credit) > 0 && len(enabled) == 0 {
			return malformed(ch, "credit %d can never be spent without an enabled pattern entry", g.Credit)
		}
	}
	return nil
}

func (j TestJob) Marshal() ([]byte, error) {
	return sonnet.Marshal(j)
}

func UnmarshalTestJob(data []byte) (TestJob, error) {
	var j TestJob
	if err := sonnet.Unmarshal(data, &j); err != nil {
		return TestJob{}, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	return j, nil
}
