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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/network-quality/goaxiperf/endpoint"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/job"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/regmap"
	axitesting "github.com/network-quality/goaxiperf/testing"
	"github.com/network-quality/goaxiperf/tracker"
	"github.com/network-quality/goaxiperf/utilities"
)

func capabilities() engine.Capabilities {
	return engine.Capabilities{
		CounterWidth:    32,
		RwPatternItems:  8,
		HistogramItems:  4,
		LastValuesItems: 16,
		IdWidth:         3,
		AddrWidth:       32,
		DataWidth:       64,
	}
}

func newSim(t *testing.T, config endpoint.Config) (*Ctl, *SimBus, *endpoint.Memory) {
	mem := endpoint.New(config)
	tester, err := engine.New(mem, engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)
	bus := NewSimBus(regmap.NewDevice(tester), 1)
	return NewCtl(bus, 0, pattern.CreditCountsTotal, nil), bus, mem
}

func checkReport(t *testing.T, rep job.ChannelReport, expected uint32) {
	assert.Equal(t, expected, rep.DispatchedCntr)
	assert.Equal(t, expected, rep.InputCnt)
	assert.Equal(t, int64(0), rep.Pending())
	assert.Equal(t, uint64(expected), axitesting.SumCounters(rep.HistogramCounters))
	assert.Equal(t, utilities.Min(len(rep.LastValues), int(expected)), axitesting.NonZero(rep.LastValues))
	assert.Equal(t, rep.Occupancy(), axitesting.NonZero(rep.LastValues))
	if expected > 0 {
		assert.GreaterOrEqual(t, rep.MaxVal, rep.MinVal)
	} else {
		assert.Equal(t, uint32(0xFFFFFFFF), rep.MinVal)
	}
}

func TestExecTestInOrderSync(t *testing.T) {
	ctl, _, mem := newSim(t, endpoint.Config{Latency: [engine.Channels]uint32{5, 8}})
	j := job.NewTestJob(capabilities()).WithCredit(10)

	rep, err := ctl.ExecTest(context.Background(), j)
	require.NoError(t, err)
	for _, kind := range engine.ChannelKinds() {
		checkReport(t, rep.Channels[kind], 10)
		assert.Equal(t, uint32(0), rep.Channels[kind].Credit)
		assert.Equal(t, j.Channels[kind].StatConfig.HistogramKeys, rep.Channels[kind].HistogramKeys)
		assert.LessOrEqual(t, rep.Channels[kind].LastTime, rep.Time)
		assert.Equal(t, uint64(10), mem.Counters(kind).Completed)
	}
	assert.Greater(t, rep.Time, uint32(0))
}

func TestExecTestOutOfOrderIndependent(t *testing.T) {
	ctl, _, _ := newSim(t, endpoint.Config{Latency: [engine.Channels]uint32{2, 2}, Jitter: 15, Seed: 11})
	j := job.NewTestJob(capabilities()).WithCredit(40)
	j.RwMode = pattern.Independent
	j.Channels[engine.Write].AddrGen.Credit = 25
	for _, kind := range engine.ChannelKinds() {
		j.Channels[kind].AddrGen.OrderingMode = tracker.OutOfOrder
		j.Channels[kind].Pattern[3] = pattern.Entry{Enabled: false}
		j.Channels[kind].Pattern[5] = pattern.Entry{Enabled: true, Delay: 4}
	}

	rep, err := ctl.ExecTest(context.Background(), j)
	require.NoError(t, err)
	checkReport(t, rep.Channels[engine.Read], 40)
	checkReport(t, rep.Channels[engine.Write], 25)
}

func TestExecTestTwiceOnOneTester(t *testing.T) {
	ctl, _, _ := newSim(t, endpoint.DefaultConfig())
	j := job.NewTestJob(capabilities()).WithCredit(30)
	_, err := ctl.ExecTest(context.Background(), j)
	require.NoError(t, err)

	rep, err := ctl.ExecTest(context.Background(), j.WithCredit(3))
	require.NoError(t, err)
	checkReport(t, rep.Channels[engine.Read], 3)
}

func TestMalformedJobIsRejectedBeforeAnyWrite(t *testing.T) {
	ctl, bus, _ := newSim(t, endpoint.DefaultConfig())
	j := job.NewTestJob(capabilities())
	j.Channels[engine.Write].StatConfig.HistogramKeys = []uint32{1}

	_, err := ctl.ExecTest(context.Background(), j)
	assert.ErrorIs(t, err, job.ErrMalformedJob)
	assert.Equal(t, 0, bus.Writes())
}

func TestProtocolDesyncAbortsTheRun(t *testing.T) {
	ctl, _, mem := newSim(t, endpoint.DefaultConfig())
	mem.Inject(engine.Read, 0)
	_, err := ctl.ExecTest(context.Background(), job.NewTestJob(capabilities()))
	assert.ErrorIs(t, err, tracker.ErrProtocolDesync)
}

func TestExecTestHonoursContext(t *testing.T) {
	ctl, bus, _ := newSim(t, endpoint.Config{Latency: [engine.Channels]uint32{400, 400}})
	ctl.pollInterval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := ctl.ExecTest(ctx, job.NewTestJob(capabilities()).WithCredit(1<<30))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, bus.Device().Tester().Scheduler.Running())

	// The aborted run leaves requests in flight. The next run on the same
	// tester collects them before starting and reports only its own.
	rep, err := ctl.ExecTest(context.Background(), job.NewTestJob(capabilities()).WithCredit(5))
	require.NoError(t, err)
	for _, kind := range engine.ChannelKinds() {
		checkReport(t, rep.Channels[kind], 5)
	}
	assert.False(t, bus.Device().Tester().Scheduler.Running())
}

func TestExecTestStopsOnCancel(t *testing.T) {
	ctl, bus, _ := newSim(t, endpoint.Config{Latency: [engine.Channels]uint32{50, 50}})
	ctl.pollInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := ctl.ExecTest(ctx, job.NewTestJob(capabilities()).WithCredit(1<<30))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, bus.Device().Tester().Scheduler.Running())

	// Leftover requests complete with time_en set and are counted.
	done, err := ctl.idle(context.Background())
	for i := 0; err == nil && !done && i < 10000; i++ {
		done, err = ctl.idle(context.Background())
	}
	require.NoError(t, err)
	assert.True(t, done)
}

// wordBus is a plain register file.
type wordBus struct {
	regs   map[uint32]uint32
	writes int
}

func newWordBus(caps engine.Capabilities) *wordBus {
	b := &wordBus{regs: map[uint32]uint32{regmap.IdentityOffset: regmap.Identity}}
	encoded := caps.Encode()
	for i := 0; i < len(encoded); i += 4 {
		b.regs[regmap.CapabilitiesOffset+uint32(i)] = uint32(encoded[i]) | uint32(encoded[i+1])<<8 |
			uint32(encoded[i+2])<<16 | uint32(encoded[i+3])<<24
	}
	return b
}

func (b *wordBus) Read32(ctx context.Context, offset uint32) (uint32, error) {
	return b.regs[offset], nil
}

func (b *wordBus) Write32(ctx context.Context, offset uint32, value uint32) error {
	b.writes++
	b.regs[offset] = value
	return nil
}

func TestIdentityMismatchAbortsBeforeAnyWrite(t *testing.T) {
	bus := newWordBus(capabilities())
	bus.regs[regmap.IdentityOffset] = 0x54455355
	ctl := NewCtl(bus, 0, pattern.CreditCountsTotal, nil)

	_, err := ctl.ExecTest(context.Background(), job.NewTestJob(capabilities()))
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, 0, bus.writes)
}

func TestNegativePending(t *testing.T) {
	bus := newWordBus(capabilities())
	ctl := NewCtl(bus, 0, pattern.CreditCountsTotal, nil)
	l, err := ctl.Layout(context.Background())
	require.NoError(t, err)

	bus.regs[l.Dispatched(engine.Write)] = 3
	bus.regs[l.Stat(engine.Write, regmap.InputCnt)] = 4
	_, err = ctl.PendingTransactions(context.Background(), engine.Write)
	assert.ErrorIs(t, err, ErrNegativePending)

	bus.regs[l.Stat(engine.Write, regmap.InputCnt)] = 1
	pending, err := ctl.PendingTransactions(context.Background(), engine.Write)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), pending)
}

func TestApplyConfigLayout(t *testing.T) {
	bus := newWordBus(capabilities())
	ctl := NewCtl(bus, 0, pattern.CreditCountsTotal, nil)
	j := job.NewTestJob(capabilities()).WithCredit(77)
	j.Channels[engine.Read].Pattern[1] = pattern.Entry{AddrHint: 0x80, Delay: 9, Enabled: true}
	require.NoError(t, ctl.ApplyConfig(context.Background(), j))

	l, _ := ctl.Layout(context.Background())
	assert.Equal(t, uint32(0x80), bus.regs[l.PatternEntry(engine.Read, 1)])
	assert.Equal(t, uint32(9|1<<16), bus.regs[l.PatternEntry(engine.Read, 1)+4])
	assert.Equal(t, uint32(77), bus.regs[l.AddrGen(engine.Write, regmap.Credit)])
	assert.Equal(t, uint32(0xFFF), bus.regs[l.AddrGen(engine.Write, regmap.AddrMask)])
	assert.Equal(t, uint32(0xFFFFFFFF), bus.regs[l.Stat(engine.Write, regmap.MinVal)])
	assert.Equal(t, uint32(0), bus.regs[l.Stat(engine.Write, regmap.MaxVal)])
	assert.Equal(t, uint32(8), bus.regs[l.HistogramKey(engine.Read, 1)])

	// pattern, dispatched, generator block, keys, counters, last values and scalars
	perChannel := 8*2 + 1 + 10 + 3 + 4 + 16 + 5
	assert.Equal(t, 2*perChannel, bus.writes)
}

func TestApplyConfigPresetsMinToCounterWidth(t *testing.T) {
	caps := capabilities()
	caps.CounterWidth = 12
	bus := newWordBus(caps)
	ctl := NewCtl(bus, 0, pattern.CreditCountsTotal, nil)
	require.NoError(t, ctl.ApplyConfig(context.Background(), job.NewTestJob(caps).WithCredit(7)))

	l, _ := ctl.Layout(context.Background())
	for _, kind := range engine.ChannelKinds() {
		assert.Equal(t, uint32(0xFFF), bus.regs[l.Stat(kind, regmap.MinVal)])
		assert.Equal(t, uint32(0), bus.regs[l.Stat(kind, regmap.InputCnt)])
	}
}

func TestControlHelpers(t *testing.T) {
	bus := newWordBus(capabilities())
	ctl := NewCtl(bus, 0, pattern.CreditCountsTotal, nil)
	require.NoError(t, ctl.CheckIdentity(context.Background()))
	bus.regs[regmap.TimeOffset] = 42
	require.NoError(t, ctl.WriteControl(context.Background(), engine.Control{TimeEn: true, GeneratorEn: true}, true))
	assert.Equal(t, uint32(0b101), bus.regs[regmap.ControlOffset])
	now, err := ctl.Time(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(0), now)
	running, err := ctl.IsGeneratorRunning(context.Background())
	require.NoError(t, err)
	assert.True(t, running)
}
