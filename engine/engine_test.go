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

package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/network-quality/goaxiperf/addrgen"
	"github.com/network-quality/goaxiperf/endpoint"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/pattern"
	axitesting "github.com/network-quality/goaxiperf/testing"
	"github.com/network-quality/goaxiperf/tracker"
	"github.com/network-quality/goaxiperf/utilities"
)

func capabilities() engine.Capabilities {
	return engine.Capabilities{
		CounterWidth:    32,
		RwPatternItems:  4,
		HistogramItems:  4,
		LastValuesItems: 8,
		IdWidth:         2,
		AddrWidth:       32,
		DataWidth:       64,
	}
}

func program(t *testing.T, tester *engine.Tester, credit uint32, control engine.Control) {
	for _, kind := range engine.ChannelKinds() {
		for i := 0; i < int(tester.Capabilities().RwPatternItems); i++ {
			tester.Scheduler.Table(int(kind)).Write(i, pattern.Entry{Enabled: true})
		}
		tester.Scheduler.Credit(int(kind)).Write(credit)
		c := tester.Channel(kind)
		c.Sequencer.Reset(addrgen.Config{Step: 64, Mask: 0xFFF}, addrgen.Config{Mask: 1})
		require.NoError(t, c.Stats.Histogram.Load([]uint32{5, 10, 20}))
		c.Stats.Reset()
	}
	control.TimeEn = true
	control.GeneratorEn = true
	tester.WriteControl(control)
	require.NoError(t, tester.Tick())
	require.True(t, tester.Scheduler.Running())
}

func checkChannel(t *testing.T, tester *engine.Tester, kind engine.ChannelKind, expected uint32) {
	c := tester.Channel(kind)
	s := c.Stats.Snapshot()
	assert.Equal(t, expected, c.Dispatched.Value(), "channel %s", kind)
	assert.Equal(t, expected, s.InputCnt, "channel %s", kind)
	assert.Equal(t, uint64(expected), axitesting.SumCounters(s.HistogramCounters))
	assert.Equal(t, utilities.Min(len(s.LastValues), int(expected)), axitesting.NonZero(s.LastValues))
	if expected > 0 {
		assert.GreaterOrEqual(t, s.MaxVal, s.MinVal)
	}
}

func TestEndToEndInOrderSync(t *testing.T) {
	mem := endpoint.New(endpoint.Config{Latency: [engine.Channels]uint32{4, 6}})
	tester, err := engine.New(mem, engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)

	program(t, tester, 10, engine.Control{RwMode: pattern.Sync})
	for i := 0; !tester.Idle(); i++ {
		require.Less(t, i, 10000)
		require.NoError(t, tester.Tick())
		for _, kind := range engine.ChannelKinds() {
			require.LessOrEqual(t, tester.Channel(kind).Tracker.Outstanding(), 4)
		}
	}
	for _, kind := range engine.ChannelKinds() {
		checkChannel(t, tester, kind, 10)
		assert.Equal(t, uint32(0), tester.Scheduler.Credit(int(kind)).Value())
		assert.Equal(t, uint64(10), mem.Counters(kind).Completed)
	}
	// Len mask 1 with a zero step keeps every read at 4 + 0 ticks.
	assert.Equal(t, uint32(4), tester.Channel(engine.Read).Stats.MinVal.Value())
	assert.Equal(t, uint32(4), tester.Channel(engine.Read).Stats.MaxVal.Value())
	// Writes carry one extra data beat.
	assert.Equal(t, uint32(7), tester.Channel(engine.Write).Stats.MaxVal.Value())
}

func TestEndToEndOutOfOrderIndependent(t *testing.T) {
	mem := endpoint.New(endpoint.Config{
		Latency: [engine.Channels]uint32{3, 3},
		Jitter:  20,
		Seed:    3,
	})
	var records []engine.CompletionRecord
	tester, err := engine.New(mem, engine.Config{
		Capabilities: capabilities(),
		OnCompletion: func(r engine.CompletionRecord) { records = append(records, r) },
	})
	require.NoError(t, err)

	program(t, tester, 50, engine.Control{
		RwMode:    pattern.Independent,
		ROrdering: tracker.OutOfOrder,
		WOrdering: tracker.OutOfOrder,
	})
	assert.Equal(t, tracker.OutOfOrder, tester.Channel(engine.Read).Tracker.Mode())
	require.NoError(t, tester.RunUntilIdle(context.Background(), 100000))

	checkChannel(t, tester, engine.Read, 50)
	checkChannel(t, tester, engine.Write, 50)
	assert.Len(t, records, 100)
	for _, r := range records {
		assert.Less(t, r.ID, uint32(4))
		assert.GreaterOrEqual(t, r.Duration, uint32(3))
	}
}

func TestDisableMidRunDrainsBeforeIdle(t *testing.T) {
	mem := endpoint.New(endpoint.Config{Latency: [engine.Channels]uint32{30, 30}})
	tester, err := engine.New(mem, engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)
	program(t, tester, 1000, engine.Control{})

	for i := 0; i < 5; i++ {
		require.NoError(t, tester.Tick())
	}
	tester.WriteControl(engine.Control{TimeEn: true, GeneratorEn: false})
	require.NoError(t, tester.Tick())
	assert.False(t, tester.Scheduler.Running())
	assert.False(t, tester.Idle(), "requests are still pending")

	dispatched := tester.Channel(engine.Read).Dispatched.Value()
	assert.Greater(t, tester.Pending(engine.Read), uint32(0))
	require.NoError(t, tester.RunUntilIdle(context.Background(), 1000))
	assert.Equal(t, dispatched, tester.Channel(engine.Read).Dispatched.Value(), "no new issuance")
	checkChannel(t, tester, engine.Read, dispatched)
	assert.Equal(t, uint32(1000-dispatched), tester.Scheduler.Credit(int(engine.Read)).Value())
}

func TestProtocolDesyncIsSticky(t *testing.T) {
	mem := endpoint.New(endpoint.DefaultConfig())
	tester, err := engine.New(mem, engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)

	mem.Inject(engine.Write, 1)
	err = tester.Tick()
	require.ErrorIs(t, err, tracker.ErrProtocolDesync)
	assert.ErrorIs(t, tester.Tick(), tracker.ErrProtocolDesync)
	assert.ErrorIs(t, tester.Err(), tracker.ErrProtocolDesync)
}

func TestOrderingChangeIgnoredWhileBusy(t *testing.T) {
	mem := endpoint.New(endpoint.Config{Latency: [engine.Channels]uint32{10, 10}})
	tester, err := engine.New(mem, engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)
	program(t, tester, 20, engine.Control{})
	require.NoError(t, tester.Tick())

	tester.WriteControl(engine.Control{
		TimeEn: true, GeneratorEn: true,
		RwMode: pattern.Independent, ROrdering: tracker.OutOfOrder,
	})
	require.NoError(t, tester.Tick())
	assert.Equal(t, tracker.InOrder, tester.Channel(engine.Read).Tracker.Mode())
	assert.Equal(t, pattern.Sync, tester.Scheduler.Coupling.Value())
	assert.True(t, tester.Scheduler.Running())

	require.NoError(t, tester.RunUntilIdle(context.Background(), 10000))
	checkChannel(t, tester, engine.Read, 20)
}

func TestRunUntilIdleHonoursBudgetAndContext(t *testing.T) {
	mem := endpoint.New(endpoint.Config{Latency: [engine.Channels]uint32{10, 10}})
	tester, err := engine.New(mem, engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)
	program(t, tester, 1000, engine.Control{})

	err = tester.RunUntilIdle(context.Background(), 5)
	assert.ErrorIs(t, err, engine.ErrNotIdle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tester.RunUntilIdle(ctx, 0), context.Canceled)
}
