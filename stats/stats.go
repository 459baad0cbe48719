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

// Package stats aggregates the durations observed on one channel.
package stats

import (
	"fmt"

	"github.com/network-quality/goaxiperf/histogram"
	"github.com/network-quality/goaxiperf/register"
	"github.com/network-quality/goaxiperf/utilities"
)

type Snapshot struct {
	HistogramKeys     []uint32
	HistogramCounters []uint32
	LastValues        []uint32
	MinVal            uint32
	MaxVal            uint32
	SumVal            uint32
	InputCnt          uint32
	LastTime          uint32
}

func (s Snapshot) String() string {
	return fmt.Sprintf("MinVal: %v\n", s.MinVal) +
		fmt.Sprintf("MaxVal: %v\n", s.MaxVal) +
		fmt.Sprintf("SumVal: %v\n", s.SumVal) +
		fmt.Sprintf("InputCnt: %v\n", s.InputCnt) +
		fmt.Sprintf("LastTime: %v\n", s.LastTime) +
		fmt.Sprintf("HistogramKeys: %v\n", s.HistogramKeys) +
		fmt.Sprintf("HistogramCounters: %v\n", s.HistogramCounters)
}

// Collector keeps running min/max/sum/count, the time of the last
// observation, a histogram and a circular buffer of the most recent
// durations. Every field is an overridable register; an external write in
// the same tick as an observation wins.
type Collector struct {
	// Enabled gates Observe (the time_en control bit).
	Enabled bool

	Histogram  *histogram.Table
	LastValues *register.File[uint32]

	MinVal   register.Field[uint32]
	MaxVal   register.Field[uint32]
	SumVal   register.Field[uint32]
	InputCnt register.Field[uint32]
	LastTime register.Field[uint32]

	counterMask uint32
}

func New(histogramItems int, lastValuesItems int, counterWidth uint) (*Collector, error) {
	h, err := histogram.New(histogramItems, counterWidth)
	if err != nil {
		return nil, err
	}
	if lastValuesItems < 1 {
		return nil, fmt.Errorf("the last values buffer needs at least one item, got %d", lastValuesItems)
	}
	c := &Collector{
		Histogram:   h,
		LastValues:  register.NewFile[uint32](lastValuesItems, 0),
		counterMask: uint32(utilities.Mask(counterWidth)),
	}
	c.Reset()
	return c, nil
}

// Reset clears everything but the histogram keys. The minimum is preset to
// the largest representable value.
func (c *Collector) Reset() {
	c.Histogram.Counters.Fill(0)
	c.LastValues.Fill(0)
	c.MinVal.Load(c.counterMask)
	c.MaxVal.Load(0)
	c.SumVal.Load(0)
	c.InputCnt.Load(0)
	c.LastTime.Load(0)
}

// Observe stages the update for one duration. At most one observation per
// tick is supported. It reports whether the value was accepted.
func (c *Collector) Observe(duration uint32, now uint32) bool {
	if !c.Enabled {
		return false
	}
	duration &= c.counterMask
	count := c.InputCnt.Value()

	c.MinVal.Set(utilities.Min(c.MinVal.Value(), duration))
	c.MaxVal.Set(utilities.Max(c.MaxVal.Value(), duration))
	c.SumVal.Set((c.SumVal.Value() + duration) & c.counterMask)
	c.InputCnt.Set((count + 1) & c.counterMask)
	c.LastTime.Set(now & c.counterMask)
	c.LastValues.Set(int(count%uint32(c.LastValues.Len())), duration)
	c.Histogram.Observe(duration)
	return true
}

func (c *Collector) Commit() {
	c.Histogram.Commit()
	c.LastValues.Commit()
	c.MinVal.Commit()
	c.MaxVal.Commit()
	c.SumVal.Commit()
	c.InputCnt.Commit()
	c.LastTime.Commit()
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		HistogramKeys:     c.Histogram.Keys.Values(),
		HistogramCounters: c.Histogram.Counters.Values(),
		LastValues:        c.LastValues.Values(),
		MinVal:            c.MinVal.Value(),
		MaxVal:            c.MaxVal.Value(),
		SumVal:            c.SumVal.Value(),
		InputCnt:          c.InputCnt.Value(),
		LastTime:          c.LastTime.Value(),
	}
}
