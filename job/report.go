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

package job

import (
	"fmt"

	"github.com/sugawarayuuta/sonnet"

	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/utilities"
)

// ChannelReport is the state of one channel read back after a run.
type ChannelReport struct {
	// Credit is the number of transactions not processed (the remaining job
	// or the position where the other channel ended the run).
	Credit uint32 `json:"credit"`
	// DispatchedCntr counts the dispatched transactions.
	DispatchedCntr    uint32   `json:"dispatched_cntr"`
	HistogramCounters []uint32 `json:"histogram_counters"`
	HistogramKeys     []uint32 `json:"histogram_keys"`
	// LastValues is a circular buffer; the newest item sits just before
	// position InputCnt % len(LastValues).
	LastValues []uint32 `json:"last_values"`
	MinVal     uint32   `json:"min_val"`
	MaxVal     uint32   `json:"max_val"`
	SumVal     uint32   `json:"sum_val"`
	InputCnt   uint32   `json:"input_cnt"`
	// LastTime is the time of the last completion; it determines the total
	// duration of the batch.
	LastTime uint32 `json:"last_time"`
}

func (r ChannelReport) Pending() int64 {
	return int64(r.DispatchedCntr) - int64(r.InputCnt)
}

// Occupancy is the number of valid entries in LastValues.
func (r ChannelReport) Occupancy() int {
	return utilities.Min(len(r.LastValues), int(r.InputCnt))
}

// RecentValues returns the valid last values, oldest first.
func (r ChannelReport) RecentValues() []uint32 {
	n := len(r.LastValues)
	if n == 0 || r.InputCnt == 0 {
		return nil
	}
	if int(r.InputCnt) < n {
		return append([]uint32(nil), r.LastValues[:r.InputCnt]...)
	}
	start := int(r.InputCnt % uint32(n))
	result := make([]uint32, 0, n)
	result = append(result, r.LastValues[start:]...)
	return append(result, r.LastValues[:start]...)
}

// Mean is the average duration; 0 when nothing was observed.
func (r ChannelReport) Mean() float64 {
	if r.InputCnt == 0 {
		return 0
	}
	return float64(r.SumVal) / float64(r.InputCnt)
}

func (r ChannelReport) String() string {
	if r.InputCnt == 0 {
		return fmt.Sprintf("dispatched: %s, completed: 0\n", utilities.FormatCount(r.DispatchedCntr))
	}
	return fmt.Sprintf("dispatched: %s, completed: %s, remaining credit: %s\n",
		utilities.FormatCount(r.DispatchedCntr), utilities.FormatCount(r.InputCnt), utilities.FormatCount(r.Credit)) +
		fmt.Sprintf("latency min/mean/max: %s/%s/%s ticks\n",
			utilities.FormatCount(r.MinVal), utilities.FormatFloat(r.Mean(), 2), utilities.FormatCount(r.MaxVal)) +
		fmt.Sprintf("last completion at: %s\n", utilities.FormatCount(r.LastTime)) +
		r.histogramString()
}

func (r ChannelReport) histogramString() string {
	result := ""
	for i, count := range r.HistogramCounters {
		var label string
		switch {
		case len(r.HistogramKeys) != len(r.HistogramCounters)-1:
			label = fmt.Sprintf("[%d]", i)
		case i == 0:
			label = fmt.Sprintf("< %d", r.HistogramKeys[0])
		case i == len(r.HistogramKeys):
			label = fmt.Sprintf(">= %d", r.HistogramKeys[i-1])
		default:
			label = fmt.Sprintf("[%d, %d)", r.HistogramKeys[i-1], r.HistogramKeys[i])
		}
		result += fmt.Sprintf("  %-20s %s\n", label, utilities.FormatCount(count))
	}
	return result
}

type TestReport struct {
	Time     uint32                          `json:"time"`
	Channels [engine.Channels]ChannelReport `json:"channel"`
}

func (r TestReport) String() string {
	result := fmt.Sprintf("time: %s ticks\n", utilities.FormatCount(r.Time))
	for _, kind := range engine.ChannelKinds() {
		result += fmt.Sprintf("channel %s:\n", kind) + r.Channels[kind].String()
	}
	return result
}

func (r TestReport) Marshal() ([]byte, error) {
	return sonnet.Marshal(r)
}

func UnmarshalTestReport(data []byte) (TestReport, error) {
	var r TestReport
	if err := sonnet.Unmarshal(data, &r); err != nil {
		return TestReport{}, err
	}
	return r, nil
}
