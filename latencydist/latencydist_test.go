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

package latencydist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/network-quality/goaxiperf/job"
)

func TestBasicDistribution(t *testing.T) {
	d := NewDistribution(0)
	require.NoError(t, d.AddSample(1.0))
	require.NoError(t, d.AddSample(2.0))
	require.NoError(t, d.AddSample(3.0))
	assert.Equal(t, int64(3), d.GetNumberOfSamples())
	assert.Equal(t, int64(0), d.GetNumberOfLate())
	assert.InEpsilon(t, 5.7, d.offsetSum, 0.000001)
	assert.InEpsilon(t, 12.83, d.offsetSumOfSquares, 0.000001)
	assert.InEpsilon(t, 1.0, d.GetMinimum(), 0.000001)
	assert.InEpsilon(t, 3.0, d.GetMaximum(), 0.000001)
	assert.InEpsilon(t, 2.0, d.GetAverage(), 0.000001)
	assert.InEpsilon(t, 1.0, d.GetVariance(), 0.000001)
	assert.InEpsilon(t, 1.0, d.GetStandardDeviation(), 0.000001)
	assert.InEpsilon(t, 2.0, d.GetMedian(), 0.000001)
	assert.InEpsilon(t, 1.0, d.GetPercentile(10.0), 0.000001)
	assert.InEpsilon(t, 3.0, d.GetPercentile(90.0), 0.000001)
	assert.InEpsilon(t, 2.0, d.GetVariation(90), 0.000001)
	assert.Equal(t, 0.0, d.GetLatePercentage())
}

func TestLateSamples(t *testing.T) {
	d := NewDistribution(15)
	for i := 1; i <= 20; i++ {
		require.NoError(t, d.AddSample(float64(i)))
	}
	assert.Equal(t, int64(20), d.GetNumberOfSamples())
	assert.Equal(t, int64(5), d.GetNumberOfLate())
	assert.InEpsilon(t, 15.0, d.GetMaximum(), 0.000001)
	assert.InEpsilon(t, 8.0, d.GetAverage(), 0.000001)
	assert.InEpsilon(t, 25.0, d.GetLatePercentage(), 0.000001)
}

func TestInvalidSample(t *testing.T) {
	d := NewDistribution(0)
	assert.Error(t, d.AddSample(0))
	assert.Equal(t, "no samples\n", d.String())
	assert.Equal(t, 0.0, d.GetAverage())
	assert.Equal(t, 0.0, d.GetVariance())
}

func TestFromChannelReport(t *testing.T) {
	rep := job.ChannelReport{InputCnt: 6, LastValues: []uint32{5, 6, 3, 4}}
	d := FromChannelReport(rep, 0)
	assert.Equal(t, int64(4), d.GetNumberOfSamples())
	assert.InEpsilon(t, 3.0, d.GetMinimum(), 0.000001)
	assert.InEpsilon(t, 6.0, d.GetMaximum(), 0.000001)
	assert.InEpsilon(t, 4.5, d.GetAverage(), 0.000001)

	empty := FromChannelReport(job.ChannelReport{}, 0)
	assert.Equal(t, int64(0), empty.GetNumberOfSamples())
}

func TestFromChannelReportSkipsZeroValues(t *testing.T) {
	rep := job.ChannelReport{InputCnt: 4, LastValues: []uint32{5, 0, 3, 4}}
	d := FromChannelReport(rep, 0)
	assert.Equal(t, int64(3), d.GetNumberOfSamples())
	assert.Equal(t, int64(1), d.GetNumberOfInvalid())
	assert.InEpsilon(t, 3.0, d.GetMinimum(), 0.000001)
	assert.InEpsilon(t, 4.0, d.GetAverage(), 0.000001)
	assert.Contains(t, d.String(), "invalid: 1")

	all := FromChannelReport(job.ChannelReport{InputCnt: 2, LastValues: []uint32{0, 0}}, 0)
	assert.Equal(t, int64(0), all.GetNumberOfSamples())
	assert.Equal(t, int64(2), all.GetNumberOfInvalid())
	assert.Equal(t, "no samples\n", all.String())
}

func TestMerge(t *testing.T) {
	a := NewDistribution(0)
	b := NewDistribution(0)
	for i := 1; i <= 3; i++ {
		require.NoError(t, a.AddSample(float64(i)))
		require.NoError(t, b.AddSample(float64(i+10)))
	}
	require.NoError(t, a.Merge(b))
	assert.Equal(t, int64(6), a.GetNumberOfSamples())
	assert.InEpsilon(t, 1.0, a.GetMinimum(), 0.000001)
	assert.InEpsilon(t, 13.0, a.GetMaximum(), 0.000001)
	assert.InEpsilon(t, 7.0, a.GetAverage(), 0.000001)

	assert.Error(t, a.Merge(NewDistribution(10)))

	empty := NewDistribution(0)
	require.NoError(t, empty.Merge(b))
	assert.InEpsilon(t, 11.0, empty.GetMinimum(), 0.000001)
}
