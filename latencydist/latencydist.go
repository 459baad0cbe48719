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

// Package latencydist summarizes the distribution of observed durations.
package latencydist

import (
	"fmt"
	"math"

	"github.com/influxdata/tdigest"

	"github.com/network-quality/goaxiperf/job"
)

type Distribution struct {
	empiricalDistribution *tdigest.TDigest
	offset                float64
	offsetSum             float64
	offsetSumOfSquares    float64
	numberOfSamples       int64
	numberOfLate          int64
	numberOfInvalid       int64
	lateThreshold         float64
	minimumLatency        float64
	maximumLatency        float64
}

// NewDistribution counts samples above lateThreshold as late instead of
// adding them to the distribution. A threshold of 0 disables that.
func NewDistribution(lateThreshold float64) *Distribution {
	return &Distribution{
		empiricalDistribution: tdigest.NewWithCompression(50),
		offset:                0.1,
		lateThreshold:         lateThreshold,
	}
}

// FromChannelReport builds a distribution from the valid last values of a
// channel report. A zero latency cannot come from a completed request; such
// values are counted as invalid and left out.
func FromChannelReport(rep job.ChannelReport, lateThreshold float64) *Distribution {
	d := NewDistribution(lateThreshold)
	for _, v := range rep.RecentValues() {
		if err := d.AddSample(float64(v)); err != nil {
			d.numberOfInvalid++
		}
	}
	return d
}

func (d *Distribution) AddSample(sample float64) error {
	if sample <= 0.0 {
		// A request takes at least one tick.
		return fmt.Errorf("sample is zero or negative")
	}
	d.numberOfSamples++
	if d.lateThreshold > 0 && sample > d.lateThreshold {
		d.numberOfLate++
		return nil
	}
	if d.minimumLatency == 0.0 || sample < d.minimumLatency {
		d.minimumLatency = sample
	}
	if d.maximumLatency == 0.0 || sample > d.maximumLatency {
		d.maximumLatency = sample
	}
	d.empiricalDistribution.Add(sample, 1)
	d.offsetSum += sample - d.offset
	d.offsetSumOfSquares += (sample - d.offset) * (sample - d.offset)
	return nil
}

func (d *Distribution) GetNumberOfSamples() int64 {
	return d.numberOfSamples
}

func (d *Distribution) GetNumberOfLate() int64 {
	return d.numberOfLate
}

func (d *Distribution) GetNumberOfInvalid() int64 {
	return d.numberOfInvalid
}

func (d *Distribution) inDistribution() float64 {
	return float64(d.numberOfSamples - d.numberOfLate)
}

func (d *Distribution) GetPercentile(percentile float64) float64 {
	return d.empiricalDistribution.Quantile(percentile / 100)
}

func (d *Distribution) GetAverage() float64 {
	if d.inDistribution() == 0 {
		return 0
	}
	return d.offsetSum/d.inDistribution() + d.offset
}

func (d *Distribution) GetVariance() float64 {
	n := d.inDistribution()
	if n < 2 {
		return 0
	}
	return (d.offsetSumOfSquares - (d.offsetSum * d.offsetSum / n)) / (n - 1)
}

func (d *Distribution) GetStandardDeviation() float64 {
	return math.Sqrt(d.GetVariance())
}

func (d *Distribution) GetMinimum() float64 {
	return d.minimumLatency
}

func (d *Distribution) GetMaximum() float64 {
	return d.maximumLatency
}

func (d *Distribution) GetMedian() float64 {
	return d.GetPercentile(50.0)
}

func (d *Distribution) GetLatePercentage() float64 {
	if d.numberOfSamples == 0 {
		return 0
	}
	return 100 * float64(d.numberOfLate) / float64(d.numberOfSamples)
}

// GetVariation is the spread between a percentile and the minimum.
func (d *Distribution) GetVariation(percentile float64) float64 {
	return d.GetPercentile(percentile) - d.GetMinimum()
}

// Merge adds other into d. Both must use the same late threshold and are
// assumed to measure the same thing (e.g. the same channel over several
// runs).
func (d *Distribution) Merge(other *Distribution) error {
	if d.offset != other.offset || d.lateThreshold != other.lateThreshold {
		return fmt.Errorf("cannot merge distributions with different offset or late threshold")
	}
	for _, centroid := range other.empiricalDistribution.Centroids() {
		d.empiricalDistribution.Add(centroid.Mean, centroid.Weight)
	}
	d.offsetSum += other.offsetSum
	d.offsetSumOfSquares += other.offsetSumOfSquares
	d.numberOfSamples += other.numberOfSamples
	d.numberOfLate += other.numberOfLate
	d.numberOfInvalid += other.numberOfInvalid
	if d.minimumLatency == 0.0 || (other.minimumLatency != 0.0 && other.minimumLatency < d.minimumLatency) {
		d.minimumLatency = other.minimumLatency
	}
	if other.maximumLatency > d.maximumLatency {
		d.maximumLatency = other.maximumLatency
	}
	return nil
}

func (d *Distribution) String() string {
	if d.inDistribution() == 0 {
		return "no samples\n"
	}
	header := fmt.Sprintf("samples: %d (late: %d)\n", d.numberOfSamples, d.numberOfLate)
	if d.numberOfInvalid > 0 {
		header = fmt.Sprintf("samples: %d (late: %d, invalid: %d)\n", d.numberOfSamples, d.numberOfLate, d.numberOfInvalid)
	}
	return header +
		fmt.Sprintf("min/avg/max: %.2f/%.2f/%.2f\n", d.GetMinimum(), d.GetAverage(), d.GetMaximum()) +
		fmt.Sprintf("p50/p90/p99: %.2f/%.2f/%.2f\n", d.GetMedian(), d.GetPercentile(90), d.GetPercentile(99)) +
		fmt.Sprintf("stddev: %.2f\n", d.GetStandardDeviation())
}
