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

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/network-quality/goaxiperf/config"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/driver"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/executor"
	"github.com/network-quality/goaxiperf/job"
	"github.com/network-quality/goaxiperf/latencydist"
	"github.com/network-quality/goaxiperf/pattern"
)

var (
	sweepMethod string
	sweepDB     string
)

func init() {
	rootCmd.AddCommand(newSweepCmd())
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep <job>...",
		Short: "Run several jobs, each against a fresh simulated tester",
		Long: `The sweep command runs every job against its own simulated tester and
prints a summary line per job. With --method parallel the simulations run
concurrently; the first failure cancels the others.

Example:
  goaxiperf sweep jobs/*.json --method parallel --db runs.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := executor.ParseExecutionMethod(sweepMethod)
			if err != nil {
				return err
			}
			return runSweep(cmd.Context(), args, method, targetFlags)
		},
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&sweepMethod, "method", "serial", "How to run the jobs (serial or parallel)")
	cmd.Flags().StringVar(&sweepDB, "db", "", "Store every run in this sqlite database")
	return cmd
}

type sweepResult struct {
	location string
	job      job.TestJob
	report   job.TestReport
}

func sweepOne(ctx context.Context, location string, targetOpts targetOptions, creditMode pattern.CreditMode, debugging *debug.DebugWithPrefix) (sweepResult, error) {
	jobConfig := config.Config{}
	if err := jobConfig.Get(ctx, location, false, nil); err != nil {
		return sweepResult{}, err
	}
	t, err := openSimTarget(targetOpts, creditMode, debugging, nil)
	if err != nil {
		return sweepResult{}, err
	}
	defer t.Close()
	ctl := driver.NewCtl(t.bus, t.pollInterval, creditMode, debugging)
	report, err := ctl.ExecTest(ctx, jobConfig.Job)
	if err != nil {
		return sweepResult{}, fmt.Errorf("%s: %w", location, err)
	}
	return sweepResult{location: location, job: jobConfig.Job, report: report}, nil
}

func runSweep(ctx context.Context, locations []string, method executor.ExecutionMethod, targetOpts targetOptions) error {
	creditMode, err := parseCreditMode(creditModeName)
	if err != nil {
		return err
	}
	debugging := debug.NewDebugWithPrefix(debugLevel(), "sweep")

	results := make([]sweepResult, len(locations))
	units := make([]executor.ExecutionUnit, 0, len(locations))
	for i, location := range locations {
		i, location := i, location
		units = append(units, func(ctx context.Context) error {
			result, err := sweepOne(ctx, location, targetOpts, creditMode, debugging.WithSuffix(filepath.Base(location)))
			results[i] = result
			return err
		})
	}
	printVerbose("Running %d jobs (%s)\n", len(units), method)
	if err := executor.Execute(ctx, method, units); err != nil {
		return err
	}

	if jsonOut {
		reports := make([]job.TestReport, 0, len(results))
		for _, result := range results {
			reports = append(reports, result.report)
		}
		if err := printJSON(reports); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			printInfo("%s\n", sweepSummary(result))
		}
	}

	if len(sweepDB) == 0 {
		return nil
	}
	for _, result := range results {
		if err := saveRun(ctx, sweepDB, result.location, result.job, result.report); err != nil {
			return err
		}
	}
	return nil
}

func sweepSummary(result sweepResult) string {
	summary := fmt.Sprintf("%-30s time: %d", result.location, result.report.Time)
	for kind, channel := range result.report.Channels {
		dist := latencydist.FromChannelReport(channel, 0)
		median := 0.0
		if dist.GetNumberOfSamples() > 0 {
			median = dist.GetMedian()
		}
		summary += fmt.Sprintf("  %s: %d done, min/mean/max %d/%.2f/%d, p50 %.1f",
			engine.ChannelKind(kind), channel.InputCnt, channel.MinVal, channel.Mean(), channel.MaxVal, median)
	}
	return summary
}
