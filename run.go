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
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/network-quality/goaxiperf/config"
	"github.com/network-quality/goaxiperf/constants"
	"github.com/network-quality/goaxiperf/datalogger"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/driver"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/job"
	"github.com/network-quality/goaxiperf/latencydist"
	"github.com/network-quality/goaxiperf/reportdb"
)

type runOptions struct {
	out      string
	db       string
	label    string
	traceCSV string
	// credit overrides the credit of both channels when not negative.
	credit     int64
	timeout    time.Duration
	late       float64
	sslKeyFile string
	insecure   bool
	connectTo  string
}

var runFlags = runOptions{credit: -1, timeout: constants.DefaultTestTimeout}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [job]",
		Short: "Run a test job and print its report",
		Long: `The run command uploads a test job to the tester, starts the traffic
generator, waits until both channels are drained and prints the report.

The job is read from a file or downloaded from an https URL. Without a job,
every pattern entry is enabled and the default generator settings are used.

Example:
  goaxiperf run job.json --out report.json
  goaxiperf run --credit 100 --sim-latency 4,7 --trace-csv trace.csv
  goaxiperf run https://lab.example.com/jobs/burst.json --remote http://board:4045`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := ""
			if len(args) == 1 {
				location = args[0]
			}
			return runRun(cmd.Context(), location, runFlags, targetFlags)
		},
	}
	addTargetFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&runFlags.out, "out", "", "Write the report as JSON to this file")
	flags.StringVar(&runFlags.db, "db", "", "Store the run in this sqlite database")
	flags.StringVar(&runFlags.label, "label", "", "Label of the run in the database (defaults to the job location)")
	flags.StringVar(&runFlags.traceCSV, "trace-csv", "", "Write every completion to this CSV file (simulator only)")
	flags.Int64Var(&runFlags.credit, "credit", -1, "Override the credit of both channels")
	flags.DurationVar(&runFlags.timeout, "timeout", runFlags.timeout, "Maximum time to spend on the test")
	flags.Float64Var(&runFlags.late, "late", 0, "Count latencies above this many ticks as late (0 disables)")
	flags.StringVar(&runFlags.sslKeyFile, "ssl-key-file", "", "Store the per-session SSL keys of the job download in this file.")
	flags.BoolVar(&runFlags.insecure, "insecure", false, "Skip certificate verification of the job download")
	flags.StringVar(&runFlags.connectTo, "connect-to", "", "Address to dial instead of the host of the job URL")
	return cmd
}

func openKeyLogger(path string) (io.WriteCloser, error) {
	if len(path) == 0 {
		return nil, nil
	}
	keyLogger, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open the SSL key file %s: %w", path, err)
	}
	return keyLogger, nil
}

// loadJob returns the job at location or, without a location, a default job
// that fits the tester behind ctl.
func loadJob(ctx context.Context, location string, opts runOptions, ctl *driver.Ctl) (job.TestJob, error) {
	var testJob job.TestJob
	if len(location) == 0 {
		caps, err := ctl.LoadConfig(ctx)
		if err != nil {
			return job.TestJob{}, err
		}
		testJob = job.NewTestJob(caps)
	} else {
		keyLogger, err := openKeyLogger(opts.sslKeyFile)
		if err != nil {
			return job.TestJob{}, err
		}
		if keyLogger != nil {
			defer keyLogger.Close()
		}
		jobConfig := config.Config{ConnectToAddr: opts.connectTo}
		if err := jobConfig.Get(ctx, location, opts.insecure, keyLogger); err != nil {
			return job.TestJob{}, err
		}
		printVerbose("%s", jobConfig.String())
		testJob = jobConfig.Job
	}
	if opts.credit >= 0 {
		if opts.credit > int64(^uint32(0)) {
			return job.TestJob{}, fmt.Errorf("credit %d does not fit in 32 bits", opts.credit)
		}
		testJob = testJob.WithCredit(uint32(opts.credit))
	}
	return testJob, nil
}

func runRun(ctx context.Context, location string, opts runOptions, targetOpts targetOptions) error {
	creditMode, err := parseCreditMode(creditModeName)
	if err != nil {
		return err
	}
	debugging := debug.NewDebugWithPrefix(debugLevel(), "goaxiperf")

	var trace datalogger.DataLogger[engine.CompletionRecord]
	var onCompletion func(engine.CompletionRecord)
	if len(opts.traceCSV) > 0 {
		if trace, err = datalogger.CreateCSVDataLogger[engine.CompletionRecord](opts.traceCSV, debugging); err != nil {
			return err
		}
		defer trace.Close()
		onCompletion = trace.LogRecord
	}

	t, err := openTarget(targetOpts, creditMode, debugging, onCompletion)
	if err != nil {
		return err
	}
	defer t.Close()
	printVerbose("Testing against %s\n", t.name)

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	ctl := driver.NewCtl(t.bus, t.pollInterval, creditMode, debugging.WithSuffix("ctl"))
	testJob, err := loadJob(ctx, location, opts, ctl)
	if err != nil {
		return err
	}
	report, err := ctl.ExecTest(ctx, testJob)
	if err != nil {
		return fmt.Errorf("test on %s failed: %w", t.name, err)
	}

	if err := printReport(report, opts.late); err != nil {
		return err
	}
	if len(opts.out) > 0 {
		content, err := report.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.out, content, 0o644); err != nil {
			return fmt.Errorf("could not write the report to %s: %w", opts.out, err)
		}
	}
	if len(opts.db) > 0 {
		label := opts.label
		if len(label) == 0 {
			label = location
		}
		if len(label) == 0 {
			label = "default"
		}
		if err := saveRun(ctx, opts.db, label, testJob, report); err != nil {
			return err
		}
	}
	if trace != nil {
		if err := trace.Export(); err != nil {
			return fmt.Errorf("could not write the completion trace: %w", err)
		}
	}
	return nil
}

func saveRun(ctx context.Context, path string, label string, testJob job.TestJob, report job.TestReport) error {
	db, err := reportdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := db.SaveRun(ctx, label, testJob, report)
	if err != nil {
		return err
	}
	printVerbose("Saved run %d to %s\n", id, path)
	return nil
}

func printReport(report job.TestReport, late float64) error {
	if jsonOut {
		return printJSON(report)
	}
	printInfo("%s", report.String())
	for _, kind := range engine.ChannelKinds() {
		dist := latencydist.FromChannelReport(report.Channels[kind], late)
		printInfo("channel %s recent latencies:\n%s", kind, dist)
	}
	return nil
}
