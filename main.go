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
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"

	"github.com/network-quality/goaxiperf/constants"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/pattern"
)

var (
	// Global flags
	debugCliFlag   bool
	quiet          bool
	jsonOut        bool
	profile        string
	creditModeName string

	profileFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "goaxiperf",
	Short: "Drive an AXI traffic generator and latency tester",
	Long: `goaxiperf uploads test jobs to an AXI traffic generator, waits for the
generated traffic to drain and downloads the latency statistics of the read
and write channels. The tester can be simulated in process, mapped through
/dev/mem or reached over the network.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: startProfiling,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopProfiling()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugCliFlag, "debug", constants.DefaultDebug, "Enable debugging.")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&profile, "profile", "", "Enable client runtime profiling and specify storage location. Disabled by default.")
	rootCmd.PersistentFlags().
		StringVar(&creditModeName, "credit-mode", pattern.CreditCountsTotal.String(),
			"How the tester counts credit (total or remaining-after-current)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stopProfiling()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startProfiling(cmd *cobra.Command, args []string) error {
	if len(profile) == 0 {
		return nil
	}
	var err error
	if profileFile, err = os.Create(profile); err != nil {
		return fmt.Errorf("could not open %s for profiling: %w", profile, err)
	}
	printVerbose("Profiling into %s\n", profile)
	return pprof.StartCPUProfile(profileFile)
}

func stopProfiling() {
	if profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	profileFile.Close()
	profileFile = nil
}

func debugLevel() debug.DebugLevel {
	if debugCliFlag {
		return debug.Debug
	}
	return debug.Warn
}

func parseCreditMode(name string) (pattern.CreditMode, error) {
	for _, mode := range []pattern.CreditMode{pattern.CreditCountsTotal, pattern.CreditCountsRemainingAfterCurrent} {
		if mode.String() == name {
			return mode, nil
		}
	}
	return pattern.CreditCountsTotal, fmt.Errorf("unknown credit mode %q", name)
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a message when debugging is enabled
func printVerbose(format string, args ...interface{}) {
	if debugCliFlag && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	content, err := sonnet.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stdout, "%s\n", content)
	return err
}
