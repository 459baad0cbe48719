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
	"os"

	"github.com/spf13/cobra"

	"github.com/network-quality/goaxiperf/config"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/driver"
	"github.com/network-quality/goaxiperf/job"
)

var templateCredit uint32

func init() {
	rootCmd.AddCommand(newTemplateCmd())
}

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template [file]",
		Short: "Write a job that fits the tester",
		Long: `The template command reads the capabilities of the tester and writes a
job with every pattern entry enabled, the default generator settings and
evenly spaced histogram keys. Without a file the job goes to stdout.

Example:
  goaxiperf template job.json --credit 500`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runTemplate(cmd.Context(), path, templateCredit, targetFlags)
		},
	}
	addTargetFlags(cmd)
	cmd.Flags().Uint32Var(&templateCredit, "credit", job.DefaultAddrGenConfig().Credit, "Credit of both channels")
	return cmd
}

func runTemplate(ctx context.Context, path string, credit uint32, targetOpts targetOptions) error {
	creditMode, err := parseCreditMode(creditModeName)
	if err != nil {
		return err
	}
	debugging := debug.NewDebugWithPrefix(debugLevel(), "template")
	t, err := openTarget(targetOpts, creditMode, debugging, nil)
	if err != nil {
		return err
	}
	defer t.Close()

	caps, err := driver.NewCtl(t.bus, t.pollInterval, creditMode, debugging).LoadConfig(ctx)
	if err != nil {
		return err
	}
	jobConfig := config.Config{Job: job.NewTestJob(caps).WithCredit(credit)}
	if len(path) > 0 {
		return jobConfig.Save(path)
	}
	content, err := jobConfig.Job.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(content, '\n'))
	return err
}
