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

	"github.com/spf13/cobra"

	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/driver"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the capabilities and register layout of a tester",
		Long: `The info command checks the identity register of the tester and prints
its capabilities and the offsets of its registers.

Example:
  goaxiperf info --devmem --devmem-base 0x43c00000
  goaxiperf info --remote http://board:4045 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), targetFlags)
		},
	}
	addTargetFlags(cmd)
	return cmd
}

func runInfo(ctx context.Context, targetOpts targetOptions) error {
	creditMode, err := parseCreditMode(creditModeName)
	if err != nil {
		return err
	}
	debugging := debug.NewDebugWithPrefix(debugLevel(), "info")
	t, err := openTarget(targetOpts, creditMode, debugging, nil)
	if err != nil {
		return err
	}
	defer t.Close()

	ctl := driver.NewCtl(t.bus, t.pollInterval, creditMode, debugging)
	if err := ctl.CheckIdentity(ctx); err != nil {
		return err
	}
	layout, err := ctl.Layout(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(layout.Capabilities)
	}
	printInfo("Tester: %s\n", t.name)
	printInfo("%s", layout.Capabilities.String())
	printInfo("Register map (%d bytes):\n%s", layout.Size(), layout.String())
	return nil
}

