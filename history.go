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

	"github.com/network-quality/goaxiperf/reportdb"
)

var historyRunID int64

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "List the runs stored in a database",
		Long: `The history command lists the runs that 'run --db' and 'sweep --db'
stored in a sqlite database, or prints the report of one of them.

Example:
  goaxiperf history runs.db
  goaxiperf history runs.db --id 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), args[0], historyRunID)
		},
	}
	cmd.Flags().Int64Var(&historyRunID, "id", 0, "Print the report of this run")
	return cmd
}

func runHistory(ctx context.Context, path string, id int64) error {
	db, err := reportdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if id != 0 {
		run, err := db.Run(ctx, id)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(run.Report)
		}
		printInfo("Run %d (%s) at %s\n", run.ID, run.Label, run.CreatedAt.Format("2006-01-02 15:04:05"))
		printInfo("%s", run.Report.String())
		return nil
	}

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No runs in %s\n", path)
		return nil
	}
	for _, run := range runs {
		printInfo("%s\n", run.String())
	}
	return nil
}
