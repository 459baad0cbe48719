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

package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type ExecutionMethod int

const (
	Parallel ExecutionMethod = iota
	Serial
)

// ExecutionUnit is one piece of work. It should give up when ctx is done.
type ExecutionUnit func(ctx context.Context) error

func (ep ExecutionMethod) String() string {
	switch ep {
	case Parallel:
		return "Parallel"
	case Serial:
		return "Serial"
	}
	return "Unrecognized execution method"
}

func ParseExecutionMethod(name string) (ExecutionMethod, error) {
	switch name {
	case "parallel", "Parallel":
		return Parallel, nil
	case "serial", "Serial":
		return Serial, nil
	}
	return Parallel, fmt.Errorf("unknown execution method %q (parallel or serial)", name)
}

// Execute runs the units and returns the first error. In parallel mode the
// context handed to the units is cancelled as soon as one of them fails; in
// serial mode the remaining units are not started.
func Execute(ctx context.Context, executionMethod ExecutionMethod, executionUnits []ExecutionUnit) error {
	switch executionMethod {
	case Parallel:
		group, groupCtx := errgroup.WithContext(ctx)
		for _, executionUnit := range executionUnits {
			executionUnit := executionUnit
			group.Go(func() error {
				return executionUnit(groupCtx)
			})
		}
		return group.Wait()
	case Serial:
		for _, executionUnit := range executionUnits {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := executionUnit(ctx); err != nil {
				return err
			}
		}
		return nil
	default:
		panic("Invalid execution method value given.")
	}
}
