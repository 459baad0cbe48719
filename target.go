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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/network-quality/goaxiperf/constants"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/driver"
	"github.com/network-quality/goaxiperf/endpoint"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/regmap"
	"github.com/network-quality/goaxiperf/remotebus"
)

// targetOptions select the tester a command talks to.
type targetOptions struct {
	devMem        bool
	devMemBase    int64
	devMemSize    int
	remote        string
	simLatency    []uint
	simJitter     uint32
	simSeed       int64
	simTicks      int
	simMaxOut     int
	simReadyEvery uint64
}

var targetFlags = defaultTargetOptions()

func defaultTargetOptions() targetOptions {
	return targetOptions{
		devMemBase: constants.DefaultDevMemBase,
		devMemSize: constants.DefaultDevMemSize,
		simLatency: []uint{uint(constants.DefaultSimLatency), uint(constants.DefaultSimLatency)},
		simTicks:   constants.DefaultSimTicksPerAccess,
		simMaxOut:  constants.DefaultSimMaxOutstanding,
	}
}

func addTargetFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&targetFlags.devMem, "devmem", false, "Access the tester through /dev/mem")
	flags.Int64Var(&targetFlags.devMemBase, "devmem-base", targetFlags.devMemBase, "Physical base address of the tester")
	flags.IntVar(&targetFlags.devMemSize, "devmem-size", targetFlags.devMemSize, "Size of the mapped register window")
	flags.StringVar(&targetFlags.remote, "remote", "", "URL of a tester served by 'goaxiperf serve'")
	addSimFlags(cmd)
}

func addSimFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.UintSliceVar(&targetFlags.simLatency, "sim-latency", targetFlags.simLatency, "Simulated memory latency in ticks (read,write)")
	flags.Uint32Var(&targetFlags.simJitter, "sim-jitter", 0, "Maximum extra latency of the simulated memory in ticks")
	flags.Int64Var(&targetFlags.simSeed, "sim-seed", 0, "Seed of the simulated jitter")
	flags.IntVar(&targetFlags.simTicks, "sim-ticks", targetFlags.simTicks, "Simulated ticks per register access")
	flags.IntVar(&targetFlags.simMaxOut, "sim-max-outstanding", targetFlags.simMaxOut, "Requests the simulated memory accepts before stalling (0 = unlimited)")
	flags.Uint64Var(&targetFlags.simReadyEvery, "sim-ready-every", 0, "Accept addresses only every n-th tick")
}

// target is an opened tester.
type target struct {
	name   string
	bus    driver.Bus
	tester *engine.Tester
	// pollInterval is the pause between two polls of a running test. A
	// simulated tester only advances when it is accessed, so it is polled
	// back to back.
	pollInterval time.Duration
	close        func() error
}

func (t *target) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

func (o targetOptions) memoryConfig() (endpoint.Config, error) {
	config := endpoint.DefaultConfig()
	switch len(o.simLatency) {
	case 1:
		config.Latency = [engine.Channels]uint32{uint32(o.simLatency[0]), uint32(o.simLatency[0])}
	case engine.Channels:
		config.Latency = [engine.Channels]uint32{uint32(o.simLatency[0]), uint32(o.simLatency[1])}
	default:
		return config, fmt.Errorf("--sim-latency takes one or two values, got %d", len(o.simLatency))
	}
	config.Jitter = o.simJitter
	config.Seed = o.simSeed
	config.MaxOutstanding = o.simMaxOut
	config.ReadyEvery = o.simReadyEvery
	return config, nil
}

// openSimTarget builds an in-process tester with the default capabilities.
// onCompletion, when set, sees every completion of the tester.
func openSimTarget(o targetOptions, creditMode pattern.CreditMode, debugging *debug.DebugWithPrefix, onCompletion func(engine.CompletionRecord)) (*target, error) {
	memoryConfig, err := o.memoryConfig()
	if err != nil {
		return nil, err
	}
	tester, err := engine.New(endpoint.New(memoryConfig), engine.Config{
		Capabilities: engine.DefaultCapabilities(),
		CreditMode:   creditMode,
		Debug:        debugging.WithSuffix("tester"),
		OnCompletion: onCompletion,
	})
	if err != nil {
		return nil, err
	}
	return &target{
		name:   "simulator",
		bus:    driver.NewSimBus(regmap.NewDevice(tester), o.simTicks),
		tester: tester,
	}, nil
}

func openTarget(o targetOptions, creditMode pattern.CreditMode, debugging *debug.DebugWithPrefix, onCompletion func(engine.CompletionRecord)) (*target, error) {
	if o.devMem && len(o.remote) > 0 {
		return nil, fmt.Errorf("--devmem and --remote are mutually exclusive")
	}
	if onCompletion != nil && (o.devMem || len(o.remote) > 0) {
		return nil, fmt.Errorf("completion traces are only available from the simulator")
	}
	switch {
	case o.devMem:
		mapped, err := driver.OpenDevMem(o.devMemBase, o.devMemSize)
		if err != nil {
			return nil, err
		}
		return &target{
			name:         fmt.Sprintf("/dev/mem@0x%x", o.devMemBase),
			bus:          mapped,
			pollInterval: constants.DefaultPollInterval,
			close:        mapped.Close,
		}, nil
	case len(o.remote) > 0:
		client := remotebus.NewClient(o.remote, constants.DefaultDialTimeout)
		return &target{name: o.remote, bus: client, pollInterval: constants.DefaultPollInterval, close: func() error {
			client.Close()
			return nil
		}}, nil
	default:
		return openSimTarget(o, creditMode, debugging, onCompletion)
	}
}
