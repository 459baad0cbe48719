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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/network-quality/goaxiperf/constants"
	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/remotebus"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose a simulated tester over HTTP/2",
		Long: `The serve command runs a simulated tester and serves its registers over
cleartext HTTP/2, so that 'goaxiperf run --remote' can drive it.

Example:
  goaxiperf serve --listen :4045 --sim-latency 20,30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), serveAddr, targetFlags)
		},
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&serveAddr, "listen", constants.DefaultListenAddr, "Address to listen on")
	return cmd
}

func runServe(ctx context.Context, addr string, targetOpts targetOptions) error {
	creditMode, err := parseCreditMode(creditModeName)
	if err != nil {
		return err
	}
	debugging := debug.NewDebugWithPrefix(debugLevel(), "serve")
	t, err := openSimTarget(targetOpts, creditMode, debugging, nil)
	if err != nil {
		return err
	}
	defer t.Close()

	server := &http.Server{
		Addr:    addr,
		Handler: remotebus.NewServer(t.bus, debugging).Handler(),
	}
	served := make(chan error, 1)
	go func() {
		served <- server.ListenAndServe()
	}()
	printInfo("Serving a simulated tester on %s\n", addr)

	select {
	case err := <-served:
		return fmt.Errorf("could not serve on %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
