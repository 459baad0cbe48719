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

package utilities

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// OverrideHostTransport makes transport connect to connectToAddr (when
// non-empty) instead of the host named in the URL and enables HTTP/2.
func OverrideHostTransport(transport *http.Transport, connectToAddr string) error {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
	}

	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		_, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		if len(connectToAddr) > 0 {
			addr = net.JoinHostPort(connectToAddr, port)
		}

		return dialer.DialContext(ctx, network, addr)
	}

	return http2.ConfigureTransport(transport)
}

// NewCleartextHTTP2Transport returns a transport that speaks HTTP/2 with
// prior knowledge over plain TCP (h2c).
func NewCleartextHTTP2Transport(dialTimeout time.Duration) *http2.Transport {
	dialer := &net.Dialer{
		Timeout: dialTimeout,
	}
	return &http2.Transport{
		AllowHTTP: true,
		DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}
}
