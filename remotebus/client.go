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

package remotebus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/network-quality/goaxiperf/utilities"
)

// Client implements driver.Bus against a Server.
type Client struct {
	base   string
	client *http.Client
}

// NewClient talks cleartext HTTP/2 to http:// URLs and regular HTTPS
// (HTTP/2 when negotiated) to https:// URLs.
func NewClient(baseURL string, dialTimeout time.Duration) *Client {
	var transport http.RoundTripper
	if strings.HasPrefix(baseURL, "http://") {
		transport = utilities.NewCleartextHTTP2Transport(dialTimeout)
	} else {
		t := &http.Transport{TLSHandshakeTimeout: dialTimeout}
		if err := utilities.OverrideHostTransport(t, ""); err != nil {
			transport = http.DefaultTransport
		} else {
			transport = t
		}
	}
	return NewClientWithHTTP(baseURL, &http.Client{Transport: transport})
}

func NewClientWithHTTP(baseURL string, client *http.Client) *Client {
	return &Client{base: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (c *Client) url(offset uint32) string {
	return fmt.Sprintf("%s%s0x%x", c.base, registerPath, offset)
}

func (c *Client) do(req *http.Request) (Word, error) {
	req.Header.Set("User-Agent", utilities.UserAgent())
	resp, err := c.client.Do(req)
	if err != nil {
		return Word{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Word{}, err
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if sonnet.Unmarshal(body, &e) == nil && e.Error != "" {
			return Word{}, fmt.Errorf("%s %s: %s (%d)", req.Method, req.URL.Path, e.Error, resp.StatusCode)
		}
		return Word{}, fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	var word Word
	if err := sonnet.Unmarshal(body, &word); err != nil {
		return Word{}, fmt.Errorf("decoding response: %w", err)
	}
	return word, nil
}

func (c *Client) Read32(ctx context.Context, offset uint32) (uint32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(offset), nil)
	if err != nil {
		return 0, err
	}
	word, err := c.do(req)
	return word.Value, err
}

func (c *Client) Write32(ctx context.Context, offset uint32, value uint32) error {
	body, err := sonnet.Marshal(Word{Value: value})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(offset), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req)
	return err
}

func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
