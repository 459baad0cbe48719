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
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/network-quality/goaxiperf/driver"
	"github.com/network-quality/goaxiperf/endpoint"
	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/job"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/regmap"
)

func capabilities() engine.Capabilities {
	return engine.Capabilities{
		CounterWidth:    32,
		RwPatternItems:  4,
		HistogramItems:  4,
		LastValuesItems: 8,
		IdWidth:         2,
		AddrWidth:       32,
		DataWidth:       64,
	}
}

func newRemote(t *testing.T) *Client {
	tester, err := engine.New(endpoint.New(endpoint.DefaultConfig()), engine.Config{Capabilities: capabilities()})
	require.NoError(t, err)
	server := httptest.NewServer(NewServer(driver.NewSimBus(regmap.NewDevice(tester), 4), nil).Handler())
	t.Cleanup(server.Close)
	client := NewClient(server.URL, time.Second)
	t.Cleanup(client.Close)
	return client
}

func TestReadWrite(t *testing.T) {
	client := newRemote(t)
	ctx := context.Background()

	id, err := client.Read32(ctx, regmap.IdentityOffset)
	require.NoError(t, err)
	assert.Equal(t, regmap.Identity, id)

	require.NoError(t, client.Write32(ctx, regmap.TimeOffset, 1234))
	now, err := client.Read32(ctx, regmap.TimeOffset)
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), now)
}

func TestErrorsAreReported(t *testing.T) {
	client := newRemote(t)
	_, err := client.Read32(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unaligned"), err.Error())
	assert.Error(t, client.Write32(context.Background(), 0x100000, 1))
}

func TestServerRejectsBadRequests(t *testing.T) {
	server := httptest.NewServer(NewServer(nil, nil).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/reg/zz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + "/other")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/reg/4", strings.NewReader("{"))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, server.URL+"/reg/4", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestExecTestOverTheNetwork(t *testing.T) {
	client := newRemote(t)
	ctl := driver.NewCtl(client, 0, pattern.CreditCountsTotal, nil)
	rep, err := ctl.ExecTest(context.Background(), job.NewTestJob(capabilities()).WithCredit(12))
	require.NoError(t, err)
	for _, kind := range engine.ChannelKinds() {
		assert.Equal(t, uint32(12), rep.Channels[kind].InputCnt)
		assert.Equal(t, uint32(12), rep.Channels[kind].DispatchedCntr)
	}
}
