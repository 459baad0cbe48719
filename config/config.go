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

// Package config loads test jobs from a file or from an https URL.
package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/network-quality/goaxiperf/engine"
	"github.com/network-quality/goaxiperf/job"
	"github.com/network-quality/goaxiperf/pattern"
	"github.com/network-quality/goaxiperf/utilities"
)

type Config struct {
	Source string
	// ConnectToAddr, when set, replaces the host of an https source when
	// dialing.
	ConnectToAddr string
	Job           job.TestJob
}

// Get loads the job at location: an https URL or a path on the local file
// system.
func (c *Config) Get(ctx context.Context, location string, insecureSkipVerify bool, keyLogger io.Writer) error {
	c.Source = location
	var content []byte
	var err error
	if strings.Contains(location, "://") {
		content, err = c.download(ctx, location, insecureSkipVerify, keyLogger)
	} else {
		content, err = os.ReadFile(location)
		if err != nil {
			err = fmt.Errorf("could not read job file %s: %w", location, err)
		}
	}
	if err != nil {
		return err
	}

	c.Job, err = job.UnmarshalTestJob(content)
	if err != nil {
		return fmt.Errorf("could not parse job from %s: %w", c.Source, err)
	}
	return nil
}

func (c *Config) download(ctx context.Context, location string, insecureSkipVerify bool, keyLogger io.Writer) ([]byte, error) {
	if parsedUrl, err := url.ParseRequestURI(location); err != nil || parsedUrl.Scheme != "https" {
		return nil, fmt.Errorf("job url is invalid (only https is supported): %s", location)
	}

	configTransport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecureSkipVerify,
		},
		Proxy: http.ProxyFromEnvironment,
	}
	if !utilities.IsInterfaceNil(keyLogger) {
		configTransport.TLSClientConfig.KeyLogWriter = keyLogger
	}
	if err := utilities.OverrideHostTransport(configTransport, c.ConnectToAddr); err != nil {
		return nil, err
	}
	configClient := &http.Client{Transport: configTransport}

	req, err := http.NewRequestWithContext(ctx, "GET", location, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request for %s: %w", location, err)
	}
	req.Header.Set("User-Agent", utilities.UserAgent())

	resp, err := configClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not download job from %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d for the job request", location, resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read job downloaded from %s: %w", location, err)
	}
	return content, nil
}

// Save writes the job to path in the format Get reads.
func (c *Config) Save(path string) error {
	content, err := c.Job.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Source: %s\nrw_mode: %d\nread credit: %d\nwrite credit: %d\n",
		utilities.Conditional(len(c.Source) != 0, c.Source, "(default)"),
		c.Job.RwMode,
		c.Job.Channels[engine.Read].AddrGen.Credit,
		c.Job.Channels[engine.Write].AddrGen.Credit,
	)
}

func (c *Config) IsValid(caps engine.Capabilities, creditMode pattern.CreditMode) error {
	return c.Job.Validate(caps, creditMode)
}
