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

// Package remotebus carries word accesses to a tester over HTTP/2.
//
//	GET /reg/{offset}            -> {"value": N}
//	PUT /reg/{offset} {"value": N}
//
// Offsets are decimal or 0x-prefixed hexadecimal.
package remotebus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/network-quality/goaxiperf/debug"
	"github.com/network-quality/goaxiperf/driver"
	"github.com/network-quality/goaxiperf/regmap"
)

const registerPath = "/reg/"

type Word struct {
	Value uint32 `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes a bus. Accesses are serialized.
type Server struct {
	mu        sync.Mutex
	bus       driver.Bus
	debugging *debug.DebugWithPrefix
}

func NewServer(bus driver.Bus, debugging *debug.DebugWithPrefix) *Server {
	return &Server{bus: bus, debugging: debugging}
}

// Handler serves HTTP/1.1 and cleartext HTTP/2 (prior knowledge or
// upgrade).
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(s, &http2.Server{})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := sonnet.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, regmap.ErrUnaligned), errors.Is(err, regmap.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, registerPath) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown path"})
		return
	}
	offset, err := strconv.ParseUint(strings.TrimPrefix(r.URL.Path, registerPath), 0, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("bad offset: %v", err)})
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		v, err := s.bus.Read32(r.Context(), uint32(offset))
		s.mu.Unlock()
		if err != nil {
			writeJSON(w, statusOf(err), errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, Word{Value: v})
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1024))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		var word Word
		if err := sonnet.Unmarshal(body, &word); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("bad body: %v", err)})
			return
		}
		s.mu.Lock()
		err = s.bus.Write32(r.Context(), uint32(offset), word.Value)
		s.mu.Unlock()
		if err != nil {
			writeJSON(w, statusOf(err), errorResponse{Error: err.Error()})
			return
		}
		s.debugging.Debugf("write 0x%x = 0x%x\n", offset, word.Value)
		writeJSON(w, http.StatusOK, word)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	}
}
