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

package debug

import "fmt"

type DebugLevel int8

const (
	NoDebug DebugLevel = iota
	Debug
	Warn
	Error
)

func (level DebugLevel) String() string {
	switch level {
	case NoDebug:
		return "None"
	case Debug:
		return "Debug"
	case Warn:
		return "Warn"
	case Error:
		return "Error"
	}
	return "Unrecognized debug level"
}

type DebugWithPrefix struct {
	Level  DebugLevel
	Prefix string
}

func NewDebugWithPrefix(level DebugLevel, prefix string) *DebugWithPrefix {
	return &DebugWithPrefix{Level: level, Prefix: prefix}
}

// WithSuffix derives a new prefix for a sub-component, e.g. "tester" -> "tester (r)".
func (d *DebugWithPrefix) WithSuffix(suffix string) *DebugWithPrefix {
	if d == nil {
		return nil
	}
	return &DebugWithPrefix{Level: d.Level, Prefix: fmt.Sprintf("%s %s", d.Prefix, suffix)}
}

func (d *DebugWithPrefix) String() string {
	return d.Prefix
}

// Debugf prints the message when debugging output is enabled at the
// Debug level. A nil receiver prints nothing.
func (d *DebugWithPrefix) Debugf(format string, args ...interface{}) {
	if d == nil || d.Level == NoDebug || !IsDebug(d.Level) {
		return
	}
	fmt.Printf("(%s) %s", d.Prefix, fmt.Sprintf(format, args...))
}

func (d *DebugWithPrefix) Warnf(format string, args ...interface{}) {
	if d == nil || d.Level == NoDebug || !IsWarn(d.Level) {
		return
	}
	fmt.Printf("(%s) Warning: %s", d.Prefix, fmt.Sprintf(format, args...))
}

func IsDebug(level DebugLevel) bool {
	return level <= Debug
}

func IsWarn(level DebugLevel) bool {
	return level <= Warn
}

func IsError(level DebugLevel) bool {
	return level <= Error
}
