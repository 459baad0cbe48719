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
	"fmt"
	"reflect"
	"runtime"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func Conditional[T any](condition bool, t T, f T) T {
	if condition {
		return t
	}
	return f
}

func IsInterfaceNil(ifc interface{}) bool {
	return ifc == nil ||
		(reflect.ValueOf(ifc).Kind() == reflect.Ptr && reflect.ValueOf(ifc).IsNil())
}

func UserAgent() string {
	return fmt.Sprintf("goaxiperf/%s", runtime.Version())
}

// FormatCount renders an integer with grouped digits (e.g. 1,048,576).
func FormatCount[T Number](value T) string {
	return printer.Sprintf("%d", int64(value))
}

// FormatFloat renders a float with grouped digits and the given precision.
func FormatFloat(value float64, precision int) string {
	return printer.Sprintf("%.*f", precision, value)
}
