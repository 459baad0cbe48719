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

package datalogger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"

	"github.com/network-quality/goaxiperf/debug"
)

type DataLogger[T any] interface {
	LogRecord(record T)
	Export() error
	Close() error
}

// CSVDataLogger buffers records and writes them as CSV on Export. Column
// names come from the Description tag of each field (or the field name).
type CSVDataLogger[T any] struct {
	mut         *sync.Mutex
	recordCount int
	data        []T
	isOpen      bool
	destination io.WriteCloser
}

func CreateCSVDataLogger[T any](filename string, debugging *debug.DebugWithPrefix) (DataLogger[T], error) {
	debugging.Debugf("Creating a CSV data logger: %v\n", filename)
	destination, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", filename, err)
	}
	return NewCSVDataLogger[T](destination), nil
}

func NewCSVDataLogger[T any](destination io.WriteCloser) *CSVDataLogger[T] {
	return &CSVDataLogger[T]{&sync.Mutex{}, 0, make([]T, 0), true, destination}
}

func (logger *CSVDataLogger[T]) LogRecord(record T) {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	logger.recordCount += 1
	logger.data = append(logger.data, record)
}

func (logger *CSVDataLogger[T]) RecordCount() int {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	return logger.recordCount
}

func (logger *CSVDataLogger[T]) Export() error {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	if !logger.isOpen {
		return fmt.Errorf("cannot export to a closed data logger")
	}

	visibleFields := reflect.VisibleFields(reflect.TypeOf(new(T)).Elem())
	writer := csv.NewWriter(logger.destination)

	header := make([]string, 0, len(visibleFields))
	for _, v := range visibleFields {
		if description, ok := v.Tag.Lookup("Description"); ok {
			header = append(header, description)
		} else {
			header = append(header, v.Name)
		}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, len(visibleFields))
	for _, d := range logger.data {
		value := reflect.ValueOf(d)
		for i, v := range visibleFields {
			row[i] = fmt.Sprintf("%v", value.FieldByIndex(v.Index))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (logger *CSVDataLogger[T]) Close() error {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	if !logger.isOpen {
		return nil
	}
	logger.isOpen = false
	return logger.destination.Close()
}
