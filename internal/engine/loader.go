package engine

import (
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/csv"

	"aqdash/internal/logging"
)

// ErrMissingColumn is returned when a required column is not in the header.
var ErrMissingColumn = errors.New("required column missing")

// UnreportedProcess labels rows whose Data Aggregation Process cell is empty.
const UnreportedProcess = "Not reported"

// Cells treated as missing, as in the extract's spreadsheet export.
var nullTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

const chunkRows = 4096

// LoadColumnar reads the extract at path into a ColumnStore.
func LoadColumnar(path string, logger logging.Logger) (*ColumnStore, error) {
	start := time.Now()
	logger.Info("loading dataset", logging.String("path", path))

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	store, err := LoadColumnarFrom(content)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	logger.Info("dataset loaded",
		logging.Int("rows_read", store.Stats.RowsRead),
		logging.Int("rows_kept", store.Stats.RowsKept),
		logging.Int("rows_dropped", store.Stats.RowsDropped),
		logging.Int("countries", len(store.Countries.Dict)),
		logging.Int("pollutants", len(store.Pollutants.Dict)),
		logging.Bool("has_process", store.HasProcess),
		logging.Duration("elapsed", time.Since(start)),
	)
	return store, nil
}

// LoadColumnarFrom parses CSV content and applies the cleaning rules:
// rows without Country, Year or Air Pollutant are dropped, Year must be an
// integer, and Country, Air Pollutant and Data Aggregation Process are trimmed.
func LoadColumnarFrom(content []byte) (*ColumnStore, error) {
	header, err := readHeader(content)
	if err != nil {
		return nil, err
	}

	// Every column is read as a nullable string; typing happens below so a
	// bad Year drops the row instead of failing the whole file.
	fields := make([]arrow.Field, len(header))
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = i
		}
	}
	for _, required := range []string{ColCountry, ColYear, ColAirPollutant} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	rdr := csv.NewReader(bytes.NewReader(content), arrow.NewSchema(fields, nil),
		csv.WithHeader(true),
		csv.WithChunk(chunkRows),
		csv.WithLazyQuotes(true),
		csv.WithNullReader(true, nullTokens...),
	)
	defer rdr.Release()

	procIdx, hasProcess := colIdx[ColAggregationProcess]

	countries := newDictBuilder(chunkRows)
	pollutants := newDictBuilder(chunkRows)
	processes := newDictBuilder(chunkRows)
	details := make(map[string]*dictBuilder)
	for _, name := range descriptiveColumns {
		if _, ok := colIdx[name]; ok {
			details[name] = newDictBuilder(chunkRows)
		}
	}

	store := &ColumnStore{HasProcess: hasProcess}

	for rdr.Next() {
		rec := rdr.Record()
		country := stringColumn(rec, colIdx[ColCountry])
		year := stringColumn(rec, colIdx[ColYear])
		pollutant := stringColumn(rec, colIdx[ColAirPollutant])
		var process *array.String
		if hasProcess {
			process = stringColumn(rec, procIdx)
		}

		n := int(rec.NumRows())
		store.Stats.RowsRead += n

		for row := 0; row < n; row++ {
			if country.IsNull(row) || year.IsNull(row) || pollutant.IsNull(row) {
				continue
			}
			c := strings.TrimSpace(country.Value(row))
			p := strings.TrimSpace(pollutant.Value(row))
			y, ok := parseYear(year.Value(row))
			if !ok || c == "" || p == "" {
				continue
			}

			store.Years = append(store.Years, y)
			countries.add(c)
			pollutants.add(p)
			if hasProcess {
				proc := UnreportedProcess
				if !process.IsNull(row) {
					if v := strings.TrimSpace(process.Value(row)); v != "" {
						proc = v
					}
				}
				processes.add(proc)
			}
			for name, b := range details {
				col := stringColumn(rec, colIdx[name])
				if col.IsNull(row) {
					b.add("")
				} else {
					b.add(col.Value(row))
				}
			}
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	store.Countries = countries.col
	store.Pollutants = pollutants.col
	store.Processes = processes.col
	store.Details = make(map[string]*DictColumn, len(details))
	for name, b := range details {
		col := b.col
		store.Details[name] = &col
	}
	store.Stats.RowsKept = len(store.Years)
	store.Stats.RowsDropped = store.Stats.RowsRead - store.Stats.RowsKept
	return store, nil
}

func readHeader(content []byte) ([]string, error) {
	r := stdcsv.NewReader(bytes.NewReader(content))
	r.LazyQuotes = true
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header, nil
}

func stringColumn(rec arrow.Record, i int) *array.String {
	return rec.Column(i).(*array.String)
}

// parseYear accepts "2015" and integral floats such as "2015.0".
func parseYear(s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if y, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(y), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int32(f), true
}
