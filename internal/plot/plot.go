// Package plot reads the solver's plot artifacts: rows of a key followed by
// numeric samples, and projects them into function or gradient results.
package plot

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MissingFileError reports an expected plot artifact that is absent after an
// apparently successful solver invocation.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("plot: expected output file %q is missing", e.Path)
}

// Rows maps a result key to its numeric samples, preserving file order.
type Rows struct {
	keys []string
	rows map[string][]float64
}

// Keys returns the row keys in file order.
func (r *Rows) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the samples of a row and whether the key is present.
func (r *Rows) Get(key string) ([]float64, bool) {
	v, ok := r.rows[key]
	return v, ok
}

// Len returns the number of rows.
func (r *Rows) Len() int {
	return len(r.keys)
}

// Read parses a plot file. Each non-empty row is `key, numeric, ...`: the
// first column a key, the remaining columns numeric samples. Lines starting
// with `%` or `#` are comments. A missing file fails with *MissingFileError.
func Read(path string) (*Rows, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingFileError{Path: path}
		}
		return nil, fmt.Errorf("plot: open %s: %w", path, err)
	}
	defer f.Close()

	out := &Rows{rows: make(map[string][]float64)}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "%") || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		key := strings.Trim(strings.TrimSpace(fields[0]), `"`)
		if key == "" {
			return nil, fmt.Errorf("plot: %s line %d: empty key", path, line)
		}
		values := make([]float64, 0, len(fields)-1)
		for _, field := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("plot: %s line %d: bad numeric value %q: %w", path, line, field, err)
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("plot: %s line %d: row %q has no values", path, line, key)
		}
		if _, exists := out.rows[key]; !exists {
			out.keys = append(out.keys, key)
		}
		out.rows[key] = values
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("plot: read %s: %w", path, err)
	}
	return out, nil
}
