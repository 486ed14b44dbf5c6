package solverconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Load reads a solver configuration file. The format is one `KEY= VALUE`
// assignment per line, with `%` starting a comment. List values are wrapped
// in parentheses; the DEFINITION_DV value is a `;`-separated sequence of
// `( kind, scale | markers | params )` entries.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load solver config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load solver config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads a solver configuration from r. See Load for the format.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.Index(text, "%"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		key, raw, found := strings.Cut(text, "=")
		if !found {
			return nil, fmt.Errorf("line %d: expected KEY= VALUE, got %q", line, text)
		}
		key = strings.TrimSpace(key)
		raw = strings.TrimSpace(raw)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", line)
		}
		if key == KeyDefinitionDV {
			dv, err := parseDVDefinition(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			cfg.Set(key, dv)
			continue
		}
		cfg.Set(key, parseValue(raw))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseValue interprets a raw value as a float, a parenthesised list of
// floats or strings, or a plain string, in that order.
func parseValue(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return []string{}
		}
		parts := splitAndTrim(inner, ",")
		floats := make([]float64, 0, len(parts))
		numeric := true
		for _, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				numeric = false
				break
			}
			floats = append(floats, f)
		}
		if numeric {
			return floats
		}
		return parts
	}
	return raw
}

// parseDVDefinition parses the `;`-separated design-variable entries, each
// of the form `( kind, scale | marker, ... | param, ... )`.
func parseDVDefinition(raw string) (*DVDefinition, error) {
	dv := &DVDefinition{}
	for _, entry := range splitAndTrim(raw, ";") {
		if entry == "" {
			continue
		}
		if !strings.HasPrefix(entry, "(") || !strings.HasSuffix(entry, ")") {
			return nil, fmt.Errorf("malformed DEFINITION_DV entry %q", entry)
		}
		fields := splitAndTrim(entry[1:len(entry)-1], "|")
		if len(fields) != 3 {
			return nil, fmt.Errorf("DEFINITION_DV entry %q: expected 3 |-separated fields, got %d", entry, len(fields))
		}

		head := splitAndTrim(fields[0], ",")
		if len(head) != 2 {
			return nil, fmt.Errorf("DEFINITION_DV entry %q: expected `kind, scale`", entry)
		}
		scale, err := strconv.ParseFloat(head[1], 64)
		if err != nil {
			return nil, fmt.Errorf("DEFINITION_DV entry %q: bad scale: %w", entry, err)
		}

		var params []float64
		for _, p := range splitAndTrim(fields[2], ",") {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("DEFINITION_DV entry %q: bad parameter %q: %w", entry, p, err)
			}
			params = append(params, f)
		}

		dv.Kind = append(dv.Kind, head[0])
		dv.Scale = append(dv.Scale, scale)
		dv.Markers = append(dv.Markers, splitAndTrim(fields[1], ","))
		dv.Params = append(dv.Params, params)
	}
	if dv.Count() == 0 {
		return nil, fmt.Errorf("DEFINITION_DV holds no entries")
	}
	return dv, nil
}

// Write dumps the configuration, in key order, in the format Load reads.
func (c *Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write solver config: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, key := range c.keys {
		fmt.Fprintf(w, "%s= %s\n", key, formatValue(c.values[key]))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write solver config %s: %w", path, err)
	}
	return f.Close()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatFloat(t)
	case []float64:
		return "( " + joinFloats(t) + " )"
	case []string:
		return "( " + strings.Join(t, ", ") + " )"
	case [][]float64:
		rows := make([]string, len(t))
		for i, row := range t {
			rows[i] = "( " + joinFloats(row) + " )"
		}
		return strings.Join(rows, "; ")
	case *DVDefinition:
		return formatDVDefinition(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatDVDefinition(dv *DVDefinition) string {
	entries := make([]string, dv.Count())
	for i := range dv.Kind {
		entries[i] = fmt.Sprintf("( %s, %s | %s | %s )",
			dv.Kind[i],
			formatFloat(dv.Scale[i]),
			strings.Join(dv.Markers[i], ", "),
			joinFloats(dv.Params[i]),
		)
	}
	return strings.Join(entries, "; ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, ", ")
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
