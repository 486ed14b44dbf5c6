// Package solverconfig holds the mutable key-value configuration consumed by
// the external solver binaries. A Config is an ordered mapping from parameter
// name to value; each isolated run works on its own deep clone so that
// per-run mutations (design-variable perturbations, output redirection) never
// leak back into the master configuration.
package solverconfig

import (
	"fmt"
	"strings"
)

// Well-known configuration keys.
const (
	KeyGeoParam     = "GEO_PARAM"
	KeyGeoMode      = "GEO_MODE"
	KeyDefinitionDV = "DEFINITION_DV"
	KeyDecomposed   = "DECOMPOSED"

	KeyDVKind     = "DV_KIND"
	KeyDVMarker   = "DV_MARKER"
	KeyDVParam    = "DV_PARAM"
	KeyDVValueOld = "DV_VALUE_OLD"
	KeyDVValueNew = "DV_VALUE_NEW"
)

// KeyError reports a required configuration key that is absent or holds a
// value of an unexpected shape.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("solver config: required key %q is not set", e.Key)
}

// Config is an ordered key-value mapping of one solver configuration.
// Values are one of: string, float64, []float64, []string or *DVDefinition.
type Config struct {
	keys      []string
	values    map[string]any
	perturbed bool
}

// New returns an empty Config.
func New() *Config {
	return &Config{values: make(map[string]any)}
}

// Keys returns the parameter names in their original (insertion) order.
func (c *Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the raw value for key and whether it is present.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value under key, preserving the position of an existing key
// and appending new keys at the end.
func (c *Config) Set(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// GetString returns the value of key as a string. It fails with a *KeyError
// when the key is absent.
func (c *Config) GetString(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", &KeyError{Key: key}
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return formatFloat(s), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// GetFloat returns the value of key as a float64. It fails with a *KeyError
// when the key is absent or not numeric.
func (c *Config) GetFloat(key string) (float64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, &KeyError{Key: key}
	}
	f, ok := v.(float64)
	if !ok {
		return 0, &KeyError{Key: key}
	}
	return f, nil
}

// DVs returns the design-variable definition block. It fails with a
// *KeyError when DEFINITION_DV is absent or malformed.
func (c *Config) DVs() (*DVDefinition, error) {
	v, ok := c.values[KeyDefinitionDV]
	if !ok {
		return nil, &KeyError{Key: KeyDefinitionDV}
	}
	dv, ok := v.(*DVDefinition)
	if !ok {
		return nil, &KeyError{Key: KeyDefinitionDV}
	}
	return dv, nil
}

// Decomposed reports whether a decomposition step has already been performed
// for this configuration.
func (c *Config) Decomposed() bool {
	v, ok := c.values[KeyDecomposed]
	if !ok {
		return false
	}
	s, _ := v.(string)
	return strings.EqualFold(s, "YES")
}

// SetDecomposed records whether decomposition has been performed.
func (c *Config) SetDecomposed(done bool) {
	if done {
		c.Set(KeyDecomposed, "YES")
	} else {
		c.Set(KeyDecomposed, "NO")
	}
}

// Perturbed reports whether UnpackDVs has applied a design-variable
// perturbation to this configuration.
func (c *Config) Perturbed() bool {
	return c.perturbed
}

// Clone returns a deep, fully independent copy. Mutating the clone (or any
// of its nested values) never affects the original.
func (c *Config) Clone() *Config {
	out := &Config{
		keys:      make([]string, len(c.keys)),
		values:    make(map[string]any, len(c.values)),
		perturbed: c.perturbed,
	}
	copy(out.keys, c.keys)
	for k, v := range c.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []float64:
		out := make([]float64, len(t))
		copy(out, t)
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case [][]float64:
		out := make([][]float64, len(t))
		for i, row := range t {
			out[i] = append([]float64(nil), row...)
		}
		return out
	case *DVDefinition:
		return t.Clone()
	default:
		// Strings and numbers are immutable.
		return v
	}
}
