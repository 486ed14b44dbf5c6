// Package namespace allocates the isolated working directory of one run and
// rewrites the solver's output filenames into it, so that concurrent or
// sequential variants of the same base configuration never collide on disk.
package namespace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/sweepgridgo/internal/solverconfig"
)

// DefaultRedirectKeys are the output-artifact configuration keys rewritten
// into a run's directory.
var DefaultRedirectKeys = []string{
	"CONV_FILENAME",
	"RESTART_FLOW_FILENAME",
	"VOLUME_FLOW_FILENAME",
	"SURFACE_FLOW_FILENAME",
}

// Error reports a failed filesystem operation on a run namespace.
type Error struct {
	Name string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("namespace %q: %s: %v", e.Name, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager allocates run namespaces under a fixed root directory.
type Manager struct {
	// Root is the directory under which all run namespaces are created.
	Root string
}

// Path returns the directory path of the named namespace.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.Root, name)
}

// Prepare allocates a clean directory for the named run. Any existing
// directory of the same name is removed first, so no stale output of an
// earlier preparation survives. It returns the directory path.
func (m *Manager) Prepare(name string) (string, error) {
	if name == "" {
		return "", &Error{Name: name, Op: "prepare", Err: fmt.Errorf("empty namespace name")}
	}
	dir := m.Path(name)
	if err := os.RemoveAll(dir); err != nil {
		return "", &Error{Name: name, Op: "remove stale directory", Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Name: name, Op: "create directory", Err: err}
	}
	return dir, nil
}

// Redirect prefixes the current value of each output-filename key with the
// named namespace directory. Keys absent from the config are skipped. With
// no explicit keys, DefaultRedirectKeys is used. Call once per run: a second
// call would stack another prefix.
func (m *Manager) Redirect(cfg *solverconfig.Config, name string, keys ...string) {
	if len(keys) == 0 {
		keys = DefaultRedirectKeys
	}
	for _, key := range keys {
		current, err := cfg.GetString(key)
		if err != nil {
			continue
		}
		cfg.Set(key, filepath.Join(m.Path(name), current))
	}
}
