// Package hclspec loads a sweep specification from an HCL file and
// translates it into the format-agnostic sweep.Plan consumed by the driver.
package hclspec

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/sweepgridgo/internal/ctxlog"
	"github.com/vk/sweepgridgo/internal/schema"
	"github.com/vk/sweepgridgo/internal/sweep"
)

// Loader parses sweep specification files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL sweep loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load parses the sweep file at path into a Plan. The base config path is
// resolved relative to the sweep file's directory.
func (l *Loader) Load(ctx context.Context, path string) (*sweep.Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing sweep file.", "path", path)

	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse sweep file %s: %w", path, diags)
	}

	var spec schema.Sweep
	if diags := gohcl.DecodeBody(file.Body, nil, &spec); diags.HasErrors() {
		return nil, fmt.Errorf("decode sweep file %s: %w", path, diags)
	}

	plan, err := translate(&spec)
	if err != nil {
		return nil, fmt.Errorf("sweep file %s: %w", path, err)
	}

	if !filepath.IsAbs(plan.ConfigPath) {
		plan.ConfigPath = filepath.Join(filepath.Dir(path), plan.ConfigPath)
	}

	logger.Debug("Sweep file loaded.", "config", plan.ConfigPath, "runs", len(plan.Runs))
	return plan, nil
}
