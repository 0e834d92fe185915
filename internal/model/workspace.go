package model

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"specforge/internal/ctxlog"
	"specforge/internal/fingerprint"
	"specforge/internal/fsutil"
)

// DefaultProducer is assigned to spec blocks that do not name a producer.
const DefaultProducer = "command"

// Workspace is the loaded set of spec declarations. It implements the graph
// builder's Provider interface.
type Workspace struct {
	root  string
	specs map[string]*Spec
}

// hclSpecFile is the top-level structure of one workspace file for decoding.
type hclSpecFile struct {
	Locals []*hclLocalsBlock `hcl:"locals,block"`
	Specs  []*hclSpec        `hcl:"spec,block"`
}

// hclLocalsBlock captures a `locals` block. Its attributes are evaluated in
// a first pass so later expressions can reference them as local.<name>.
type hclLocalsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// hclSpec is the raw decoding target for a `spec` block.
type hclSpec struct {
	Name      string   `hcl:"name,label"`
	Source    string   `hcl:"source"`
	DependsOn []string `hcl:"depends_on,optional"`
	Producer  string   `hcl:"producer,optional"`
	Command   string   `hcl:"command,optional"`
	Outputs   []string `hcl:"outputs,optional"`
}

// LoadWorkspace finds and parses every .hcl file under root into a single
// Workspace. Duplicate spec names across files are an error.
func LoadWorkspace(ctx context.Context, root string) (*Workspace, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workspace.", "path", root)

	files, err := fsutil.FindFilesByExtension(root, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("finding workspace files in %s: %w", root, err)
	}
	if len(files) == 0 {
		logger.Warn("No .hcl files found in workspace.", "path", root)
	}

	ws := &Workspace{root: root, specs: make(map[string]*Spec)}
	parser := hclparse.NewParser()
	for _, file := range files {
		specs, err := parseSpecFile(file, parser)
		if err != nil {
			return nil, err
		}
		for _, s := range specs {
			if prev, exists := ws.specs[s.Name]; exists {
				return nil, fmt.Errorf("duplicate spec %q: declared in %s and %s", s.Name, prev.File, s.File)
			}
			ws.specs[s.Name] = s
		}
	}

	logger.Info("Workspace loaded.", "specs_found", len(ws.specs), "files", len(files))
	return ws, nil
}

// parseSpecFile parses a single HCL file and returns the specs declared in
// it. Locals are evaluated first so spec attributes may interpolate them.
func parseSpecFile(filePath string, parser *hclparse.Parser) ([]*Spec, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, diags)
	}

	evalCtx, err := localsEvalContext(hclFile.Body)
	if err != nil {
		return nil, fmt.Errorf("evaluating locals in %s: %w", filePath, err)
	}

	var parsed hclSpecFile
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, diags)
	}

	specs := make([]*Spec, 0, len(parsed.Specs))
	for _, raw := range parsed.Specs {
		if raw.Name == "" {
			return nil, fmt.Errorf("%s: spec block with empty name", filePath)
		}
		if raw.Source == "" {
			return nil, fmt.Errorf("%s: spec %q has an empty source", filePath, raw.Name)
		}
		producer := raw.Producer
		if producer == "" {
			producer = DefaultProducer
		}
		specs = append(specs, &Spec{
			Name:      raw.Name,
			Source:    raw.Source,
			DependsOn: raw.DependsOn,
			Producer:  producer,
			Command:   raw.Command,
			Outputs:   raw.Outputs,
			File:      filePath,
		})
	}
	return specs, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string { return w.root }

// Spec returns the declaration for name.
func (w *Workspace) Spec(name string) (*Spec, bool) {
	s, ok := w.specs[name]
	return s, ok
}

// SourcePath resolves a spec's source file against the workspace root.
func (w *Workspace) SourcePath(s *Spec) string {
	if filepath.IsAbs(s.Source) {
		return s.Source
	}
	return filepath.Join(w.root, s.Source)
}

// Universe returns every declared spec name, sorted.
func (w *Workspace) Universe(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(w.specs))
	for name := range w.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Dependencies returns the raw declared dependency references for name.
func (w *Workspace) Dependencies(ctx context.Context, name string) ([]string, error) {
	s, ok := w.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown spec %q", name)
	}
	return append([]string(nil), s.DependsOn...), nil
}

// Fingerprints hashes every spec's source file and returns the fingerprints
// keyed by spec name.
func (w *Workspace) Fingerprints(hasher *fingerprint.Hasher) (map[string]string, error) {
	out := make(map[string]string, len(w.specs))
	for name, s := range w.specs {
		sum, err := hasher.File(w.SourcePath(s))
		if err != nil {
			return nil, fmt.Errorf("fingerprinting spec %q: %w", name, err)
		}
		out[name] = sum
	}
	return out, nil
}
