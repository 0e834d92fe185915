// Package model is the workspace layer: it discovers and parses spec
// declarations from .hcl files and hands the dependency core a uniform view
// of them. In a real-world workspace declarations are split across many
// files; the loader consolidates every `spec` block into a single Workspace
// so the graph builder can resolve dependencies that span files.
package model

// Spec is the format-agnostic representation of one `spec` block: a named
// unit with a content source, declared dependencies, and a producer that
// turns it into outputs.
type Spec struct {
	// Name is the unique, case-sensitive identifier used throughout.
	Name string
	// Source is the path of the spec's content file, relative to the
	// workspace root. Its hash is the spec's fingerprint.
	Source string
	// DependsOn holds raw dependency references as declared: bare names or
	// path-like references. Normalization happens in the graph builder.
	DependsOn []string
	// Producer selects the registered producer to invoke. Empty selects the
	// default command producer.
	Producer string
	// Command is the shell command the command producer runs.
	Command string
	// Outputs lists the output locations the producer is expected to write.
	Outputs []string
	// File is the .hcl file the block was declared in, for diagnostics.
	File string
}
