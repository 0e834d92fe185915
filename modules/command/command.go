// Package command is the built-in producer: it builds a spec by running the
// shell command declared in its `command` attribute, with the spec's context
// exported through the environment.
package command

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"specforge/internal/ctxlog"
	"specforge/internal/registry"
)

// Name is the registry key for this producer. It is also the default for
// spec blocks that name no producer.
const Name = "command"

// Producer runs one shell command per spec build.
type Producer struct{}

// New returns the command producer.
func New() *Producer {
	return &Producer{}
}

// RegisterHandler registers the producer under its well-known name.
func RegisterHandler(r *registry.Registry) error {
	return r.Register(Name, New())
}

// Produce runs the spec's command via the shell in the workspace root. A spec
// with no command is a no-op build that just reports its declared outputs.
func (p *Producer) Produce(ctx context.Context, req registry.BuildRequest) (registry.BuildResult, error) {
	result := registry.BuildResult{
		Fingerprint:  req.Fingerprint,
		Dependencies: req.Dependencies,
		OutputFiles:  req.Spec.Outputs,
	}
	if req.Spec.Command == "" {
		return result, nil
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running producer command.", "spec", req.Name, "command", req.Spec.Command)

	cmd := exec.CommandContext(ctx, "sh", "-c", req.Spec.Command)
	cmd.Dir = req.Root
	cmd.Env = append(os.Environ(),
		"SPECFORGE_SPEC="+req.Name,
		"SPECFORGE_SOURCE="+req.SourcePath,
		"SPECFORGE_DEPS="+strings.Join(req.Dependencies, ","),
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return registry.BuildResult{}, fmt.Errorf("command for spec %q: %w: %s", req.Name, err, strings.TrimSpace(string(out)))
	}
	return result, nil
}
