package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"specforge/internal/ctxlog"
	"specforge/internal/executor"
	"specforge/internal/fingerprint"
	"specforge/internal/graph"
	"specforge/internal/manifest"
	"specforge/internal/model"
	"specforge/internal/plan"
)

const fingerprintCacheSize = 1024

// ManifestPath returns the well-known manifest location inside a build
// output directory.
func ManifestPath(outDir string) string {
	return filepath.Join(outDir, ".specforge", "manifest.json")
}

// Run executes the main application logic for one invocation.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.")

	ws, err := model.LoadWorkspace(ctx, a.config.WorkspacePath)
	if err != nil {
		return err
	}

	g, err := graph.Build(ctx, ws)
	if err != nil {
		return a.diagnose(err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", g.Len())

	if a.config.Affected != "" {
		return a.reportAffected(g)
	}

	hasher, err := fingerprint.NewHasher(fingerprintCacheSize)
	if err != nil {
		return err
	}
	m, err := manifest.Load(ManifestPath(a.config.OutDir))
	if err != nil {
		return err
	}

	exec := &executor.Executor{
		Workspace:    ws,
		Graph:        g,
		Manifest:     m,
		Registry:     a.registry,
		Hasher:       hasher,
		Workers:      a.config.Workers,
		Retries:      uint64(a.config.Retries),
		ManifestPath: ManifestPath(a.config.OutDir),
	}

	if a.config.DryRun {
		return a.reportPlan(ctx, exec, m)
	}

	summary, err := exec.Run(ctx)
	if err != nil {
		return a.diagnose(err)
	}
	a.logger.Info("Build cycle finished.",
		"built", len(summary.Built), "up_to_date", summary.UpToDate,
		"failed", len(summary.Failed), "skipped", len(summary.Skipped))
	return nil
}

// reportAffected prints the affected set of the configured spec, one name
// per line, in build order.
func (a *App) reportAffected(g *graph.Graph) error {
	names, err := graph.Affected(g, a.config.Affected)
	if err != nil {
		return a.diagnose(err)
	}
	for _, name := range names {
		fmt.Fprintln(a.outW, name)
	}
	return nil
}

// reportPlan prints the rebuild plan with per-spec reasons, including a
// dependency diff where the declaration drifted from the recorded snapshot.
func (a *App) reportPlan(ctx context.Context, exec *executor.Executor, m *manifest.Manifest) error {
	inputs, err := exec.PlanInputs(ctx)
	if err != nil {
		return a.diagnose(err)
	}
	decisions := plan.Explain(inputs, m)
	if len(decisions) == 0 {
		fmt.Fprintln(a.outW, "nothing to rebuild")
		return nil
	}
	for _, d := range decisions {
		switch {
		case d.Trigger != "":
			fmt.Fprintf(a.outW, "%s\t%s (%s)\n", d.Name, d.Reason, d.Trigger)
		default:
			fmt.Fprintf(a.outW, "%s\t%s\n", d.Name, d.Reason)
		}
		if d.Reason == plan.DependenciesChanged {
			if diff := plan.DependencyDiff(d.Name, inputs.Dependencies[d.Name], m); diff != "" {
				fmt.Fprint(a.outW, diff)
			}
		}
	}
	return nil
}

// diagnose logs the structured graph errors with their payloads before
// passing the error on, so the user sees an actionable message even at the
// default log level.
func (a *App) diagnose(err error) error {
	var missing *graph.MissingDependencyError
	if errors.As(err, &missing) {
		a.logger.Error("Missing dependency.", "spec", missing.Spec, "missing", missing.Missing)
		return err
	}
	var cycle *graph.CircularDependencyError
	if errors.As(err, &cycle) {
		a.logger.Error("Circular dependency.", "cycle", cycle.Cycle)
		return err
	}
	return err
}
