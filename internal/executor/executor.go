// Package executor is the orchestration layer: it plans a build cycle,
// executes each level's members concurrently through their producers, merges
// completed results into the manifest under a single writer, and persists the
// manifest once at the end.
//
// The dependency core below it stays purely synchronous; every goroutine in
// the system lives here.
package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"specforge/internal/ctxlog"
	"specforge/internal/fingerprint"
	"specforge/internal/graph"
	"specforge/internal/manifest"
	"specforge/internal/model"
	"specforge/internal/plan"
	"specforge/internal/registry"
)

// Executor runs one build cycle over a workspace.
type Executor struct {
	Workspace    *model.Workspace
	Graph        *graph.Graph
	Manifest     *manifest.Manifest
	Registry     *registry.Registry
	Hasher       *fingerprint.Hasher
	Workers      int
	Retries      uint64
	ManifestPath string
}

// Summary reports what one run did.
type Summary struct {
	// Built lists specs rebuilt successfully, in completion-independent
	// (sorted) order.
	Built []string
	// Failed lists specs whose producer failed after retries.
	Failed []string
	// Skipped lists specs not attempted because a transitive dependency
	// failed.
	Skipped []string
	// UpToDate is the count of specs the planner left out of the cycle.
	UpToDate int
}

// Run plans and executes one build cycle. Level k+1 does not start until
// every member of level k completed or was skipped. Only completed builds are
// recorded in the manifest; the manifest file is written once, atomically,
// after the walk.
//
// Cancellation stops the walk: once ctx is done no further member is
// dispatched, in-flight producers are waited for, completed builds are
// persisted, and Run returns the context's error.
func (e *Executor) Run(ctx context.Context) (Summary, error) {
	logger := ctxlog.FromContext(ctx)
	var summary Summary

	inputs, err := e.PlanInputs(ctx)
	if err != nil {
		return summary, err
	}
	planned := plan.Plan(inputs, e.Manifest)
	plannedSet := make(map[string]struct{}, len(planned))
	for _, name := range planned {
		plannedSet[name] = struct{}{}
	}
	summary.UpToDate = e.Graph.Len() - len(planned)
	logger.Info("Build cycle planned.", "rebuild", len(planned), "up_to_date", summary.UpToDate)

	// Drop records for specs no longer in the workspace.
	for _, name := range e.Manifest.Names() {
		if !e.Graph.Has(name) {
			logger.Debug("Forgetting deleted spec.", "spec", name)
			e.Manifest.Forget(name)
		}
	}

	if err := e.checkProducers(); err != nil {
		return summary, err
	}

	levels, err := graph.Levels(e.Graph)
	if err != nil {
		return summary, err
	}

	var mu sync.Mutex // guards manifest and the result slices below
	failures := make(map[string]error)
	poisoned := make(map[string]struct{})
	var canceled error

	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			logger.Warn("Build cycle canceled; remaining levels not scheduled.", "level", i)
			canceled = err
			break
		}
		var members []string
		for _, name := range level {
			if _, ok := plannedSet[name]; !ok {
				continue
			}
			if dep, bad := e.poisonedBy(name, poisoned, failures); bad {
				logger.Warn("Skipping spec due to upstream failure.", "spec", name, "dependency", dep)
				poisoned[name] = struct{}{}
				// Drop the stale record so the next cycle replans this spec
				// even though its own inputs are unchanged.
				e.Manifest.Forget(name)
				summary.Skipped = append(summary.Skipped, name)
				continue
			}
			members = append(members, name)
		}
		if len(members) == 0 {
			continue
		}
		logger.Debug("Executing level.", "level", i, "members", members)

		sem := make(chan struct{}, e.workerCount())
		var wg sync.WaitGroup
		for _, name := range members {
			if err := ctx.Err(); err != nil {
				canceled = err
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(name string) {
				defer func() { <-sem; wg.Done() }()
				result, err := e.buildOne(ctx, name, inputs)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.Error("Spec build failed.", "spec", name, "error", err)
					failures[name] = err
					e.Manifest.Forget(name)
					summary.Failed = append(summary.Failed, name)
					return
				}
				e.Manifest.RecordBuild(name, result.Fingerprint, result.Dependencies, result.OutputFiles)
				summary.Built = append(summary.Built, name)
			}(name)
		}
		wg.Wait()
	}

	sort.Strings(summary.Built)
	sort.Strings(summary.Failed)
	sort.Strings(summary.Skipped)

	if canceled != nil {
		// Planned specs that never ran keep no record, so the next cycle
		// replans them even when a completed dependency would otherwise
		// mask the change.
		builtSet := make(map[string]struct{}, len(summary.Built))
		for _, name := range summary.Built {
			builtSet[name] = struct{}{}
		}
		for _, name := range planned {
			if _, ok := builtSet[name]; !ok {
				e.Manifest.Forget(name)
			}
		}
	}

	if err := e.Manifest.Save(e.ManifestPath); err != nil {
		return summary, fmt.Errorf("saving manifest: %w", err)
	}

	if canceled != nil {
		return summary, fmt.Errorf("build cycle canceled: %w", canceled)
	}
	if len(summary.Failed) > 0 {
		rootCause := failures[summary.Failed[0]]
		return summary, fmt.Errorf("build failed for %s: %w", strings.Join(summary.Failed, ", "), rootCause)
	}
	return summary, nil
}

// PlanInputs assembles the planner's view of the current cycle: linear build
// order, fingerprints, and normalized dependency lists.
func (e *Executor) PlanInputs(ctx context.Context) (plan.Inputs, error) {
	order, err := graph.Order(e.Graph)
	if err != nil {
		return plan.Inputs{}, err
	}
	fingerprints, err := e.Workspace.Fingerprints(e.Hasher)
	if err != nil {
		return plan.Inputs{}, err
	}
	deps := make(map[string][]string, e.Graph.Len())
	for _, name := range order {
		deps[name] = e.Graph.Dependencies(name)
	}
	return plan.Inputs{Order: order, Fingerprints: fingerprints, Dependencies: deps}, nil
}

// buildOne invokes the spec's producer, retrying transient failures with
// exponential backoff.
func (e *Executor) buildOne(ctx context.Context, name string, inputs plan.Inputs) (registry.BuildResult, error) {
	spec, ok := e.Workspace.Spec(name)
	if !ok {
		return registry.BuildResult{}, fmt.Errorf("spec %q not found in workspace", name)
	}
	producer, _ := e.Registry.Get(spec.Producer)

	req := registry.BuildRequest{
		Name:         name,
		Spec:         spec,
		Root:         e.Workspace.Root(),
		SourcePath:   e.Workspace.SourcePath(spec),
		Fingerprint:  inputs.Fingerprints[name],
		Dependencies: inputs.Dependencies[name],
	}

	var result registry.BuildResult
	operation := func() error {
		var err error
		result, err = producer.Produce(ctx, req)
		return err
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.Retries)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return registry.BuildResult{}, err
	}
	return result, nil
}

// poisonedBy reports whether any dependency of name failed or was skipped.
// Dependencies always live in earlier levels, so their fate is settled by the
// time name is considered.
func (e *Executor) poisonedBy(name string, poisoned map[string]struct{}, failures map[string]error) (string, bool) {
	for _, dep := range e.Graph.Dependencies(name) {
		if _, ok := failures[dep]; ok {
			return dep, true
		}
		if _, ok := poisoned[dep]; ok {
			return dep, true
		}
	}
	return "", false
}

// checkProducers resolves every planned spec's producer up front.
func (e *Executor) checkProducers() error {
	for _, name := range e.Graph.Nodes() {
		spec, ok := e.Workspace.Spec(name)
		if !ok {
			continue
		}
		if _, ok := e.Registry.Get(spec.Producer); !ok {
			return fmt.Errorf("spec %q names unknown producer %q (registered: %s)",
				name, spec.Producer, strings.Join(e.Registry.Names(), ", "))
		}
	}
	return nil
}

func (e *Executor) workerCount() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return 1
}
