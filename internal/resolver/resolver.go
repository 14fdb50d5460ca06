// Package resolver implements the capability-based dependency resolver
// (C3): a phase-partitioned topological sort over adapters, with
// deterministic lexicographic tie-breaking and cycle detection.
package resolver

import (
	"fmt"
	"sort"

	"github.com/arun4infra/zerotouch-engine/internal/adapter"
	"github.com/arun4infra/zerotouch-engine/internal/capability"
	"github.com/arun4infra/zerotouch-engine/internal/ztcerr"
)

// Plan is the totally ordered execution plan: adapter names in the order
// they must run.
type Plan struct {
	Order []string
}

// node is the resolver's working copy of one selected adapter.
type node struct {
	desc  adapter.Descriptor
	phase adapter.Phase
}

// Resolve turns a flat adapter selection into a totally ordered execution
// plan. descriptors must already have been validated as a known, unique
// set (the adapter registry enforces name uniqueness at load time).
func Resolve(descriptors []adapter.Descriptor) (Plan, error) {
	nodes := make(map[string]node, len(descriptors))
	for _, d := range descriptors {
		nodes[d.Name] = node{desc: d, phase: d.Phase}
	}

	providerOf, err := buildProviderIndex(descriptors)
	if err != nil {
		return Plan{}, err
	}

	if err := checkPhaseOrdering(descriptors, providerOf, nodes); err != nil {
		return Plan{}, err
	}

	phases := []adapter.Phase{
		adapter.PhaseFoundation,
		adapter.PhaseNetworking,
		adapter.PhasePlatform,
		adapter.PhaseServices,
	}

	var order []string
	for _, ph := range phases {
		names := namesInPhase(descriptors, ph)
		if len(names) == 0 {
			continue
		}
		edges := intraPhaseEdges(names, providerOf, nodes)
		sorted, err := topoSort(names, edges)
		if err != nil {
			return Plan{}, err
		}
		order = append(order, sorted...)
	}

	return Plan{Order: order}, nil
}

// buildProviderIndex maps each provided capability to its sole provider,
// failing with DuplicateProvider if two adapters provide the same
// capability.
func buildProviderIndex(descriptors []adapter.Descriptor) (map[capability.ID]string, error) {
	providerOf := make(map[capability.ID]string)
	for _, d := range descriptors {
		for _, c := range d.Provides {
			if existing, ok := providerOf[c]; ok {
				a, b := existing, d.Name
				if b < a {
					a, b = b, a
				}
				return nil, ztcerr.New(ztcerr.DuplicateProvider,
					fmt.Sprintf("capability %q is provided by both %q and %q", c, a, b)).
					WithDetail("capability", string(c)).
					WithDetail("a", a).
					WithDetail("b", b)
			}
			providerOf[c] = d.Name
		}
	}
	return providerOf, nil
}

// checkPhaseOrdering verifies every requirement is satisfied by a provider
// in the same or an earlier phase.
func checkPhaseOrdering(descriptors []adapter.Descriptor, providerOf map[capability.ID]string, nodes map[string]node) error {
	for _, d := range descriptors {
		for _, req := range d.Requires {
			providerName, ok := providerOf[req]
			if !ok {
				return ztcerr.New(ztcerr.MissingCapability,
					fmt.Sprintf("adapter %q requires capability %q, which no selected adapter provides", d.Name, req)).
					WithRemediation(fmt.Sprintf("add an adapter that provides %q, or remove %q from the platform config", req, d.Name)).
					WithDetail("consumer", d.Name).
					WithDetail("capability", string(req))
			}
			providerPhase := nodes[providerName].phase
			if providerPhase > d.Phase {
				return ztcerr.New(ztcerr.PhaseViolation,
					fmt.Sprintf("adapter %q (phase %s) requires capability %q provided by %q (phase %s), which runs later",
						d.Name, d.Phase, req, providerName, providerPhase)).
					WithDetail("consumer", d.Name).
					WithDetail("provider", providerName).
					WithDetail("capability", string(req))
			}
		}
	}
	return nil
}

func namesInPhase(descriptors []adapter.Descriptor, ph adapter.Phase) []string {
	var names []string
	for _, d := range descriptors {
		if d.Phase == ph {
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names
}

// intraPhaseEdges returns provider->consumer edges restricted to pairs
// within the same phase; cross-phase requirements are already satisfied by
// phase bucket ordering and do not constrain the intra-phase sort.
func intraPhaseEdges(names []string, providerOf map[capability.ID]string, nodes map[string]node) map[string][]string {
	inPhase := make(map[string]bool, len(names))
	for _, n := range names {
		inPhase[n] = true
	}
	edges := make(map[string][]string)
	for _, n := range names {
		for _, req := range nodes[n].desc.Requires {
			providerName, ok := providerOf[req]
			if !ok || !inPhase[providerName] {
				continue
			}
			edges[providerName] = append(edges[providerName], n)
		}
	}
	return edges
}

// topoSort performs Kahn's algorithm with a lexicographic tie-break among
// ready vertices, guaranteeing a deterministic ordering for a given input.
// On failure to make progress it reports CircularDependency with one
// actual cycle among the stalled vertices.
func topoSort(names []string, edges map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(names))
	for _, n := range names {
		inDegree[n] = 0
	}
	for _, consumers := range edges {
		for _, c := range consumers {
			inDegree[c]++
		}
	}

	remaining := make(map[string]bool, len(names))
	for _, n := range names {
		remaining[n] = true
	}

	var order []string
	for len(remaining) > 0 {
		var ready []string
		for n := range remaining {
			if inDegree[n] == 0 {
				ready = append(ready, n)
			}
		}
		if len(ready) == 0 {
			cycle := findCycle(remaining, edges)
			return nil, ztcerr.New(ztcerr.CircularDependency,
				fmt.Sprintf("circular dependency among adapters: %v", cycle)).
				WithDetail("cycle", cycle)
		}
		sort.Strings(ready)
		next := ready[0]
		order = append(order, next)
		delete(remaining, next)
		for _, c := range edges[next] {
			if remaining[c] {
				inDegree[c]--
			}
		}
	}
	return order, nil
}

// findCycle performs a DFS over the stalled subgraph to produce one
// concrete cycle, each vertex listed exactly once.
func findCycle(remaining map[string]bool, edges map[string][]string) []string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(remaining))

	var start string
	for n := range remaining {
		start = n
		break
	}

	var stack []string
	var dfs func(n string) []string
	dfs = func(n string) []string {
		state[n] = visiting
		stack = append(stack, n)
		for _, c := range edges[n] {
			if !remaining[c] {
				continue
			}
			switch state[c] {
			case unvisited:
				if cyc := dfs(c); cyc != nil {
					return cyc
				}
			case visiting:
				// found the back edge n -> c; extract the cycle c..n from stack.
				idx := -1
				for i, s := range stack {
					if s == c {
						idx = i
						break
					}
				}
				cyc := append([]string{}, stack[idx:]...)
				return cyc
			}
		}
		state[n] = done
		stack = stack[:len(stack)-1]
		return nil
	}

	if cyc := dfs(start); cyc != nil {
		return cyc
	}
	// Every remaining vertex is reachable from some cycle; retry from
	// untried starts in deterministic order if the first pick wasn't on one.
	var sortedRemaining []string
	for n := range remaining {
		sortedRemaining = append(sortedRemaining, n)
	}
	sort.Strings(sortedRemaining)
	for _, n := range sortedRemaining {
		if state[n] == unvisited {
			state = make(map[string]int, len(remaining))
			stack = nil
			if cyc := dfs(n); cyc != nil {
				return cyc
			}
		}
	}
	return sortedRemaining
}
