// Copyright 2026 The RateDesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authz

import (
	"fmt"
	"sync"
)

// RoleGraph models the role hierarchy as a directed acyclic graph of
// superior -> subordinate edges.
//
// The direction is deliberate and easy to misread: an edge A -> B means that
// A (the superior) inherits everything B (the subordinate) can do. A client
// administrator supervising a rate administrator receives the rate
// administrator's capabilities, not the other way round. Do not invert this
// into the child-inherits-from-parent convention.
type RoleGraph struct {
	mu       sync.RWMutex
	registry *RoleRegistry
	edges    map[string][]string
	cache    map[string]map[string]struct{}
}

// NewRoleGraph creates an empty graph over the given registry. The graph
// subscribes to registry changes so any role re-registration drops the
// effective-permission cache wholesale.
func NewRoleGraph(registry *RoleRegistry) *RoleGraph {
	g := &RoleGraph{
		registry: registry,
		edges:    make(map[string][]string),
		cache:    make(map[string]map[string]struct{}),
	}
	registry.Subscribe(g.Invalidate)
	return g
}

// AddEdge records that superior inherits subordinate's capabilities.
//
// Both codes must be registered. The insertion is rejected with
// ErrCyclicHierarchy, leaving the graph unchanged, if subordinate can already
// reach superior through existing edges (including superior == subordinate).
// Re-adding an existing edge is a no-op.
func (g *RoleGraph) AddEdge(superior, subordinate string) error {
	if !g.registry.Exists(superior) {
		return fmt.Errorf("%w: %s", ErrUnknownRole, superior)
	}
	if !g.registry.Exists(subordinate) {
		return fmt.Errorf("%w: %s", ErrUnknownRole, subordinate)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, existing := range g.edges[superior] {
		if existing == subordinate {
			return nil
		}
	}

	if g.reachableLocked(subordinate, superior) {
		return fmt.Errorf("%w: %s -> %s", ErrCyclicHierarchy, superior, subordinate)
	}

	g.edges[superior] = append(g.edges[superior], subordinate)
	g.cache = make(map[string]map[string]struct{})
	return nil
}

// reachableLocked reports whether `to` is reachable from `from` by following
// superior -> subordinate edges. A role always reaches itself. Caller holds
// at least a read lock.
func (g *RoleGraph) reachableLocked(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]struct{}{from: {}}
	stack := []string{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.edges[current] {
			if next == to {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}

// Descendants returns every role transitively reachable from the given role.
// The visited set keeps diamond-shaped graphs linear in the number of edges
// and guarantees termination even if acyclicity were somehow violated.
func (g *RoleGraph) Descendants(code string) (map[string]struct{}, error) {
	if !g.registry.Exists(code) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, code)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.descendantsLocked(code), nil
}

func (g *RoleGraph) descendantsLocked(code string) map[string]struct{} {
	result := make(map[string]struct{})
	stack := []string{code}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.edges[current] {
			if _, seen := result[next]; seen || next == code {
				continue
			}
			result[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return result
}

// EffectivePermissions returns the role's own permission set united with the
// permission sets of all its descendants. Results are cached per role code;
// AddEdge and any role re-registration invalidate the whole cache.
func (g *RoleGraph) EffectivePermissions(code string) (map[string]struct{}, error) {
	role, ok := g.registry.Get(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, code)
	}

	g.mu.RLock()
	if cached, hit := g.cache[code]; hit {
		out := copySet(cached)
		g.mu.RUnlock()
		return out, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if cached, hit := g.cache[code]; hit {
		return copySet(cached), nil
	}

	perms := make(map[string]struct{}, len(role.Permissions))
	for _, p := range role.Permissions {
		perms[p] = struct{}{}
	}
	for d := range g.descendantsLocked(code) {
		sub, ok := g.registry.Get(d)
		if !ok {
			// Edge to a role removed since insertion; skip rather than fail
			// the read path.
			continue
		}
		for _, p := range sub.Permissions {
			perms[p] = struct{}{}
		}
	}

	g.cache[code] = perms
	return copySet(perms), nil
}

// Invalidate drops all cached effective-permission sets.
func (g *RoleGraph) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache = make(map[string]map[string]struct{})
}

// Edges returns a snapshot of the adjacency lists, for diagnostics.
func (g *RoleGraph) Edges() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]string, len(g.edges))
	for k, v := range g.edges {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
