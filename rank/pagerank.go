package rank

import (
	"math"

	"github.com/poiesic/websearch/core"
)

// LinkGraph is the adjacency structure over indexed documents, keyed by
// document ID. It is built in batch from stored documents and never mutated
// incrementally; authority recomputation replaces the whole score map.
type LinkGraph struct {
	nodes map[core.ID]struct{}
	out   map[core.ID][]core.ID
}

// NewLinkGraph creates an empty link graph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{
		nodes: make(map[core.ID]struct{}),
		out:   make(map[core.ID][]core.ID),
	}
}

// AddNode registers a document. All nodes must be added before edges.
func (g *LinkGraph) AddNode(id core.ID) {
	g.nodes[id] = struct{}{}
}

// AddEdge records a link between two known documents. Edges touching an
// unregistered node are dropped, keeping the graph closed so authority mass
// is conserved.
func (g *LinkGraph) AddEdge(from, to core.ID) {
	if _, ok := g.nodes[from]; !ok {
		return
	}
	if _, ok := g.nodes[to]; !ok {
		return
	}
	if from == to {
		return
	}
	g.out[from] = append(g.out[from], to)
}

// Len returns the number of nodes.
func (g *LinkGraph) Len() int {
	return len(g.nodes)
}

// ComputeAuthority runs the damped fixed-point iteration over the graph:
//
//	score(d) = (1-damping)/N + damping * Σ score(s)/outdegree(s)
//
// for every source s linking to d. Dangling nodes spread their mass evenly,
// so scores always sum to 1. Iteration stops after maxIterations or when the
// total movement between iterations drops below epsilon. The result is
// independent of initial values.
func ComputeAuthority(g *LinkGraph, damping float64, maxIterations int, epsilon float64) map[core.ID]float64 {
	n := len(g.nodes)
	if n == 0 {
		return map[core.ID]float64{}
	}

	current := make(map[core.ID]float64, n)
	for id := range g.nodes {
		current[id] = 1.0 / float64(n)
	}

	base := (1.0 - damping) / float64(n)

	for iter := 0; iter < maxIterations; iter++ {
		// Double buffer: read iteration i, write iteration i+1.
		next := make(map[core.ID]float64, n)
		for id := range g.nodes {
			next[id] = base
		}

		danglingMass := 0.0
		for id, score := range current {
			targets := g.out[id]
			if len(targets) == 0 {
				danglingMass += score
				continue
			}
			share := score / float64(len(targets))
			for _, target := range targets {
				next[target] += damping * share
			}
		}

		if danglingMass > 0 {
			spread := damping * danglingMass / float64(n)
			for id := range next {
				next[id] += spread
			}
		}

		delta := 0.0
		for id, score := range next {
			delta += math.Abs(score - current[id])
		}
		current = next

		if delta < epsilon {
			break
		}
	}

	return current
}
