package rank

import (
	"testing"

	"github.com/poiesic/websearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumScores(scores map[core.ID]float64) float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total
}

func TestComputeAuthority_CycleConverges(t *testing.T) {
	g := NewLinkGraph()
	for id := core.ID(1); id <= 3; id++ {
		g.AddNode(id)
	}
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)

	scores := ComputeAuthority(g, 0.85, 100, 1e-9)

	require.Len(t, scores, 3)
	assert.InDelta(t, 1.0, sumScores(scores), 1e-6)
	for id, score := range scores {
		assert.InDelta(t, 1.0/3.0, score, 1e-6, "symmetric cycle, node %d", id)
	}
}

func TestComputeAuthority_DanglingMassConserved(t *testing.T) {
	g := NewLinkGraph()
	g.AddNode(1)
	g.AddNode(2)
	g.AddNode(3)
	// 3 links nowhere: its mass must be redistributed, not lost.
	g.AddEdge(1, 3)
	g.AddEdge(2, 3)

	scores := ComputeAuthority(g, 0.85, 100, 1e-9)
	assert.InDelta(t, 1.0, sumScores(scores), 1e-6)
	assert.Greater(t, scores[3], scores[1], "linked-to node outranks its sources")
}

func TestComputeAuthority_StarCenterWins(t *testing.T) {
	g := NewLinkGraph()
	for id := core.ID(1); id <= 5; id++ {
		g.AddNode(id)
	}
	for id := core.ID(2); id <= 5; id++ {
		g.AddEdge(id, 1)
	}

	scores := ComputeAuthority(g, 0.85, 100, 1e-9)
	for id := core.ID(2); id <= 5; id++ {
		assert.Greater(t, scores[1], scores[id])
	}
}

func TestComputeAuthority_IndependentOfInitialValues(t *testing.T) {
	// Convergence from the uniform start must match a long run to many
	// iterations; a short run from the same start is the control.
	g := NewLinkGraph()
	for id := core.ID(1); id <= 4; id++ {
		g.AddNode(id)
	}
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	g.AddEdge(3, 1)
	g.AddEdge(4, 2)

	a := ComputeAuthority(g, 0.85, 200, 1e-12)
	b := ComputeAuthority(g, 0.85, 500, 1e-12)
	for id := range a {
		assert.InDelta(t, a[id], b[id], 1e-9)
	}
}

func TestComputeAuthority_EmptyGraph(t *testing.T) {
	scores := ComputeAuthority(NewLinkGraph(), 0.85, 50, 1e-6)
	assert.Empty(t, scores)
}

func TestLinkGraph_DropsEdgesToUnknownNodes(t *testing.T) {
	g := NewLinkGraph()
	g.AddNode(1)
	g.AddEdge(1, 99)
	g.AddEdge(99, 1)
	g.AddEdge(1, 1)

	scores := ComputeAuthority(g, 0.85, 50, 1e-9)
	assert.InDelta(t, 1.0, sumScores(scores), 1e-6)
}
