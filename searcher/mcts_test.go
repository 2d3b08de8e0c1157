package searcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"hybrid/game"
)

func TestRunSimulationsVisitConservation(t *testing.T) {
	t.Run("every simulation passes through the root exactly once", func(t *testing.T) {
		root := &mockState{fen: "root"}
		for i := 0; i < 3; i++ {
			link(root, mv(i), &mockState{fen: "draw", over: true})
		}

		tree := NewRoot(root)
		m := NewMCTS(acceptAll)
		err := m.RunSimulations(tree, 10)

		require.NoError(t, err)
		require.Equal(t, 10, tree.Visits(), "root should count every simulation")

		childSum := 0
		for _, child := range tree.children {
			childSum += child.visits
		}
		require.Equal(t, 10, childSum,
			"children visits should sum to root visits when no simulation stops at the root")
	})

	t.Run("simulations stopping at the root are counted there", func(t *testing.T) {
		root := &mockState{fen: "root"}
		link(root, mv(0), &mockState{fen: "draw", over: true})

		tree := NewRoot(root)
		m := NewMCTS(rejectAll)
		err := m.RunSimulations(tree, 5)

		require.NoError(t, err)
		require.Equal(t, 5, tree.Visits(), "dead-end simulations still visit the root")
		require.Empty(t, tree.children, "nothing passed the filter, so nothing expanded")
		require.False(t, tree.Terminal(), "a dead end is not a terminal position")

		_, ok := tree.BestMove()
		require.False(t, ok, "no children means no best move")
	})
}

func TestBackpropagationAlternatesPerspective(t *testing.T) {
	// Linear game: root -> s1 -> s2, where s2 is a win for its side to move.
	s2 := &mockState{fen: "s2", over: true, result: 1}
	s1 := &mockState{fen: "s1"}
	link(s1, mv(1), s2)
	root := &mockState{fen: "root"}
	link(root, mv(0), s1)

	tree := NewRoot(root)
	m := NewMCTS(acceptAll)

	// Simulation 1 expands s1 (non-terminal leaf, value 0). Simulation 2
	// descends through s1 and expands s2 (value +1). Simulation 3 reaches
	// s2 again and discovers it terminal.
	err := m.RunSimulations(tree, 3)
	require.NoError(t, err)

	n1 := tree.children[mv(0)]
	require.NotNil(t, n1)
	n2 := n1.children[mv(1)]
	require.NotNil(t, n2)

	require.Equal(t, 2, n2.visits)
	require.Equal(t, 2.0, n2.value, "leaf gets the raw value")
	require.Equal(t, 3, n1.visits)
	require.Equal(t, -2.0, n1.value, "one ply up the value is negated")
	require.Equal(t, 3, tree.visits)
	require.Equal(t, 2.0, tree.value, "two plies up the value is negated twice")
	require.True(t, n2.Terminal(),
		"the terminal flag is set when a later simulation stops at the node again")
}

func TestOneExpansionPerSimulation(t *testing.T) {
	// Chain of four non-terminal states with one move each.
	s3 := &mockState{fen: "s3"}
	link(s3, mv(3), &mockState{fen: "s4"})
	s2 := &mockState{fen: "s2"}
	link(s2, mv(2), s3)
	s1 := &mockState{fen: "s1"}
	link(s1, mv(1), s2)
	root := &mockState{fen: "root"}
	link(root, mv(0), s1)

	tree := NewRoot(root)
	m := NewMCTS(acceptAll)

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.RunSimulations(tree, 1))
		require.Equal(t, i, countNodes(tree)-1,
			"each simulation should create exactly one new node")
	}
}

func countNodes(n *Node) int {
	total := 1
	for _, child := range n.children {
		total += countNodes(child)
	}
	return total
}

func TestSelectionPicksHighestRankedAcceptedMove(t *testing.T) {
	// The filter accepts both moves but hands them back in its own order;
	// selection must follow the UCB ranking, not the filter's order.
	root := &mockState{fen: "root"}
	link(root, mv(0), &mockState{fen: "a"})
	link(root, mv(1), &mockState{fen: "b"})

	reversing := filterFunc(func(_ game.State, candidates []game.Move, _ map[game.Move]float64) ([]game.Move, error) {
		reversed := make([]game.Move, 0, len(candidates))
		for i := len(candidates) - 1; i >= 0; i-- {
			reversed = append(reversed, candidates[i])
		}
		return reversed, nil
	})

	tree := NewRoot(root)
	m := NewMCTS(reversing)
	require.NoError(t, m.RunSimulations(tree, 1))

	require.Contains(t, tree.children, mv(0),
		"the first move in UCB order is ranked highest on an unvisited node and should expand first")
	require.NotContains(t, tree.children, mv(1))
}

func TestTerminalRoot(t *testing.T) {
	root := &mockState{fen: "mate", over: true, result: -1}

	tree := NewRoot(root)
	m := NewMCTS(acceptAll)
	require.NoError(t, m.RunSimulations(tree, 4))

	require.True(t, tree.Terminal(), "terminal root should be marked")
	require.Equal(t, 4, tree.Visits())
	require.Equal(t, -4.0, tree.value, "each simulation backs up the terminal value")

	_, ok := tree.BestMove()
	require.False(t, ok, "terminal root has no move")
}

func TestFilterErrorAbortsRun(t *testing.T) {
	sentinel := errors.New("engine died")
	failing := filterFunc(func(game.State, []game.Move, map[game.Move]float64) ([]game.Move, error) {
		return nil, sentinel
	})

	root := &mockState{fen: "root"}
	link(root, mv(0), &mockState{fen: "a"})

	tree := NewRoot(root)
	m := NewMCTS(failing)
	err := m.RunSimulations(tree, 3)

	require.ErrorIs(t, err, sentinel, "a filter failure must surface to the caller")
	require.Zero(t, tree.Visits(), "the failed simulation must not update the tree")
}

func TestBestMoveTieBreak(t *testing.T) {
	t.Run("first-inserted child wins among visit-count maxima", func(t *testing.T) {
		state := &mockState{fen: "root"}
		tree := NewRoot(state)
		tree.addChild(mv(0), &mockState{fen: "a"}).visits = 10
		tree.addChild(mv(1), &mockState{fen: "b"}).visits = 7
		tree.addChild(mv(2), &mockState{fen: "c"}).visits = 10

		for i := 0; i < 50; i++ {
			move, ok := tree.BestMove()
			require.True(t, ok)
			require.Equal(t, mv(0), move, "tie must break to the first-inserted child on every call")
		}
	})

	t.Run("insertion order decides, not move encoding", func(t *testing.T) {
		state := &mockState{fen: "root"}
		tree := NewRoot(state)
		tree.addChild(mv(2), &mockState{fen: "c"}).visits = 10
		tree.addChild(mv(0), &mockState{fen: "a"}).visits = 10

		move, ok := tree.BestMove()
		require.True(t, ok)
		require.Equal(t, mv(2), move)
	})
}

func TestUniformPriors(t *testing.T) {
	moves := []game.Move{mv(0), mv(1), mv(2), mv(3)}
	priors := Uniform{}.Priors(&mockState{}, moves)

	require.Len(t, priors, 4)
	for _, move := range moves {
		require.InDelta(t, 0.25, priors[move], 1e-9)
	}
	require.Empty(t, Uniform{}.Priors(&mockState{}, nil))
}

func TestRankPrefersPriorsThenValue(t *testing.T) {
	// A node with a visited strong child should rank that move first even
	// though its exploration bonus has decayed.
	root := &mockState{fen: "root"}
	a := &mockState{fen: "a"}
	b := &mockState{fen: "b"}
	link(root, mv(0), a)
	link(root, mv(1), b)

	tree := NewRoot(root)
	tree.priors = map[game.Move]float64{mv(0): 0.5, mv(1): 0.5}
	tree.visits = 4
	childA := tree.addChild(mv(0), a)
	childA.visits = 2
	childA.value = 2 // mean +1
	childB := tree.addChild(mv(1), b)
	childB.visits = 2
	childB.value = -2 // mean -1

	m := NewMCTS(acceptAll)
	ranked := m.rank(tree, tree.state.LegalMoves())

	require.Equal(t, []game.Move{mv(0), mv(1)}, ranked,
		"the move with the higher mean value should rank first at equal priors and visits")
}
