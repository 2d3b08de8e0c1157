package searcher

import "hybrid/game"

// Node is one vertex of the search tree. Children are owned by their
// parent through the children map; the parent pointer is a non-owning
// back-reference used only to walk upward during backpropagation.
type Node struct {
	state    game.State
	parent   *Node
	move     game.Move // move from parent to this node, zero at root
	children map[game.Move]*Node
	order    []game.Move // children in insertion order, for tie-breaks
	priors   map[game.Move]float64
	visits   int
	value    float64 // total backpropagated value, side-to-move perspective
	terminal bool
}

// NewRoot creates a fresh tree rooted at state.
func NewRoot(state game.State) *Node {
	return &Node{
		state:    state,
		children: map[game.Move]*Node{},
	}
}

func newChild(parent *Node, move game.Move, state game.State) *Node {
	return &Node{
		state:    state,
		parent:   parent,
		move:     move,
		children: map[game.Move]*Node{},
	}
}

func (n *Node) addChild(move game.Move, state game.State) *Node {
	child := newChild(n, move, state)
	n.children[move] = child
	n.order = append(n.order, move)
	return child
}

// q returns the mean value of the child reached by move, or 0 if that
// child does not exist or is unvisited.
func (n *Node) q(move game.Move) float64 {
	child, ok := n.children[move]
	if !ok || child.visits == 0 {
		return 0
	}
	return child.value / float64(child.visits)
}

// childVisits returns the visit count of the child reached by move, or 0
// if that child does not exist.
func (n *Node) childVisits(move game.Move) int {
	if child, ok := n.children[move]; ok {
		return child.visits
	}
	return 0
}

// Visits returns the number of simulations that passed through this node.
func (n *Node) Visits() int {
	return n.visits
}

// Terminal reports whether this node's position has been discovered to end
// the game. It only becomes true once a simulation actually reaches the
// node and finds the position over.
func (n *Node) Terminal() bool {
	return n.terminal
}

// BestMove returns the child move with the largest visit count. When
// several children share the maximum, the first-inserted one wins, which
// keeps repeated searches over the same tree deterministic. The second
// return is false when the node has no children at all (terminal root, or
// nothing ever passed the filter).
func (n *Node) BestMove() (game.Move, bool) {
	if len(n.order) == 0 {
		return game.Move{}, false
	}

	best := n.order[0]
	bestVisits := n.children[best].visits
	for _, move := range n.order[1:] {
		if v := n.children[move].visits; v > bestVisits {
			best = move
			bestVisits = v
		}
	}
	return best, true
}
