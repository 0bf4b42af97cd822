package optimizer

import (
	"math/rand"
)

// MoveType is a kind of neighborhood move on a day order.
type MoveType int

const (
	MoveSwap     MoveType = iota // exchange two days
	MoveRelocate                 // move one day elsewhere
	Move2Opt                     // reverse a stretch of days
	MoveBlock                    // move a stretch of days elsewhere
)

type weightedMove struct {
	move   MoveType
	weight float64
}

// NeighborhoodGenerator draws random moves from a seeded source.
type NeighborhoodGenerator struct {
	rng   *rand.Rand
	moves []weightedMove
}

// NewNeighborhoodGenerator creates a generator seeded with seed.
func NewNeighborhoodGenerator(seed int64) *NeighborhoodGenerator {
	return &NeighborhoodGenerator{
		rng: rand.New(rand.NewSource(seed)),
		moves: []weightedMove{
			{MoveSwap, 0.35},
			{MoveRelocate, 0.30},
			{Move2Opt, 0.15},
			{MoveBlock, 0.20},
		},
	}
}

// GenerateNeighbor returns a copy of current with one random move applied, or nil when
// there are fewer than two days.
func (n *NeighborhoodGenerator) GenerateNeighbor(current *Solution) *Solution {
	if current == nil || len(current.Order) < 2 {
		return nil
	}
	switch n.selectMoveType() {
	case MoveRelocate:
		return n.relocate(current)
	case Move2Opt:
		return n.twoOpt(current)
	case MoveBlock:
		return n.block(current)
	default:
		return n.swap(current)
	}
}

// GenerateBatch returns up to count neighbors.
func (n *NeighborhoodGenerator) GenerateBatch(current *Solution, count int) []*Solution {
	out := make([]*Solution, 0, count)
	for i := 0; i < count; i++ {
		if nb := n.GenerateNeighbor(current); nb != nil {
			out = append(out, nb)
		}
	}
	return out
}

// SetMoveWeights replaces the weights of the given move types.
func (n *NeighborhoodGenerator) SetMoveWeights(weights map[MoveType]float64) {
	for i := range n.moves {
		if w, ok := weights[n.moves[i].move]; ok {
			n.moves[i].weight = w
		}
	}
}

func (n *NeighborhoodGenerator) selectMoveType() MoveType {
	total := 0.0
	for _, m := range n.moves {
		total += m.weight
	}
	r := n.rng.Float64() * total
	cumulative := 0.0
	for _, m := range n.moves {
		cumulative += m.weight
		if r < cumulative {
			return m.move
		}
	}
	return MoveSwap
}

func (n *NeighborhoodGenerator) twoPositions(size int) (int, int) {
	i := n.rng.Intn(size)
	j := n.rng.Intn(size - 1)
	if j >= i {
		j++
	}
	return i, j
}

func (n *NeighborhoodGenerator) swap(current *Solution) *Solution {
	nb := current.Clone()
	i, j := n.twoPositions(len(nb.Order))
	nb.Order[i], nb.Order[j] = nb.Order[j], nb.Order[i]
	return nb
}

func (n *NeighborhoodGenerator) relocate(current *Solution) *Solution {
	nb := current.Clone()
	from, to := n.twoPositions(len(nb.Order))
	nb.Order = moveRange(nb.Order, from, from+1, to)
	return nb
}

func (n *NeighborhoodGenerator) twoOpt(current *Solution) *Solution {
	nb := current.Clone()
	i, j := n.twoPositions(len(nb.Order))
	if i > j {
		i, j = j, i
	}
	for ; i < j; i, j = i+1, j-1 {
		nb.Order[i], nb.Order[j] = nb.Order[j], nb.Order[i]
	}
	return nb
}

func (n *NeighborhoodGenerator) block(current *Solution) *Solution {
	size := len(current.Order)
	if size < 4 {
		return n.relocate(current)
	}
	length := 2 + n.rng.Intn(2)
	from := n.rng.Intn(size - length + 1)
	rest := size - length
	to := n.rng.Intn(rest + 1)
	nb := current.Clone()
	nb.Order = moveRange(nb.Order, from, from+length, to)
	return nb
}

// moveRange moves order[from:end] so that it starts at position to of the result.
func moveRange(order []int, from, end, to int) []int {
	seg := append([]int(nil), order[from:end]...)
	rest := make([]int, 0, len(order)-len(seg))
	rest = append(rest, order[:from]...)
	rest = append(rest, order[end:]...)
	if to > len(rest) {
		to = len(rest)
	}
	out := make([]int, 0, len(order))
	out = append(out, rest[:to]...)
	out = append(out, seg...)
	out = append(out, rest[to:]...)
	return out
}
