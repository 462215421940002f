package orrery

import (
	"container/heap"
	"time"
)

// cell is a planning grid coordinate, in units of the resolution, relative to the
// position the search started from.
type cell [3]int

// moves are the six axis-aligned neighbors of a cell. Diagonal moves are not allowed.
var moves = [6]cell{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

// pathNode is a search node. Nodes only live for one planning episode.
type pathNode struct {
	cell    cell
	R       []float64
	g, h, f float64
	parent  *pathNode
	seq     int // insertion order, breaks ties on f
	index   int // position in the open set heap, -1 once popped
	closed  bool
}

// openSet is a min-heap on f, ties going to the node inserted first.
type openSet []*pathNode

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	if o[i].f == o[j].f {
		return o[i].seq < o[j].seq
	}
	return o[i].f < o[j].f
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x interface{}) {
	n := x.(*pathNode)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openSet) Pop() interface{} {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*o = old[:len(old)-1]
	return n
}

// search is one A* planning episode on a regular grid anchored at start.
type search struct {
	start, goal []float64
	resolution  float64
	deadline    time.Duration
	maxExpand   int
	now         func() time.Time

	nodes  map[cell]*pathNode
	open   openSet
	closed []*pathNode
	seq    int
}

type searchResult struct {
	outcome    PlanOutcome
	waypoints  [][]float64
	cost       float64
	expansions int
}

func newSearch(start, goal []float64, resolution float64, deadline time.Duration, maxExpand int, now func() time.Time) *search {
	return &search{
		start:      vcopy(start),
		goal:       vcopy(goal),
		resolution: resolution,
		deadline:   deadline,
		maxExpand:  maxExpand,
		now:        now,
		nodes:      make(map[cell]*pathNode),
	}
}

// position returns the world position of a grid cell. Positions are always computed
// from the integer cell so that they never drift.
func (s *search) position(c cell) []float64 {
	return []float64{
		s.start[0] + float64(c[0])*s.resolution,
		s.start[1] + float64(c[1])*s.resolution,
		s.start[2] + float64(c[2])*s.resolution,
	}
}

func (s *search) push(n *pathNode) {
	n.seq = s.seq
	s.seq++
	s.nodes[n.cell] = n
	heap.Push(&s.open, n)
}

// run executes the search until the goal is reached, the open set is exhausted, or the
// time budget is spent. In the last two cases, the closed node closest to the goal is
// used instead, if any.
func (s *search) run() searchResult {
	began := s.now()
	h0 := distance(s.start, s.goal)
	s.push(&pathNode{R: vcopy(s.start), h: h0, f: h0})

	for s.open.Len() > 0 {
		if s.now().Sub(began) >= s.deadline {
			break
		}
		if s.maxExpand > 0 && len(s.closed) >= s.maxExpand {
			break
		}
		cur := heap.Pop(&s.open).(*pathNode)
		cur.closed = true
		s.closed = append(s.closed, cur)

		if distance(cur.R, s.goal) < s.resolution {
			return s.result(PlanFound, cur)
		}

		for _, m := range moves {
			c := cell{cur.cell[0] + m[0], cur.cell[1] + m[1], cur.cell[2] + m[2]}
			nb, known := s.nodes[c]
			if known && nb.closed {
				continue
			}
			var R []float64
			if known {
				R = nb.R
			} else {
				R = s.position(c)
			}
			g := cur.g + distance(cur.R, R)
			if known {
				if g < nb.g {
					nb.g = g
					nb.f = g + nb.h
					nb.parent = cur
					heap.Fix(&s.open, nb.index)
				}
				continue
			}
			h := distance(R, s.goal)
			s.push(&pathNode{cell: c, R: R, g: g, h: h, f: g + h, parent: cur})
		}
	}

	if len(s.closed) == 0 {
		return searchResult{outcome: PlanNone}
	}
	best := s.closed[0]
	for _, n := range s.closed[1:] {
		if n.h < best.h {
			best = n
		}
	}
	if best.parent == nil {
		// Only the start was worth anything: there is nowhere to go.
		return searchResult{outcome: PlanNone, expansions: len(s.closed)}
	}
	return s.result(PlanPartial, best)
}

// result rebuilds the path by walking the parents back to the start, which is not
// part of the returned waypoints.
func (s *search) result(outcome PlanOutcome, last *pathNode) searchResult {
	var rev [][]float64
	for n := last; n.parent != nil; n = n.parent {
		rev = append(rev, vcopy(n.R))
	}
	waypoints := make([][]float64, len(rev))
	for i := range rev {
		waypoints[i] = rev[len(rev)-1-i]
	}
	return searchResult{outcome: outcome, waypoints: waypoints, cost: last.g, expansions: len(s.closed)}
}
