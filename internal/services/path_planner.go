package services

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/geo"
	"drone-delivery-service/internal/platform/obs"
	"drone-delivery-service/internal/ports"
)

// ErrNoPath reports that the search space was exhausted without reaching
// the goal (goal unreachable under current zones and altitude limits).
var ErrNoPath = errors.New("no feasible path")

// Fallback expansion cap bounding search effort when none is configured.
const defaultMaxExpansions = 20000

// PathPlanner performs A* search over a grid discretization of the
// bounding box, using the CostModel for edge costs and straight-line
// travel time as the admissible heuristic.
//
// The planner holds no state across calls: each Plan builds its node set
// from the current inputs, so re-planning under new conditions is just
// another call. Deciding when to re-plan belongs to the scheduler.
type PathPlanner struct {
	Cost  *CostModel
	Zones *geo.Index
	BBox  domain.BoundingBox

	// GridSize is the number of lattice rows/columns across the bounding box.
	GridSize int
	// MaxExpansions bounds node expansions per search (0 = default).
	MaxExpansions int
}

func NewPathPlanner(cost *CostModel, zones *geo.Index, bbox domain.BoundingBox, gridSize int) (*PathPlanner, error) {
	if cost == nil {
		return nil, errors.New("path planner: cost model must be non-nil")
	}
	if gridSize < 2 {
		return nil, fmt.Errorf("path planner: grid size must be at least 2, got %d", gridSize)
	}
	return &PathPlanner{
		Cost:     cost,
		Zones:    zones,
		BBox:     bbox,
		GridSize: gridSize,
	}, nil
}

// searchGraph is the per-call planning graph: node 0 is the start, node 1
// the goal, the rest an N x N lattice over the bounding box. Adjacency is
// built in a fixed order so searches are reproducible.
type searchGraph struct {
	coords []domain.Coordinate
	adj    [][]int
}

const (
	startNode = 0
	goalNode  = 1
)

func (p *PathPlanner) buildGraph(start, goal domain.Coordinate, altitude float64) *searchGraph {
	n := p.GridSize
	g := &searchGraph{
		coords: make([]domain.Coordinate, 2, 2+n*n),
	}
	g.coords[startNode] = start
	g.coords[goalNode] = goal

	latStep := (p.BBox.MaxLat - p.BBox.MinLat) / float64(n-1)
	lngStep := (p.BBox.MaxLng - p.BBox.MinLng) / float64(n-1)

	// Lattice nodes inside a restricted zone are statically forbidden and
	// dropped before any edge is costed.
	id := make([][]int, n)
	for r := 0; r < n; r++ {
		id[r] = make([]int, n)
		for c := 0; c < n; c++ {
			id[r][c] = -1
			pt := domain.Coordinate{
				Lat: p.BBox.MinLat + float64(r)*latStep,
				Lng: p.BBox.MinLng + float64(c)*lngStep,
			}
			if p.Zones != nil && p.Zones.Contains(pt, altitude) {
				continue
			}
			id[r][c] = len(g.coords)
			g.coords = append(g.coords, pt)
		}
	}

	g.adj = make([][]int, len(g.coords))

	// 8-connected lattice.
	dirs := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			u := id[r][c]
			if u < 0 {
				continue
			}
			for _, d := range dirs {
				rr, cc := r+d[0], c+d[1]
				if rr < 0 || rr >= n || cc < 0 || cc >= n {
					continue
				}
				if v := id[rr][cc]; v >= 0 {
					g.adj[u] = append(g.adj[u], v)
				}
			}
		}
	}

	// Start and goal join the lattice within a connection radius of about
	// two cells, with a nearest-node fallback so an off-lattice endpoint
	// is never stranded. The start also links straight to the goal so an
	// unobstructed direct flight is found at exactly the base cost.
	cellMeters := domain.Coordinate{Lat: p.BBox.MinLat, Lng: p.BBox.MinLng}.
		DistanceMeters(domain.Coordinate{Lat: p.BBox.MinLat + latStep, Lng: p.BBox.MinLng + lngStep})
	radius := 2 * cellMeters

	g.adj[startNode] = append(g.adj[startNode], goalNode)
	p.connect(g, startNode, radius, false)
	p.connect(g, goalNode, radius, true)

	return g
}

// connect links node k with every lattice node within radius meters; when
// inbound is true the edges point lattice -> k, otherwise k -> lattice.
func (p *PathPlanner) connect(g *searchGraph, k int, radius float64, inbound bool) {
	nearest := -1
	nearestDist := 0.0

	for v := 2; v < len(g.coords); v++ {
		d := g.coords[k].DistanceMeters(g.coords[v])
		if nearest < 0 || d < nearestDist {
			nearest, nearestDist = v, d
		}
		if d <= radius {
			if inbound {
				g.adj[v] = append(g.adj[v], k)
			} else {
				g.adj[k] = append(g.adj[k], v)
			}
		}
	}

	if nearest >= 0 && nearestDist > radius {
		if inbound {
			g.adj[nearest] = append(g.adj[nearest], k)
		} else {
			g.adj[k] = append(g.adj[k], nearest)
		}
	}
}

// planNode is an open-set entry.
type planNode struct {
	node   int
	g      float64 // accumulated cost from start
	f      float64 // g + h
	h      float64
	seq    int // insertion order, final tie-break
	parent *planNode
	index  int // heap index
}

// planHeap orders by f, then lower h, then insertion order, which keeps
// searches deterministic and reproducible.
type planHeap []*planNode

func (h planHeap) Len() int { return len(h) }
func (h planHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].h != h[j].h {
		return h[i].h < h[j].h
	}
	return h[i].seq < h[j].seq
}
func (h planHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *planHeap) Push(x any) {
	n := x.(*planNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *planHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Plan computes a route from start to goal at the given altitude under
// the given conditions. It returns ErrNoPath when the goal is unreachable.
func (p *PathPlanner) Plan(
	ctx context.Context,
	start, goal domain.Coordinate,
	altitude float64,
	cond ports.Conditions,
) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if p.Zones != nil && p.Zones.Contains(goal, altitude) {
		return nil, fmt.Errorf("plan: goal inside restricted zone: %w", ErrNoPath)
	}
	if p.Zones != nil && p.Zones.Contains(start, altitude) {
		return nil, fmt.Errorf("plan: start inside restricted zone: %w", ErrNoPath)
	}

	graph := p.buildGraph(start, goal, altitude)

	maxExpansions := p.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = defaultMaxExpansions
	}

	open := &planHeap{}
	heap.Init(open)

	seq := 0
	hStart := p.Cost.BaseCost(start, goal)
	heap.Push(open, &planNode{node: startNode, g: 0, f: hStart, h: hStart, seq: seq})

	best := map[int]float64{startNode: 0}
	done := map[int]bool{}

	expansions := 0
	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := heap.Pop(open).(*planNode)
		if done[current.node] {
			continue
		}
		done[current.node] = true

		if current.node == goalNode {
			return reconstruct(graph, current), nil
		}

		expansions++
		if expansions > maxExpansions {
			return nil, fmt.Errorf("plan: expansion cap %d exceeded: %w", maxExpansions, ErrNoPath)
		}

		for _, v := range graph.adj[current.node] {
			if done[v] {
				continue
			}

			edgeCost, err := p.Cost.EdgeCost(ctx, graph.coords[current.node], graph.coords[v], altitude, cond)
			if err != nil {
				if errors.Is(err, ErrEdgeExcluded) {
					continue
				}
				return nil, fmt.Errorf("plan: edge cost: %w", err)
			}

			g := current.g + edgeCost
			if prev, ok := best[v]; ok && g >= prev {
				continue
			}
			best[v] = g

			h := p.Cost.BaseCost(graph.coords[v], goal)
			seq++
			heap.Push(open, &planNode{
				node:   v,
				g:      g,
				f:      g + h,
				h:      h,
				seq:    seq,
				parent: current,
			})
		}
	}

	return nil, fmt.Errorf("plan: open set exhausted after %d expansions: %w", expansions, ErrNoPath)
}

// PlanVia chains start -> via -> goal into a single route with the via
// point as an intermediate waypoint (the combined pickup+dropoff route).
func (p *PathPlanner) PlanVia(
	ctx context.Context,
	start, via, goal domain.Coordinate,
	altitude float64,
	cond ports.Conditions,
) (*domain.Route, error) {
	first, err := p.Plan(ctx, start, via, altitude, cond)
	if err != nil {
		return nil, fmt.Errorf("plan via: first leg: %w", err)
	}

	second, err := p.Plan(ctx, via, goal, altitude, cond)
	if err != nil {
		return nil, fmt.Errorf("plan via: second leg: %w", err)
	}

	waypoints := make([]domain.Coordinate, 0, len(first.Waypoints)+len(second.Waypoints)-1)
	waypoints = append(waypoints, first.Waypoints...)
	// The via point ends the first leg and starts the second; keep one copy.
	waypoints = append(waypoints, second.Waypoints[1:]...)

	return &domain.Route{
		Waypoints: waypoints,
		Cost:      first.Cost + second.Cost,
		PlannedAt: time.Now(),
	}, nil
}

// reconstruct walks parent links from the goal back to the start and
// reverses the result.
func reconstruct(graph *searchGraph, goal *planNode) *domain.Route {
	var rev []int
	for n := goal; n != nil; n = n.parent {
		rev = append(rev, n.node)
	}

	waypoints := make([]domain.Coordinate, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		waypoints = append(waypoints, graph.coords[rev[i]])
	}

	return &domain.Route{
		Waypoints: waypoints,
		Cost:      goal.g,
		PlannedAt: time.Now(),
	}
}
