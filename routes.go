package driftnet

// routes.go provides the routing decision a router makes each cycle and
// the graph analysis applied to a topology before a run starts.  The
// decision is purely local: a router ranks its direct neighbors by a
// scalar cost and forwards to the cheapest one.  No multi-hop paths are
// computed.

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"golang.org/x/exp/slices"
)

// RouteCost collapses a metric triple into the scalar used to rank
// next hops: propagation cost grows with latency and shrinks with
// bandwidth, and any loss rate carries a heavy fixed penalty
func RouteCost(lm *LinkMetrics) float64 {
	return lm.LatencyMs*(1.0/lm.BandwidthMbps) + lm.LossRate*100.0
}

// ChooseRoute returns the neighbor with the least cost in the offered
// table, along with that cost.  Neighbors are examined in sorted name
// order so that cost ties resolve the same way on every run.  The
// returned flag is false when the table is empty, which is a no-op for
// the caller rather than an error
func ChooseRoute(nbrs map[string]*LinkMetrics) (string, float64, bool) {
	if len(nbrs) == 0 {
		return "", 0.0, false
	}

	names := make([]string, 0, len(nbrs))
	for name := range nbrs {
		names = append(names, name)
	}
	slices.Sort(names)

	best := names[0]
	bestCost := RouteCost(nbrs[best])
	for _, name := range names[1:] {
		cost := RouteCost(nbrs[name])
		if cost < bestCost {
			best = name
			bestCost = cost
		}
	}
	return best, bestCost, true
}

// connectedTopo reports whether the edge map describes one connected
// component when direction is ignored.  The general approach is to
// convert the driftnet representation of the network into the data
// structures used by the gonum graph package, which has the analysis
// built in
func connectedTopo(edges map[string][]string) bool {
	if len(edges) == 0 {
		return true
	}

	// stable name -> node id assignment
	names := make([]string, 0, len(edges))
	for name := range edges {
		names = append(names, name)
	}
	slices.Sort(names)

	gNodes := make(map[string]simple.Node)
	connGraph := simple.NewUndirectedGraph()
	for idx, name := range names {
		gNodes[name] = simple.Node(idx)
		connGraph.AddNode(gNodes[name])
	}

	// transform the edge map into edges in the graph module representation
	for name, nbrList := range edges {
		for _, nbr := range nbrList {
			if name == nbr {
				continue
			}
			connGraph.SetEdge(simple.Edge{F: gNodes[name], T: gNodes[nbr]})
		}
	}

	return len(topo.ConnectedComponents(connGraph)) == 1
}
