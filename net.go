package driftnet

// net.go holds the run-time network structures: the per-router link
// state and the update step that makes that state drift.  Metrics are
// reweighted in place once per router cycle; the neighbor sets they
// hang off are fixed when the simulation is built.  Every router owns
// one rng stream used for both its metric drift and the loss rolls of
// the transmissions it launches, so that a run's draw sequence depends
// only on the master seed and the event order.

import (
	"fmt"

	"github.com/iti/rngstream"
	"golang.org/x/exp/slices"
)

// LinkMetrics holds the metric triple of one directed link.  One
// instance exists per (router, neighbor) pair and is mutated in place
// by the update step; it is never replaced or deleted
type LinkMetrics struct {
	LatencyMs     float64
	BandwidthMbps float64
	LossRate      float64
}

// validate screens for the parameter values that would make delay
// arithmetic meaningless.  These mark configuration mistakes, not
// simulated conditions
func (lm *LinkMetrics) validate() error {
	if lm.BandwidthMbps <= 0.0 {
		return fmt.Errorf("%w: bandwidth %f Mbps", ErrInvalidLinkParameter, lm.BandwidthMbps)
	}
	if lm.LatencyMs < 0.0 {
		return fmt.Errorf("%w: latency %f ms", ErrInvalidLinkParameter, lm.LatencyMs)
	}
	return nil
}

// UniformSource is the one face of a random number generator the
// simulation consumes, a uniform draw on [0,1).  rngstream streams
// satisfy it; tests substitute fixed sources to force outcomes
type UniformSource interface {
	RandU01() float64
}

// bounds on the multiplicative drift applied to each metric by
// updateMetrics, and the ceiling that keeps loss rates from
// degenerating into total loss over a long run
const (
	latencyDriftLow    = 0.8
	latencyDriftHigh   = 1.2
	bandwidthDriftLow  = 0.7
	bandwidthDriftHigh = 1.1
	lossDriftLow       = 0.8
	lossDriftHigh      = 1.3
	lossRateCeiling    = 0.1
)

// routerState tags where a router is within its control cycle
type routerState int

const (
	routerIdle routerState = iota
	routerUpdating
	routerDeciding
	routerTransmitting
	routerSleeping
)

var routerStateToStr map[routerState]string = map[routerState]string{
	routerIdle: "idle", routerUpdating: "updating", routerDeciding: "deciding",
	routerTransmitting: "transmitting", routerSleeping: "sleeping"}

func (rs routerState) String() string {
	return routerStateToStr[rs]
}

// routerDev is the run-time representation of one router: its outbound
// link state, its rng stream, and the counters reported at end of run.
// Only the owning router's cycle ever writes nbrs, so the single
// threaded event loop needs no locking around it
type routerDev struct {
	name     string
	ctx      *SimContext
	nbrs     map[string]*LinkMetrics
	nbrNames []string // sorted once at build, the iteration order everywhere
	rngstrm  *rngstream.RngStream

	state     routerState
	cycles    int
	delivered int
	lost      int

	// set when a configuration error ends this router's loop
	failed bool
}

// createRouterDev is a constructor, transforming one RouterDesc into
// its run-time form.  The rng stream is named after the router so that
// stream creation is reproducible under a fixed master seed
func createRouterDev(ctx *SimContext, rd *RouterDesc) *routerDev {
	dev := new(routerDev)
	dev.name = rd.Name
	dev.ctx = ctx
	dev.nbrs = make(map[string]*LinkMetrics)
	dev.rngstrm = rngstream.New(rd.Name)
	dev.state = routerIdle

	for _, ld := range rd.Links {
		dev.nbrs[ld.Nbr] = &LinkMetrics{LatencyMs: ld.LatencyMs,
			BandwidthMbps: ld.BandwidthMbps, LossRate: ld.LossRate}
		dev.nbrNames = append(dev.nbrNames, ld.Nbr)
	}
	slices.Sort(dev.nbrNames)
	return dev
}

// uniformRange maps a U01 draw onto the interval [low, high]
func uniformRange(rng UniformSource, low, high float64) float64 {
	return low + (high-low)*rng.RandU01()
}

// updateMetrics applies one drift step to a single metric triple:
// latency and bandwidth wander multiplicatively without bound, loss
// rate wanders the same way but is capped at lossRateCeiling.  The
// draw order (latency, bandwidth, loss) is fixed
func updateMetrics(lm *LinkMetrics, rng UniformSource) {
	lm.LatencyMs *= uniformRange(rng, latencyDriftLow, latencyDriftHigh)
	lm.BandwidthMbps *= uniformRange(rng, bandwidthDriftLow, bandwidthDriftHigh)
	lm.LossRate = min(lossRateCeiling, lm.LossRate*uniformRange(rng, lossDriftLow, lossDriftHigh))
}

// UpdateLinkState perturbs every outbound link of the named router,
// used or not.  Links a router never routes toward still drift, which
// models measurement jitter on the whole neighbor table rather than on
// the links in use.  The error is ErrUnknownRouter for a name absent
// from the topology
func (ctx *SimContext) UpdateLinkState(router string) error {
	rd, present := ctx.routers[router]
	if !present {
		return fmt.Errorf("%w: %s", ErrUnknownRouter, router)
	}
	for _, nbr := range rd.nbrNames {
		updateMetrics(rd.nbrs[nbr], rd.rngstrm)
	}
	return nil
}

// LinkState returns a copy of the current metrics on the link from
// router to nbr, for inspection by reporting code
func (ctx *SimContext) LinkState(router, nbr string) (LinkMetrics, error) {
	rd, present := ctx.routers[router]
	if !present {
		return LinkMetrics{}, fmt.Errorf("%w: %s", ErrUnknownRouter, router)
	}
	lm, present := rd.nbrs[nbr]
	if !present {
		return LinkMetrics{}, fmt.Errorf("%w: %s->%s", ErrUnknownNeighbor, router, nbr)
	}
	return *lm, nil
}
