package driftnet

// driftnet.go has code that assembles the simulation data structures
// from a topology configuration and drives a run.  A driftnet model is a
// fixed set of routers joined by directed links whose latency, bandwidth,
// and loss rate drift randomly as the simulation advances.  Each router
// periodically refreshes the metrics on its outbound links, picks the
// cheapest neighbor, and pushes one packet onto that link.

import (
	"errors"
	"fmt"

	"github.com/iti/evt/evtm"
	"github.com/iti/rngstream"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// errors raised by configuration and scheduling problems.  These mark
// programming or input mistakes, never simulated packet loss, which is
// ordinary sampled data
var (
	ErrInvalidDelay         = errors.New("negative scheduling delay")
	ErrInvalidLinkParameter = errors.New("invalid link parameter")
	ErrInvalidPacketSize    = errors.New("negative packet size")
	ErrUnknownRouter        = errors.New("unknown router")
	ErrUnknownNeighbor      = errors.New("unknown neighbor")
)

// default values used by BuildSimContext when the corresponding
// SimConfig field is left zero
const (
	DefaultInterval      = 2.0
	DefaultPcktSizeBytes = 1024
)

// SimConfig collects the experiment-level parameters of a run.
// Horizon bounds virtual time (in seconds), Interval is the fixed
// inter-packet sleep of every router, PcktSizeBytes the size of each
// generated packet, and Seed initializes the random number streams
type SimConfig struct {
	ExpName       string
	Horizon       float64
	Interval      float64
	PcktSizeBytes int
	Seed          uint64
}

// BuildSimContext is called from the module that creates and runs a
// simulation.  It validates the topology configuration, seeds the rng
// stream generator, builds the run-time router structures, and returns
// a SimContext ready for StartRouters and Run
func BuildSimContext(cfg SimConfig, tc *TopoCfg) (*SimContext, error) {
	if cfg.Horizon <= 0.0 {
		return nil, fmt.Errorf("non-positive simulation horizon %f", cfg.Horizon)
	}
	if cfg.Interval == 0.0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < 0.0 {
		return nil, fmt.Errorf("%w: negative router interval %f", ErrInvalidDelay, cfg.Interval)
	}
	if cfg.PcktSizeBytes == 0 {
		cfg.PcktSizeBytes = DefaultPcktSizeBytes
	}
	if cfg.PcktSizeBytes < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPacketSize, cfg.PcktSizeBytes)
	}

	verr := tc.Validate()
	if verr != nil {
		return nil, verr
	}

	// a disconnected topology is legal (an isolated router just idles)
	// but is usually a configuration slip, so say so
	if !tc.Connected() {
		logrus.Warnf("topology %s is not a connected graph", tc.Name)
	}

	// reset the rng stream generator so that runs with equal seeds
	// draw identical streams
	rngstream.SetRngStreamMasterSeed(cfg.Seed)

	ctx := new(SimContext)
	ctx.cfg = cfg
	ctx.EvtMgr = evtm.New()
	ctx.Samples = CreateSampleManager(cfg.ExpName, true)
	ctx.routers = make(map[string]*routerDev)

	// gather and order the router names first.  Streams are created in
	// name order so that stream assignment does not depend on the
	// (unordered) layout of the configuration
	for _, rd := range tc.Routers {
		ctx.routerNames = append(ctx.routerNames, rd.Name)
	}
	slices.Sort(ctx.routerNames)

	byName := make(map[string]*RouterDesc)
	for idx := range tc.Routers {
		byName[tc.Routers[idx].Name] = &tc.Routers[idx]
	}

	for _, name := range ctx.routerNames {
		ctx.routers[name] = createRouterDev(ctx, byName[name])
	}
	return ctx, nil
}

// Router reports the run-time state of the named router: its current
// cycle count and the number of packets it has seen delivered and lost.
// The error is ErrUnknownRouter when no such router was configured
func (ctx *SimContext) Router(name string) (RouterState, error) {
	rd, present := ctx.routers[name]
	if !present {
		return RouterState{}, fmt.Errorf("%w: %s", ErrUnknownRouter, name)
	}
	return RouterState{Name: rd.name, State: rd.state.String(), Cycles: rd.cycles,
		Delivered: rd.delivered, Lost: rd.lost, Failed: rd.failed}, nil
}

// RouterState is a read-only snapshot of one router's counters and
// cycle position, exposed for end-of-run reporting
type RouterState struct {
	Name      string
	State     string
	Cycles    int
	Delivered int
	Lost      int
	Failed    bool
}

// RouterNames returns the configured router identifiers in sorted order
func (ctx *SimContext) RouterNames() []string {
	names := make([]string, len(ctx.routerNames))
	copy(names, ctx.routerNames)
	return names
}
