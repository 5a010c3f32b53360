package driftnet

// scheduler.go holds the SimContext structure and its methods for
// driving virtual time.  All simulated concurrency in driftnet is
// cooperative: one event manager advances a virtual clock and resumes
// suspended activities in due-time order, with ties at a shared due
// time resolved by insertion order.  The event manager owns the clock;
// nothing else may advance it.

import (
	"fmt"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// SimContext carries the state shared by one simulation run: the event
// manager (scheduler plus virtual clock), the run-time router table,
// and the sample series gathered for post-run analysis.  It is built by
// BuildSimContext and dropped when the run ends; no state survives a run
type SimContext struct {
	EvtMgr  *evtm.EventManager
	Samples *SampleManager

	cfg         SimConfig
	routers     map[string]*routerDev
	routerNames []string

	// monotone count of scheduled events, carried in the priority
	// field of each event's timestamp so that events sharing a due
	// time resume in the order they were scheduled
	evtSeq int64
}

// Schedule suspends the activity described by (cxt, data, hdlr) for
// delay seconds of virtual time, resuming it through the event manager.
// A negative delay is a programming error and is rejected with
// ErrInvalidDelay rather than clamped
func (ctx *SimContext) Schedule(cxt any, data any, hdlr evtm.EventHandlerFunction, delay float64) error {
	if delay < 0.0 {
		return fmt.Errorf("%w: %f", ErrInvalidDelay, delay)
	}
	ctx.evtSeq += 1
	tm := vrtime.SecondsToTime(delay)
	tm.SetPri(ctx.evtSeq)
	ctx.EvtMgr.Schedule(cxt, data, hdlr, tm)
	return nil
}

// Now returns the current virtual time in seconds
func (ctx *SimContext) Now() float64 {
	return ctx.EvtMgr.CurrentSeconds()
}

// StartRouters schedules the first cycle of every router at virtual
// time zero.  Routers are started in sorted name order so that their
// relative order at time zero is the same on every run
func (ctx *SimContext) StartRouters() {
	for _, name := range ctx.routerNames {
		rd := ctx.routers[name]
		rd.state = routerIdle
		// delay 0.0 cannot trip the negative-delay check
		if err := ctx.Schedule(rd, nil, routerCycle, 0.0); err != nil {
			panic(err)
		}
	}
}

// Run drives the event loop until the configured horizon.  Events due
// after the horizon are abandoned, which discards any transmission
// still in flight when time runs out
func (ctx *SimContext) Run() {
	ctx.EvtMgr.Run(ctx.cfg.Horizon)
}
