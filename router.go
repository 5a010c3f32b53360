package driftnet

// router.go holds the per-router control loop.  A router's life is one
// cycle repeated until the horizon cuts it off: refresh the metrics on
// its outbound links, choose the cheapest neighbor, launch one packet
// toward it, and sleep for the fixed inter-packet interval.  Each cycle
// is one event; the launched transmission advances independently and
// the router never waits for it.

import (
	"github.com/iti/evt/evtm"
	"github.com/sirupsen/logrus"
)

// routerCycle implements the event handler for one pass of a router's
// control loop.  Configuration errors from the steps of the cycle end
// this router's loop without disturbing the rest of the simulation;
// an empty neighbor table just skips the transmission for the cycle
func routerCycle(evtMgr *evtm.EventManager, context any, data any) any {
	rd := context.(*routerDev)
	ctx := rd.ctx

	if rd.failed {
		return nil
	}

	rd.state = routerUpdating
	if err := ctx.UpdateLinkState(rd.name); err != nil {
		logrus.Errorf("router %s halting: %v", rd.name, err)
		rd.failed = true
		return nil
	}

	rd.state = routerDeciding
	nbr, cost, ok := ChooseRoute(rd.nbrs)
	if ok {
		now := evtMgr.CurrentSeconds()
		pckt := ctx.CreatePacket(rd.name, nbr, ctx.cfg.PcktSizeBytes)
		ctx.Samples.AddCost(now, rd.name, nbr, cost)

		rd.state = routerTransmitting
		if err := ctx.StartTransmit(rd.name, nbr, *rd.nbrs[nbr], pckt, rd.rngstrm); err != nil {
			logrus.Errorf("router %s halting: %v", rd.name, err)
			rd.failed = true
			return nil
		}
	}

	rd.cycles += 1
	rd.state = routerSleeping
	if err := ctx.Schedule(rd, nil, routerCycle, ctx.cfg.Interval); err != nil {
		// the interval was validated when the context was built
		panic(err)
	}
	return nil
}
