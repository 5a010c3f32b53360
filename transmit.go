package driftnet

// transmit.go models the passage of one packet over one link as a pair
// of event handlers.  A transmission first rolls against the link's
// loss rate; a lost packet costs no simulated time at all.  A surviving
// packet crosses the link in two separately scheduled stages, the
// propagation delay set by latency and the serialization delay set by
// bandwidth and packet size, and its arrival is recorded with a latency
// sample and a bandwidth sample stamped at the post-delay clock value.

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iti/evt/evtm"
	"github.com/sirupsen/logrus"
)

// Packet describes one simulated packet.  It carries no payload; once
// delivered or recorded as lost it has no further identity beyond its
// appearance in logs
type Packet struct {
	ID        uuid.UUID
	Src       string
	Dst       string
	SizeBytes int
	CreatedAt float64
	Lost      bool
}

// CreatePacket is a constructor.  The packet is stamped with the
// current virtual time
func (ctx *SimContext) CreatePacket(src, dst string, sizeBytes int) *Packet {
	return &Packet{ID: uuid.New(), Src: src, Dst: dst,
		SizeBytes: sizeBytes, CreatedAt: ctx.Now()}
}

// transmission is the in-flight state threaded through the handler
// chain.  The metric triple is a snapshot taken at launch; drift
// applied to the link while the packet is in flight does not reach it
type transmission struct {
	ctx      *SimContext
	pckt     *Packet
	metrics  LinkMetrics
	txDelay  float64
	launcher *routerDev // nil when launched outside a router cycle
}

// StartTransmit launches one packet onto one link, fire-and-forget.
// The caller gets control back immediately; completion is reported only
// through the sample series.  Validation failures are returned
// synchronously and mean the caller misconfigured the link or packet,
// never that the network dropped anything
func (ctx *SimContext) StartTransmit(src, dst string, metrics LinkMetrics, pckt *Packet, rng UniformSource) error {
	if verr := metrics.validate(); verr != nil {
		return fmt.Errorf("link %s->%s: %w", src, dst, verr)
	}
	if pckt.SizeBytes < 0 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidPacketSize, pckt.SizeBytes)
	}

	var launcher *routerDev
	if rd, present := ctx.routers[src]; present {
		launcher = rd
	}

	// the loss roll happens at launch.  The comparison is strictly
	// less-than, so a zero loss rate never loses a packet
	if rng.RandU01() < metrics.LossRate {
		now := ctx.Now()
		pckt.Lost = true
		ctx.Samples.AddLoss(now, src, dst, metrics.LossRate)
		// the recorded string stays free of the packet ID so that
		// identically seeded runs serialize identically
		ctx.Samples.AddLossEvent(fmt.Sprintf("t=%.6f packet lost on link %s->%s (loss rate %.4f)",
			now, src, dst, metrics.LossRate))
		if launcher != nil {
			launcher.lost += 1
		}
		logrus.Debugf("[t=%.6f] %s->%s packet %s lost", now, src, dst, pckt.ID)
		return nil
	}

	trans := &transmission{ctx: ctx, pckt: pckt, metrics: metrics, launcher: launcher}
	trans.txDelay = float64(pckt.SizeBytes*8) / (metrics.BandwidthMbps * 1e6)

	// first stage: propagation across the link
	if err := ctx.Schedule(trans, nil, endPropagation, metrics.LatencyMs/1000.0); err != nil {
		return err
	}
	return nil
}

// endPropagation implements the event handler for the end of a
// packet's propagation delay.  Its only role is to schedule the second
// stage, the serialization of the packet onto the far interface
func endPropagation(evtMgr *evtm.EventManager, context any, data any) any {
	trans := context.(*transmission)

	if err := trans.ctx.Schedule(trans, nil, endSerialization, trans.txDelay); err != nil {
		// txDelay was computed from validated parameters
		panic(err)
	}
	return nil
}

// endSerialization implements the event handler for the arrival of the
// packet's last bit.  Delivery is recorded as one latency sample and
// one bandwidth sample, both stamped with the clock value after both
// delays have elapsed
func endSerialization(evtMgr *evtm.EventManager, context any, data any) any {
	trans := context.(*transmission)
	ctx := trans.ctx

	now := evtMgr.CurrentSeconds()
	ctx.Samples.AddLatency(now, trans.pckt.Src, trans.pckt.Dst, trans.metrics.LatencyMs)
	ctx.Samples.AddBandwidth(now, trans.pckt.Src, trans.pckt.Dst, trans.metrics.BandwidthMbps)
	if trans.launcher != nil {
		trans.launcher.delivered += 1
	}

	logrus.Debugf("[t=%.6f] %s->%s packet %s delivered", now,
		trans.pckt.Src, trans.pckt.Dst, trans.pckt.ID)
	return nil
}
