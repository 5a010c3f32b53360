package driftnet

// sim_test.go holds whole-run tests plus the shared test doubles used
// by the other test files in the package.

import (
	"testing"

	"github.com/iti/evt/evtm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// fixedSource returns the same draw forever, to force loss rolls and
// drift steps in a known direction
type fixedSource struct {
	v float64
}

func (f fixedSource) RandU01() float64 { return f.v }

// oneLinkTopo describes a single directed link A->B with the given
// metric triple, plus a leaf router B with no outbound links
func oneLinkTopo(latencyMs, bandwidthMbps, lossRate float64) *TopoCfg {
	tc := CreateTopoCfg("one-link")
	tc.AddRouter(RouterDesc{Name: "A", Links: []LinkDesc{
		{Nbr: "B", LatencyMs: latencyMs, BandwidthMbps: bandwidthMbps, LossRate: lossRate},
	}})
	tc.AddRouter(RouterDesc{Name: "B", Links: []LinkDesc{}})
	return tc
}

func buildTestContext(t *testing.T, cfg SimConfig, tc *TopoCfg) *SimContext {
	t.Helper()
	ctx, err := BuildSimContext(cfg, tc)
	require.NoError(t, err)
	return ctx
}

func TestBuildSimContextRejectsBadConfig(t *testing.T) {
	tc := oneLinkTopo(10.0, 10.0, 0.0)

	_, err := BuildSimContext(SimConfig{Horizon: 0.0}, tc)
	assert.Error(t, err)

	_, err = BuildSimContext(SimConfig{Horizon: 10.0, Interval: -1.0}, tc)
	assert.ErrorIs(t, err, ErrInvalidDelay)

	_, err = BuildSimContext(SimConfig{Horizon: 10.0, PcktSizeBytes: -1}, tc)
	assert.ErrorIs(t, err, ErrInvalidPacketSize)
}

// recordOrder implements an event handler that appends its data tag to
// the shared slice its context points at
func recordOrder(evtMgr *evtm.EventManager, context any, data any) any {
	seen := context.(*[]int)
	*seen = append(*seen, data.(int))
	return nil
}

func TestScheduleFIFOAtEqualDueTime(t *testing.T) {
	ctx := buildTestContext(t, SimConfig{Horizon: 10.0, Seed: 1}, oneLinkTopo(10.0, 10.0, 0.0))

	// five events due at the same instant must resume in the order
	// they were scheduled
	seen := make([]int, 0, 5)
	for tag := 0; tag < 5; tag += 1 {
		require.NoError(t, ctx.Schedule(&seen, tag, recordOrder, 1.0))
	}
	ctx.Run()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestScheduleRejectsNegativeDelay(t *testing.T) {
	ctx := buildTestContext(t, SimConfig{Horizon: 10.0, Seed: 1}, oneLinkTopo(10.0, 10.0, 0.0))

	err := ctx.Schedule(nil, nil, routerCycle, -0.5)
	assert.ErrorIs(t, err, ErrInvalidDelay)
}

func TestRouterCyclesAndEmptyNeighborSet(t *testing.T) {
	// loss rate zero, so every launched packet is delivered
	cfg := SimConfig{Horizon: 3.9, Interval: 2.0, PcktSizeBytes: 1024, Seed: 7}
	ctx := buildTestContext(t, cfg, oneLinkTopo(10.0, 10.0, 0.0))

	ctx.StartRouters()
	ctx.Run()

	// A cycles at t=0 and t=2, launching one packet each time
	ra, err := ctx.Router("A")
	require.NoError(t, err)
	assert.Equal(t, 2, ra.Cycles)
	assert.Equal(t, 2, ra.Delivered)
	assert.Equal(t, 0, ra.Lost)
	assert.Equal(t, "sleeping", ra.State)

	// B has no outbound links: it still cycles on the same interval
	// but produces no packets and no cost samples
	rb, err := ctx.Router("B")
	require.NoError(t, err)
	assert.Equal(t, 2, rb.Cycles)
	assert.Equal(t, 0, rb.Delivered)

	assert.Len(t, ctx.Samples.Cost, 2)
	assert.Len(t, ctx.Samples.Latency, 2)
	assert.Len(t, ctx.Samples.Bandwidth, 2)
	assert.Empty(t, ctx.Samples.Loss)
	assert.Empty(t, ctx.Samples.LossEvents)

	for _, s := range ctx.Samples.Cost {
		assert.Equal(t, "A", s.Source)
		assert.Equal(t, "B", s.Dest)
	}
}

func TestRouterUnknownName(t *testing.T) {
	ctx := buildTestContext(t, SimConfig{Horizon: 10.0, Seed: 1}, oneLinkTopo(10.0, 10.0, 0.0))

	_, err := ctx.Router("Z")
	assert.ErrorIs(t, err, ErrUnknownRouter)

	err = ctx.UpdateLinkState("Z")
	assert.ErrorIs(t, err, ErrUnknownRouter)
}

// runOnce drives a fresh simulation of the example topology and
// returns the serialized sample series
func runOnce(t *testing.T, seed uint64) []byte {
	t.Helper()
	cfg := SimConfig{ExpName: "determinism", Horizon: 30.0, Interval: 2.0,
		PcktSizeBytes: 1024, Seed: seed}
	ctx := buildTestContext(t, cfg, ExampleTopoCfg())
	ctx.StartRouters()
	ctx.Run()

	bytes, err := yaml.Marshal(*ctx.Samples)
	require.NoError(t, err)
	return bytes
}

func TestDeterminismUnderFixedSeed(t *testing.T) {
	first := runOnce(t, 31313)
	second := runOnce(t, 31313)
	assert.Equal(t, first, second, "identically seeded runs must emit identical sample sequences")

	other := runOnce(t, 271828)
	assert.NotEqual(t, first, other, "different seeds should perturb the run")
}
