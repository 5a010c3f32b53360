package driftnet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleManagerInactive(t *testing.T) {
	smpls := CreateSampleManager("off", false)
	smpls.AddLatency(1.0, "A", "B", 10.0)
	smpls.AddBandwidth(1.0, "A", "B", 10.0)
	smpls.AddLoss(1.0, "A", "B", 0.1)
	smpls.AddCost(1.0, "A", "B", 1.0)
	smpls.AddLossEvent("dropped")

	assert.False(t, smpls.Active())
	assert.Empty(t, smpls.Latency)
	assert.Empty(t, smpls.Bandwidth)
	assert.Empty(t, smpls.Loss)
	assert.Empty(t, smpls.Cost)
	assert.Empty(t, smpls.LossEvents)
}

func TestSampleManagerAppendOrder(t *testing.T) {
	smpls := CreateSampleManager("order", true)
	smpls.AddCost(0.0, "A", "B", 3.0)
	smpls.AddCost(2.0, "A", "C", 1.0)
	smpls.AddCost(4.0, "A", "B", 2.0)

	require.Len(t, smpls.Cost, 3)
	assert.Equal(t, 0.0, smpls.Cost[0].Timestamp)
	assert.Equal(t, 2.0, smpls.Cost[1].Timestamp)
	assert.Equal(t, 4.0, smpls.Cost[2].Timestamp)
}

func TestSampleManagerSummary(t *testing.T) {
	smpls := CreateSampleManager("summary", true)
	for _, v := range []float64{2.0, 4.0, 6.0} {
		smpls.AddLatency(0.0, "A", "B", v)
	}

	summary := smpls.Summary()
	assert.Equal(t, 3, summary["latency"].Count)
	assert.InDelta(t, 4.0, summary["latency"].Mean, 1e-12)
	assert.InDelta(t, 2.0, summary["latency"].Stddev, 1e-12)

	// empty and single-sample series have defined summaries too
	assert.Equal(t, SeriesSummary{}, summary["cost"])
	smpls.AddCost(0.0, "A", "B", 7.0)
	summary = smpls.Summary()
	assert.Equal(t, 1, summary["cost"].Count)
	assert.InDelta(t, 7.0, summary["cost"].Mean, 1e-12)
	assert.Equal(t, 0.0, summary["cost"].Stddev)
}

func TestSampleManagerWriteToFile(t *testing.T) {
	smpls := CreateSampleManager("written", true)
	smpls.AddLatency(0.5, "A", "B", 12.5)
	smpls.AddLossEvent("t=0.500000 packet lost on link A->B")

	filename := filepath.Join(t.TempDir(), "samples.yaml")
	require.NoError(t, smpls.WriteToFile(filename))

	bytes, err := os.ReadFile(filename)
	require.NoError(t, err)
	content := string(bytes)
	assert.True(t, strings.Contains(content, "expname: written"))
	assert.True(t, strings.Contains(content, "12.5"))

	assert.Error(t, smpls.WriteToFile(filepath.Join(t.TempDir(), "samples.csv")))
}
