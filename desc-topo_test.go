package driftnet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoCfgRoundTripYAML(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "topo.yaml")

	tc := ExampleTopoCfg()
	require.NoError(t, tc.WriteToFile(filename))

	read, err := ReadTopoCfg(filename, true, []byte{})
	require.NoError(t, err)
	assert.Equal(t, tc, read)
}

func TestTopoCfgRoundTripJSON(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "topo.json")

	tc := ExampleTopoCfg()
	require.NoError(t, tc.WriteToFile(filename))

	read, err := ReadTopoCfg(filename, false, []byte{})
	require.NoError(t, err)
	assert.Equal(t, tc, read)
}

func TestTopoCfgUnrecognizedExtension(t *testing.T) {
	tc := ExampleTopoCfg()
	err := tc.WriteToFile(filepath.Join(t.TempDir(), "topo.txt"))
	assert.Error(t, err)
}

func TestTopoCfgReadFromBytes(t *testing.T) {
	dict := []byte(`
name: inline
routers:
  - name: A
    links:
      - nbr: B
        latencyms: 10
        bandwidthmbps: 10
        lossrate: 0.0
  - name: B
    links: []
`)
	tc, err := ReadTopoCfg("", true, dict)
	require.NoError(t, err)
	assert.Equal(t, "inline", tc.Name)
	require.Len(t, tc.Routers, 2)
	assert.Equal(t, "B", tc.Routers[0].Links[0].Nbr)
	assert.NoError(t, tc.Validate())
}

func TestTopoCfgValidate(t *testing.T) {
	tc := ExampleTopoCfg()
	assert.NoError(t, tc.Validate())

	dup := CreateTopoCfg("dup")
	dup.AddRouter(RouterDesc{Name: "A"})
	dup.AddRouter(RouterDesc{Name: "A"})
	assert.Error(t, dup.Validate())

	dangling := CreateTopoCfg("dangling")
	dangling.AddRouter(RouterDesc{Name: "A", Links: []LinkDesc{
		{Nbr: "ghost", LatencyMs: 1.0, BandwidthMbps: 1.0},
	}})
	assert.ErrorIs(t, dangling.Validate(), ErrUnknownNeighbor)

	badBw := oneLinkTopo(10.0, -5.0, 0.0)
	assert.ErrorIs(t, badBw.Validate(), ErrInvalidLinkParameter)

	badLoss := oneLinkTopo(10.0, 10.0, 1.5)
	assert.ErrorIs(t, badLoss.Validate(), ErrInvalidLinkParameter)
}

func TestTopoCfgConnected(t *testing.T) {
	assert.True(t, ExampleTopoCfg().Connected())
	assert.True(t, oneLinkTopo(10.0, 10.0, 0.0).Connected())

	islands := CreateTopoCfg("islands")
	islands.AddRouter(RouterDesc{Name: "A"})
	islands.AddRouter(RouterDesc{Name: "B"})
	assert.False(t, islands.Connected())
}
