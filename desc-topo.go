package driftnet

// desc-topo.go holds structs and methods used to describe a driftnet
// topology in a file.  The description layer is separate from the
// run-time structures in net.go: these structs exist to be serialized,
// deserialized, and validated, and are transformed by BuildSimContext
// into the structures the simulation actually touches.  Serialization
// to json or to yaml is selected based on the extension of the file name.

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// A LinkDesc struct describes one directed link in the configuration:
// the name of the neighbor it reaches and the initial metric triple
// carried by the link
type LinkDesc struct {
	Nbr           string  `json:"nbr" yaml:"nbr"`
	LatencyMs     float64 `json:"latencyms" yaml:"latencyms"`
	BandwidthMbps float64 `json:"bandwidthmbps" yaml:"bandwidthmbps"`
	LossRate      float64 `json:"lossrate" yaml:"lossrate"`
}

// A RouterDesc struct describes one router and the list of links
// leaving it.  The neighbor set fixed here is immutable for the whole
// run; the simulation reweights links but never adds or removes them
type RouterDesc struct {
	Name  string     `json:"name" yaml:"name"`
	Links []LinkDesc `json:"links" yaml:"links"`
}

// A TopoCfg struct holds the complete description of a topology,
// a name for the configuration and the list of its routers
type TopoCfg struct {
	Name    string       `json:"name" yaml:"name"`
	Routers []RouterDesc `json:"routers" yaml:"routers"`
}

// CreateTopoCfg is an initialization constructor.
// Its output struct has methods for integrating data
func CreateTopoCfg(name string) *TopoCfg {
	tc := new(TopoCfg)
	tc.Name = name
	tc.Routers = make([]RouterDesc, 0)
	return tc
}

// AddRouter includes the offered router description in the topology
func (tc *TopoCfg) AddRouter(rd RouterDesc) {
	tc.Routers = append(tc.Routers, rd)
}

// WriteToFile stores the TopoCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension
// of this name
func (tc *TopoCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*tc)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*tc, "", "\t")
	} else {
		return fmt.Errorf("unrecognized file extension %s", pathExt)
	}

	if merr != nil {
		return merr
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	_, werr := f.WriteString(string(bytes[:]))
	f.Close()
	return werr
}

// ReadTopoCfg deserializes a byte slice holding a representation of a
// TopoCfg struct.  If the input argument of dict (those bytes) is empty,
// the file whose name is given is read to acquire them.  A deserialized
// representation is returned, or an error if one is generated from a
// file read or the deserialization
func ReadTopoCfg(filename string, useYAML bool, dict []byte) (*TopoCfg, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := TopoCfg{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, err
	}
	return &example, nil
}

// Validate checks the configuration for the mistakes the simulation
// cannot tolerate: duplicated router names, links naming routers absent
// from the configuration, and link metrics outside their legal ranges.
// The returned error wraps the member of the error taxonomy involved
func (tc *TopoCfg) Validate() error {
	seen := make(map[string]bool)
	for _, rd := range tc.Routers {
		if seen[rd.Name] {
			return fmt.Errorf("duplicated router name %s", rd.Name)
		}
		seen[rd.Name] = true
	}

	for _, rd := range tc.Routers {
		for _, ld := range rd.Links {
			if !seen[ld.Nbr] {
				return fmt.Errorf("%w: link %s->%s", ErrUnknownNeighbor, rd.Name, ld.Nbr)
			}
			if ld.LatencyMs < 0.0 || ld.BandwidthMbps <= 0.0 {
				return fmt.Errorf("%w: link %s->%s latency %f bandwidth %f",
					ErrInvalidLinkParameter, rd.Name, ld.Nbr, ld.LatencyMs, ld.BandwidthMbps)
			}
			if ld.LossRate < 0.0 || ld.LossRate > 1.0 {
				return fmt.Errorf("%w: link %s->%s loss rate %f",
					ErrInvalidLinkParameter, rd.Name, ld.Nbr, ld.LossRate)
			}
		}
	}
	return nil
}

// Connected reports whether the topology forms one connected component
// when link direction is ignored.  Isolation is not an error, just a
// property a configuration writer usually wants flagged
func (tc *TopoCfg) Connected() bool {
	edges := make(map[string][]string)
	for _, rd := range tc.Routers {
		edges[rd.Name] = []string{}
		for _, ld := range rd.Links {
			edges[rd.Name] = append(edges[rd.Name], ld.Nbr)
		}
	}
	return connectedTopo(edges)
}

// ExampleTopoCfg returns a starter three-router configuration whose
// metric spreads exercise the drift model.  The driftnet topo command
// writes it out as a template for editing
func ExampleTopoCfg() *TopoCfg {
	tc := CreateTopoCfg("three-router")
	tc.AddRouter(RouterDesc{Name: "A", Links: []LinkDesc{
		{Nbr: "B", LatencyMs: 10.0, BandwidthMbps: 100.0, LossRate: 0.01},
		{Nbr: "C", LatencyMs: 20.0, BandwidthMbps: 50.0, LossRate: 0.02},
	}})
	tc.AddRouter(RouterDesc{Name: "B", Links: []LinkDesc{
		{Nbr: "A", LatencyMs: 10.0, BandwidthMbps: 100.0, LossRate: 0.01},
		{Nbr: "C", LatencyMs: 15.0, BandwidthMbps: 80.0, LossRate: 0.015},
	}})
	tc.AddRouter(RouterDesc{Name: "C", Links: []LinkDesc{
		{Nbr: "A", LatencyMs: 20.0, BandwidthMbps: 50.0, LossRate: 0.02},
		{Nbr: "B", LatencyMs: 15.0, BandwidthMbps: 80.0, LossRate: 0.015},
	}})
	return tc
}
