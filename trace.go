package driftnet

// trace.go gathers the observations a run emits for post-run analysis.
// The core writes no files and draws no plots of its own; it appends
// timestamped samples to the series held here and leaves their
// consumption to an external reporting collaborator.  The manager can
// serialize everything it gathered and reduce each series to summary
// statistics for a quick end-of-run report.

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// MetricSample is one timestamped observation: the value of a link
// metric at delivery time, the loss rate in force when a packet was
// dropped, or the cost behind a routing decision.  Samples are append
// only and never mutated
type MetricSample struct {
	Timestamp float64 `json:"time" yaml:"time"`
	Source    string  `json:"src" yaml:"src"`
	Dest      string  `json:"dst" yaml:"dst"`
	Value     float64 `json:"value" yaml:"value"`
}

// SampleManager is used to gather the sample series produced by an
// execution of a driftnet model
type SampleManager struct {
	// experiment gathers samples
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// one series per observed quantity
	Latency   []MetricSample `json:"latency" yaml:"latency"`
	Bandwidth []MetricSample `json:"bandwidth" yaml:"bandwidth"`
	Loss      []MetricSample `json:"loss" yaml:"loss"`
	Cost      []MetricSample `json:"cost" yaml:"cost"`

	// human readable record of every loss, in occurrence order
	LossEvents []string `json:"lossevents" yaml:"lossevents"`
}

// CreateSampleManager is a constructor.  It saves the name of the
// experiment and a flag indicating whether the manager is active.  By
// testing this flag we can inhibit sample gathering when we don't want
// it, while embedding calls to its methods everywhere we need them
func CreateSampleManager(expName string, active bool) *SampleManager {
	smpls := new(SampleManager)
	smpls.InUse = active
	smpls.ExpName = expName
	smpls.Latency = make([]MetricSample, 0)
	smpls.Bandwidth = make([]MetricSample, 0)
	smpls.Loss = make([]MetricSample, 0)
	smpls.Cost = make([]MetricSample, 0)
	smpls.LossEvents = make([]string, 0)
	return smpls
}

// Active tells the caller whether the sample manager is in use
func (smpls *SampleManager) Active() bool {
	return smpls.InUse
}

// AddLatency appends one latency observation
func (smpls *SampleManager) AddLatency(ts float64, src, dst string, value float64) {
	if !smpls.InUse {
		return
	}
	smpls.Latency = append(smpls.Latency, MetricSample{Timestamp: ts, Source: src, Dest: dst, Value: value})
}

// AddBandwidth appends one bandwidth observation
func (smpls *SampleManager) AddBandwidth(ts float64, src, dst string, value float64) {
	if !smpls.InUse {
		return
	}
	smpls.Bandwidth = append(smpls.Bandwidth, MetricSample{Timestamp: ts, Source: src, Dest: dst, Value: value})
}

// AddLoss appends one loss observation, the loss rate in force when
// the packet was dropped
func (smpls *SampleManager) AddLoss(ts float64, src, dst string, value float64) {
	if !smpls.InUse {
		return
	}
	smpls.Loss = append(smpls.Loss, MetricSample{Timestamp: ts, Source: src, Dest: dst, Value: value})
}

// AddCost appends one routing-decision observation
func (smpls *SampleManager) AddCost(ts float64, src, dst string, value float64) {
	if !smpls.InUse {
		return
	}
	smpls.Cost = append(smpls.Cost, MetricSample{Timestamp: ts, Source: src, Dest: dst, Value: value})
}

// AddLossEvent appends one human-readable loss record
func (smpls *SampleManager) AddLossEvent(desc string) {
	if !smpls.InUse {
		return
	}
	smpls.LossEvents = append(smpls.LossEvents, desc)
}

// WriteToFile stores the gathered series to the file whose name is
// given.  Serialization to json or to yaml is selected based on the
// extension of this name
func (smpls *SampleManager) WriteToFile(filename string) error {
	if !smpls.InUse {
		return nil
	}
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*smpls)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*smpls, "", "\t")
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

// SeriesSummary reduces one sample series to the statistics reported
// at end of run
type SeriesSummary struct {
	Count  int
	Mean   float64
	Stddev float64
}

// summarize computes the summary of one series.  A series with fewer
// than two samples has no defined deviation; it is reported as zero
func summarize(series []MetricSample) SeriesSummary {
	if len(series) == 0 {
		return SeriesSummary{}
	}
	values := make([]float64, len(series))
	for idx, s := range series {
		values[idx] = s.Value
	}
	summary := SeriesSummary{Count: len(values), Mean: stat.Mean(values, nil)}
	if len(values) > 1 {
		sd := stat.StdDev(values, nil)
		if !math.IsNaN(sd) {
			summary.Stddev = sd
		}
	}
	return summary
}

// Summary reduces every gathered series to its summary statistics,
// keyed by series name
func (smpls *SampleManager) Summary() map[string]SeriesSummary {
	return map[string]SeriesSummary{
		"latency":   summarize(smpls.Latency),
		"bandwidth": summarize(smpls.Bandwidth),
		"loss":      summarize(smpls.Loss),
		"cost":      summarize(smpls.Cost),
	}
}
