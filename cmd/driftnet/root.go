package main

import (
	"fmt"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iti/driftnet"
)

var (
	// CLI flags for the run command
	topoFile    string  // topology configuration file (.yaml or .json)
	horizon     float64 // simulation horizon in virtual seconds
	seed        uint64  // master seed for the rng streams
	interval    float64 // per-router inter-packet interval in virtual seconds
	pcktSize    int     // size of each generated packet in bytes
	logLevel    string  // log verbosity level
	samplesFile string  // where to store the gathered samples, empty to skip
	expName     string  // experiment name recorded with the samples

	// CLI flags for the topo command
	topoOut string // where to write the starter topology
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "driftnet",
	Short: "Discrete-event simulator of a packet network with drifting link metrics",
}

// runCmd executes one simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a driftnet simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if topoFile == "" {
			logrus.Fatalf("no topology file given, use --topo")
		}

		ext := path.Ext(topoFile)
		useYAML := ext == ".yaml" || ext == ".YAML" || ext == ".yml"
		tc, err := driftnet.ReadTopoCfg(topoFile, useYAML, []byte{})
		if err != nil {
			logrus.Fatalf("unable to read topology %s: %v", topoFile, err)
		}

		cfg := driftnet.SimConfig{ExpName: expName, Horizon: horizon,
			Interval: interval, PcktSizeBytes: pcktSize, Seed: seed}

		ctx, err := driftnet.BuildSimContext(cfg, tc)
		if err != nil {
			logrus.Fatalf("unable to build simulation: %v", err)
		}

		logrus.Infof("starting simulation %s: %d routers, horizon %.2fs, seed %d",
			expName, len(ctx.RouterNames()), horizon, seed)

		ctx.StartRouters()
		ctx.Run()

		printReport(ctx)

		if samplesFile != "" {
			if err := ctx.Samples.WriteToFile(samplesFile); err != nil {
				logrus.Fatalf("unable to write samples to %s: %v", samplesFile, err)
			}
			logrus.Infof("samples written to %s", samplesFile)
		}
	},
}

// topoCmd writes a starter topology configuration for editing
var topoCmd = &cobra.Command{
	Use:   "topo",
	Short: "Write an example three-router topology file",
	Run: func(cmd *cobra.Command, args []string) {
		tc := driftnet.ExampleTopoCfg()
		if err := tc.WriteToFile(topoOut); err != nil {
			logrus.Fatalf("unable to write topology to %s: %v", topoOut, err)
		}
		fmt.Printf("wrote example topology to %s\n", topoOut)
	},
}

// printReport displays per-router counters and per-series summary
// statistics at the end of the run
func printReport(ctx *driftnet.SimContext) {
	fmt.Println("=== Simulation Report ===")
	for _, name := range ctx.RouterNames() {
		rs, err := ctx.Router(name)
		if err != nil {
			continue
		}
		status := ""
		if rs.Failed {
			status = " (halted)"
		}
		fmt.Printf("router %-8s cycles=%d delivered=%d lost=%d%s\n",
			rs.Name, rs.Cycles, rs.Delivered, rs.Lost, status)
	}
	for _, series := range []string{"latency", "bandwidth", "loss", "cost"} {
		summary := ctx.Samples.Summary()[series]
		fmt.Printf("%-10s n=%-6d mean=%-12.4f stddev=%.4f\n",
			series, summary.Count, summary.Mean, summary.Stddev)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&topoFile, "topo", "", "Topology configuration file (.yaml or .json)")
	runCmd.Flags().Float64Var(&horizon, "horizon", 60.0, "Simulation horizon in virtual seconds")
	runCmd.Flags().Uint64Var(&seed, "seed", 42, "Master seed for the rng streams")
	runCmd.Flags().Float64Var(&interval, "interval", driftnet.DefaultInterval, "Inter-packet interval per router, virtual seconds")
	runCmd.Flags().IntVar(&pcktSize, "packet-size", driftnet.DefaultPcktSizeBytes, "Packet size in bytes")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&samplesFile, "samples", "", "File to store gathered samples (.yaml or .json), empty to skip")
	runCmd.Flags().StringVar(&expName, "name", "driftnet", "Experiment name recorded with the samples")

	topoCmd.Flags().StringVar(&topoOut, "out", "topo.yaml", "File to write the example topology to")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(topoCmd)
}
