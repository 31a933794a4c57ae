// Command scanner drives the sweep loop and emits telemetry lines. By
// default it runs against the simulated rig and writes to stdout, which is
// enough to feed `scope -dev` or a pipe; with -port it writes to a serial
// port instead, standing in for the sensor-side firmware.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/fieldscan/sonarscope/internal/config"
	"github.com/fieldscan/sonarscope/internal/scanner"
)

var (
	port       = flag.String("port", "", "serial port to write telemetry to (default stdout)")
	configPath = flag.String("config", "", "path to a tuning config JSON file")
	seed       = flag.Int64("seed", 0, "simulation seed (0 uses the current time)")
	realtime   = flag.Bool("realtime", true, "simulate echo round-trip delays")
)

func main() {
	flag.Parse()

	tuning := &config.TuningConfig{}
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	var out io.Writer = os.Stdout
	if *port != "" {
		mode, err := tuning.GetSerial().SerialMode()
		if err != nil {
			log.Fatalf("invalid serial options: %v", err)
		}
		p, err := serial.Open(*port, mode)
		if err != nil {
			log.Fatalf("failed to open serial port %s: %v", *port, err)
		}
		defer p.Close()
		out = p
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rig := scanner.NewSimulatedRig(s)
	rig.EchoDelay = *realtime

	cfg := scanner.Config{
		StepDegrees:    tuning.GetStepDegrees(),
		SettleDelay:    tuning.GetSettleDelay(),
		MeasureTimeout: tuning.GetMeasureTimeout(),
		MaxDistanceCM:  tuning.GetMaxDistanceCM(),
	}
	sweep := scanner.New(rig, rig, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sweep.Run(ctx, out); err != nil && err != context.Canceled {
		log.Fatalf("sweep loop failed: %v", err)
	}
	log.Print("sweep loop stopped")
}
