// Command gen-sweeplog generates sample telemetry fixtures for dev-mode
// replay and tests.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/fieldscan/sonarscope/internal/scanner"
	"github.com/fieldscan/sonarscope/internal/telemetry"
)

func main() {
	output := flag.String("o", "sweeplog.txt", "output path")
	sweeps := flag.Int("n", 4, "number of half sweeps (0-to-180 legs)")
	seed := flag.Int64("seed", 1, "simulation seed")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	rig := scanner.NewSimulatedRig(*seed)
	cfg := scanner.DefaultConfig()
	cfg.SettleDelay = 0
	sweep := scanner.New(rig, rig, cfg)

	start := time.Now()
	steps := *sweeps * telemetry.MaxAngle
	for i := 0; i < steps; i++ {
		sample, err := sweep.Step(context.Background())
		if err != nil {
			log.Fatalf("step %d failed: %v", i, err)
		}
		if _, err := f.WriteString(telemetry.Encode(sample)); err != nil {
			log.Fatalf("write failed: %v", err)
		}
	}
	log.Printf("✓ Created: %s (%d lines in %s)", *output, steps, time.Since(start).Round(time.Millisecond))
}
