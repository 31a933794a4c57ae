// Command scope renders live sweep telemetry as a terminal polar display,
// with an HTTP monitor surface alongside. It reads `A:<angle> D:<distance>`
// lines from a serial port (or replays a fixture in dev mode), feeds them
// through the scope model, and redraws at a fixed frame rate.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/fieldscan/sonarscope/internal/config"
	"github.com/fieldscan/sonarscope/internal/monitor"
	"github.com/fieldscan/sonarscope/internal/scanner"
	"github.com/fieldscan/sonarscope/internal/scope"
	"github.com/fieldscan/sonarscope/internal/serialmux"
	"github.com/fieldscan/sonarscope/internal/sweepstats"
	"github.com/fieldscan/sonarscope/internal/telemetry"
	"github.com/fieldscan/sonarscope/internal/termview"
)

var (
	devMode    = flag.Bool("dev", false, "replay a fixture instead of opening a serial port")
	listen     = flag.String("listen", "localhost:8080", "address for the HTTP monitor server")
	port       = flag.String("port", "", "serial port carrying telemetry (e.g. /dev/ttyUSB0)")
	fixture    = flag.String("fixture", "sweeplog.txt", "telemetry fixture replayed in dev mode")
	configPath = flag.String("config", "", "path to a tuning config JSON file")
	headless   = flag.Bool("headless", false, "skip the terminal display; serve HTTP only")
)

// nominalEchoTime approximates the round-trip wait for an in-range echo,
// on top of the configured settle delay.
const nominalEchoTime = 10 * time.Millisecond

// replayInterval is the dev-mode playback cadence, matching what the real
// sweep loop would produce under the same tuning.
func replayInterval(tuning *config.TuningConfig) time.Duration {
	return tuning.GetSettleDelay() + nominalEchoTime
}

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

	if !*devMode && *port == "" {
		log.Fatal("serial port is required outside dev mode")
	}

	var mux serialmux.Muxer
	if *devMode {
		data, err := loadFixture(*fixture)
		if err != nil {
			log.Fatalf("failed to prepare fixture: %v", err)
		}
		mux = serialmux.NewReplayMux(data, replayInterval(tuning))
	} else {
		var err error
		mux, err = serialmux.Open(*port, tuning.GetSerial())
		if err != nil {
			log.Fatalf("failed to open serial port %s: %v", *port, err)
		}
	}
	defer mux.Close()

	sc := scope.New(scope.Config{
		CanvasSize:     tuning.GetCanvasSize(),
		TrailTTLFrames: tuning.GetTrailTTLFrames(),
	})
	stats := sweepstats.NewCollector()
	sc.SetSampleHook(stats.Observe)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor serial port: %v", err)
		}
	}()

	// subscribe to telemetry lines and drive the scope model
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, lines := mux.Subscribe()
		defer mux.Unsubscribe(id)
		if err := sc.Feed(ctx, lines); err != nil && err != context.Canceled {
			log.Printf("telemetry feed stopped: %v", err)
		}
	}()

	// HTTP monitor server with the serial admin routes mounted
	ws := monitor.NewWebServer(monitor.WebServerConfig{
		Address: *listen,
		Scope:   sc,
		Stats:   stats,
	})
	mux.AttachAdminRoutes(ws.ServeMux())
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("monitor server stopped: %v", err)
		}
	}()

	if *headless {
		// No display loop to age the trail, so run the frame clock
		// directly; otherwise the trail grows for the process lifetime.
		sc.RunFrameClock(ctx, tuning.GetFrameRateHz())
	} else {
		screen, err := tcell.NewScreen()
		if err != nil {
			log.Fatalf("failed to create terminal screen: %v", err)
		}
		if err := screen.Init(); err != nil {
			log.Fatalf("failed to initialize terminal screen: %v", err)
		}
		view := termview.New(screen, sc, tuning.GetFrameRateHz())
		if err := view.Run(ctx); err != nil {
			log.Printf("display stopped: %v", err)
		}
	}

	stop()
	wg.Wait()
	log.Print("shutdown complete")
}

// loadFixture reads the fixture file, or synthesizes two full sweeps from the
// simulated rig when the file is absent so dev mode works out of the box.
func loadFixture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, fmt.Errorf("fixture %s is empty", path)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	log.Printf("fixture %s not found; synthesizing sweep data", path)
	rig := scanner.NewSimulatedRig(time.Now().UnixNano())
	cfg := scanner.DefaultConfig()
	cfg.SettleDelay = 0
	sweep := scanner.New(rig, rig, cfg)

	var buf bytes.Buffer
	for i := 0; i < 2*telemetry.MaxAngle; i++ {
		sample, err := sweep.Step(context.Background())
		if err != nil {
			return nil, err
		}
		buf.WriteString(telemetry.Encode(sample))
	}
	return buf.Bytes(), nil
}
