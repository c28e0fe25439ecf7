package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/driftline/internal/config"
	"github.com/banshee-data/driftline/internal/db"
	"github.com/banshee-data/driftline/internal/drift"
	"github.com/banshee-data/driftline/internal/monitor"
	"github.com/banshee-data/driftline/internal/profile"
	"github.com/banshee-data/driftline/internal/session"
)

var (
	devMode       = flag.Bool("dev", false, "Run against a synthetic drifting controller instead of hardware samples")
	listen        = flag.String("listen", ":8082", "HTTP listen address")
	dbFile        = flag.String("db", "driftline.db", "Path to the SQLite database file")
	profileDir    = flag.String("profile-dir", profile.DefaultDir, "Directory holding calibration profiles")
	controllerArg = flag.String("controller", "", "Controller name or GUID to select a stored profile")
	rate          = flag.Float64("rate", session.DefaultRate, "Polling rate in Hz")
	seed          = flag.Int64("seed", 1, "Seed for the synthetic controller (dev mode)")
	migrationsDir = flag.String("migrations", "migrations", "Directory holding SQL migration files")
	samplesFile   = flag.String("samples", "", "JSON file of per-axis neutral samples for calibration")
	tuningFile    = flag.String("tuning", config.DefaultConfigPath, "JSON file of tuning overrides")
	steamHint     = flag.Bool("steam-hint", false, "Also write a Steam Input deadzone hint file after calibration")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: driftline [flags] <command>

Commands:
  run        Start the compensation session and monitor server (default)
  calibrate  Capture neutral samples and write a calibration profile
  quality    Grade a stored profile and print its summary
  hint       Write a Steam Input deadzone hint file for a stored profile
  migrate    Manage the database schema (up|down|version|force N)

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "run"
	}

	switch command {
	case "run":
		runSession()
	case "calibrate":
		runCalibrate()
	case "quality":
		runQuality()
	case "hint":
		runHint()
	case "migrate":
		runMigrate(flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(1)
	}
}

// runSession starts the compensation loop and the monitor HTTP server,
// shutting both down on SIGINT/SIGTERM.
func runSession() {
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	leftConfig, rightConfig, activeProfile := resolveConfigs(database)

	loopRate := *rate
	rollupWindow := 0
	if tuning, err := config.LoadTuningConfig(*tuningFile); err != nil {
		log.Printf("no tuning overrides loaded (%v); using built-in defaults", err)
	} else {
		tuning.ApplyTo(&leftConfig)
		tuning.ApplyTo(&rightConfig)
		// An explicit -rate flag wins over the file.
		if tuning.Rate != nil && *rate == session.DefaultRate {
			loopRate = *tuning.Rate
		}
		if tuning.RollupWindow != nil {
			rollupWindow = *tuning.RollupWindow
		}
	}

	var source session.Source
	if *devMode {
		source = session.NewSyntheticSource(*seed)
	} else {
		// Hardware input arrives through an external collaborator; until
		// one is attached there is nothing to poll.
		log.Fatal("no controller source available; run with -dev for the synthetic controller")
	}

	runner := session.NewRunner(source, session.Config{
		Rate:         loopRate,
		LeftConfig:   leftConfig,
		RightConfig:  rightConfig,
		Sink:         database,
		RollupWindow: rollupWindow,
	})

	webServer := monitor.NewWebServer(monitor.WebServerConfig{
		Address: *listen,
		Runner:  runner,
		DB:      database,
		Profile: activeProfile,
		Plotter: monitor.NewMetricsPlotter(),
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("session runner stopped: %v", err)
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := webServer.Start(ctx); err != nil {
			log.Printf("web server stopped: %v", err)
		}
	}()

	log.Printf("session %s running at %.0f Hz", runner.ID(), loopRate)
	wg.Wait()
}

// resolveConfigs derives the per-stick runtime configs from a stored
// profile when one matches, falling back to defaults otherwise.
func resolveConfigs(database *db.DB) (left, right drift.StickRuntimeConfig, active *profile.ControllerProfile) {
	p, err := loadSelectedProfile(database)
	if err != nil {
		log.Printf("no calibration profile loaded (%v); using defaults", err)
		return defaultConfigs()
	}
	l, r := profile.RuntimeConfigs(*p)
	return l, r, p
}
