package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/driftline/internal/db"
	"github.com/banshee-data/driftline/internal/drift"
	"github.com/banshee-data/driftline/internal/profile"
)

// neutralSampleDuration is how long each calibration pass samples the
// untouched sticks.
const neutralSampleDuration = 2 * time.Second

// Stick axis assignments for a standard dual-stick pad.
var (
	leftStickAxes  = [2]int{0, 1}
	rightStickAxes = [2]int{2, 3}
)

func defaultConfigs() (left, right drift.StickRuntimeConfig, active *profile.ControllerProfile) {
	left = drift.NewStickRuntimeConfig(0, 0, drift.DefaultManualDeadzone, drift.DefaultManualDeadzone)
	right = drift.NewStickRuntimeConfig(0, 0, drift.DefaultManualDeadzone, drift.DefaultManualDeadzone)
	return left, right, nil
}

// selectProfilePath finds the stored profile document for the -controller
// argument, or the only stored profile when the argument is empty.
func selectProfilePath() (string, error) {
	if *controllerArg != "" {
		info := profile.ControllerInfo{Name: *controllerArg, GUID: *controllerArg}
		path, err := profile.FindMatching(*profileDir, info)
		if err != nil {
			return "", err
		}
		if path == "" {
			return "", fmt.Errorf("no stored profile matches %q", *controllerArg)
		}
		return path, nil
	}

	paths, err := profile.List(*profileDir)
	if err != nil {
		return "", err
	}
	switch len(paths) {
	case 0:
		return "", fmt.Errorf("no profiles stored under %s", *profileDir)
	case 1:
		return paths[0], nil
	default:
		return "", fmt.Errorf("%d profiles stored under %s; select one with -controller", len(paths), *profileDir)
	}
}

// loadSelectedProfile resolves a profile from the file store first and the
// database second.
func loadSelectedProfile(database *db.DB) (*profile.ControllerProfile, error) {
	if path, err := selectProfilePath(); err == nil {
		p, err := profile.Load(path)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}

	if *controllerArg != "" {
		stored, err := database.GetProfile(*controllerArg)
		if err != nil {
			return nil, err
		}
		return &stored.Profile, nil
	}

	profiles, err := database.ListProfiles()
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles stored")
	}
	return &profiles[0].Profile, nil
}

// syntheticCollector fabricates neutral samples from a drifting pad model,
// for dev mode and demos.
type syntheticCollector struct {
	rng *rand.Rand
}

// axisBias mirrors the synthetic controller's drift offsets.
var axisBias = map[int]float64{0: 0.07, 1: -0.04, 2: -0.05, 3: 0.03}

func (c *syntheticCollector) CollectNeutral(axes []int, duration time.Duration) (map[int][]float64, error) {
	count := int(duration.Seconds() * 60)
	if count < 32 {
		count = 32
	}

	samples := make(map[int][]float64, len(axes))
	for _, axis := range axes {
		batch := make([]float64, count)
		for i := range batch {
			batch[i] = axisBias[axis] + c.rng.NormFloat64()*0.008
		}
		samples[axis] = batch
	}
	return samples, nil
}

// fileCollector replays neutral samples captured by an external tool. The
// file is a JSON object mapping axis index to its readings.
type fileCollector struct {
	path string
}

func (c *fileCollector) CollectNeutral(axes []int, duration time.Duration) (map[int][]float64, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples file: %w", err)
	}

	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse samples file: %w", err)
	}

	samples := make(map[int][]float64, len(axes))
	for _, axis := range axes {
		batch, ok := raw[strconv.Itoa(axis)]
		if !ok || len(batch) == 0 {
			return nil, fmt.Errorf("samples file has no readings for axis %d", axis)
		}
		samples[axis] = batch
	}
	return samples, nil
}

func runCalibrate() {
	var collector profile.SampleCollector
	switch {
	case *devMode:
		collector = &syntheticCollector{rng: rand.New(rand.NewSource(*seed))}
	case *samplesFile != "":
		collector = &fileCollector{path: *samplesFile}
	default:
		log.Fatal("no sample source; run with -dev or -samples <file>")
	}

	name := *controllerArg
	if name == "" {
		name = "synthetic-pad"
	}
	info := profile.ControllerInfo{
		Name:      name,
		GUID:      uuid.NewString(),
		AxisCount: 4,
	}

	p, err := profile.Calibrate(collector, info, leftStickAxes, rightStickAxes, profile.CalibrateOptions{
		NeutralDuration: neutralSampleDuration,
		MaxAttempts:     3,
	})
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}

	fmt.Println(profile.Summary(p))
	tier, findings := profile.Quality(p)
	fmt.Printf("quality: %s\n", tier)
	for _, finding := range findings {
		fmt.Printf("  - %s\n", finding)
	}

	path := profile.PathFor(*profileDir, info)
	if err := profile.Save(p, path); err != nil {
		log.Fatalf("failed to save profile: %v", err)
	}
	fmt.Printf("saved profile to %s\n", path)

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.SaveProfile(p); err != nil {
		log.Fatalf("failed to store profile: %v", err)
	}

	if *steamHint {
		hintPath, err := profile.WriteSteamHint(p, path)
		if err != nil {
			log.Fatalf("failed to write steam hint: %v", err)
		}
		fmt.Printf("wrote Steam deadzone hint to %s\n", hintPath)
	}
}

func runQuality() {
	path, err := selectProfilePath()
	if err != nil {
		log.Fatalf("%v", err)
	}
	p, err := profile.Load(path)
	if err != nil {
		log.Fatalf("failed to load profile: %v", err)
	}

	fmt.Println(profile.Summary(p))
	tier, findings := profile.Quality(p)
	fmt.Printf("quality: %s\n", tier)
	for _, finding := range findings {
		fmt.Printf("  - %s\n", finding)
	}
	if tier == profile.TierBad {
		os.Exit(1)
	}
}

func runHint() {
	path, err := selectProfilePath()
	if err != nil {
		log.Fatalf("%v", err)
	}
	p, err := profile.Load(path)
	if err != nil {
		log.Fatalf("failed to load profile: %v", err)
	}

	hintPath, err := profile.WriteSteamHint(p, path)
	if err != nil {
		log.Fatalf("failed to write steam hint: %v", err)
	}
	fmt.Printf("wrote Steam deadzone hint to %s\n", hintPath)
}

func runMigrate(args []string) {
	if len(args) < 1 {
		log.Fatal("Usage: driftline migrate <up|down|version|force N>")
	}

	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		fmt.Println("migrations applied")

	case "down":
		if err := database.MigrateDown(*migrationsDir); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("rolled back one migration")

	case "version":
		version, dirty, err := database.MigrateVersion(*migrationsDir)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		fmt.Printf("version: %d dirty: %v\n", version, dirty)

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: driftline migrate force <version_number>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid version %q", args[1])
		}
		if err := database.MigrateForce(*migrationsDir, version); err != nil {
			log.Fatalf("migrate force: %v", err)
		}
		fmt.Printf("forced version to %d\n", version)

	default:
		log.Fatalf("unknown migrate action %q", args[0])
	}
}
