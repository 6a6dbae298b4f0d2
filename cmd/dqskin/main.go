package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"mu-dqskin/internal/batch"
	"mu-dqskin/internal/bmd"
	"mu-dqskin/internal/config"
	"mu-dqskin/internal/skeleton"
	"mu-dqskin/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json or .toml)")
	model := flag.String("model", "", "Path to the BMD model")
	textureDir := flag.String("textures", "", "Texture directory (default: model directory)")
	outputDir := flag.String("output", "", "Output directory (default: <model>-frames)")
	action := flag.Int("action", -1, "Action to render (default: 0)")
	method := flag.String("method", "", "Skinning method: dq or linear (default: dq)")
	falloff := flag.Float64("falloff", 0, "Parent-bone blend distance, 0 keeps rigid binding")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	verbose := flag.Bool("v", false, "Log progress and texture warnings")

	flag.Parse()

	if *model == "" && flag.NArg() > 0 {
		*model = flag.Arg(0)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Model:      *model,
		TextureDir: *textureDir,
		OutputDir:  *outputDir,
		Action:     *action,
		Method:     *method,
		Falloff:    *falloff,
		Workers:    *workers,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	keys, err := cfg.Keys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	m, err := bmd.Parse(cfg.Model, keys)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}
	if cfg.Action >= len(m.Actions) {
		fmt.Fprintf(os.Stderr, "Error: action %d out of range (%d actions)\n", cfg.Action, len(m.Actions))
		os.Exit(1)
	}

	anim := skeleton.NewAnimator(m)
	meshes := skeleton.Bind(m, anim.Bind(), skeleton.Options{Falloff: cfg.Falloff})

	// Build texture index
	texIndex := texture.BuildIndex(cfg.TextureDir)
	texCache := texture.NewCache(texIndex, log)
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	numKeys := m.Actions[cfg.Action].NumKeys

	// Print summary
	fmt.Printf("MU Online BMD skinning → WebP (%s)\n", cfg.Method)
	fmt.Printf("Model: %s v%d, Meshes: %d, Bones: %d, Actions: %d\n",
		m.Name, m.Version, len(m.Meshes), len(m.Bones), len(m.Actions))
	fmt.Printf("Action: %d, Keys: %d, Step: %g, Workers: %d\n", cfg.Action, numKeys, cfg.FrameStep, cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		OutputDir:   cfg.OutputDir,
		Animator:    anim,
		Meshes:      meshes,
		Action:      cfg.Action,
		NumKeys:     numKeys,
		FrameStep:   cfg.FrameStep,
		Linear:      cfg.Method == config.MethodLinear,
		Textures:    texCache,
		RenderSize:  cfg.RenderSize,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Log:         log,
	}

	results := batch.Run(ctx, batchCfg)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, e := range errors[:min(len(errors), 20)] {
			fmt.Printf("  frame %d: %s\n", e.Frame, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else if err := batch.WriteManifest(manifestPath, m.Name, cfg.Action, cfg.Method, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
