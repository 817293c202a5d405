package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rice-Rocket/sokudo/internal/batch"
	"github.com/Rice-Rocket/sokudo/internal/config"
	"github.com/Rice-Rocket/sokudo/internal/history"
	"github.com/Rice-Rocket/sokudo/internal/live"
	"github.com/Rice-Rocket/sokudo/internal/playback"
	"github.com/Rice-Rocket/sokudo/internal/viewmatrix"
	"github.com/Rice-Rocket/sokudo/internal/worldfile"
)

const usage = `Usage: sokudo <command> [flags] <args>

Commands:
  bake <world>            simulate and write a history file
  play <world> <history>  render a baked history to frames
  run <world>             bake and render in one go
  watch <world>           step in real time and stream over websocket

Run 'sokudo <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "bake":
		cmdBake(os.Args[2:])
	case "play":
		cmdPlay(os.Args[2:])
	case "run":
		cmdRun(os.Args[2:])
	case "watch":
		cmdWatch(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}
}

func cmdBake(args []string) {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	out := fs.String("o", "", "Output history file (default: <world>.skh)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sokudo bake [flags] <world>")
		os.Exit(1)
	}
	worldPath := fs.Arg(0)

	histPath := *out
	if histPath == "" {
		histPath = strings.TrimSuffix(worldPath, filepath.Ext(worldPath)) + ".skh"
	}

	_, hist := bake(worldPath)

	if err := hist.WriteFile(histPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("History: %s (%d frames)\n", histPath, hist.Len())
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	flags, configFile := playFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: sokudo play [flags] <world> <history>")
		os.Exit(1)
	}
	worldPath, histPath := fs.Arg(0), fs.Arg(1)

	def := loadWorld(worldPath)

	hist, err := history.ReadFile(histPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	render(resolve(*configFile, flags), def, worldPath, histPath, hist)
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	flags, configFile := playFlags(fs)
	hist := fs.String("hist", "", "Also write the history to this file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sokudo run [flags] <world>")
		os.Exit(1)
	}
	worldPath := fs.Arg(0)

	def, baked := bake(worldPath)

	histPath := *hist
	if histPath != "" {
		if err := baked.WriteFile(histPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("History: %s\n", histPath)
	}

	render(resolve(*configFile, flags), def, worldPath, histPath, baked)
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default: :8080)")
	configFile := fs.String("config", "", "Path to config.json file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: sokudo watch [flags] <world>")
		os.Exit(1)
	}

	cfg := resolve(*configFile, &config.Flags{ListenAddr: *addr})

	def := loadWorld(fs.Arg(0))
	world, scfg, err := def.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := live.Serve(cfg.ListenAddr, world, scfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// playFlags registers the render flag set shared by play and run.
func playFlags(fs *flag.FlagSet) (*config.Flags, *string) {
	flags := &config.Flags{}
	fs.StringVar(&flags.OutputDir, "o", "", "Output directory (default: frames)")
	fs.IntVar(&flags.RenderSize, "size", 0, "Output frame size in pixels (default: 512)")
	fs.IntVar(&flags.Supersample, "ss", 0, "Supersampling factor (default: 2)")
	fs.StringVar(&flags.Format, "format", "", "Output format, webp or tga (default: webp)")
	fs.IntVar(&flags.Workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	fs.BoolVar(&flags.Perspective, "persp", false, "Perspective projection instead of orthographic")
	fs.Float64Var(&flags.FOV, "fov", 0, "Perspective field of view in degrees (default: 40)")
	configFile := fs.String("config", "", "Path to config.json file")
	return flags, configFile
}

func resolve(configFile string, flags *config.Flags) config.Config {
	var cfg config.Config
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(*flags)
	return cfg
}

func loadWorld(path string) *worldfile.Def {
	def, err := worldfile.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return def
}

// bake loads a world file and simulates every step, collecting one history
// frame per step plus the initial state.
func bake(worldPath string) (*worldfile.Def, *history.History) {
	def := loadWorld(worldPath)

	world, cfg, err := def.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Baking %s: %d colliders, %d steps at dt=%g\n", worldPath, len(world.Colliders), world.Steps, cfg.Dt)
	start := time.Now()

	hist := history.New(cfg.Dt, len(world.Colliders))
	if err := hist.Append(history.FrameOf(world.State())); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for s := 0; s < world.Steps; s++ {
		if err := world.Step(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := hist.Append(history.FrameOf(world.State())); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Baked %d frames in %.2fs\n", hist.Len(), time.Since(start).Seconds())
	return def, hist
}

// render fits the camera over the whole history and renders every frame on
// the worker pool.
func render(cfg config.Config, def *worldfile.Def, worldPath, histPath string, hist *history.History) {
	if cfg.Format != "webp" && cfg.Format != "tga" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want webp or tga)\n", cfg.Format)
		os.Exit(1)
	}

	scene := playback.BuildScene(def)
	superSize := cfg.RenderSize * cfg.Supersample
	cam := viewmatrix.Fit(hist, scene.BoundingRadii(), superSize, 2*cfg.Supersample, cfg.Perspective, cfg.FOV)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %d frames at %dx%d (%dx supersampled), workers: %d\n",
		hist.Len(), cfg.RenderSize, cfg.RenderSize, cfg.Supersample, cfg.Workers)
	fmt.Println("------------------------------------------------------------")
	start := time.Now()

	batchCfg := batch.Config{
		OutputDir:   cfg.OutputDir,
		RenderSize:  cfg.RenderSize,
		Supersample: cfg.Supersample,
		Format:      cfg.Format,
		Workers:     cfg.Workers,
	}
	results := batch.Run(batchCfg, scene, hist, cam)

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

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
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.File, e.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, worldPath, histPath, hist.Dt, batchCfg, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
