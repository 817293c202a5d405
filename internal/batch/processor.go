// Package batch renders and encodes all frames of a baked history on a
// worker pool.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"github.com/Rice-Rocket/sokudo/internal/history"
	"github.com/Rice-Rocket/sokudo/internal/playback"
	"github.com/Rice-Rocket/sokudo/internal/postprocess"
	"github.com/Rice-Rocket/sokudo/internal/viewmatrix"
)

// Config holds all shared resources for a batch render.
type Config struct {
	OutputDir   string
	RenderSize  int
	Supersample int
	Format      string // "webp" or "tga"
	Workers     int
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Step    int
	File    string
	Success bool
	Error   string
}

// Run renders every frame of the history using a worker pool and returns
// one result per frame in step order. A single failed frame does not abort
// the pool.
func Run(cfg Config, scene *playback.Scene, hist *history.History, cam viewmatrix.Camera) []Result {
	total := hist.Len()
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f frames/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	frameChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for step := range frameChan {
				results[step] = renderFrame(cfg, scene, hist.Frame(step), cam, step)
				processed.Add(1)
			}
		}()
	}

	for step := 0; step < total; step++ {
		frameChan <- step
	}
	close(frameChan)

	wg.Wait()
	close(done)

	return results
}

func renderFrame(cfg Config, scene *playback.Scene, frame history.Frame, cam viewmatrix.Camera, step int) Result {
	name := fmt.Sprintf("frame_%05d.%s", step, cfg.Format)

	img, err := scene.RenderFrame(frame, cam)
	if err != nil {
		return Result{Step: step, File: name, Error: err.Error()}
	}

	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.RenderSize)
	}

	outPath := filepath.Join(cfg.OutputDir, name)
	f, err := os.Create(outPath)
	if err != nil {
		return Result{Step: step, File: name, Error: err.Error()}
	}
	defer f.Close()

	switch cfg.Format {
	case "tga":
		err = tga.Encode(f, img)
	default:
		err = nativewebp.Encode(f, img, nil)
	}
	if err != nil {
		return Result{Step: step, File: name, Error: fmt.Sprintf("encode: %v", err)}
	}

	return Result{Step: step, File: name, Success: true}
}
