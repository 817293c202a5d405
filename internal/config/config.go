// Package config holds tool-level settings for the play and watch commands.
// Solver parameters are simulation semantics and live in the world file
// instead.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Config holds configurable output and render settings.
type Config struct {
	OutputDir   string  `json:"output_dir"`
	RenderSize  int     `json:"render_size"`
	Supersample int     `json:"supersample"`
	Format      string  `json:"format"`
	Workers     int     `json:"workers"`
	ListenAddr  string  `json:"listen_addr"`
	Perspective bool    `json:"perspective"`
	FOV         float64 `json:"fov"`
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values until Resolve fills them.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir   string
	RenderSize  int
	Supersample int
	Format      string
	Workers     int
	ListenAddr  string
	Perspective bool
	FOV         float64
}

// Resolve applies flag overrides and fills any remaining empty fields with
// defaults.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.RenderSize > 0 {
		c.RenderSize = flags.RenderSize
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.ListenAddr != "" {
		c.ListenAddr = flags.ListenAddr
	}
	if flags.Perspective {
		c.Perspective = true
	}
	if flags.FOV > 0 {
		c.FOV = flags.FOV
	}

	// Defaults
	if c.OutputDir == "" {
		c.OutputDir = "frames"
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Format == "" {
		c.Format = "webp"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
}
