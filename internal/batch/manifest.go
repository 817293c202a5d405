package batch

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest describes one completed render run for downstream consumers.
type Manifest struct {
	World   string   `json:"world"`
	History string   `json:"history"`
	Dt      float64  `json:"dt"`
	Frames  int      `json:"frames"`
	Size    int      `json:"size"`
	Format  string   `json:"format"`
	Files   []string `json:"files"`
}

// WriteManifest writes manifest.json describing the run. Failed frames are
// omitted from the file list.
func WriteManifest(path, worldPath, historyPath string, dt float64, cfg Config, results []Result) error {
	m := Manifest{
		World:   worldPath,
		History: historyPath,
		Dt:      dt,
		Frames:  len(results),
		Size:    cfg.RenderSize,
		Format:  cfg.Format,
	}
	for _, r := range results {
		if r.Success {
			m.Files = append(m.Files, r.File)
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write manifest %s: %w", path, err)
	}
	return nil
}
