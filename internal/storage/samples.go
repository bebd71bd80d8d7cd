package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SampleIndex is the index.yaml at the root of a sample library.
type SampleIndex struct {
	Library     string      `yaml:"library"`
	Description string      `yaml:"description"`
	Samples     []SampleRef `yaml:"samples"`
}

type SampleRef struct {
	ID          string `yaml:"id"`
	File        string `yaml:"file"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// PreloadSamples reads the sample library at dir and stores every listed
// file. A missing library is not an error; a broken entry is logged and
// skipped so one bad sample does not block startup.
func (s *Store) PreloadSamples(dir string) error {
	indexPath := filepath.Join(dir, "index.yaml")
	data, err := os.ReadFile(indexPath)
	if os.IsNotExist(err) {
		s.logger.Info("No sample library found", zap.String("path", indexPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sample index: %w", err)
	}

	var index SampleIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("failed to parse sample index %s: %w", indexPath, err)
	}

	loaded := 0
	for _, ref := range index.Samples {
		content, err := os.ReadFile(filepath.Join(dir, ref.File))
		if err != nil {
			s.logger.Warn("Failed to read sample file",
				zap.String("id", ref.ID),
				zap.String("file", ref.File),
				zap.Error(err))
			continue
		}
		name := ref.File
		if ref.ID != "" {
			name = ref.ID + ".gcode"
		}
		if _, err := s.Put(name, content); err != nil {
			s.logger.Warn("Failed to store sample file",
				zap.String("id", ref.ID),
				zap.Error(err))
			continue
		}
		loaded++
	}

	s.logger.Info("Sample library loaded",
		zap.String("library", index.Library),
		zap.Int("files", loaded))
	return nil
}
