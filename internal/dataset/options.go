package dataset

import (
	"fmt"

	"github.com/JonMunkholm/mappoints/internal/config"
	"github.com/JonMunkholm/mappoints/internal/core"
)

// OptionsFromConfig builds service options from the import settings,
// loading the coordinate pattern file when one is configured.
func OptionsFromConfig(cfg config.ImportConfig) (Options, error) {
	patterns, err := core.LoadCoordinatePatterns(cfg.CoordinatePatterns)
	if err != nil {
		return Options{}, err
	}
	strategy, err := core.ParseMergeStrategy(cfg.DefaultStrategy)
	if err != nil {
		return Options{}, fmt.Errorf("default strategy: %w", err)
	}
	return Options{
		Limits:          core.Limits{MaxFileSize: cfg.MaxFileSize, MaxRows: cfg.MaxRows},
		Patterns:        patterns,
		DefaultStrategy: strategy,
		MaxConcurrent:   cfg.MaxConcurrent,
		MaxWait:         cfg.MaxWaitTime,
		Timeout:         cfg.Timeout,
	}, nil
}
