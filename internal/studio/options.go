package studio

import (
	"fmt"
	"time"

	"github.com/stwalsh4118/fairshare/internal/attribution"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/config"
	"github.com/stwalsh4118/fairshare/internal/playback"
	"github.com/stwalsh4118/fairshare/internal/timeline"
)

// Options configures the sessions a Manager creates
type Options struct {
	// TotalDuration is the timeline scale for new sessions; zero leaves them uninitialized
	TotalDuration   int64
	TickInterval    time.Duration
	MinVisibleWidth float64
	RulerMarks      int
	Attribution     attribution.Options

	// IdleTimeout removes paused sessions untouched this long; zero disables it
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// DefaultOptions returns the demo dashboard's behaviour
func DefaultOptions() Options {
	return Options{
		TotalDuration:   catalog.DemoTotalDuration,
		TickInterval:    playback.DefaultTickInterval,
		MinVisibleWidth: timeline.DefaultMinVisibleWidth,
		RulerMarks:      timeline.DefaultRulerMarks,
		Attribution:     attribution.DefaultOptions(),
		IdleTimeout:     30 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// OptionsFromConfig maps the studio config section onto session options
func OptionsFromConfig(cfg config.StudioConfig) (Options, error) {
	policy, err := attribution.ParseRetriggerPolicy(cfg.Retrigger)
	if err != nil {
		return Options{}, fmt.Errorf("studio options: %w", err)
	}

	return Options{
		TotalDuration:   cfg.TotalDuration,
		TickInterval:    cfg.TickInterval,
		MinVisibleWidth: cfg.MinVisibleWidth,
		RulerMarks:      cfg.RulerMarks,
		Attribution: attribution.Options{
			ShowDelay:    cfg.ShowDelay,
			DismissAfter: cfg.DismissAfter,
			FadeOut:      cfg.FadeOut,
			Policy:       policy,
		},
		IdleTimeout:     cfg.IdleTimeout,
		CleanupInterval: cfg.CleanupInterval,
	}, nil
}
