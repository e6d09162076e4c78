package timeline

import "github.com/stwalsh4118/fairshare/internal/models"

// ClipRect is a clip mapped onto the normalized horizontal interval [0,1]
type ClipRect struct {
	// ClipID identifies the clip in the catalog
	ClipID string `json:"clip_id"`

	// Name is the clip's display label
	Name string `json:"name"`

	// Kind is the clip classification (original or licensed)
	Kind models.ClipKind `json:"kind"`

	// Licensed is true only for licensed clips that carry attribution
	Licensed bool `json:"licensed"`

	// Left is the start offset as a fraction of the total duration
	Left float64 `json:"left"`

	// Width is the span as a fraction of the total duration, floored at the minimum visible width
	Width float64 `json:"width"`

	// ZIndex is the clip's catalog position; higher values stack on top
	ZIndex int `json:"z_index"`

	// Label is the clip's span formatted as M:SS-M:SS
	Label string `json:"label"`
}

// Right returns the fraction where the rendered rect ends
func (r *ClipRect) Right() float64 {
	return r.Left + r.Width
}

// Snapshot is the rendered timeline at one moment
//
//nolint:revive // matches the rendering vocabulary used by the API
type Snapshot struct {
	State            TimelineState `json:"state"`
	Clips            []ClipRect    `json:"clips"`
	PlayheadFraction float64       `json:"playhead_fraction"`
	CurrentTime      int64         `json:"current_time"`
	TotalDuration    int64         `json:"total_duration"`
	Clock            string        `json:"clock"`
}

// TimelineState describes whether a snapshot has anything to render
//
//nolint:revive // Timeline prefix is intentional
type TimelineState string

const (
	// TimelineStateUninitialized indicates a non-positive total duration; nothing is rendered
	TimelineStateUninitialized TimelineState = "uninitialized"

	// TimelineStateEmpty indicates a valid scale with no clips
	TimelineStateEmpty TimelineState = "empty"

	// TimelineStateReady indicates clips were laid out
	TimelineStateReady TimelineState = "ready"
)

// RulerMark is one labelled tick on the timeline ruler
type RulerMark struct {
	Seconds  int64   `json:"seconds"`
	Fraction float64 `json:"fraction"`
	Label    string  `json:"label"`
}
