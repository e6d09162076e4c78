package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stwalsh4118/fairshare/internal/attribution"
	"github.com/stwalsh4118/fairshare/internal/models"
	"github.com/stwalsh4118/fairshare/internal/timeline"
)

func testClips() []models.Clip {
	return []models.Clip{
		{ID: "A", Name: "Intro", Kind: models.ClipKindOriginal, StartTime: 0, Duration: 5},
		{ID: "B", Name: "Song", Kind: models.ClipKindLicensed, StartTime: 5, Duration: 5,
			Attribution: &models.Attribution{Title: "Song", Artist: "Band", RightsOwner: "Label", RevenueSharePercent: 60}},
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name     string
		clips    []models.Clip
		current  int64
		total    int64
		expected string
	}{
		{
			name:     "playhead at start",
			clips:    testClips(),
			current:  0,
			total:    10,
			expected: "[|====#####] 0:00 / 0:10",
		},
		{
			name:     "playhead inside licensed clip",
			clips:    testClips(),
			current:  7,
			total:    10,
			expected: "[=====##|##] 0:07 / 0:10",
		},
		{
			name:     "gap after the last clip",
			clips:    testClips(),
			current:  0,
			total:    20,
			expected: "[|====#####..........] 0:00 / 0:20",
		},
		{
			name:     "uninitialized",
			clips:    testClips(),
			current:  0,
			total:    0,
			expected: "[timeline not initialized]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			width := int(tt.total)
			snapshot := timeline.Layout(tt.clips, tt.current, tt.total, 0)
			assert.Equal(t, tt.expected, renderBar(snapshot, width))
		})
	}
}

func TestCellRange_MinimumOneCell(t *testing.T) {
	from, to := cellRange(0.5, 0.501, 10)
	assert.Equal(t, 5, from)
	assert.Equal(t, 6, to)

	from, to = cellRange(0.9, 1.2, 10)
	assert.Equal(t, 9, from)
	assert.Equal(t, 10, to)
}

func TestRenderOverlay(t *testing.T) {
	assert.Empty(t, renderOverlay(attribution.Overlay{State: attribution.StateIdle}))

	overlay := attribution.Overlay{
		State:   attribution.StateShowing,
		Visible: true,
		ClipID:  "B",
		Payload: testClips()[1].Attribution,
	}
	assert.Equal(t, "♪ Song by Band  |  Label receives 60% of revenue", renderOverlay(overlay))
}
