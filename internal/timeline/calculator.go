// Package timeline maps a clip catalog and the playback position onto a
// normalized horizontal timeline for rendering.
package timeline

import (
	"fmt"

	"github.com/stwalsh4118/fairshare/internal/models"
)

// DefaultMinVisibleWidth keeps very short clips wide enough to click
const DefaultMinVisibleWidth = 0.08

// Layout maps clips and the current time onto the [0,1] interval.
// This is a pure function: it never mutates its inputs and is cheap enough
// to call on every tick.
//
// Parameters:
//   - clips: catalog in render order; later clips stack on top of earlier ones
//   - currentTime: playhead position in seconds
//   - totalDuration: timeline scale in seconds
//   - minVisibleWidth: floor applied to every clip width (0 disables it)
//
// A non-positive totalDuration means the timeline is not initialized yet and
// the snapshot renders nothing.
func Layout(clips []models.Clip, currentTime, totalDuration int64, minVisibleWidth float64) *Snapshot {
	snapshot := &Snapshot{
		Clips:         []ClipRect{},
		CurrentTime:   currentTime,
		TotalDuration: totalDuration,
		Clock:         fmt.Sprintf("%s / %s", models.FormatSeconds(currentTime), models.FormatSeconds(totalDuration)),
	}

	if totalDuration <= 0 {
		snapshot.State = TimelineStateUninitialized
		snapshot.CurrentTime = 0
		snapshot.Clock = models.FormatSeconds(0)
		return snapshot
	}

	snapshot.PlayheadFraction = PlayheadFraction(currentTime, totalDuration)

	if len(clips) == 0 {
		snapshot.State = TimelineStateEmpty
		return snapshot
	}

	total := float64(totalDuration)
	rects := make([]ClipRect, 0, len(clips))
	for i := range clips {
		clip := &clips[i]
		width := float64(clip.Duration) / total
		if width < minVisibleWidth {
			width = minVisibleWidth
		}
		rects = append(rects, ClipRect{
			ClipID:   clip.ID,
			Name:     clip.Name,
			Kind:     clip.Kind,
			Licensed: clip.IsLicensed(),
			Left:     float64(clip.StartTime) / total,
			Width:    width,
			ZIndex:   i,
			Label:    models.FormatSeconds(clip.StartTime) + "-" + models.FormatSeconds(clip.EndTime()),
		})
	}

	snapshot.State = TimelineStateReady
	snapshot.Clips = rects
	return snapshot
}

// PlayheadFraction returns currentTime as a fraction of totalDuration,
// or zero when the scale is not initialized
func PlayheadFraction(currentTime, totalDuration int64) float64 {
	if totalDuration <= 0 {
		return 0
	}
	return float64(currentTime) / float64(totalDuration)
}

// HitTest returns the topmost clip rect covering fraction x. When rects
// overlap the one latest in catalog order wins.
func (s *Snapshot) HitTest(x float64) (*ClipRect, bool) {
	for i := len(s.Clips) - 1; i >= 0; i-- {
		rect := &s.Clips[i]
		if x >= rect.Left && x < rect.Right() {
			return rect, true
		}
	}
	return nil, false
}
