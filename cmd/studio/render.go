package main

import (
	"fmt"
	"strings"

	"github.com/stwalsh4118/fairshare/internal/attribution"
	"github.com/stwalsh4118/fairshare/internal/timeline"
)

const (
	barEmpty    = '.'
	barOriginal = '='
	barLicensed = '#'
	barPlayhead = '|'
)

// renderBar draws a snapshot as a fixed-width text bar. Later clips paint
// over earlier ones, matching the layout's z-order.
func renderBar(snapshot *timeline.Snapshot, width int) string {
	if snapshot.State == timeline.TimelineStateUninitialized {
		return "[timeline not initialized]"
	}
	if width < 1 {
		width = 1
	}

	cells := []rune(strings.Repeat(string(barEmpty), width))
	for _, rect := range snapshot.Clips {
		fill := barOriginal
		if rect.Licensed {
			fill = barLicensed
		}
		from, to := cellRange(rect.Left, rect.Right(), width)
		for i := from; i < to; i++ {
			cells[i] = fill
		}
	}

	head := int(snapshot.PlayheadFraction * float64(width))
	if head >= width {
		head = width - 1
	}
	cells[head] = barPlayhead

	return fmt.Sprintf("[%s] %s", string(cells), snapshot.Clock)
}

// cellRange maps a fractional span onto bar cells, giving every visible
// clip at least one cell
func cellRange(left, right float64, width int) (int, int) {
	from := int(left * float64(width))
	to := int(right * float64(width))
	if from < 0 {
		from = 0
	}
	if to > width {
		to = width
	}
	if to <= from && from < width {
		to = from + 1
	}
	return from, to
}

// renderOverlay describes the attribution overlay in one line, or returns
// an empty string when nothing is visible
func renderOverlay(overlay attribution.Overlay) string {
	if !overlay.Visible || overlay.Payload == nil {
		return ""
	}
	p := overlay.Payload
	return fmt.Sprintf("♪ %s by %s  |  %s receives %.0f%% of revenue", p.Title, p.Artist, p.RightsOwner, p.RevenueSharePercent)
}
