package timeline

import "github.com/stwalsh4118/fairshare/internal/models"

// DefaultRulerMarks is the number of labelled ticks drawn above the track
const DefaultRulerMarks = 10

// Ruler returns evenly spaced marks across the timeline, starting at zero.
// It returns no marks for an uninitialized scale or a non-positive count.
func Ruler(totalDuration int64, marks int) []RulerMark {
	if totalDuration <= 0 || marks <= 0 {
		return []RulerMark{}
	}

	result := make([]RulerMark, 0, marks)
	for i := 0; i < marks; i++ {
		seconds := totalDuration * int64(i) / int64(marks)
		result = append(result, RulerMark{
			Seconds:  seconds,
			Fraction: float64(seconds) / float64(totalDuration),
			Label:    models.FormatSeconds(seconds),
		})
	}
	return result
}
