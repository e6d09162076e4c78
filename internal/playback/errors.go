package playback

import "errors"

var (
	// ErrSeekOutOfRange is returned when a seek target is outside [0, totalDuration)
	ErrSeekOutOfRange = errors.New("seek target outside timeline")
)
