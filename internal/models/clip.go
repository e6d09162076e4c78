package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ClipKind classifies a clip as the creator's own footage or third-party licensed content
type ClipKind string

const (
	// ClipKindOriginal is content owned by the creator (commentary, footage, voice-over)
	ClipKindOriginal ClipKind = "original"

	// ClipKindLicensed is third-party content that carries rights-owner attribution
	ClipKindLicensed ClipKind = "licensed"
)

// Legacy kind names accepted on import
const (
	legacyKindVideo       = "video"
	legacyKindAudio       = "audio"
	legacyKindCopyrighted = "copyrighted"
)

// String returns the string representation of the clip kind
func (k ClipKind) String() string {
	return string(k)
}

// IsValid checks if the clip kind is a known value
func (k ClipKind) IsValid() bool {
	return k == ClipKindOriginal || k == ClipKindLicensed
}

// ParseClipKind converts a kind name to a ClipKind. The legacy names "video" and
// "audio" map to original, "copyrighted" maps to licensed.
func ParseClipKind(s string) (ClipKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ClipKindOriginal), legacyKindVideo, legacyKindAudio:
		return ClipKindOriginal, nil
	case string(ClipKindLicensed), legacyKindCopyrighted:
		return ClipKindLicensed, nil
	default:
		return "", fmt.Errorf("unknown clip kind %q", s)
	}
}

// Attribution names the rights holder of a licensed clip
type Attribution struct {
	Title               string  `json:"title" validate:"required"`
	Artist              string  `json:"artist" validate:"required"`
	RightsOwner         string  `json:"rights_owner" validate:"required"`
	RevenueSharePercent float64 `json:"revenue_share_percent" validate:"gte=0,lte=100"`
}

// Clip is one time-bounded segment on the timeline. Times are whole seconds.
type Clip struct {
	ID          string       `json:"id" validate:"required"`
	Name        string       `json:"name" validate:"required"`
	Kind        ClipKind     `json:"kind" validate:"required,oneof=original licensed"`
	StartTime   int64        `json:"start_time" validate:"gte=0"`
	Duration    int64        `json:"duration" validate:"gt=0"`
	Attribution *Attribution `json:"attribution,omitempty"`
}

// EndTime returns the exclusive end of the clip's span
func (c *Clip) EndTime() int64 {
	return c.StartTime + c.Duration
}

// Contains reports whether t falls in [StartTime, StartTime+Duration)
func (c *Clip) Contains(t int64) bool {
	return t >= c.StartTime && t < c.EndTime()
}

// IsLicensed reports whether the clip is licensed content with attribution to show.
// A licensed clip with no attribution is treated as not licensed.
func (c *Clip) IsLicensed() bool {
	return c.Kind == ClipKindLicensed && c.Attribution != nil
}

// DurationString returns duration in M:SS format
func (c *Clip) DurationString() string {
	return FormatSeconds(c.Duration)
}

// FormatSeconds renders a second count as M:SS
func FormatSeconds(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ParseTimecode reads a position written as plain seconds ("75") or M:SS ("1:15")
func ParseTimecode(s string) (int64, error) {
	s = strings.TrimSpace(s)
	minutes, seconds, hasColon := strings.Cut(s, ":")
	if !hasColon {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timecode %q", s)
		}
		return v, nil
	}

	m, err := strconv.ParseInt(minutes, 10, 64)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("invalid timecode %q", s)
	}
	sec, err := strconv.ParseInt(seconds, 10, 64)
	if err != nil || sec < 0 || sec >= 60 || len(seconds) != 2 {
		return 0, fmt.Errorf("invalid timecode %q", s)
	}
	return m*60 + sec, nil
}
