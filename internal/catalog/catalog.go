// Package catalog holds the ordered, immutable clip sequence a studio session
// renders, plus loading it from files.
package catalog

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/fairshare/internal/models"
)

var validate = validator.New()

// Warning is a data-quality problem that does not reject the catalog
type Warning struct {
	ClipID  string `json:"clip_id"`
	Message string `json:"message"`
}

// Credit is one line of the attribution credit sheet
type Credit struct {
	ClipID              string  `json:"clip_id"`
	Title               string  `json:"title"`
	Artist              string  `json:"artist"`
	RightsOwner         string  `json:"rights_owner"`
	RevenueSharePercent float64 `json:"revenue_share_percent"`
	StartTime           int64   `json:"start_time"`
	Duration            int64   `json:"duration"`
	Timecode            string  `json:"timecode"`
}

// Catalog is an ordered sequence of clips. It is never mutated after New;
// replacing a session's clips means building a new Catalog.
type Catalog struct {
	clips    []models.Clip
	index    map[string]int
	warnings []Warning
}

// Empty returns a catalog with no clips
func Empty() *Catalog {
	return &Catalog{
		clips: []models.Clip{},
		index: map[string]int{},
	}
}

// New validates clips and returns a catalog holding a private copy of them.
// Field problems and duplicate ids reject the whole sequence. A licensed
// clip without attribution is accepted, treated as not licensed, and
// reported through Warnings.
func New(clips []models.Clip) (*Catalog, error) {
	c := &Catalog{
		clips: make([]models.Clip, 0, len(clips)),
		index: make(map[string]int, len(clips)),
	}

	for i := range clips {
		clip := cloneClip(&clips[i])

		if err := validate.Struct(clip); err != nil {
			return nil, fmt.Errorf("%w: clip %d (%q): %v", ErrInvalidClip, i, clip.ID, err)
		}
		if clip.StartTime > math.MaxInt64-clip.Duration {
			return nil, fmt.Errorf("%w: clip %d (%q): end time overflows", ErrInvalidClip, i, clip.ID)
		}
		if _, exists := c.index[clip.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateClipID, clip.ID)
		}

		switch {
		case clip.Kind == models.ClipKindLicensed && clip.Attribution == nil:
			c.warnings = append(c.warnings, Warning{
				ClipID:  clip.ID,
				Message: "licensed clip has no attribution; treated as not licensed",
			})
		case clip.Kind == models.ClipKindOriginal && clip.Attribution != nil:
			c.warnings = append(c.warnings, Warning{
				ClipID:  clip.ID,
				Message: "original clip carries attribution; attribution ignored",
			})
		}

		c.index[clip.ID] = len(c.clips)
		c.clips = append(c.clips, clip)
	}

	return c, nil
}

// Clips returns a copy of the clips in catalog order
func (c *Catalog) Clips() []models.Clip {
	out := make([]models.Clip, len(c.clips))
	for i := range c.clips {
		out[i] = cloneClip(&c.clips[i])
	}
	return out
}

// Len returns the number of clips
func (c *Catalog) Len() int {
	return len(c.clips)
}

// Get returns the clip with the given id
func (c *Catalog) Get(id string) (models.Clip, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Clip{}, false
	}
	return cloneClip(&c.clips[i]), true
}

// Licensed returns the clips that carry attribution to show, in catalog order
func (c *Catalog) Licensed() []models.Clip {
	out := make([]models.Clip, 0)
	for i := range c.clips {
		if c.clips[i].IsLicensed() {
			out = append(out, cloneClip(&c.clips[i]))
		}
	}
	return out
}

// End returns the latest clip end time, or zero for an empty catalog
func (c *Catalog) End() int64 {
	var end int64
	for i := range c.clips {
		if e := c.clips[i].EndTime(); e > end {
			end = e
		}
	}
	return end
}

// Warnings returns the data-quality problems found by New
func (c *Catalog) Warnings() []Warning {
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Credits returns the attribution credit sheet for licensed clips in catalog order
func (c *Catalog) Credits() []Credit {
	licensed := c.Licensed()
	credits := make([]Credit, 0, len(licensed))
	for i := range licensed {
		clip := &licensed[i]
		credits = append(credits, Credit{
			ClipID:              clip.ID,
			Title:               clip.Attribution.Title,
			Artist:              clip.Attribution.Artist,
			RightsOwner:         clip.Attribution.RightsOwner,
			RevenueSharePercent: clip.Attribution.RevenueSharePercent,
			StartTime:           clip.StartTime,
			Duration:            clip.Duration,
			Timecode:            models.FormatSeconds(clip.StartTime) + "-" + models.FormatSeconds(clip.EndTime()),
		})
	}
	return credits
}

func cloneClip(clip *models.Clip) models.Clip {
	out := *clip
	if clip.Attribution != nil {
		attribution := *clip.Attribution
		out.Attribution = &attribution
	}
	return out
}
