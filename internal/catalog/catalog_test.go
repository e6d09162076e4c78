package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/models"
)

func TestNew_Valid(t *testing.T) {
	c, err := New(DemoClips())

	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
	assert.Empty(t, c.Warnings())
	assert.Equal(t, int64(215), c.End())

	clip, ok := c.Get("4")
	require.True(t, ok)
	assert.Equal(t, "Anti-Hero", clip.Attribution.Title)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestNew_Empty(t *testing.T) {
	c, err := New(nil)

	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Clips())
	assert.Equal(t, int64(0), c.End())
	assert.Empty(t, c.Credits())

	assert.Equal(t, 0, Empty().Len())
}

func TestNew_RejectsInvalidClips(t *testing.T) {
	valid := func() models.Clip {
		return models.Clip{ID: "1", Name: "Intro", Kind: models.ClipKindOriginal, StartTime: 0, Duration: 10}
	}

	tests := []struct {
		name   string
		mutate func(*models.Clip)
	}{
		{"Missing id", func(c *models.Clip) { c.ID = "" }},
		{"Missing name", func(c *models.Clip) { c.Name = "" }},
		{"Unknown kind", func(c *models.Clip) { c.Kind = "podcast" }},
		{"Negative start", func(c *models.Clip) { c.StartTime = -1 }},
		{"Zero duration", func(c *models.Clip) { c.Duration = 0 }},
		{"End time overflows", func(c *models.Clip) {
			c.StartTime = math.MaxInt64 - 5
			c.Duration = 10
		}},
		{"Share above 100", func(c *models.Clip) {
			c.Kind = models.ClipKindLicensed
			c.Attribution = &models.Attribution{Title: "T", Artist: "A", RightsOwner: "O", RevenueSharePercent: 101}
		}},
		{"Attribution without title", func(c *models.Clip) {
			c.Kind = models.ClipKindLicensed
			c.Attribution = &models.Attribution{Artist: "A", RightsOwner: "O"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := valid()
			tt.mutate(&clip)

			c, err := New([]models.Clip{clip})

			assert.Nil(t, c)
			assert.ErrorIs(t, err, ErrInvalidClip)
			assert.True(t, IsInvalid(err))
		})
	}
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	clips := []models.Clip{
		{ID: "1", Name: "A", Kind: models.ClipKindOriginal, Duration: 10},
		{ID: "1", Name: "B", Kind: models.ClipKindOriginal, StartTime: 10, Duration: 10},
	}

	_, err := New(clips)

	assert.ErrorIs(t, err, ErrDuplicateClipID)
}

func TestNew_WarnsOnMalformedAttribution(t *testing.T) {
	clips := []models.Clip{
		{ID: "1", Name: "Unlabelled music", Kind: models.ClipKindLicensed, Duration: 10},
		{ID: "2", Name: "Commentary", Kind: models.ClipKindOriginal, StartTime: 10, Duration: 10,
			Attribution: &models.Attribution{Title: "T", Artist: "A", RightsOwner: "O"}},
	}

	c, err := New(clips)

	require.NoError(t, err)
	warnings := c.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "1", warnings[0].ClipID)
	assert.Equal(t, "2", warnings[1].ClipID)
	assert.Empty(t, c.Licensed(), "neither clip counts as licensed")
}

func TestCatalog_IsImmutable(t *testing.T) {
	clips := DemoClips()
	c, err := New(clips)
	require.NoError(t, err)

	// Mutating the input after New does not leak in
	clips[1].Attribution.Title = "Changed"
	clips[0].Name = "Changed"

	got := c.Clips()
	assert.Equal(t, "Shape of You", got[1].Attribution.Title)
	assert.Equal(t, "Intro - Your Commentary", got[0].Name)

	// Mutating the output does not leak back
	got[1].Attribution.Title = "Changed again"
	assert.Equal(t, "Shape of You", c.Clips()[1].Attribution.Title)
}

func TestCatalog_Credits(t *testing.T) {
	credits := Demo().Credits()

	require.Len(t, credits, 3)
	assert.Equal(t, "Shape of You", credits[0].Title)
	assert.Equal(t, "Atlantic Records", credits[0].RightsOwner)
	assert.Equal(t, "1:00-1:30", credits[0].Timecode)
	assert.Equal(t, "Anti-Hero", credits[1].Title)
	assert.Equal(t, 78.0, credits[2].RevenueSharePercent)
}
