package catalog

import "github.com/stwalsh4118/fairshare/internal/models"

// DemoTotalDuration is the timeline length the demo catalog is laid out on
const DemoTotalDuration = 240

// Demo returns the sample commentary timeline: creator segments interleaved
// with three licensed music clips.
func Demo() *Catalog {
	c, err := New(DemoClips())
	if err != nil {
		// The literal data below is valid; a failure here is a programming error
		panic(err)
	}
	return c
}

// DemoClips returns the clips behind Demo
func DemoClips() []models.Clip {
	return []models.Clip{
		{
			ID:        "1",
			Name:      "Intro - Your Commentary",
			Kind:      models.ClipKindOriginal,
			StartTime: 0,
			Duration:  60,
		},
		{
			ID:        "2",
			Name:      "Shape of You - Ed Sheeran",
			Kind:      models.ClipKindLicensed,
			StartTime: 60,
			Duration:  30,
			Attribution: &models.Attribution{
				Title:               "Shape of You",
				Artist:              "Ed Sheeran",
				RightsOwner:         "Atlantic Records",
				RevenueSharePercent: 72,
			},
		},
		{
			ID:        "3",
			Name:      "Your Analysis & Commentary",
			Kind:      models.ClipKindOriginal,
			StartTime: 90,
			Duration:  45,
		},
		{
			ID:        "4",
			Name:      "Anti-Hero - Taylor Swift",
			Kind:      models.ClipKindLicensed,
			StartTime: 135,
			Duration:  35,
			Attribution: &models.Attribution{
				Title:               "Anti-Hero",
				Artist:              "Taylor Swift",
				RightsOwner:         "Republic Records",
				RevenueSharePercent: 75,
			},
		},
		{
			ID:        "5",
			Name:      "Transition Commentary",
			Kind:      models.ClipKindOriginal,
			StartTime: 170,
			Duration:  20,
		},
		{
			ID:        "6",
			Name:      "Blinding Lights - The Weeknd",
			Kind:      models.ClipKindLicensed,
			StartTime: 190,
			Duration:  25,
			Attribution: &models.Attribution{
				Title:               "Blinding Lights",
				Artist:              "The Weeknd",
				RightsOwner:         "XO/Republic Records",
				RevenueSharePercent: 78,
			},
		},
	}
}
