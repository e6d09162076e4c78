package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/fairshare/internal/models"
)

// Helper function to create an original clip
func createOriginalClip(id string, start, duration int64) models.Clip {
	return models.Clip{
		ID:        id,
		Name:      "Clip " + id,
		Kind:      models.ClipKindOriginal,
		StartTime: start,
		Duration:  duration,
	}
}

// Helper function to create a licensed clip with attribution
func createLicensedClip(id, title string, start, duration int64) models.Clip {
	return models.Clip{
		ID:        id,
		Name:      title,
		Kind:      models.ClipKindLicensed,
		StartTime: start,
		Duration:  duration,
		Attribution: &models.Attribution{
			Title:               title,
			Artist:              "Artist " + id,
			RightsOwner:         "Owner " + id,
			RevenueSharePercent: 70,
		},
	}
}

func TestLayout_UninitializedTotalDuration(t *testing.T) {
	clips := []models.Clip{createOriginalClip("1", 0, 60)}

	for _, total := range []int64{0, -90} {
		snapshot := Layout(clips, 30, total, DefaultMinVisibleWidth)

		require.NotNil(t, snapshot)
		assert.Equal(t, TimelineStateUninitialized, snapshot.State)
		assert.Empty(t, snapshot.Clips)
		assert.Equal(t, 0.0, snapshot.PlayheadFraction)
	}
}

func TestLayout_EmptyCatalog(t *testing.T) {
	for _, current := range []int64{0, 45, 89} {
		snapshot := Layout(nil, current, 90, DefaultMinVisibleWidth)

		assert.Equal(t, TimelineStateEmpty, snapshot.State)
		assert.NotNil(t, snapshot.Clips)
		assert.Empty(t, snapshot.Clips)
		assert.InDelta(t, float64(current)/90, snapshot.PlayheadFraction, 1e-9)
	}
}

func TestLayout_FractionsAndFloor(t *testing.T) {
	clips := []models.Clip{
		createOriginalClip("1", 0, 60),
		createLicensedClip("2", "Shape of You", 60, 30),
		createOriginalClip("3", 85, 2), // shorter than the floor
	}

	snapshot := Layout(clips, 75, 90, DefaultMinVisibleWidth)

	require.Equal(t, TimelineStateReady, snapshot.State)
	require.Len(t, snapshot.Clips, 3)

	for i, rect := range snapshot.Clips {
		assert.InDelta(t, float64(clips[i].StartTime)/90, rect.Left, 1e-9)
		assert.GreaterOrEqual(t, rect.Width, DefaultMinVisibleWidth)
		assert.Equal(t, i, rect.ZIndex)
		assert.Equal(t, clips[i].ID, rect.ClipID)
	}

	assert.InDelta(t, 60.0/90, snapshot.Clips[0].Width, 1e-9)
	assert.InDelta(t, 30.0/90, snapshot.Clips[1].Width, 1e-9)
	assert.InDelta(t, DefaultMinVisibleWidth, snapshot.Clips[2].Width, 1e-9)

	assert.False(t, snapshot.Clips[0].Licensed)
	assert.True(t, snapshot.Clips[1].Licensed)
	assert.Equal(t, "1:00-1:30", snapshot.Clips[1].Label)

	assert.InDelta(t, 75.0/90, snapshot.PlayheadFraction, 1e-9)
	assert.Equal(t, "1:15 / 1:30", snapshot.Clock)
}

func TestLayout_NoFloor(t *testing.T) {
	clips := []models.Clip{createOriginalClip("1", 0, 3)}

	snapshot := Layout(clips, 0, 300, 0)

	assert.InDelta(t, 3.0/300, snapshot.Clips[0].Width, 1e-9)
}

func TestLayout_LicensedWithoutAttributionIsNotLicensed(t *testing.T) {
	malformed := createLicensedClip("2", "Untitled", 0, 30)
	malformed.Attribution = nil

	snapshot := Layout([]models.Clip{malformed}, 0, 90, 0)

	assert.Equal(t, models.ClipKindLicensed, snapshot.Clips[0].Kind)
	assert.False(t, snapshot.Clips[0].Licensed)
}

func TestLayout_DoesNotMutateInput(t *testing.T) {
	clips := []models.Clip{createLicensedClip("2", "Anti-Hero", 135, 35)}
	before := clips[0]
	before.Attribution = &models.Attribution{}
	*before.Attribution = *clips[0].Attribution

	Layout(clips, 140, 240, DefaultMinVisibleWidth)

	assert.Equal(t, before.StartTime, clips[0].StartTime)
	assert.Equal(t, *before.Attribution, *clips[0].Attribution)
}

func TestSnapshot_HitTestLaterClipWins(t *testing.T) {
	clips := []models.Clip{
		createOriginalClip("A", 0, 60),
		createOriginalClip("B", 30, 60),
	}
	snapshot := Layout(clips, 0, 120, 0)

	rect, ok := snapshot.HitTest(0.1)
	require.True(t, ok)
	assert.Equal(t, "A", rect.ClipID)

	rect, ok = snapshot.HitTest(0.4) // both A and B cover 48s
	require.True(t, ok)
	assert.Equal(t, "B", rect.ClipID)

	_, ok = snapshot.HitTest(0.9)
	assert.False(t, ok)
}

func TestPlayheadFraction(t *testing.T) {
	assert.Equal(t, 0.0, PlayheadFraction(10, 0))
	assert.Equal(t, 0.5, PlayheadFraction(120, 240))
}
