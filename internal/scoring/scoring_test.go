package scoring

import (
	"testing"

	"greentrack/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablesCoverEveryCategory(t *testing.T) {
	require.NoError(t, Validate())
}

func TestValidateReportsMissingEntries(t *testing.T) {
	saved := disposals[types.WasteTextile]
	delete(disposals, types.WasteTextile)
	t.Cleanup(func() { disposals[types.WasteTextile] = saved })

	err := Validate()
	assert.ErrorIs(t, err, types.ErrConfiguration)
	assert.Contains(t, err.Error(), "textile")
}

func TestEntryPoints(t *testing.T) {
	cases := []struct {
		name  string
		waste types.DetectedWaste
		want  int
	}{
		{"plastic at threshold", types.DetectedWaste{Type: types.WastePlastic, Confidence: 80}, 10},
		{"plastic above threshold", types.DetectedWaste{Type: types.WastePlastic, Confidence: 81}, 12},
		{"organic", types.DetectedWaste{Type: types.WasteOrganic, Confidence: 50}, 6},
		{"glass confident", types.DetectedWaste{Type: types.WasteGlass, Confidence: 95}, 17},
		{"ewaste", types.DetectedWaste{Type: types.WasteEwaste, Confidence: 60}, 20},
		{"hazardous", types.DetectedWaste{Type: types.WasteHazardous, Confidence: 90}, 27},
		{"textile", types.DetectedWaste{Type: types.WasteTextile, Confidence: 40}, 8},
		{"general fallback", types.DetectedWaste{Type: types.WasteGeneral, Confidence: 25}, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EntryPoints(tc.waste)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScanPoints(t *testing.T) {
	wastes := []types.DetectedWaste{
		{Type: types.WastePlastic, Confidence: 77, Percentage: 12},
		{Type: types.WasteMetal, Confidence: 85, Percentage: 4},
	}

	got, err := ScanPoints(wastes, false)
	require.NoError(t, err)
	assert.Equal(t, 10+12+2, got)

	got, err = ScanPoints(wastes, true)
	require.NoError(t, err)
	assert.Equal(t, 10+12+2+2, got)

	got, err = ScanPoints(nil, true)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestScanPointsRejectsUnknownCategory(t *testing.T) {
	_, err := ScanPoints([]types.DetectedWaste{{Type: "styrofoam", Confidence: 90}}, false)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestRecommend(t *testing.T) {
	recs, err := Recommend([]types.DetectedWaste{
		{Type: types.WasteEwaste, Confidence: 95, Percentage: 100},
		{Type: types.WasteGlass, Confidence: 50, Percentage: 3},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, types.WasteEwaste, recs[0].WasteType)
	assert.Equal(t, "red", recs[0].BinColor)
	assert.Equal(t, "Take to authorized e-waste collection center", recs[0].Recommendation)
	assert.Equal(t, types.WasteGlass, recs[1].WasteType)
	assert.Equal(t, "white", recs[1].BinColor)
}

func TestRecommendEveryCategory(t *testing.T) {
	for _, category := range types.WasteCategories {
		recs, err := Recommend([]types.DetectedWaste{{Type: category}})
		require.NoError(t, err, category)
		assert.NotEmpty(t, recs[0].Recommendation, category)
		assert.NotEmpty(t, recs[0].BinColor, category)
	}
}

func TestRecommendUnknownCategory(t *testing.T) {
	_, err := Recommend([]types.DetectedWaste{{Type: "styrofoam"}})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
