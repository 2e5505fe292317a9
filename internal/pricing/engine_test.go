package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deelab/costcalc/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func testCatalog() []model.AnnotationType {
	return []model.AnnotationType{
		{
			ID: "bounding-box", Name: "Bounding Boxes",
			Rate: 0.10, Unit: "per annotation",
			AltRate: floatPtr(36.0), AltUnit: "per hour",
			IsImageBased: true, IsActive: true,
		},
		{
			ID: "video", Name: "Video Object Tracking",
			Rate: 0.5, Unit: "per object-minute", IsActive: true,
		},
		{
			ID: "audio-transcription", Name: "Audio Transcription",
			Rate: 1.0, Unit: "per hour", IsActive: true,
			LanguageTiers: map[string]model.LanguageTier{
				"tier1": {Name: "English", Multiplier: 1.0},
				"tier2": {Name: "European", Multiplier: 1.5},
				"tier3": {Name: "Rare", Multiplier: 2.0},
			},
		},
		{
			ID: "text-ner", Name: "Named Entity Recognition",
			Rate: 1.0, Unit: "per item",
			AltRate: floatPtr(2.0), AltUnit: "per hour",
			IsActive: true,
		},
	}
}

func pick(t *testing.T, types []model.AnnotationType, id string) model.AnnotationType {
	t.Helper()
	for _, typ := range types {
		if typ.ID == id {
			return typ
		}
	}
	t.Fatalf("type %s not in test catalog", id)
	return model.AnnotationType{}
}

func TestComputeLineItem_ImageBased(t *testing.T) {
	t.Parallel()
	typ := pick(t, testCatalog(), "bounding-box")

	state := NewSelectionState().Select(typ).
		SetField(typ.ID, FieldImageCount, 200).
		SetField(typ.ID, FieldAvgPerImage, 3)
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)

	assert.InDelta(t, 600, item.EffectiveQuantity, 1e-9)
	assert.InDelta(t, 60.00, item.Cost, 1e-9)
	assert.Equal(t, "200 images × 3 avg/image = 600 total", item.CalculationLabel)
}

func TestComputeLineItem_Video(t *testing.T) {
	t.Parallel()
	typ := pick(t, testCatalog(), "video")

	state := NewSelectionState().Select(typ).
		SetField(typ.ID, FieldVideoDuration, 10).
		SetField(typ.ID, FieldVideoObjects, 4)
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)

	assert.InDelta(t, 40, item.EffectiveQuantity, 1e-9)
	assert.InDelta(t, 20.00, item.Cost, 1e-9)
	assert.Equal(t, "10 minutes × 4 objects = 40 object-minutes", item.CalculationLabel)
}

func TestComputeLineItem_AudioHoursBilledPerMinute(t *testing.T) {
	t.Parallel()
	typ := pick(t, testCatalog(), "audio-transcription")

	// Quantity is entered in hours; the rate is per minute. Two hours at
	// $1/minute bills 120 minutes but still displays as 2 hours.
	state := NewSelectionState().Select(typ).AdjustQuantity(typ.ID, 1, false)
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)

	assert.InDelta(t, 2, item.EffectiveQuantity, 1e-9)
	assert.InDelta(t, 120.0, item.Cost, 1e-9)
	assert.Equal(t, "2.0 hours", item.CalculationLabel)
}

func TestComputeLineItem_MultiplierComposition(t *testing.T) {
	t.Parallel()
	typ := model.AnnotationType{
		ID: "subtitles", Name: "Subtitles", Rate: 1.0, Unit: "per item",
		LanguageTiers: map[string]model.LanguageTier{
			"tier1": {Name: "English", Multiplier: 1.0},
			"tier2": {Name: "European", Multiplier: 1.5},
		},
	}

	state := NewSelectionState().Select(typ).
		AdjustQuantity(typ.ID, 9, false).
		SetComplexityTier(typ.ID, model.ComplexityComplex).
		SetLanguageTier(typ.ID, "tier2")
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)

	// 10 × 1.0 × 1.25 × 1.5
	assert.InDelta(t, 18.75, item.Cost, 1e-9)
}

func TestComputeLineItem_MissingLanguageTierFallsBack(t *testing.T) {
	t.Parallel()
	typ := pick(t, testCatalog(), "audio-transcription")

	state := NewSelectionState().Select(typ).SetLanguageTier(typ.ID, "tier9")
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, item.Cost, 1e-9) // 1h × 60 × $1 × 1.0
}

func TestComputeLineItem_AltPricingIndependence(t *testing.T) {
	t.Parallel()
	typ := pick(t, testCatalog(), "text-ner")

	state := NewSelectionState().Select(typ).
		AdjustQuantity(typ.ID, 4, false).
		AdjustQuantity(typ.ID, 3, true)
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)

	// 5×1.0 primary + 3×2.0 alt, no multipliers.
	assert.InDelta(t, 11.0, item.Cost, 1e-9)
	assert.InDelta(t, 3, item.AltQuantity, 1e-9)
}

func TestComputeLineItem_NoAltRateBillsZeroAlt(t *testing.T) {
	t.Parallel()
	typ := pick(t, testCatalog(), "video")

	state := NewSelectionState().Select(typ).AdjustQuantity(typ.ID, 5, true)
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, item.Cost, 1e-9) // 5min × 2 objects × 0.5, alt ignored
}

func TestComputeLineItem_CatalogIntegrity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  model.AnnotationType
	}{
		{"nan rate", model.AnnotationType{ID: "bad", Rate: math.NaN(), Unit: "per item"}},
		{"negative rate", model.AnnotationType{ID: "bad", Rate: -1, Unit: "per item"}},
		{"inf rate", model.AnnotationType{ID: "bad", Rate: math.Inf(1), Unit: "per item"}},
		{"empty unit", model.AnnotationType{ID: "bad", Rate: 1.0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			state := NewSelectionState().Select(tt.typ)
			sel, _ := state.Selection(tt.typ.ID)

			_, err := ComputeLineItem(tt.typ, sel)
			require.Error(t, err)

			var integrity *CatalogIntegrityError
			require.ErrorAs(t, err, &integrity)
			assert.Equal(t, "bad", integrity.TypeID)
		})
	}
}

func TestComputeLineItem_ExplicitModeOverridesNaming(t *testing.T) {
	t.Parallel()

	// Same id, explicit standard mode: no ×60 billing conversion.
	typ := model.AnnotationType{
		ID: "audio-transcription", Name: "Audio Transcription",
		Rate: 1.0, Unit: "per hour", InputMode: model.InputModeStandard,
	}

	state := NewSelectionState().Select(typ).AdjustQuantity(typ.ID, 1, false)
	sel, _ := state.Selection(typ.ID)

	item, err := ComputeLineItem(typ, sel)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, item.Cost, 1e-9)
}

func TestComputeBreakdown_EmptySelection(t *testing.T) {
	t.Parallel()
	types := testCatalog()

	items, err := ComputeBreakdown(types, NewSelectionState())
	require.NoError(t, err)
	assert.Empty(t, items)

	total, err := ComputeTotal(types, NewSelectionState())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestComputeBreakdown_PreservesSelectionOrder(t *testing.T) {
	t.Parallel()
	types := testCatalog()

	state := NewSelectionState().
		Select(pick(t, types, "video")).
		Select(pick(t, types, "bounding-box")).
		Select(pick(t, types, "text-ner"))

	items, err := ComputeBreakdown(types, state)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "video", items[0].Type.ID)
	assert.Equal(t, "bounding-box", items[1].Type.ID)
	assert.Equal(t, "text-ner", items[2].Type.ID)
}

func TestComputeBreakdown_SkipsRemovedTypes(t *testing.T) {
	t.Parallel()
	types := testCatalog()

	state := NewSelectionState().
		Select(pick(t, types, "video")).
		Select(pick(t, types, "text-ner"))

	// The catalog shrank after selection: video was deleted.
	remaining := []model.AnnotationType{pick(t, types, "text-ner")}

	items, err := ComputeBreakdown(remaining, state)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "text-ner", items[0].Type.ID)
}

func TestComputeTotal_MatchesBreakdownSum(t *testing.T) {
	t.Parallel()
	types := testCatalog()

	state := NewSelectionState().
		Select(pick(t, types, "bounding-box")).
		Select(pick(t, types, "video")).
		Select(pick(t, types, "audio-transcription")).
		SetComplexityTier("video", model.ComplexityComplex).
		SetLanguageTier("audio-transcription", "tier3").
		AdjustQuantity("audio-transcription", 2, false)

	items, err := ComputeBreakdown(types, state)
	require.NoError(t, err)

	var sum float64
	for _, item := range items {
		sum += item.Cost
	}

	total, err := ComputeTotal(types, state)
	require.NoError(t, err)
	assert.InDelta(t, sum, total, 1e-9)
}

func TestComputeBreakdown_Idempotent(t *testing.T) {
	t.Parallel()
	types := testCatalog()

	state := NewSelectionState().
		Select(pick(t, types, "bounding-box")).
		Select(pick(t, types, "audio-transcription")).
		SetField("bounding-box", FieldImageCount, 250).
		SetLanguageTier("audio-transcription", "tier2")

	first, err := ComputeBreakdown(types, state)
	require.NoError(t, err)
	second, err := ComputeBreakdown(types, state)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildSelection_ReplaysClampsAndSeeds(t *testing.T) {
	t.Parallel()
	types := testCatalog()

	state := BuildSelection(types, []SelectionInput{
		{TypeID: "bounding-box", ImageCount: floatPtr(0), AvgPerImage: floatPtr(0)},
		{TypeID: "text-ner", Quantity: floatPtr(-5), AltQuantity: floatPtr(2)},
		{TypeID: "ghost-type", Quantity: floatPtr(10)},
	})

	require.Equal(t, []string{"bounding-box", "text-ner"}, state.SelectedIDs())

	bb, _ := state.Selection("bounding-box")
	assert.InDelta(t, 1, bb.ImageCount, 1e-9)
	assert.InDelta(t, 0.1, bb.AvgPerImage, 1e-9)

	ner, _ := state.Selection("text-ner")
	assert.InDelta(t, 1, ner.Quantity, 1e-9) // clamped to the floor
	assert.InDelta(t, 2, ner.AltQuantity, 1e-9)
}
