package pricing

import "github.com/deelab/costcalc/internal/model"

// SelectionInput is the wire form of one selected type's inputs, as
// posted by the calculator page or the admin preview. Absent fields
// keep their seed defaults.
type SelectionInput struct {
	TypeID               string   `json:"type_id"`
	Quantity             *float64 `json:"quantity,omitempty"`
	AltQuantity          *float64 `json:"alt_quantity,omitempty"`
	ImageCount           *float64 `json:"image_count,omitempty"`
	AvgPerImage          *float64 `json:"avg_per_image,omitempty"`
	VideoDurationMinutes *float64 `json:"video_duration_minutes,omitempty"`
	VideoObjects         *float64 `json:"video_objects,omitempty"`
	ComplexityTier       string   `json:"complexity_tier,omitempty"`
	LanguageTier         string   `json:"language_tier,omitempty"`
}

// BuildSelection replays wire inputs through the state transitions, so
// wire-driven selections get exactly the same seeds and clamps as
// interactive ones. Inputs referencing ids absent from the catalog are
// skipped. Input order becomes selection order.
func BuildSelection(types []model.AnnotationType, inputs []SelectionInput) SelectionState {
	byID := make(map[string]model.AnnotationType, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}

	state := NewSelectionState()
	for _, in := range inputs {
		t, ok := byID[in.TypeID]
		if !ok {
			continue
		}
		state = state.Select(t)

		if in.Quantity != nil {
			state = state.AdjustQuantity(t.ID, *in.Quantity-defaultQuantity, false)
		}
		if in.AltQuantity != nil {
			state = state.AdjustQuantity(t.ID, *in.AltQuantity-defaultAltQuantity, true)
		}
		if in.ImageCount != nil {
			state = state.SetField(t.ID, FieldImageCount, *in.ImageCount)
		}
		if in.AvgPerImage != nil {
			state = state.SetField(t.ID, FieldAvgPerImage, *in.AvgPerImage)
		}
		if in.VideoDurationMinutes != nil {
			state = state.SetField(t.ID, FieldVideoDuration, *in.VideoDurationMinutes)
		}
		if in.VideoObjects != nil {
			state = state.SetField(t.ID, FieldVideoObjects, *in.VideoObjects)
		}
		if in.ComplexityTier != "" {
			state = state.SetComplexityTier(t.ID, model.ComplexityTier(in.ComplexityTier))
		}
		if in.LanguageTier != "" {
			state = state.SetLanguageTier(t.ID, in.LanguageTier)
		}
	}
	return state
}
