// Package pricing computes cost breakdowns for annotation-service
// selections. The engine is pure: it takes an immutable catalog
// snapshot and a SelectionState value and returns derived line items.
// It performs no I/O and never mutates its inputs.
package pricing

import "github.com/deelab/costcalc/internal/model"

// Seed defaults applied when a type is selected.
const (
	defaultQuantity      = 1.0
	defaultAltQuantity   = 0.0
	defaultImageCount    = 100.0
	defaultAvgPerImage   = 1.0
	defaultVideoDuration = 5.0
	defaultVideoObjects  = 2.0
)

// Lower clamp bounds for user-adjustable fields.
const (
	minQuantity      = 1.0
	minAltQuantity   = 0.0
	minImageCount    = 1.0
	minAvgPerImage   = 0.1
	minVideoDuration = 0.1
	minVideoObjects  = 1.0
)

// Field names accepted by SetField. Anything else is a no-op.
const (
	FieldImageCount    = "imageCount"
	FieldAvgPerImage   = "avgPerImage"
	FieldVideoDuration = "videoDurationMinutes"
	FieldVideoObjects  = "videoObjects"
)

// TypeSelection is the per-type user input for one selected type.
type TypeSelection struct {
	Quantity             float64              `json:"quantity"`
	AltQuantity          float64              `json:"alt_quantity"`
	ImageCount           float64              `json:"image_count"`
	AvgPerImage          float64              `json:"avg_per_image"`
	VideoDurationMinutes float64              `json:"video_duration_minutes"`
	VideoObjects         float64              `json:"video_objects"`
	ComplexityTier       model.ComplexityTier `json:"complexity_tier"`
	LanguageTier         string               `json:"language_tier,omitempty"`
}

// SelectionState is the user's in-progress calculator configuration.
// It is a value: every transition returns a new state and leaves the
// receiver untouched. Selection order is preserved so the breakdown
// renders in the order types were picked.
type SelectionState struct {
	order  []string
	byType map[string]TypeSelection
}

// NewSelectionState returns an empty selection.
func NewSelectionState() SelectionState {
	return SelectionState{byType: map[string]TypeSelection{}}
}

// Selected reports whether the type id is currently selected.
func (s SelectionState) Selected(typeID string) bool {
	_, ok := s.byType[typeID]
	return ok
}

// SelectedIDs returns the selected ids in selection order.
func (s SelectionState) SelectedIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Selection returns the sub-state for a selected type id.
func (s SelectionState) Selection(typeID string) (TypeSelection, bool) {
	sel, ok := s.byType[typeID]
	return sel, ok
}

// Len returns the number of selected types.
func (s SelectionState) Len() int {
	return len(s.order)
}

func (s SelectionState) clone() SelectionState {
	next := SelectionState{
		order:  make([]string, len(s.order)),
		byType: make(map[string]TypeSelection, len(s.byType)),
	}
	copy(next.order, s.order)
	for id, sel := range s.byType {
		next.byType[id] = sel
	}
	return next
}

// Select adds the type with seeded defaults. Selecting an already
// selected type is a no-op and keeps the existing sub-state.
func (s SelectionState) Select(t model.AnnotationType) SelectionState {
	if s.Selected(t.ID) {
		return s
	}
	next := s.clone()

	sel := TypeSelection{
		Quantity:       defaultQuantity,
		AltQuantity:    defaultAltQuantity,
		ComplexityTier: model.ComplexityStandard,
	}
	switch t.Mode() {
	case model.InputModeImageBased:
		sel.ImageCount = defaultImageCount
		sel.AvgPerImage = defaultAvgPerImage
	case model.InputModeDurationByObjects:
		sel.VideoDurationMinutes = defaultVideoDuration
		sel.VideoObjects = defaultVideoObjects
	}
	if len(t.LanguageTiers) > 0 {
		sel.LanguageTier = model.DefaultLanguageTier
	}

	next.order = append(next.order, t.ID)
	next.byType[t.ID] = sel
	return next
}

// Deselect removes the type and discards all of its sub-state, so a
// later re-selection starts from seed defaults again.
func (s SelectionState) Deselect(typeID string) SelectionState {
	if !s.Selected(typeID) {
		return s
	}
	next := s.clone()
	delete(next.byType, typeID)
	for i, id := range next.order {
		if id == typeID {
			next.order = append(next.order[:i], next.order[i+1:]...)
			break
		}
	}
	return next
}

// AdjustQuantity shifts the primary or alt quantity by delta, clamped
// to the field's floor. Unselected ids are a no-op.
func (s SelectionState) AdjustQuantity(typeID string, delta float64, isAlt bool) SelectionState {
	sel, ok := s.byType[typeID]
	if !ok {
		return s
	}
	if isAlt {
		sel.AltQuantity = max(minAltQuantity, sel.AltQuantity+delta)
	} else {
		sel.Quantity = max(minQuantity, sel.Quantity+delta)
	}
	next := s.clone()
	next.byType[typeID] = sel
	return next
}

// SetField sets one of the mode-specific numeric inputs, clamped to its
// floor. Unrecognized field names are a no-op.
func (s SelectionState) SetField(typeID, field string, value float64) SelectionState {
	sel, ok := s.byType[typeID]
	if !ok {
		return s
	}
	switch field {
	case FieldImageCount:
		sel.ImageCount = max(minImageCount, value)
	case FieldAvgPerImage:
		sel.AvgPerImage = max(minAvgPerImage, value)
	case FieldVideoDuration:
		sel.VideoDurationMinutes = max(minVideoDuration, value)
	case FieldVideoObjects:
		sel.VideoObjects = max(minVideoObjects, value)
	default:
		return s
	}
	next := s.clone()
	next.byType[typeID] = sel
	return next
}

// SetComplexityTier overwrites the complexity tier for a selected type.
func (s SelectionState) SetComplexityTier(typeID string, tier model.ComplexityTier) SelectionState {
	sel, ok := s.byType[typeID]
	if !ok {
		return s
	}
	sel.ComplexityTier = tier
	next := s.clone()
	next.byType[typeID] = sel
	return next
}

// SetLanguageTier overwrites the language tier for a selected type.
// The engine tolerates undeclared keys (multiplier falls back to 1.0),
// so no validation happens here.
func (s SelectionState) SetLanguageTier(typeID, tier string) SelectionState {
	sel, ok := s.byType[typeID]
	if !ok {
		return s
	}
	sel.LanguageTier = tier
	next := s.clone()
	next.byType[typeID] = sel
	return next
}
