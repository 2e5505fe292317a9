package pricing

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/deelab/costcalc/internal/model"
)

// minutesPerHour converts the hourly-billed-by-minute display quantity
// (hours) into the billed quantity (minutes). Audio catalog entries
// declare an hourly unit but price per minute; the double conversion is
// load-bearing for existing catalog data and must not be simplified.
const minutesPerHour = 60.0

// LineItem is one row of the cost breakdown for a selected type.
// Costs are full precision; rounding to cents is a presentation
// concern, applied only at display and export time.
type LineItem struct {
	Type              model.AnnotationType `json:"type"`
	EffectiveQuantity float64              `json:"effective_quantity"`
	AltQuantity       float64              `json:"alt_quantity"`
	Cost              float64              `json:"cost"`
	CalculationLabel  string               `json:"calculation"`
}

// CatalogIntegrityError reports a selected type whose required pricing
// fields are unusable. It fails the whole computation call; the caller
// decides whether to drop the offending id and retry.
type CatalogIntegrityError struct {
	TypeID string
	Reason string
}

func (e *CatalogIntegrityError) Error() string {
	return fmt.Sprintf("catalog integrity: type %q: %s", e.TypeID, e.Reason)
}

// labelPrinter renders quantities with grouped thousands, matching the
// locale formatting the calculator page has always shown.
var labelPrinter = message.NewPrinter(language.English)

func formatQuantity(v float64) string {
	return labelPrinter.Sprint(number.Decimal(v))
}

func checkIntegrity(t model.AnnotationType) error {
	if math.IsNaN(t.Rate) || math.IsInf(t.Rate, 0) || t.Rate < 0 {
		return &CatalogIntegrityError{TypeID: t.ID, Reason: fmt.Sprintf("rate %v is not a usable price", t.Rate)}
	}
	if t.Unit == "" {
		return &CatalogIntegrityError{TypeID: t.ID, Reason: "unit is empty"}
	}
	return nil
}

// ComputeLineItem prices one selected type from its sub-state.
func ComputeLineItem(t model.AnnotationType, sel TypeSelection) (LineItem, error) {
	if err := checkIntegrity(t); err != nil {
		return LineItem{}, err
	}

	mode := t.Mode()

	var baseQuantity float64
	var label string
	switch mode {
	case model.InputModeImageBased:
		baseQuantity = sel.ImageCount * sel.AvgPerImage
		label = fmt.Sprintf("%s images × %s avg/image = %s total",
			formatQuantity(sel.ImageCount), formatQuantity(sel.AvgPerImage), formatQuantity(baseQuantity))
	case model.InputModeDurationByObjects:
		baseQuantity = sel.VideoDurationMinutes * sel.VideoObjects
		label = fmt.Sprintf("%s minutes × %s objects = %s object-minutes",
			formatQuantity(sel.VideoDurationMinutes), formatQuantity(sel.VideoObjects), formatQuantity(baseQuantity))
	default:
		baseQuantity = sel.Quantity
		// Standard labels keep a fixed single decimal; locale grouping
		// is only for the derived image and video totals above.
		label = fmt.Sprintf("%.1f %s%s", baseQuantity, strings.TrimPrefix(t.Unit, "per "), plural(baseQuantity))
	}

	// Hourly catalog entries bill per minute: scale up for the cost,
	// scale back down for display.
	billedQuantity := baseQuantity
	if mode == model.InputModeHourlyBilledByMinute {
		billedQuantity = baseQuantity * minutesPerHour
	}

	primaryCost := billedQuantity * t.Rate
	altCost := sel.AltQuantity * t.AltRateValue()
	baseCost := primaryCost + altCost

	cost := baseCost * sel.ComplexityTier.Multiplier() * t.LanguageMultiplier(sel.LanguageTier)

	displayQuantity := billedQuantity
	if mode == model.InputModeHourlyBilledByMinute {
		displayQuantity = billedQuantity / minutesPerHour
	}

	return LineItem{
		Type:              t,
		EffectiveQuantity: displayQuantity,
		AltQuantity:       sel.AltQuantity,
		Cost:              cost,
		CalculationLabel:  label,
	}, nil
}

func plural(v float64) string {
	if v != 1 {
		return "s"
	}
	return ""
}

// ComputeBreakdown prices every selected type, in selection order.
// Ids no longer present in the catalog are silently skipped; the
// catalog may have changed since the type was selected.
func ComputeBreakdown(types []model.AnnotationType, state SelectionState) ([]LineItem, error) {
	byID := make(map[string]model.AnnotationType, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}

	items := make([]LineItem, 0, state.Len())
	for _, id := range state.SelectedIDs() {
		t, ok := byID[id]
		if !ok {
			continue
		}
		sel, _ := state.Selection(id)
		item, err := ComputeLineItem(t, sel)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ComputeTotal sums the breakdown. An empty selection totals zero.
func ComputeTotal(types []model.AnnotationType, state SelectionState) (float64, error) {
	items, err := ComputeBreakdown(types, state)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += item.Cost
	}
	return total, nil
}
