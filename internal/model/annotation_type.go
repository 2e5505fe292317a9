package model

import (
	"strings"
	"time"
)

// InputMode selects how a type's billable quantity is derived from user
// input. Stored explicitly on the catalog row; legacy rows that predate
// the column fall back to naming-convention detection (see Mode).
type InputMode string

const (
	// InputModeStandard bills a plain quantity of the primary unit.
	InputModeStandard InputMode = "standard"
	// InputModeImageBased bills imageCount × avgPerImage.
	InputModeImageBased InputMode = "image-based"
	// InputModeDurationByObjects bills videoDurationMinutes × videoObjects.
	InputModeDurationByObjects InputMode = "duration-by-objects"
	// InputModeHourlyBilledByMinute takes the quantity in hours but bills
	// per minute (quantity × 60 at the declared per-minute rate).
	InputModeHourlyBilledByMinute InputMode = "hourly-billed-by-minute"
)

// ComplexityTier is the per-selection complexity bucket.
type ComplexityTier string

const (
	ComplexityStandard ComplexityTier = "standard"
	ComplexityComplex  ComplexityTier = "complex"
)

// Multiplier returns the cost multiplier for the tier. Anything other
// than the complex tier prices at 1.0.
func (c ComplexityTier) Multiplier() float64 {
	if c == ComplexityComplex {
		return 1.25
	}
	return 1.0
}

// DefaultLanguageTier is the tier seeded when a type declares language
// tiers and the user has not picked one.
const DefaultLanguageTier = "tier1"

// LanguageTier is one bucket of a type's language-group pricing.
type LanguageTier struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// AnnotationType is one sellable data-labeling service definition.
type AnnotationType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Rate is the cost per primary Unit ("per image", "per minute", ...).
	Rate float64 `json:"rate"`
	Unit string  `json:"unit"`

	// AltRate/AltUnit form a second pricing dimension billed in parallel
	// with the primary one (e.g. hourly QA time alongside per-image cost).
	// AltUnit must be set whenever AltRate is.
	AltRate *float64 `json:"alt_rate,omitempty"`
	AltUnit string   `json:"alt_unit,omitempty"`

	IsImageBased bool      `json:"is_image_based"`
	InputMode    InputMode `json:"input_mode,omitempty"`

	// LanguageTiers maps tier keys (tier1..tier3) to named multipliers.
	LanguageTiers map[string]LanguageTier `json:"language_tiers,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Mode returns the effective input mode. An explicit InputMode wins;
// otherwise the mode is derived from the legacy catalog signals, in the
// same precedence order the calculator has always used: the image-based
// flag, then the literal "video" id, then the "audio-" id prefix.
func (t AnnotationType) Mode() InputMode {
	if t.InputMode != "" {
		return t.InputMode
	}
	switch {
	case t.IsImageBased:
		return InputModeImageBased
	case t.ID == "video":
		return InputModeDurationByObjects
	case strings.HasPrefix(t.ID, "audio-"):
		return InputModeHourlyBilledByMinute
	default:
		return InputModeStandard
	}
}

// LanguageMultiplier resolves the multiplier for a tier key. Types
// without language tiers, and unknown tier keys, price at 1.0; a
// missing tier never fails a computation.
func (t AnnotationType) LanguageMultiplier(tier string) float64 {
	if len(t.LanguageTiers) == 0 {
		return 1.0
	}
	if tier == "" {
		tier = DefaultLanguageTier
	}
	lt, ok := t.LanguageTiers[tier]
	if !ok {
		return 1.0
	}
	return lt.Multiplier
}

// AltRateValue returns the alt rate, or 0 when the type has no alt
// pricing dimension.
func (t AnnotationType) AltRateValue() float64 {
	if t.AltRate == nil {
		return 0
	}
	return *t.AltRate
}
