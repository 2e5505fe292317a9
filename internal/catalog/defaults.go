// Package catalog loads annotation-type definitions from the store or
// from YAML files, and carries the shipped defaults used to seed an
// empty installation.
package catalog

import "github.com/deelab/costcalc/internal/model"

func ptr(v float64) *float64 { return &v }

// speechTiers is the language-group pricing shared by the audio types.
var speechTiers = map[string]model.LanguageTier{
	"tier1": {Name: "English", Multiplier: 1.0},
	"tier2": {Name: "Major European & Asian", Multiplier: 1.5},
	"tier3": {Name: "Rare & Specialized", Multiplier: 2.2},
}

// DefaultAnnotationTypes is the shipped service catalog. Seeded only
// into an empty store; afterwards the admin API owns the rows.
func DefaultAnnotationTypes() []model.AnnotationType {
	return []model.AnnotationType{
		{
			ID:          "image-classification",
			Name:        "Image Classification",
			Description: "Whole-image labels from a fixed taxonomy.",
			Rate:        0.03,
			Unit:        "per image",
			InputMode:   model.InputModeStandard,
			IsActive:    true,
		},
		{
			ID:           "bounding-box",
			Name:         "Bounding Boxes",
			Description:  "2D boxes around objects of interest.",
			Rate:         0.05,
			Unit:         "per annotation",
			AltRate:      ptr(36.0),
			AltUnit:      "per hour",
			IsImageBased: true,
			InputMode:    model.InputModeImageBased,
			IsActive:     true,
		},
		{
			ID:           "polygon-segmentation",
			Name:         "Polygon Segmentation",
			Description:  "Pixel-precise polygon outlines.",
			Rate:         0.12,
			Unit:         "per annotation",
			IsImageBased: true,
			InputMode:    model.InputModeImageBased,
			IsActive:     true,
		},
		{
			ID:          "video",
			Name:        "Video Object Tracking",
			Description: "Objects tracked across video frames.",
			Rate:        0.35,
			Unit:        "per object-minute",
			InputMode:   model.InputModeDurationByObjects,
			IsActive:    true,
		},
		{
			ID:            "audio-transcription",
			Name:          "Audio Transcription",
			Description:   "Verbatim speech-to-text with timestamps.",
			Rate:          1.10,
			Unit:          "per hour",
			InputMode:     model.InputModeHourlyBilledByMinute,
			LanguageTiers: speechTiers,
			IsActive:      true,
		},
		{
			ID:            "audio-labeling",
			Name:          "Audio Event Labeling",
			Description:   "Speaker turns and sound events on a timeline.",
			Rate:          0.80,
			Unit:          "per hour",
			InputMode:     model.InputModeHourlyBilledByMinute,
			LanguageTiers: speechTiers,
			IsActive:      true,
		},
		{
			ID:          "text-ner",
			Name:        "Named Entity Recognition",
			Description: "Entity spans tagged in text documents.",
			Rate:        0.08,
			Unit:        "per item",
			AltRate:     ptr(28.0),
			AltUnit:     "per hour",
			InputMode:   model.InputModeStandard,
			IsActive:    true,
		},
	}
}

// DefaultFAQItems is the shipped FAQ content.
func DefaultFAQItems() []model.FAQItem {
	return []model.FAQItem{
		{
			ID:       "faq-pricing-estimate",
			Question: "Is the calculated price final?",
			Answer:   "The calculator gives an instant estimate. Final pricing is confirmed after we review your dataset and requirements.",
			Category: "pricing",
			Order:    0,
			IsActive: true,
		},
		{
			ID:       "faq-pricing-volume",
			Question: "Do you offer volume discounts?",
			Answer:   "Yes. Projects above 100,000 units qualify for tiered volume pricing; submit a quote request and we will follow up with a discounted rate sheet.",
			Category: "pricing",
			Order:    1,
			IsActive: true,
		},
		{
			ID:       "faq-pricing-complex",
			Question: "What counts as a complex task?",
			Answer:   "Dense scenes, many classes, strict quality targets, or domain expertise requirements. Complex tasks carry a 25% surcharge.",
			Category: "pricing",
			Order:    2,
			IsActive: true,
		},
		{
			ID:       "faq-process-turnaround",
			Question: "How fast is turnaround?",
			Answer:   "Most projects start within 48 hours of quote approval. Throughput depends on task type and team size.",
			Category: "process",
			Order:    0,
			IsActive: true,
		},
		{
			ID:       "faq-process-quality",
			Question: "How is quality assured?",
			Answer:   "Every batch goes through a second-pass review. On request we add consensus labeling with per-item agreement scores.",
			Category: "process",
			Order:    1,
			IsActive: true,
		},
	}
}
