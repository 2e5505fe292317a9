package catalog

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/deelab/costcalc/internal/model"
)

// fileCatalog is the YAML wire form of a seedable catalog file.
type fileCatalog struct {
	Types []fileType `yaml:"types"`
	FAQ   []fileFAQ  `yaml:"faq"`
}

type fileType struct {
	ID            string              `yaml:"id"`
	Name          string              `yaml:"name"`
	Description   string              `yaml:"description"`
	Rate          float64             `yaml:"rate"`
	Unit          string              `yaml:"unit"`
	AltRate       *float64            `yaml:"alt_rate"`
	AltUnit       string              `yaml:"alt_unit"`
	IsImageBased  bool                `yaml:"is_image_based"`
	InputMode     string              `yaml:"input_mode"`
	LanguageTiers map[string]fileTier `yaml:"language_tiers"`
	IsActive      *bool               `yaml:"is_active"`
}

type fileTier struct {
	Name       string  `yaml:"name"`
	Multiplier float64 `yaml:"multiplier"`
}

type fileFAQ struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Category string `yaml:"category"`
	Order    int    `yaml:"order"`
	IsActive *bool  `yaml:"is_active"`
}

// LoadFile parses a YAML catalog file into annotation types and FAQ
// items. Types default to active unless the file says otherwise; a
// missing rate or unit is rejected up front rather than surfacing
// later as a computation failure.
func LoadFile(path string) ([]model.AnnotationType, []model.FAQItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, nil, eris.Wrapf(err, "catalog: parse %s", path)
	}

	types := make([]model.AnnotationType, 0, len(fc.Types))
	for _, ft := range fc.Types {
		if ft.ID == "" {
			return nil, nil, eris.Errorf("catalog: %s: type without id", path)
		}
		if ft.Rate <= 0 || ft.Unit == "" {
			return nil, nil, eris.Errorf("catalog: %s: type %s needs a positive rate and a unit", path, ft.ID)
		}
		if ft.AltRate != nil && ft.AltUnit == "" {
			return nil, nil, eris.Errorf("catalog: %s: type %s has alt_rate without alt_unit", path, ft.ID)
		}

		t := model.AnnotationType{
			ID:           ft.ID,
			Name:         ft.Name,
			Description:  ft.Description,
			Rate:         ft.Rate,
			Unit:         ft.Unit,
			AltRate:      ft.AltRate,
			AltUnit:      ft.AltUnit,
			IsImageBased: ft.IsImageBased,
			InputMode:    model.InputMode(ft.InputMode),
			IsActive:     ft.IsActive == nil || *ft.IsActive,
		}
		if len(ft.LanguageTiers) > 0 {
			t.LanguageTiers = make(map[string]model.LanguageTier, len(ft.LanguageTiers))
			for key, tier := range ft.LanguageTiers {
				t.LanguageTiers[key] = model.LanguageTier{Name: tier.Name, Multiplier: tier.Multiplier}
			}
		}
		types = append(types, t)
	}

	faq := make([]model.FAQItem, 0, len(fc.FAQ))
	for _, ff := range fc.FAQ {
		faq = append(faq, model.FAQItem{
			ID:       ff.ID,
			Question: ff.Question,
			Answer:   ff.Answer,
			Category: ff.Category,
			Order:    ff.Order,
			IsActive: ff.IsActive == nil || *ff.IsActive,
		})
	}

	return types, faq, nil
}
