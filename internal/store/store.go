package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/deelab/costcalc/internal/model"
)

// ErrNotFound is returned when a lookup, update, or delete targets an
// id that does not exist. Check with eris.Is.
var ErrNotFound = eris.New("not found")

// QuoteFilter specifies criteria for listing quote requests.
type QuoteFilter struct {
	// Search matches against name, email, and company, case-insensitive.
	Search string    `json:"search,omitempty"`
	Since  time.Time `json:"since,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for the calculator backend.
type Store interface {
	// Annotation types
	ListAnnotationTypes(ctx context.Context, activeOnly bool) ([]model.AnnotationType, error)
	GetAnnotationType(ctx context.Context, id string) (*model.AnnotationType, error)
	UpsertAnnotationType(ctx context.Context, t model.AnnotationType) error
	ToggleAnnotationType(ctx context.Context, id string) (bool, error)
	DeleteAnnotationType(ctx context.Context, id string) error

	// FAQ
	ListFAQItems(ctx context.Context, activeOnly bool) ([]model.FAQItem, error)
	UpsertFAQItem(ctx context.Context, item model.FAQItem) error
	ToggleFAQItem(ctx context.Context, id string) (bool, error)
	DeleteFAQItem(ctx context.Context, id string) error
	ReorderFAQItems(ctx context.Context, ids []string) error

	// Settings are opaque JSON blobs keyed by name. GetSetting returns
	// nil (no error) when the key has never been written.
	GetSetting(ctx context.Context, key string) ([]byte, error)
	SetSetting(ctx context.Context, key string, value []byte) error

	// Quote requests
	CreateQuote(ctx context.Context, q model.QuoteRequest) (*model.QuoteRequest, error)
	GetQuote(ctx context.Context, id string) (*model.QuoteRequest, error)
	ListQuotes(ctx context.Context, filter QuoteFilter) ([]model.QuoteRequest, error)
	DeleteQuote(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, types []model.AnnotationType, faq []model.FAQItem) error
	Close() error
}
