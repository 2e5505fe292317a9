package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deelab/costcalc/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testAnnotationType(id string) model.AnnotationType {
	alt := 36.0
	return model.AnnotationType{
		ID:           id,
		Name:         "Bounding Boxes",
		Description:  "2D boxes around objects",
		Rate:         0.10,
		Unit:         "per annotation",
		AltRate:      &alt,
		AltUnit:      "per hour",
		IsImageBased: true,
		InputMode:    model.InputModeImageBased,
		LanguageTiers: map[string]model.LanguageTier{
			"tier1": {Name: "English", Multiplier: 1.0},
			"tier2": {Name: "European", Multiplier: 1.5},
		},
		IsActive: true,
	}
}

// --- Annotation types ---

func TestSQLite_AnnotationType_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertAnnotationType(ctx, testAnnotationType("bounding-box")))

	got, err := st.GetAnnotationType(ctx, "bounding-box")
	require.NoError(t, err)
	assert.Equal(t, "Bounding Boxes", got.Name)
	assert.InDelta(t, 0.10, got.Rate, 1e-9)
	require.NotNil(t, got.AltRate)
	assert.InDelta(t, 36.0, *got.AltRate, 1e-9)
	assert.Equal(t, model.InputModeImageBased, got.InputMode)
	assert.Len(t, got.LanguageTiers, 2)
	assert.InDelta(t, 1.5, got.LanguageTiers["tier2"].Multiplier, 1e-9)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_AnnotationType_UpsertUpdatesExisting(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	typ := testAnnotationType("bounding-box")
	require.NoError(t, st.UpsertAnnotationType(ctx, typ))

	typ.Rate = 0.15
	typ.AltRate = nil
	typ.AltUnit = ""
	require.NoError(t, st.UpsertAnnotationType(ctx, typ))

	got, err := st.GetAnnotationType(ctx, "bounding-box")
	require.NoError(t, err)
	assert.InDelta(t, 0.15, got.Rate, 1e-9)
	assert.Nil(t, got.AltRate)

	types, err := st.ListAnnotationTypes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestSQLite_AnnotationType_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetAnnotationType(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_AnnotationType_ListActiveOnly(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	active := testAnnotationType("bounding-box")
	inactive := testAnnotationType("polygon")
	inactive.IsActive = false
	require.NoError(t, st.UpsertAnnotationType(ctx, active))
	require.NoError(t, st.UpsertAnnotationType(ctx, inactive))

	all, err := st.ListAnnotationTypes(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := st.ListAnnotationTypes(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "bounding-box", onlyActive[0].ID)
}

func TestSQLite_AnnotationType_Toggle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertAnnotationType(ctx, testAnnotationType("bounding-box")))

	active, err := st.ToggleAnnotationType(ctx, "bounding-box")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = st.ToggleAnnotationType(ctx, "bounding-box")
	require.NoError(t, err)
	assert.True(t, active)

	_, err = st.ToggleAnnotationType(ctx, "nonexistent")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_AnnotationType_Delete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertAnnotationType(ctx, testAnnotationType("bounding-box")))
	require.NoError(t, st.DeleteAnnotationType(ctx, "bounding-box"))

	_, err := st.GetAnnotationType(ctx, "bounding-box")
	assert.True(t, eris.Is(err, ErrNotFound))

	err = st.DeleteAnnotationType(ctx, "bounding-box")
	assert.True(t, eris.Is(err, ErrNotFound))
}

// --- FAQ ---

func TestSQLite_FAQ_CRUDAndOrdering(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	items := []model.FAQItem{
		{ID: "f1", Question: "How fast?", Answer: "48 hours.", Category: "general", Order: 0, IsActive: true},
		{ID: "f2", Question: "Volume discounts?", Answer: "Yes.", Category: "pricing", Order: 0, IsActive: true},
		{ID: "f3", Question: "Minimum order?", Answer: "None.", Category: "pricing", Order: 1, IsActive: false},
	}
	for _, item := range items {
		require.NoError(t, st.UpsertFAQItem(ctx, item))
	}

	all, err := st.ListFAQItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"f1", "f2", "f3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	onlyActive, err := st.ListFAQItems(ctx, true)
	require.NoError(t, err)
	assert.Len(t, onlyActive, 2)

	// Reorder within the pricing category.
	require.NoError(t, st.ReorderFAQItems(ctx, []string{"f3", "f2"}))
	all, err = st.ListFAQItems(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "f3", all[1].ID)
	assert.Equal(t, "f2", all[2].ID)
}

func TestSQLite_FAQ_UpsertGeneratesID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertFAQItem(ctx, model.FAQItem{Question: "Q", Answer: "A", IsActive: true}))

	items, err := st.ListFAQItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
}

func TestSQLite_FAQ_ToggleAndDelete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertFAQItem(ctx, model.FAQItem{ID: "f1", Question: "Q", Answer: "A", IsActive: true}))

	active, err := st.ToggleFAQItem(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, st.DeleteFAQItem(ctx, "f1"))
	err = st.DeleteFAQItem(ctx, "f1")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_FAQ_ReorderUnknownIDRollsBack(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertFAQItem(ctx, model.FAQItem{ID: "f1", Question: "Q", Answer: "A", Order: 5, IsActive: true}))

	err := st.ReorderFAQItems(ctx, []string{"f1", "ghost"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))

	items, err := st.ListFAQItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Order) // rolled back
}

// --- Settings ---

func TestSQLite_Settings_SetGetOverwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	got, err := st.GetSetting(ctx, "contact_settings")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, st.SetSetting(ctx, "contact_settings", []byte(`{"email":"sales@deelab.io"}`)))
	got, err = st.GetSetting(ctx, "contact_settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"sales@deelab.io"}`, string(got))

	require.NoError(t, st.SetSetting(ctx, "contact_settings", []byte(`{"email":"hello@deelab.io"}`)))
	got, err = st.GetSetting(ctx, "contact_settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"hello@deelab.io"}`, string(got))
}

// --- Quote requests ---

func testQuote(name, email string) model.QuoteRequest {
	return model.QuoteRequest{
		Name:    name,
		Email:   email,
		Company: "Acme Corp",
		Message: "Need 10k images labeled",
		SelectedTypes: []model.SelectedTypeSnapshot{
			{ID: "bounding-box", Name: "Bounding Boxes", Quantity: 600, Cost: 60},
		},
		TotalCost: 60,
	}
}

func TestSQLite_Quote_CreateAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateQuote(ctx, testQuote("Jordan", "jordan@acme.test"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.QuoteStatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := st.GetQuote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jordan", got.Name)
	require.Len(t, got.SelectedTypes, 1)
	assert.Equal(t, "bounding-box", got.SelectedTypes[0].ID)
	assert.InDelta(t, 60, got.TotalCost, 1e-9)
}

func TestSQLite_Quote_ListFilterAndPaginate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateQuote(ctx, testQuote("Jordan", "jordan@acme.test"))
	require.NoError(t, err)
	_, err = st.CreateQuote(ctx, testQuote("Sam", "sam@other.test"))
	require.NoError(t, err)

	all, err := st.ListQuotes(ctx, QuoteFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := st.ListQuotes(ctx, QuoteFilter{Search: "JORDAN"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Jordan", matched[0].Name)

	limited, err := st.ListQuotes(ctx, QuoteFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := st.ListQuotes(ctx, QuoteFilter{Since: time.Now().UTC().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_Quote_Delete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateQuote(ctx, testQuote("Jordan", "jordan@acme.test"))
	require.NoError(t, err)

	require.NoError(t, st.DeleteQuote(ctx, created.ID))
	_, err = st.GetQuote(ctx, created.ID)
	assert.True(t, eris.Is(err, ErrNotFound))
}

// --- Seed ---

func TestSQLite_Seed_OnlyIntoEmptyTables(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	types := []model.AnnotationType{testAnnotationType("bounding-box")}
	faq := []model.FAQItem{{ID: "f1", Question: "Q", Answer: "A", IsActive: true}}

	require.NoError(t, st.Seed(ctx, types, faq))

	seeded, err := st.ListAnnotationTypes(ctx, false)
	require.NoError(t, err)
	require.Len(t, seeded, 1)

	// Admin edits the seeded row; a second seed must not clobber it.
	edited := seeded[0]
	edited.Rate = 0.99
	require.NoError(t, st.UpsertAnnotationType(ctx, edited))

	require.NoError(t, st.Seed(ctx, types, faq))
	got, err := st.GetAnnotationType(ctx, "bounding-box")
	require.NoError(t, err)
	assert.InDelta(t, 0.99, got.Rate, 1e-9)
}
