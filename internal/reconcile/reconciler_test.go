package reconcile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// passthroughTx applies closures directly; savepoint isolation is the
// storage engine's job and is not under test here.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) WithinSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCatalog struct {
	brands  map[string]*entity.Brand // keyed by lowercased name
	entries map[uuid.UUID]*entity.CatalogEntry
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		brands:  map[string]*entity.Brand{},
		entries: map[uuid.UUID]*entity.CatalogEntry{},
	}
}

func (f *fakeCatalog) SearchBySimilarity(context.Context, string, float64, int) ([]entity.SimilarityHit, error) {
	panic("not used by reconciler")
}

func (f *fakeCatalog) GetEntriesByIDs(context.Context, []uuid.UUID) (map[uuid.UUID]*entity.CatalogEntry, error) {
	panic("not used by reconciler")
}

func (f *fakeCatalog) FindBrandByName(_ context.Context, name string) (*entity.Brand, error) {
	if b, ok := f.brands[strings.ToLower(name)]; ok {
		return b, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalog) CreateBrand(_ context.Context, name string) (*entity.Brand, error) {
	b := &entity.Brand{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	f.brands[strings.ToLower(name)] = b
	return b, nil
}

func (f *fakeCatalog) CreateEntry(_ context.Context, e *entity.CatalogEntry) (*entity.CatalogEntry, error) {
	e.ID = uuid.New()
	f.entries[e.ID] = e
	return e, nil
}

type fakeCollection struct {
	humidors map[uuid.UUID]*entity.Humidor
	lines    map[uuid.UUID]*entity.HumidorLine
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{
		humidors: map[uuid.UUID]*entity.Humidor{},
		lines:    map[uuid.UUID]*entity.HumidorLine{},
	}
}

func (f *fakeCollection) FindHumidor(_ context.Context, id, ownerID uuid.UUID) (*entity.Humidor, error) {
	h, ok := f.humidors[id]
	if !ok || h.UserID != ownerID {
		return nil, common.ErrNotFound
	}
	return h, nil
}

func (f *fakeCollection) FindLine(_ context.Context, humidorID, entryID uuid.UUID) (*entity.HumidorLine, error) {
	for _, l := range f.lines {
		if l.HumidorID == humidorID && l.EntryID == entryID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeCollection) CreateLine(_ context.Context, line *entity.HumidorLine) (*entity.HumidorLine, error) {
	line.ID = uuid.New()
	f.lines[line.ID] = line
	return line, nil
}

func (f *fakeCollection) UpdateLine(_ context.Context, line *entity.HumidorLine) error {
	if _, ok := f.lines[line.ID]; !ok {
		return common.ErrNotFound
	}
	f.lines[line.ID] = line
	return nil
}

func newTestReconciler(catalog *fakeCatalog, collection *fakeCollection) *Reconciler {
	return NewReconciler(passthroughTx{}, catalog, collection, nil, nil)
}

func TestConfirmImportNewWithInventoryAddition(t *testing.T) {
	catalog := newFakeCatalog()
	collection := newFakeCollection()
	userID := uuid.New()
	humidorID := uuid.New()
	collection.humidors[humidorID] = &entity.Humidor{ID: humidorID, UserID: userID, Name: "Desktop"}

	r := newTestReconciler(catalog, collection)
	res, err := r.ConfirmImport(context.Background(), userID, []entity.Selection{
		{
			Kind:         entity.SelectionNew,
			Record:       entity.ImportRecord{Brand: "Acme", Name: "Robusto"},
			AddToHumidor: true,
			HumidorID:    &humidorID,
		},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Matched)
	assert.Equal(t, 1, res.AddedToHumidor)
	assert.Empty(t, res.Errors)

	require.Len(t, catalog.brands, 1)
	require.Len(t, catalog.entries, 1)
	require.Len(t, collection.lines, 1)
	for _, line := range collection.lines {
		assert.Equal(t, 1, line.Quantity)
		assert.Equal(t, humidorID, line.HumidorID)
		assert.Equal(t, 0.0, line.PurchasePrice)
		assert.False(t, line.PurchaseDate.IsZero())
	}
}

func TestConfirmImportReusesBrandCaseInsensitively(t *testing.T) {
	catalog := newFakeCatalog()
	existing, err := catalog.CreateBrand(context.Background(), "Acme")
	require.NoError(t, err)

	r := newTestReconciler(catalog, newFakeCollection())
	res, err := r.ConfirmImport(context.Background(), uuid.New(), []entity.Selection{
		{Kind: entity.SelectionNew, Record: entity.ImportRecord{Brand: "ACME", Name: "Toro"}},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Created)
	require.Len(t, catalog.brands, 1)
	for _, e := range catalog.entries {
		assert.Equal(t, existing.ID, e.BrandID)
	}
}

func TestConfirmImportMergeSumsQuantity(t *testing.T) {
	catalog := newFakeCatalog()
	collection := newFakeCollection()
	userID := uuid.New()
	humidorID := uuid.New()
	entryID := uuid.New()
	collection.humidors[humidorID] = &entity.Humidor{ID: humidorID, UserID: userID}

	lineID := uuid.New()
	prior := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	loc := "Old Shop"
	collection.lines[lineID] = &entity.HumidorLine{
		ID: lineID, HumidorID: humidorID, EntryID: entryID,
		Quantity: 3, PurchasePrice: 8.50, PurchaseDate: prior, PurchaseLocation: &loc,
	}

	r := newTestReconciler(catalog, collection)
	sel := entity.Selection{
		Kind:         entity.SelectionExact,
		Record:       entity.ImportRecord{Brand: "Acme", Name: "Robusto", Quantity: 2},
		EntryID:      &entryID,
		AddToHumidor: true,
		HumidorID:    &humidorID,
	}

	res, err := r.ConfirmImport(context.Background(), userID, []entity.Selection{sel})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.AddedToHumidor)

	line := collection.lines[lineID]
	assert.Equal(t, 5, line.Quantity, "merge adds, never overwrites")
	assert.Equal(t, 8.50, line.PurchasePrice, "absent optionals keep prior values")
	assert.Equal(t, prior, line.PurchaseDate)
	require.NotNil(t, line.PurchaseLocation)
	assert.Equal(t, "Old Shop", *line.PurchaseLocation)

	// confirming again keeps summing
	res, err = r.ConfirmImport(context.Background(), userID, []entity.Selection{sel})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 7, collection.lines[lineID].Quantity)
}

func TestConfirmImportMergeOverwritesPresentOptionals(t *testing.T) {
	collection := newFakeCollection()
	userID := uuid.New()
	humidorID := uuid.New()
	entryID := uuid.New()
	collection.humidors[humidorID] = &entity.Humidor{ID: humidorID, UserID: userID}

	lineID := uuid.New()
	collection.lines[lineID] = &entity.HumidorLine{
		ID: lineID, HumidorID: humidorID, EntryID: entryID,
		Quantity: 1, PurchasePrice: 8.50,
	}

	price := 12.0
	when := time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)
	r := newTestReconciler(newFakeCatalog(), collection)
	res, err := r.ConfirmImport(context.Background(), userID, []entity.Selection{
		{
			Kind: entity.SelectionPossible,
			Record: entity.ImportRecord{
				Brand: "Acme", Name: "Robusto", Quantity: 1,
				PurchasePrice: &price, PurchaseDate: &when, Notes: "gift box",
			},
			EntryID:      &entryID,
			AddToHumidor: true,
			HumidorID:    &humidorID,
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	line := collection.lines[lineID]
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 12.0, line.PurchasePrice)
	assert.Equal(t, when, line.PurchaseDate)
	require.NotNil(t, line.Notes)
	assert.Equal(t, "gift box", *line.Notes)
}

func TestConfirmImportPartialSuccess(t *testing.T) {
	catalog := newFakeCatalog()
	collection := newFakeCollection()
	userID := uuid.New()
	otherUser := uuid.New()
	theirHumidor := uuid.New()
	collection.humidors[theirHumidor] = &entity.Humidor{ID: theirHumidor, UserID: otherUser}

	r := newTestReconciler(catalog, collection)
	res, err := r.ConfirmImport(context.Background(), userID, []entity.Selection{
		{Kind: entity.SelectionNew, Record: entity.ImportRecord{Brand: "Acme", Name: "Toro"}},
		{
			Kind:         entity.SelectionNew,
			Record:       entity.ImportRecord{Brand: "Acme", Name: "Robusto"},
			AddToHumidor: true,
			HumidorID:    &theirHumidor,
		},
		{Kind: entity.SelectionKind("bogus")},
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.AddedToHumidor)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Contains(t, res.Errors[0].Message, "not owned")
	assert.Equal(t, 2, res.Errors[1].Index)
	assert.Contains(t, res.Errors[1].Message, "unknown selection kind")
}

func TestConfirmImportExactRequiresEntryID(t *testing.T) {
	r := newTestReconciler(newFakeCatalog(), newFakeCollection())
	res, err := r.ConfirmImport(context.Background(), uuid.New(), []entity.Selection{
		{Kind: entity.SelectionExact, Record: entity.ImportRecord{Brand: "Acme", Name: "Toro"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "entry_id")
}

type recordingNotifier struct {
	entries int
	lines   int
}

func (n *recordingNotifier) EntryCreated(context.Context, uuid.UUID, *entity.CatalogEntry) {
	n.entries++
}

func (n *recordingNotifier) LineAdded(context.Context, uuid.UUID, *entity.HumidorLine) {
	n.lines++
}

func TestConfirmImportNotifiesAfterCommit(t *testing.T) {
	catalog := newFakeCatalog()
	collection := newFakeCollection()
	userID := uuid.New()
	humidorID := uuid.New()
	collection.humidors[humidorID] = &entity.Humidor{ID: humidorID, UserID: userID}

	n := &recordingNotifier{}
	r := NewReconciler(passthroughTx{}, catalog, collection, n, nil)
	_, err := r.ConfirmImport(context.Background(), userID, []entity.Selection{
		{
			Kind:         entity.SelectionNew,
			Record:       entity.ImportRecord{Brand: "Acme", Name: "Robusto"},
			AddToHumidor: true,
			HumidorID:    &humidorID,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n.entries)
	assert.Equal(t, 1, n.lines)
}
