package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
)

type memoryCatalog struct {
	mu        sync.Mutex
	products  []products.Product
	listErr   error
	upsertErr error
	upserts   int
}

func (c *memoryCatalog) List(context.Context) ([]products.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]products.Product, len(c.products))
	copy(out, c.products)
	return out, nil
}

func (c *memoryCatalog) UpsertAll(_ context.Context, batch []products.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.upserts++
	c.products = append(c.products, batch...)
	return nil
}

type memoryUnits []units.Unit

func (u memoryUnits) List(context.Context) ([]units.Unit, error) { return u, nil }

type recordingRecorder struct {
	mu         sync.Mutex
	outcomes   []string
	candidates int
}

func (r *recordingRecorder) ObserveImport(source, outcome string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, source+":"+outcome)
}

func (r *recordingRecorder) ObserveCandidates(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates += n
}

type failingRecords struct{ err error }

func (f failingRecords) ReadRecords(context.Context) ([]ImportRecord, error) { return nil, f.err }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestService(catalog *memoryCatalog, rec *recordingRecorder) *Service {
	return NewService(catalog, memoryUnits{{ID: "u1", Name: "Kg"}, {ID: "u2", Name: "Box"}}, nil, rec, ServiceConfig{
		NewID:   sequentialIDs("id"),
		NewCode: func() string { return "AUTO-7" },
		Now:     func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
}

func riceCatalog() *memoryCatalog {
	return &memoryCatalog{products: []products.Product{
		{ID: "p1", Code: "P-001", Name: "Rice", UnitID: "u1", Price: "10", CostPrice: "8"},
		{ID: "p2", Code: "M-1", Name: "Milk", UnitID: "u2", Price: "2", CostPrice: "1"},
	}}
}

func TestRunTabularImportUnmatchedRowKeepsScannedValues(t *testing.T) {
	svc := newTestService(&memoryCatalog{}, &recordingRecorder{})
	records := Records{NewImportRecord(
		Field{Header: "Item Name", Value: "Sugar"},
		Field{Header: "Qty", Value: "5"},
	)}

	grid, err := svc.RunTabularImport(context.Background(), []ListRow{{ID: "old-blank"}}, records)
	require.NoError(t, err)
	require.Len(t, grid, 2)

	row := grid[0]
	require.Equal(t, "Sugar", row.Name)
	require.Equal(t, Qty(5), row.Qty)
	require.Empty(t, row.Code)
	require.Empty(t, row.UnitID)
	require.True(t, grid[1].IsBlank())
}

func TestRunTabularImportCodeMatchUsesCatalog(t *testing.T) {
	rec := &recordingRecorder{}
	svc := newTestService(riceCatalog(), rec)
	records := Records{NewImportRecord(
		Field{Header: "Code", Value: "P-001"},
		Field{Header: "Name", Value: "wrong name"},
	)}

	grid, err := svc.RunTabularImport(context.Background(), nil, records)
	require.NoError(t, err)
	require.Equal(t, "P-001", grid[0].Code)
	require.Equal(t, "Rice", grid[0].Name)
	require.Equal(t, "u1", grid[0].UnitID)
	require.Equal(t, []string{"tabular:merged"}, rec.outcomes)
}

func TestRunTabularImportKeepsUnknownCode(t *testing.T) {
	svc := newTestService(riceCatalog(), &recordingRecorder{})
	records := Records{NewImportRecord(
		Field{Header: "Code", Value: "X-9"},
		Field{Header: "Name", Value: "rice"},
		Field{Header: "Unit", Value: "Box"},
	)}

	grid, err := svc.RunTabularImport(context.Background(), nil, records)
	require.NoError(t, err)
	require.Equal(t, "X-9", grid[0].Code)
	require.Equal(t, "rice", grid[0].Name)
	require.Equal(t, "u2", grid[0].UnitID)
}

func TestRunAIImportUnknownCodeStillMatchesByName(t *testing.T) {
	svc := newTestService(riceCatalog(), &recordingRecorder{})

	result, err := svc.RunAIImport(context.Background(), nil, Items{{Code: "X-9", Name: "rice"}})
	require.NoError(t, err)
	require.Nil(t, result.Pending)
	require.Equal(t, "P-001", result.Grid[0].Code)
	require.Equal(t, "Rice", result.Grid[0].Name)
	require.Equal(t, "u1", result.Grid[0].UnitID)
}

func TestRunTabularImportNeverMintsProducts(t *testing.T) {
	catalog := riceCatalog()
	svc := newTestService(catalog, &recordingRecorder{})
	records := Records{
		NewImportRecord(Field{Header: "Name", Value: "milk"}),
		NewImportRecord(Field{Header: "Name", Value: "Caviar"}, Field{Header: "Unit", Value: "Kg"}),
		NewImportRecord(Field{Header: "Qty", Value: "abc"}, Field{Header: "Expiry", Value: "2025-12-31T00:00:00.000Z"}),
	}

	grid, err := svc.RunTabularImport(context.Background(), nil, records)
	require.NoError(t, err)
	require.Len(t, grid, 4)

	require.Equal(t, "M-1", grid[0].Code, "exact case-insensitive name hit fills the catalog code")
	require.Equal(t, "Milk", grid[0].Name)
	require.Equal(t, "Caviar", grid[1].Name)
	require.Equal(t, "u1", grid[1].UnitID)
	require.Equal(t, TabularNameFallback, grid[2].Name)
	require.False(t, grid[2].Qty.Valid)
	require.Equal(t, "2025-12-31", grid[2].ExpiryDate)
	require.Equal(t, 0, catalog.upserts)
}

func TestRunTabularImportEmptySourceLeavesGrid(t *testing.T) {
	rec := &recordingRecorder{}
	svc := newTestService(riceCatalog(), rec)
	grid := []ListRow{{ID: "a", Name: "Apple"}, {ID: "b"}}

	got, err := svc.RunTabularImport(context.Background(), grid, Records{})
	require.ErrorIs(t, err, ErrEmptySource)
	require.Equal(t, grid, got)
	require.Equal(t, []string{"tabular:empty"}, rec.outcomes)
}

func TestRunTabularImportPropagatesReadAndCatalogErrors(t *testing.T) {
	boom := errors.New("disk gone")
	svc := newTestService(riceCatalog(), &recordingRecorder{})
	_, err := svc.RunTabularImport(context.Background(), nil, failingRecords{err: boom})
	require.ErrorIs(t, err, boom)

	catalog := riceCatalog()
	catalog.listErr = errors.New("db down")
	svc = newTestService(catalog, &recordingRecorder{})
	_, err = svc.RunTabularImport(context.Background(), nil, Records{NewImportRecord(Field{Header: "Name", Value: "Tea"})})
	require.ErrorIs(t, err, catalog.listErr)
}

func TestRunAIImportDeduplicatesCandidates(t *testing.T) {
	rec := &recordingRecorder{}
	svc := newTestService(&memoryCatalog{}, rec)
	items := Items{
		{Name: "Milk", Qty: "1", Unit: "Box"},
		{Name: "Milk", Qty: 2.0},
		{Name: nil, Price: "4"},
	}
	grid := []ListRow{{ID: "g1", Name: "Existing"}, {ID: "g2"}}

	result, err := svc.RunAIImport(context.Background(), grid, items)
	require.NoError(t, err)
	require.Equal(t, grid, result.Grid, "grid is untouched while awaiting confirmation")
	require.NotNil(t, result.Pending)

	pending := result.Pending
	require.Equal(t, StateAwaitingConfirmation, pending.State)
	require.Equal(t, SourceAI, pending.Source)
	require.Len(t, pending.Candidates, 1)
	require.Equal(t, "Milk", pending.Candidates[0].Name)
	require.Equal(t, "AUTO-7", pending.Candidates[0].Code)
	require.Equal(t, "u2", pending.Candidates[0].UnitID)
	require.Equal(t, "0", pending.Candidates[0].Price)
	require.True(t, pending.Selected.Has(pending.Candidates[0].ID))

	require.Len(t, pending.Rows, 3)
	require.Equal(t, "Milk", pending.Rows[0].Name)
	require.Equal(t, "Milk", pending.Rows[1].Name)
	require.Equal(t, AINameFallback, pending.Rows[2].Name)
	require.Empty(t, pending.Rows[0].Code, "unmatched rows keep the extracted code")
	require.Equal(t, []string{"ai:awaiting_confirmation"}, rec.outcomes)
}

func TestRunAIImportWithoutCandidatesMergesImmediately(t *testing.T) {
	svc := newTestService(riceCatalog(), &recordingRecorder{})
	items := Items{{Name: "Fresh MILK 1L", Qty: "2"}, {Code: "P-001", Name: "Beras"}}

	result, err := svc.RunAIImport(context.Background(), nil, items)
	require.NoError(t, err)
	require.Nil(t, result.Pending)
	require.Len(t, result.Grid, 3)
	require.Equal(t, "Milk", result.Grid[0].Name)
	require.Equal(t, "M-1", result.Grid[0].Code)
	require.Equal(t, "Rice", result.Grid[1].Name)
	require.True(t, result.Grid[2].IsBlank())
}

func TestRunAIImportEmptyExtraction(t *testing.T) {
	svc := newTestService(riceCatalog(), &recordingRecorder{})
	_, err := svc.RunAIImport(context.Background(), nil, Items{})
	require.ErrorIs(t, err, ErrEmptySource)
}

func TestConfirmCandidatesRejectAllStillMergesRows(t *testing.T) {
	catalog := &memoryCatalog{}
	svc := newTestService(catalog, &recordingRecorder{})
	result, err := svc.RunAIImport(context.Background(), nil, Items{{Name: "Milk"}, {Name: "Tea"}})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmCandidates(context.Background(), *result.Pending, result.Grid, NewSelection("stale-id"), true)
	require.NoError(t, err)
	require.Zero(t, confirmed.Selected.Len(), "ids outside the pending candidates are dropped")
	require.Empty(t, catalog.products)
	require.Equal(t, 0, catalog.upserts)
	require.Empty(t, confirmed.Persisted)
	require.Len(t, confirmed.Grid, 3)
	require.Equal(t, "Milk", confirmed.Grid[0].Name)
	require.Equal(t, "Tea", confirmed.Grid[1].Name)
}

func TestConfirmCandidatesPersistsSelectedWithTentativeIDs(t *testing.T) {
	catalog := &memoryCatalog{}
	rec := &recordingRecorder{}
	svc := newTestService(catalog, rec)
	result, err := svc.RunAIImport(context.Background(), nil, Items{{Name: "Milk", Price: "2.50"}, {Name: "Tea"}})
	require.NoError(t, err)
	pending := *result.Pending
	milk := pending.Candidates[0]

	selection := pending.Selected.Without(pending.Candidates[1].ID)
	confirmed, err := svc.ConfirmCandidates(context.Background(), pending, result.Grid, selection, true)
	require.NoError(t, err)

	require.Equal(t, []Candidate{milk}, confirmed.Persisted)
	require.Equal(t, []string{milk.ID}, confirmed.Selected.IDs())
	require.Len(t, catalog.products, 1)
	require.Equal(t, milk.ID, catalog.products[0].ID)
	require.Equal(t, "2.50", catalog.products[0].Price)
	require.Equal(t, "0", catalog.products[0].CostPrice)
	require.Equal(t, 1, rec.candidates)
}

func TestConfirmCandidatesWithoutPersistLeavesCatalog(t *testing.T) {
	catalog := &memoryCatalog{}
	svc := newTestService(catalog, &recordingRecorder{})
	result, err := svc.RunAIImport(context.Background(), nil, Items{{Name: "Milk"}})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmCandidates(context.Background(), *result.Pending, nil, result.Pending.Selected, false)
	require.NoError(t, err)
	require.Empty(t, catalog.products)
	require.Len(t, confirmed.Grid, 2)
}

func TestConfirmCandidatesPersistenceFailureAbortsMerge(t *testing.T) {
	catalog := &memoryCatalog{upsertErr: errors.New("connection reset")}
	svc := newTestService(catalog, &recordingRecorder{})
	grid := []ListRow{{ID: "g1", Name: "Existing"}}
	result, err := svc.RunAIImport(context.Background(), grid, Items{{Name: "Milk"}})
	require.NoError(t, err)
	pending := *result.Pending

	confirmed, err := svc.ConfirmCandidates(context.Background(), pending, grid, pending.Selected, true)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, catalog.upsertErr)
	require.Nil(t, confirmed.Grid)
	require.Equal(t, StateAwaitingConfirmation, pending.State)

	catalog.upsertErr = nil
	confirmed, err = svc.ConfirmCandidates(context.Background(), pending, grid, pending.Selected, true)
	require.NoError(t, err)
	require.Len(t, confirmed.Grid, 3)
}

func TestConfirmAndDiscardRequireAwaitingState(t *testing.T) {
	svc := newTestService(&memoryCatalog{}, &recordingRecorder{})
	idle := PendingImport{ID: "p", Source: SourceAI, State: StateIdle}

	_, err := svc.ConfirmCandidates(context.Background(), idle, nil, NewSelection(), true)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorIs(t, svc.Discard(idle), ErrInvalidTransition)

	result, err := svc.RunAIImport(context.Background(), nil, Items{{Name: "Milk"}})
	require.NoError(t, err)
	require.NoError(t, svc.Discard(*result.Pending))
}

func TestServiceMergeRows(t *testing.T) {
	svc := newTestService(&memoryCatalog{}, &recordingRecorder{})
	got := svc.MergeRows([]ListRow{{ID: "a", Name: "A"}, {ID: "b"}}, []ListRow{{ID: "c", Name: "C"}})
	require.Equal(t, []ListRow{{ID: "a", Name: "A"}, {ID: "c", Name: "C"}, {ID: "id-1"}}, got)
}
