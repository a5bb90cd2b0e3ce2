package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gudang-app/gudang/internal/masterdata/products"
	"github.com/gudang-app/gudang/internal/masterdata/units"
)

// CatalogStore is the product catalog as seen by the engine. UpsertAll must be atomic.
type CatalogStore interface {
	List(ctx context.Context) ([]products.Product, error)
	UpsertAll(ctx context.Context, products []products.Product) error
}

// UnitStore provides read-only unit reference data.
type UnitStore interface {
	List(ctx context.Context) ([]units.Unit, error)
}

// Recorder receives import outcome counters.
type Recorder interface {
	ObserveImport(source, outcome string, rows int)
	ObserveCandidates(n int)
}

// RecordSource yields tabular records in file order.
type RecordSource interface {
	ReadRecords(ctx context.Context) ([]ImportRecord, error)
}

// ItemSource yields items returned by the extraction service.
type ItemSource interface {
	ReadItems(ctx context.Context) ([]ExtractedItem, error)
}

// Records adapts an in-memory slice to RecordSource.
type Records []ImportRecord

func (r Records) ReadRecords(context.Context) ([]ImportRecord, error) { return r, nil }

// Items adapts an in-memory slice to ItemSource.
type Items []ExtractedItem

func (i Items) ReadItems(context.Context) ([]ExtractedItem, error) { return i, nil }

// Import outcomes reported to the Recorder.
const (
	OutcomeMerged    = "merged"
	OutcomeAwaiting  = "awaiting_confirmation"
	OutcomeConfirmed = "confirmed"
	OutcomeDiscarded = "discarded"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
)

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	HeaderSlots []SlotAliases
	NewID       func() string
	NewCode     CodeGenerator
	Now         func() time.Time
}

// Service sequences reading, matching, confirmation and merging for both import paths.
// Calls for the same grid must not overlap.
type Service struct {
	catalog  CatalogStore
	units    UnitStore
	logger   *slog.Logger
	recorder Recorder
	headers  *HeaderNormalizer
	newID    func() string
	newCode  CodeGenerator
	now      func() time.Time
}

// NewService builds Service.
func NewService(catalog CatalogStore, unitStore UnitStore, logger *slog.Logger, recorder Recorder, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.NewCode == nil {
		cfg.NewCode = PlaceholderCode
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		catalog:  catalog,
		units:    unitStore,
		logger:   logger,
		recorder: recorder,
		headers:  NewHeaderNormalizer(cfg.HeaderSlots),
		newID:    cfg.NewID,
		newCode:  cfg.NewCode,
		now:      cfg.Now,
	}
}

// AIImportResult is the outcome of an AI import. Pending is nil when nothing awaits
// confirmation, in which case Grid already holds the merged rows.
type AIImportResult struct {
	Grid    []ListRow      `json:"grid"`
	Pending *PendingImport `json:"pending,omitempty"`
}

// ConfirmResult is the outcome of an operator decision on a pending import.
type ConfirmResult struct {
	Grid      []ListRow   `json:"grid"`
	Selected  Selection   `json:"selected"`
	Persisted []Candidate `json:"persisted"`
}

// RunTabularImport reads spreadsheet records, substitutes catalog data on matches and
// merges the rows into grid. An empty source leaves the grid untouched.
func (s *Service) RunTabularImport(ctx context.Context, grid []ListRow, src RecordSource) ([]ListRow, error) {
	r := newRun(s.newID(), SourceTabular, s.logger)
	if err := r.advance(StateReading); err != nil {
		return nil, err
	}

	var records []ImportRecord
	cat, err := s.loadWith(ctx, func(ctx context.Context) error {
		var err error
		records, err = src.ReadRecords(ctx)
		return err
	})
	if err != nil {
		return s.abort(r, grid, err)
	}
	if len(records) == 0 {
		return s.abort(r, grid, ErrEmptySource)
	}

	if err := r.advance(StateNormalizing); err != nil {
		return nil, err
	}
	if err := r.advance(StateMatching); err != nil {
		return nil, err
	}
	rows := BuildTabularRows(records, cat, s.headers, s.newID)

	merged, err := s.merge(r, grid, rows)
	if err != nil {
		return nil, err
	}
	s.recorder.ObserveImport(string(SourceTabular), OutcomeMerged, len(rows))
	s.logger.Info("tabular import merged", slog.String("import_id", r.id), slog.Int("rows", len(rows)))
	return merged, nil
}

// RunAIImport matches extracted items against the catalog. When unmatched items produce
// candidates the import suspends and the returned PendingImport must be confirmed or
// discarded; otherwise the rows are merged immediately.
func (s *Service) RunAIImport(ctx context.Context, grid []ListRow, src ItemSource) (AIImportResult, error) {
	r := newRun(s.newID(), SourceAI, s.logger)
	if err := r.advance(StateReading); err != nil {
		return AIImportResult{}, err
	}

	var items []ExtractedItem
	cat, err := s.loadWith(ctx, func(ctx context.Context) error {
		var err error
		items, err = src.ReadItems(ctx)
		return err
	})
	if err != nil {
		_, err = s.abort(r, grid, err)
		return AIImportResult{}, err
	}
	if len(items) == 0 {
		_, err = s.abort(r, grid, ErrEmptySource)
		return AIImportResult{}, err
	}

	if err := r.advance(StateNormalizing); err != nil {
		return AIImportResult{}, err
	}
	if err := r.advance(StateMatching); err != nil {
		return AIImportResult{}, err
	}
	rows, candidates := BuildExtractedRows(items, cat, s.newID, s.newCode)

	if len(candidates) == 0 {
		merged, err := s.merge(r, grid, rows)
		if err != nil {
			return AIImportResult{}, err
		}
		s.recorder.ObserveImport(string(SourceAI), OutcomeMerged, len(rows))
		s.logger.Info("ai import merged", slog.String("import_id", r.id), slog.Int("rows", len(rows)))
		return AIImportResult{Grid: merged}, nil
	}

	if err := r.advance(StateAwaitingConfirmation); err != nil {
		return AIImportResult{}, err
	}
	pending := PendingImport{
		ID:         r.id,
		Source:     SourceAI,
		State:      r.state,
		Rows:       rows,
		Candidates: candidates,
		Selected:   SelectAll(candidates),
		CreatedAt:  s.now().UTC(),
	}
	s.recorder.ObserveImport(string(SourceAI), OutcomeAwaiting, len(rows))
	s.logger.Info("ai import awaiting confirmation",
		slog.String("import_id", r.id),
		slog.Int("rows", len(rows)),
		slog.Int("candidates", len(candidates)),
	)
	return AIImportResult{Grid: grid, Pending: &pending}, nil
}

// ConfirmCandidates resumes a suspended AI import. Selected candidates are written to the
// catalog with their tentative ids when persist is set; every processed row is merged
// regardless of selection. A catalog failure returns ErrPersistence and performs no merge,
// leaving pending still awaiting confirmation. The result carries the effective
// selection, restricted to the pending candidates.
func (s *Service) ConfirmCandidates(ctx context.Context, pending PendingImport, grid []ListRow, selection Selection, persist bool) (ConfirmResult, error) {
	if pending.State != StateAwaitingConfirmation {
		return ConfirmResult{}, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, pending.ID, pending.State)
	}
	r := resumeRun(pending, s.logger)

	accepted := selection.Filter(pending.Candidates)
	selection = SelectAll(accepted)
	persisted := []Candidate{}
	if persist && len(accepted) > 0 {
		batch := make([]products.Product, len(accepted))
		for i, c := range accepted {
			batch[i] = c.Product()
		}
		if err := s.catalog.UpsertAll(ctx, batch); err != nil {
			s.recorder.ObserveImport(string(SourceAI), OutcomeFailed, 0)
			s.logger.Error("persist candidates",
				slog.String("import_id", r.id),
				slog.Int("candidates", len(batch)),
				slog.Any("error", err),
			)
			return ConfirmResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		persisted = accepted
		s.recorder.ObserveCandidates(len(accepted))
	}

	merged, err := s.merge(r, grid, pending.Rows)
	if err != nil {
		return ConfirmResult{}, err
	}
	s.recorder.ObserveImport(string(SourceAI), OutcomeConfirmed, len(pending.Rows))
	s.logger.Info("ai import confirmed",
		slog.String("import_id", r.id),
		slog.Int("rows", len(pending.Rows)),
		slog.Int("persisted", len(persisted)),
	)
	return ConfirmResult{Grid: merged, Selected: selection, Persisted: persisted}, nil
}

// Discard cancels a suspended AI import. Its rows and candidates are dropped and
// nothing is persisted.
func (s *Service) Discard(pending PendingImport) error {
	r := resumeRun(pending, s.logger)
	if r.state != StateAwaitingConfirmation {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, pending.ID, pending.State)
	}
	if err := r.advance(StateIdle); err != nil {
		return err
	}
	s.recorder.ObserveImport(string(SourceAI), OutcomeDiscarded, 0)
	return nil
}

// MergeRows exposes the merge engine with the service's id generator.
func (s *Service) MergeRows(existing, incoming []ListRow) []ListRow {
	return mergeRows(existing, incoming, s.newID)
}

func (s *Service) merge(r *run, grid, rows []ListRow) ([]ListRow, error) {
	if err := r.advance(StateMerging); err != nil {
		return nil, err
	}
	merged := mergeRows(grid, rows, s.newID)
	if err := r.advance(StateIdle); err != nil {
		return nil, err
	}
	return merged, nil
}

// abort returns the run to idle after a failed or empty read. The grid is never modified.
func (s *Service) abort(r *run, grid []ListRow, cause error) ([]ListRow, error) {
	if err := r.advance(StateIdle); err != nil {
		return nil, err
	}
	outcome := OutcomeFailed
	if errors.Is(cause, ErrEmptySource) {
		outcome = OutcomeEmpty
	}
	s.recorder.ObserveImport(string(r.source), outcome, 0)
	s.logger.Warn("import aborted",
		slog.String("import_id", r.id),
		slog.String("source", string(r.source)),
		slog.Any("error", cause),
	)
	return grid, cause
}

// loadWith runs read concurrently with loading the catalog snapshot.
func (s *Service) loadWith(ctx context.Context, read func(context.Context) error) (Catalog, error) {
	var cat Catalog
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return read(ctx) })
	g.Go(func() error {
		list, err := s.catalog.List(ctx)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		cat.Products = list
		return nil
	})
	g.Go(func() error {
		list, err := s.units.List(ctx)
		if err != nil {
			return fmt.Errorf("load units: %w", err)
		}
		cat.Units = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

type noopRecorder struct{}

func (noopRecorder) ObserveImport(string, string, int) {}
func (noopRecorder) ObserveCandidates(int)             {}
