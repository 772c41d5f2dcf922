// Package reconcile applies user-confirmed import selections atomically,
// creating catalog entries and merging inventory lines.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
	"github.com/humidorhq/humidor-tracker/internal/repository"
)

// Notifier receives post-commit hooks for downstream side effects
// (achievement triggers live outside this core). Implementations must not
// block; failures are the subscriber's problem, not the transaction's.
type Notifier interface {
	EntryCreated(ctx context.Context, userID uuid.UUID, entry *entity.CatalogEntry)
	LineAdded(ctx context.Context, userID uuid.UUID, line *entity.HumidorLine)
}

type noopNotifier struct{}

func (noopNotifier) EntryCreated(context.Context, uuid.UUID, *entity.CatalogEntry) {}
func (noopNotifier) LineAdded(context.Context, uuid.UUID, *entity.HumidorLine)     {}

// Reconciler runs one transaction per confirmed batch with per-item partial
// success: each selection applies inside its own savepoint, so a failing item
// is recorded and rolled back without aborting its siblings.
type Reconciler struct {
	tx         repository.TxRunner
	catalog    repository.CatalogRepository
	collection repository.CollectionRepository
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
}

func NewReconciler(tx repository.TxRunner, catalog repository.CatalogRepository, collection repository.CollectionRepository, notifier Notifier, logger *slog.Logger) *Reconciler {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		tx:         tx,
		catalog:    catalog,
		collection: collection,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

type outcome struct {
	created bool
	matched bool
	added   bool
	entry   *entity.CatalogEntry
	line    *entity.HumidorLine
}

// ConfirmImport applies a batch of selections for one user. The returned
// result reports per-item errors; Success is true only when every item
// applied. The error return is reserved for transaction-level failures.
func (r *Reconciler) ConfirmImport(ctx context.Context, userID uuid.UUID, selections []entity.Selection) (*entity.ConfirmationResult, error) {
	start := time.Now()
	result := &entity.ConfirmationResult{Errors: []entity.SelectionError{}}
	var outcomes []outcome

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i, sel := range selections {
			var out outcome
			err := r.tx.WithinSavepoint(ctx, func(ctx context.Context) error {
				var itemErr error
				out, itemErr = r.applySelection(ctx, userID, sel)
				return itemErr
			})
			if err != nil {
				r.logger.Warn("reconcile.item.failed", "user_id", userID, "index", i, "kind", sel.Kind, "error", err)
				result.Errors = append(result.Errors, entity.SelectionError{Index: i, Message: err.Error()})
				continue
			}
			outcomes = append(outcomes, out)
			if out.created {
				result.Created++
			}
			if out.matched {
				result.Matched++
			}
			if out.added {
				result.AddedToHumidor++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("confirm import: %w", err)
	}

	// side-effect hooks fire only after the batch committed
	for _, out := range outcomes {
		if out.created && out.entry != nil {
			r.notifier.EntryCreated(ctx, userID, out.entry)
		}
		if out.added && out.line != nil {
			r.notifier.LineAdded(ctx, userID, out.line)
		}
	}

	result.Success = len(result.Errors) == 0
	r.logger.Info("reconcile.confirm.ok",
		"user_id", userID,
		"selections", len(selections),
		"created", result.Created,
		"matched", result.Matched,
		"added_to_humidor", result.AddedToHumidor,
		"item_errors", len(result.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (r *Reconciler) applySelection(ctx context.Context, userID uuid.UUID, sel entity.Selection) (outcome, error) {
	var out outcome
	var entryID uuid.UUID

	switch sel.Kind {
	case entity.SelectionExact, entity.SelectionPossible:
		if sel.EntryID == nil {
			return out, common.NewValidationError(fmt.Sprintf("%s selection requires entry_id", sel.Kind))
		}
		entryID = *sel.EntryID
		out.matched = true

	case entity.SelectionNew:
		entry, err := r.createEntry(ctx, sel.Record)
		if err != nil {
			return out, err
		}
		entryID = entry.ID
		out.created = true
		out.entry = entry

	default:
		return out, common.NewValidationError(fmt.Sprintf("unknown selection kind %q", sel.Kind))
	}

	if sel.AddToHumidor {
		line, err := r.addToHumidor(ctx, userID, sel, entryID)
		if err != nil {
			return out, err
		}
		out.added = true
		out.line = line
	}
	return out, nil
}

// createEntry finds or creates the brand case-insensitively, then creates the
// catalog entry from the record's descriptive fields.
func (r *Reconciler) createEntry(ctx context.Context, rec entity.ImportRecord) (*entity.CatalogEntry, error) {
	if rec.Brand == "" || rec.Name == "" {
		return nil, common.NewValidationError("new selection requires brand and name")
	}

	brand, err := r.catalog.FindBrandByName(ctx, rec.Brand)
	if errors.Is(err, common.ErrNotFound) {
		brand, err = r.catalog.CreateBrand(ctx, rec.Brand)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve brand %q: %w", rec.Brand, err)
	}

	return r.catalog.CreateEntry(ctx, &entity.CatalogEntry{
		BrandID:   brand.ID,
		BrandName: brand.Name,
		Name:      rec.Name,
		Length:    rec.Length,
		RingGauge: rec.RingGauge,
		Country:   rec.Country,
		Wrapper:   rec.Wrapper,
		Binder:    rec.Binder,
		Filler:    rec.Filler,
		Color:     rec.Color,
		Strength:  rec.Strength,
		ImageURL:  rec.ImageURL,
	})
}

// addToHumidor merges into an existing line by summing quantity, overwriting
// only the optional fields the record explicitly carries; absent a line it
// creates one with the documented defaults.
func (r *Reconciler) addToHumidor(ctx context.Context, userID uuid.UUID, sel entity.Selection, entryID uuid.UUID) (*entity.HumidorLine, error) {
	if sel.HumidorID == nil {
		return nil, common.NewValidationError("inventory addition requires humidor_id")
	}

	humidor, err := r.collection.FindHumidor(ctx, *sel.HumidorID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewValidationError(fmt.Sprintf("humidor %s not found or not owned by requester", sel.HumidorID))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve humidor: %w", err)
	}

	rec := sel.Record
	qty := rec.Quantity
	if qty <= 0 {
		qty = 1
	}

	line, err := r.collection.FindLine(ctx, humidor.ID, entryID)
	switch {
	case err == nil:
		line.Quantity += qty
		if rec.PurchasePrice != nil {
			line.PurchasePrice = *rec.PurchasePrice
		}
		if rec.PurchaseDate != nil {
			line.PurchaseDate = *rec.PurchaseDate
		}
		if rec.PurchaseLocation != "" {
			line.PurchaseLocation = &rec.PurchaseLocation
		}
		if rec.Notes != "" {
			line.Notes = &rec.Notes
		}
		if rec.ImageURL != "" {
			line.ImageURL = &rec.ImageURL
		}
		if err := r.collection.UpdateLine(ctx, line); err != nil {
			return nil, err
		}
		return line, nil

	case errors.Is(err, common.ErrNotFound):
		line := &entity.HumidorLine{
			HumidorID:    humidor.ID,
			EntryID:      entryID,
			Quantity:     qty,
			PurchaseDate: r.now(),
		}
		if rec.PurchasePrice != nil {
			line.PurchasePrice = *rec.PurchasePrice
		}
		if rec.PurchaseDate != nil {
			line.PurchaseDate = *rec.PurchaseDate
		}
		if rec.PurchaseLocation != "" {
			line.PurchaseLocation = &rec.PurchaseLocation
		}
		if rec.Notes != "" {
			line.Notes = &rec.Notes
		}
		if rec.ImageURL != "" {
			line.ImageURL = &rec.ImageURL
		}
		return r.collection.CreateLine(ctx, line)

	default:
		return nil, fmt.Errorf("resolve humidor line: %w", err)
	}
}
