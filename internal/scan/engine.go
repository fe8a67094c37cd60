package scan

import (
	"context"

	"github.com/google/uuid"
	"github.com/mconcas/pantrybot-backend/internal/catalog"
	"github.com/mconcas/pantrybot-backend/internal/inventory"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
	"github.com/mconcas/pantrybot-backend/pkg/metrics"
)

// Outcome classifies what happened to one barcode in a batch.
type Outcome string

const (
	OutcomeAdded    Outcome = "added"
	OutcomeRemoved  Outcome = "removed"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Result records the fate of one scanned barcode.
type Result struct {
	Barcode  string
	Name     string
	Verified bool
	Outcome  Outcome
}

// Summary aggregates a reconciled batch.
type Summary struct {
	Mode       Mode
	Category   string
	Results    []Result
	Added      int
	Removed    int
	NotFound   int
	Failed     int
	Unverified int
}

// BarcodeResolver maps barcodes to display names.
type BarcodeResolver interface {
	Resolve(ctx context.Context, barcode string) (catalog.Resolution, error)
}

// InventoryWriter is the slice of the inventory contract the engine needs.
type InventoryWriter interface {
	AddItem(ctx context.Context, params inventory.AddItemParams) (uuid.UUID, error)
	DeleteOneUnit(ctx context.Context, ownerID int64, barcode, category string) (bool, error)
}

// EngineParams groups dependencies for the reconciliation engine.
type EngineParams struct {
	Inventory InventoryWriter
	Resolver  BarcodeResolver
	Logger    *logger.Logger
	Metrics   *metrics.BotMetrics
}

// Engine applies scan batches to an owner's inventory. Add batches insert
// one quantity=1 lot per scan; remove batches consume the oldest matching
// lot. Each barcode is settled independently: one failure never aborts the
// rest of the batch.
type Engine struct {
	inventory InventoryWriter
	resolver  BarcodeResolver
	logg      *logger.Logger
	metrics   *metrics.BotMetrics
}

// NewEngine builds the reconciliation engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory service is required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode resolver is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Engine{
		inventory: params.Inventory,
		resolver:  params.Resolver,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// Reconcile applies the batch to ownerID's inventory under category.
func (e *Engine) Reconcile(ctx context.Context, ownerID int64, batch Batch, category string) (Summary, error) {
	if category == "" {
		return Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}

	summary := Summary{
		Mode:     batch.Mode,
		Category: category,
		Results:  make([]Result, 0, len(batch.Scans)),
	}

	ctx = e.logg.WithOwnerID(ctx, ownerID)
	for _, s := range batch.Scans {
		var result Result
		if batch.Mode == ModeRemove {
			result = e.removeOne(ctx, ownerID, s.Code, category)
		} else {
			result = e.addOne(ctx, ownerID, s.Code, category)
		}

		switch result.Outcome {
		case OutcomeAdded:
			summary.Added++
			if !result.Verified {
				summary.Unverified++
			}
		case OutcomeRemoved:
			summary.Removed++
		case OutcomeNotFound:
			summary.NotFound++
		case OutcomeFailed:
			summary.Failed++
		}
		e.metrics.IncScan(string(batch.Mode), string(result.Outcome))
		summary.Results = append(summary.Results, result)
	}

	return summary, nil
}

func (e *Engine) addOne(ctx context.Context, ownerID int64, barcode, category string) Result {
	resolution, err := e.resolver.Resolve(ctx, barcode)
	if err != nil {
		e.logg.Error(e.logg.WithField(ctx, "barcode", barcode), "barcode resolution failed", err)
		return Result{Barcode: barcode, Outcome: OutcomeFailed}
	}

	_, err = e.inventory.AddItem(ctx, inventory.AddItemParams{
		OwnerID:     ownerID,
		Barcode:     barcode,
		ProductName: resolution.Name,
		Category:    category,
		Quantity:    1,
		Verified:    resolution.Verified,
	})
	if err != nil {
		e.logg.Error(e.logg.WithField(ctx, "barcode", barcode), "scan add failed", err)
		return Result{Barcode: barcode, Name: resolution.Name, Outcome: OutcomeFailed}
	}

	return Result{
		Barcode:  barcode,
		Name:     resolution.Name,
		Verified: resolution.Verified,
		Outcome:  OutcomeAdded,
	}
}

func (e *Engine) removeOne(ctx context.Context, ownerID int64, barcode, category string) Result {
	removed, err := e.inventory.DeleteOneUnit(ctx, ownerID, barcode, category)
	if err != nil {
		e.logg.Error(e.logg.WithField(ctx, "barcode", barcode), "scan remove failed", err)
		return Result{Barcode: barcode, Outcome: OutcomeFailed}
	}
	if !removed {
		return Result{Barcode: barcode, Outcome: OutcomeNotFound}
	}
	return Result{Barcode: barcode, Outcome: OutcomeRemoved}
}
