package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mconcas/pantrybot-backend/internal/inventory"
	"github.com/mconcas/pantrybot-backend/pkg/db/models"
	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
	"github.com/mconcas/pantrybot-backend/pkg/metrics"
)

// Source records where a resolved name came from.
type Source string

const (
	SourceCache       Source = "cache"
	SourceRemote      Source = "remote"
	SourcePlaceholder Source = "placeholder"
)

// Resolution is the outcome of a barcode resolution. Verified is true only
// for cache hits, where the name has survived a human review.
type Resolution struct {
	Barcode  string
	Name     string
	Brand    string
	ImageURL string
	Verified bool
	Source   Source
}

// ProductCache is the slice of the inventory contract the resolver needs.
type ProductCache interface {
	CachedProduct(ctx context.Context, barcode string) (*models.CachedProduct, error)
	CacheProduct(ctx context.Context, params inventory.CacheProductParams) (uuid.UUID, error)
}

// Lookuper abstracts the remote catalog client.
type Lookuper interface {
	Lookup(ctx context.Context, barcode string) (*Product, error)
}

// ResolverParams groups dependencies for the resolver.
type ResolverParams struct {
	Cache   ProductCache
	Client  Lookuper
	Logger  *logger.Logger
	Metrics *metrics.BotMetrics
}

// Resolver turns barcodes into display names: shared cache first, then the
// remote catalog, then a placeholder. Resolution never fails the calling
// scan; catalog outages degrade to placeholders.
type Resolver struct {
	cache   ProductCache
	client  Lookuper
	logg    *logger.Logger
	metrics *metrics.BotMetrics
}

// NewResolver builds a resolver with the required dependencies.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product cache is required")
	}
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog client is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Resolver{
		cache:   params.Cache,
		client:  params.Client,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// PlaceholderName is the display name used when a barcode cannot be
// resolved. Placeholders are never written to the cache.
func PlaceholderName(barcode string) string {
	return fmt.Sprintf("Unknown (%s)", barcode)
}

// Resolve maps a barcode to its display name. Cache hits come back
// verified; fresh remote hits are cached but stay unverified until a human
// confirms them; misses and catalog failures yield a placeholder.
func (r *Resolver) Resolve(ctx context.Context, barcode string) (Resolution, error) {
	cached, err := r.cache.CachedProduct(ctx, barcode)
	if err != nil {
		return Resolution{}, err
	}
	if cached != nil {
		r.metrics.IncCatalogLookup(string(SourceCache))
		return Resolution{
			Barcode:  barcode,
			Name:     cached.ProductName,
			Brand:    cached.Brand,
			ImageURL: cached.ImageURL,
			Verified: true,
			Source:   SourceCache,
		}, nil
	}

	product, err := r.client.Lookup(ctx, barcode)
	if err != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{"barcode": barcode, "error": err.Error()})
		r.logg.Warn(logCtx, "catalog lookup failed, using placeholder")
		r.metrics.IncCatalogLookup(string(SourcePlaceholder))
		return Resolution{Barcode: barcode, Name: PlaceholderName(barcode), Source: SourcePlaceholder}, nil
	}
	if product == nil {
		r.metrics.IncCatalogLookup(string(SourcePlaceholder))
		return Resolution{Barcode: barcode, Name: PlaceholderName(barcode), Source: SourcePlaceholder}, nil
	}

	if _, err := r.cache.CacheProduct(ctx, inventory.CacheProductParams{
		Barcode:     barcode,
		ProductName: product.Name,
		Brand:       product.Brand,
		ImageURL:    product.ImageURL,
		Raw:         product.Raw,
	}); err != nil {
		// cache write failure is not worth losing the resolved name over
		logCtx := r.logg.WithField(ctx, "barcode", barcode)
		r.logg.Error(logCtx, "product cache write failed", err)
	}

	r.metrics.IncCatalogLookup(string(SourceRemote))
	return Resolution{
		Barcode:  barcode,
		Name:     product.Name,
		Brand:    product.Brand,
		ImageURL: product.ImageURL,
		Source:   SourceRemote,
	}, nil
}
