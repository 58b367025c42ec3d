package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/internal/domain/shared"
	"github.com/erp/reconciler/internal/infrastructure/logger"
	"github.com/erp/reconciler/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentQueryService serves the joined read model of a document, optionally
// through a key-value cache.
type DocumentQueryService struct {
	scope TransactionScope
	cache shared.KeyValueCache
	ttl   time.Duration
}

// NewDocumentQueryService creates a new DocumentQueryService. cache may be nil.
func NewDocumentQueryService(scope TransactionScope, cache shared.KeyValueCache, ttl time.Duration) *DocumentQueryService {
	return &DocumentQueryService{
		scope: scope,
		cache: cache,
		ttl:   ttl,
	}
}

// GetDocument returns the document view, or shared.ErrNotFound
func (s *DocumentQueryService) GetDocument(ctx context.Context, kind finance.DocumentKind, tenantID, id uuid.UUID) (*DocumentView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document_query", "get_document")
	defer span.End()

	desc, err := finance.DescriptorFor(kind)
	if err != nil {
		return nil, err
	}

	key := documentCacheKey(kind, tenantID, id)
	if view, ok := s.fromCache(ctx, key); ok {
		telemetry.AddEvent(span, "cache_hit")
		return view, nil
	}

	repos := s.scope.Repositories(desc)
	doc, err := repos.Documents().FindByID(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	installments, err := repos.Installments().ListByDocument(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	docRows, instRows, err := repos.Allocations().ListByDocument(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(installments))
	for _, inst := range installments {
		ids = append(ids, inst.ID)
	}
	movements, err := repos.Movements().ListByOrigins(ctx, desc.OriginScreen, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	view := newDocumentView(doc, installments, docRows, instRows, movements)
	if s.toCache(ctx, key, view) {
		s.dropIfStale(ctx, repos.Documents(), key, doc)
	}
	telemetry.SetOK(span)
	return view, nil
}

// Invalidate drops the cached view of a document
func (s *DocumentQueryService) Invalidate(ctx context.Context, kind finance.DocumentKind, tenantID, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, documentCacheKey(kind, tenantID, id)); err != nil {
		logger.L(ctx).Warn("Failed to invalidate document cache",
			zap.String("document_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *DocumentQueryService) fromCache(ctx context.Context, key string) (*DocumentView, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.L(ctx).Warn("Document cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var view DocumentView
	if err := json.Unmarshal(data, &view); err != nil {
		logger.L(ctx).Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &view, true
}

// toCache reports whether the view was written
func (s *DocumentQueryService) toCache(ctx context.Context, key string, view *DocumentView) bool {
	if s.cache == nil {
		return false
	}
	data, err := json.Marshal(view)
	if err != nil {
		return false
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		logger.L(ctx).Warn("Document cache write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// dropIfStale re-reads the stored version after a fill. An edit or delete that
// committed while the view was being built has already run its invalidation,
// so an entry built from the older version must be removed here.
func (s *DocumentQueryService) dropIfStale(ctx context.Context, docs finance.DocumentRepository, key string, loaded *finance.Document) {
	current, err := docs.FindByID(ctx, loaded.TenantID, loaded.ID)
	if err == nil && current.Version == loaded.Version {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.L(ctx).Warn("Failed to drop stale document cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	logger.L(ctx).Debug("Dropped document view filled from an older version", zap.String("key", key))
}

func documentCacheKey(kind finance.DocumentKind, tenantID, id uuid.UUID) string {
	return fmt.Sprintf("document:%s:%s:%s", kind, tenantID, id)
}

var _ DocumentCacheInvalidator = (*DocumentQueryService)(nil)
