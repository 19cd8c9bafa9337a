package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
)

const taxonomyCacheKey = "panel:taxonomy"

// TaxonomyLoadFailedText is shown when the department list cannot be loaded.
const TaxonomyLoadFailedText = "خطا در بارگذاری لیست دانشکده‌ها و رشته‌ها"

type taxonomySource interface {
	Departments(ctx context.Context) (models.Taxonomy, error)
}

// TaxonomyService loads the department/major mapping, through the Redis cache
// when one is configured.
type TaxonomyService struct {
	source taxonomySource
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewTaxonomyService constructs a taxonomy service. cache may be nil.
func NewTaxonomyService(source taxonomySource, cache *CacheService, ttl time.Duration, logger *zap.Logger) *TaxonomyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxonomyService{source: source, cache: cache, ttl: ttl, logger: logger}
}

// Load returns the taxonomy. On failure it notifies n and returns an empty
// taxonomy so the panel stays usable.
func (s *TaxonomyService) Load(ctx context.Context, n Notifier) models.Taxonomy {
	var cached models.Taxonomy
	if hit, _ := s.cache.Get(ctx, taxonomyCacheKey, &cached); hit {
		return cached
	}

	tax, err := s.source.Departments(ctx)
	if err != nil {
		s.logger.Warn("load taxonomy failed", zap.Error(err))
		notifyError(n, TaxonomyLoadFailedText)
		return models.NewTaxonomy()
	}

	// an empty mapping is not worth pinning for a whole TTL
	if tax.Len() > 0 {
		_ = s.cache.Set(ctx, taxonomyCacheKey, tax, s.ttl)
	}
	return tax
}

// Invalidate drops the cached taxonomy.
func (s *TaxonomyService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, taxonomyCacheKey)
}
