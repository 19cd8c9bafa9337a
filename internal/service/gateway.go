package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

// UnknownErrorText replaces a missing backend detail in user-facing messages.
const UnknownErrorText = "خطای ناشناخته"

// RecordsBackend is the REST backend as seen by the panel.
type RecordsBackend interface {
	Departments(ctx context.Context) (models.Taxonomy, error)
	List(ctx context.Context, entity models.Entity, q models.ListQuery) (*models.Page, error)
	Get(ctx context.Context, entity models.Entity, id string, dest interface{}) error
	Create(ctx context.Context, entity models.Entity, payload, dest interface{}) error
	Update(ctx context.Context, entity models.Entity, id string, payload interface{}) error
	Delete(ctx context.Context, entity models.Entity, id string) error
}

// Gateway binds the shared backend client to one panel's notifier. Listing
// failures degrade to an empty page plus a notification; every other call
// returns its error so the caller can decide.
type Gateway struct {
	backend  RecordsBackend
	notifier Notifier
	logger   *zap.Logger
}

// NewGateway constructs a gateway.
func NewGateway(backend RecordsBackend, notifier Notifier, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{backend: backend, notifier: notifier, logger: logger}
}

// FetchPage lists records and never fails.
func (g *Gateway) FetchPage(ctx context.Context, entity models.Entity, q models.ListQuery) *models.Page {
	page, err := g.Page(ctx, entity, q)
	if err != nil {
		g.logger.Debug("listing degraded to empty page", zap.String("entity", string(entity)), zap.Error(err))
		notifyError(g.notifier, "خطا در دریافت داده‌ها: "+detail(err))
		return models.EmptyPage()
	}
	return page
}

// Page lists records and returns the failure to the caller instead of
// notifying.
func (g *Gateway) Page(ctx context.Context, entity models.Entity, q models.ListQuery) (*models.Page, error) {
	page, err := g.backend.List(ctx, entity, q)
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []models.Record{}
	}
	return page, nil
}

// FetchRecord loads one record for editing. Failures propagate.
func (g *Gateway) FetchRecord(ctx context.Context, entity models.Entity, id string, dest interface{}) error {
	return g.backend.Get(ctx, entity, id, dest)
}

// Create posts a new record.
func (g *Gateway) Create(ctx context.Context, entity models.Entity, payload, dest interface{}) error {
	return g.backend.Create(ctx, entity, payload, dest)
}

// Update replaces a record.
func (g *Gateway) Update(ctx context.Context, entity models.Entity, id string, payload interface{}) error {
	return g.backend.Update(ctx, entity, id, payload)
}

// Delete removes a record.
func (g *Gateway) Delete(ctx context.Context, entity models.Entity, id string) error {
	return g.backend.Delete(ctx, entity, id)
}

// Notifier exposes the bound notifier.
func (g *Gateway) Notifier() Notifier {
	return g.notifier
}

func detail(err error) string {
	return appErrors.Detail(err, UnknownErrorText)
}
