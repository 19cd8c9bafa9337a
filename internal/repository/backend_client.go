package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/pkg/config"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/pkg/middleware/requestid"
)

const maxErrorBody = 1 << 20

// Backend call outcomes reported to the observer.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// BackendObserver receives one observation per backend round trip.
type BackendObserver interface {
	ObserveBackendCall(resource, operation, outcome string, duration time.Duration)
}

// BackendClient talks to the records REST backend. It is stateless and
// shared by every panel.
type BackendClient struct {
	baseURL  string
	http     *http.Client
	observer BackendObserver
	logger   *zap.Logger
}

// NewBackendClient constructs a client for cfg.BaseURL. observer may be nil.
func NewBackendClient(cfg config.BackendConfig, observer BackendObserver, logger *zap.Logger) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// Departments fetches the department -> majors taxonomy.
func (c *BackendClient) Departments(ctx context.Context) (models.Taxonomy, error) {
	var tax models.Taxonomy
	if err := c.do(ctx, http.MethodGet, "departments", "list", "/departments", nil, nil, &tax); err != nil {
		return models.Taxonomy{}, err
	}
	return tax, nil
}

// List fetches one page of entity records.
func (c *BackendClient) List(ctx context.Context, entity models.Entity, q models.ListQuery) (*models.Page, error) {
	var raw struct {
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, string(entity), "list", "/"+string(entity), q.Values(), nil, &raw); err != nil {
		return nil, err
	}

	page := &models.Page{Items: make([]models.Record, 0, len(raw.Items)), Total: raw.Total}
	for _, item := range raw.Items {
		rec, err := models.DecodeRecord(entity, item)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, "")
		}
		page.Items = append(page.Items, rec)
	}
	return page, nil
}

// Get fetches a single record into dest.
func (c *BackendClient) Get(ctx context.Context, entity models.Entity, id string, dest interface{}) error {
	return c.do(ctx, http.MethodGet, string(entity), "get", recordPath(entity, id), nil, nil, dest)
}

// Create posts a new record. dest receives the created record when non-nil.
func (c *BackendClient) Create(ctx context.Context, entity models.Entity, payload, dest interface{}) error {
	return c.do(ctx, http.MethodPost, string(entity), "create", "/"+string(entity), nil, payload, dest)
}

// Update replaces a record.
func (c *BackendClient) Update(ctx context.Context, entity models.Entity, id string, payload interface{}) error {
	return c.do(ctx, http.MethodPut, string(entity), "update", recordPath(entity, id), nil, payload, nil)
}

// Delete removes a record.
func (c *BackendClient) Delete(ctx context.Context, entity models.Entity, id string) error {
	return c.do(ctx, http.MethodDelete, string(entity), "delete", recordPath(entity, id), nil, nil, nil)
}

// Ping checks that the backend answers the taxonomy endpoint.
func (c *BackendClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "departments", "ping", "/departments", nil, nil, nil)
}

func recordPath(entity models.Entity, id string) string {
	return "/" + string(entity) + "/" + url.PathEscape(id)
}

func (c *BackendClient) do(ctx context.Context, method, resource, operation, path string, query url.Values, payload, dest interface{}) (err error) {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackendCall(resource, operation, outcome, time.Since(start))
		}
		if err != nil {
			c.logger.Warn("backend call failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("outcome", outcome),
				zap.String("request_id", requestid.FromContext(ctx)),
				zap.Error(err),
			)
		}
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, mErr := json.Marshal(payload)
		if mErr != nil {
			outcome = OutcomeError
			return fmt.Errorf("marshal %s payload: %w", resource, mErr)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		outcome = OutcomeError
		return fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = OutcomeUnavailable
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		outcome = OutcomeError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		cause := fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		return appErrors.Wrap(cause, appErrors.ErrBackend.Code, errorStatus(resp.StatusCode), parseDetail(raw))
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		outcome = OutcomeError
		return appErrors.Wrap(fmt.Errorf("decode %s response: %w", resource, err), appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, "")
	}
	return nil
}

// errorStatus keeps client errors as-is and maps server errors to 502.
func errorStatus(code int) int {
	if code < http.StatusInternalServerError {
		return code
	}
	return http.StatusBadGateway
}

// parseDetail extracts the FastAPI "detail" field. It is either a string or a
// list of validation errors whose "msg" values are joined with "; ".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
