package service

import (
	"sync"

	appErrors "github.com/noah-isme/records-panel/pkg/errors"
)

// PanelRegistry holds the live panel of every logged-in browser session.
type PanelRegistry struct {
	deps      PanelDeps
	sseBuffer int
	metrics   *MetricsService

	mu     sync.Mutex
	panels map[string]*Panel
}

// NewPanelRegistry constructs an empty registry.
func NewPanelRegistry(deps PanelDeps, sseBuffer int, metrics *MetricsService) *PanelRegistry {
	return &PanelRegistry{deps: deps, sseBuffer: sseBuffer, metrics: metrics, panels: make(map[string]*Panel)}
}

// Replace starts a fresh panel for sessionID, closing the previous one. A
// full page load calls it, mirroring a browser reload that resets all state.
func (r *PanelRegistry) Replace(sessionID string) *Panel {
	panel := NewPanel(sessionID, NewStreamSurface(r.sseBuffer, r.metrics), r.deps)

	r.mu.Lock()
	prev := r.panels[sessionID]
	r.panels[sessionID] = panel
	n := len(r.panels)
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	r.metrics.SetActivePanels(n)
	return panel
}

// Get returns the live panel of sessionID.
func (r *PanelRegistry) Get(sessionID string) (*Panel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	panel, ok := r.panels[sessionID]
	if !ok {
		return nil, appErrors.ErrSessionNotStarted
	}
	return panel, nil
}

// Remove closes and forgets the panel of sessionID.
func (r *PanelRegistry) Remove(sessionID string) {
	r.mu.Lock()
	panel := r.panels[sessionID]
	delete(r.panels, sessionID)
	n := len(r.panels)
	r.mu.Unlock()

	if panel != nil {
		panel.Close()
	}
	r.metrics.SetActivePanels(n)
}

// Len is the number of live panels.
func (r *PanelRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.panels)
}

// CloseAll closes every panel, on shutdown.
func (r *PanelRegistry) CloseAll() {
	r.mu.Lock()
	panels := r.panels
	r.panels = make(map[string]*Panel)
	r.mu.Unlock()

	for _, p := range panels {
		p.Close()
	}
	r.metrics.SetActivePanels(0)
}
