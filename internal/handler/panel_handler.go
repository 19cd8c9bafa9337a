package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/records-panel/internal/models"
	"github.com/noah-isme/records-panel/internal/service"
	"github.com/noah-isme/records-panel/pkg/chart"
	appErrors "github.com/noah-isme/records-panel/pkg/errors"
	"github.com/noah-isme/records-panel/pkg/response"
)

const (
	panelTitle        = "پنل مدیریت"
	heartbeatInterval = 15 * time.Second
)

// PanelHandler drives the per-session panel. Every mutation of the page is
// pushed to the browser over the event stream; the POST endpoints only
// acknowledge.
type PanelHandler struct {
	panels    *service.PanelRegistry
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewPanelHandler constructs a panel handler.
func NewPanelHandler(panels *service.PanelRegistry, logger *zap.Logger) *PanelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PanelHandler{panels: panels, heartbeat: heartbeatInterval, logger: logger}
}

// Page starts a fresh panel for the session and renders it.
func (h *PanelHandler) Page(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	panel := h.panels.Replace(claims.SessionID)
	panel.Load(c.Request.Context())

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "panel.html", gin.H{
		"Title":    panelTitle,
		"Username": claims.Username,
		"Snapshot": panel.Snapshot(),
	})
}

// Events godoc
// @Summary Panel event stream
// @Description Server-sent events carrying notification, filters, table, modal and chart frames
// @Tags Panel
// @Produce text/event-stream
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /panel/events [get]
func (h *PanelHandler) Events(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	source, ok := panel.Surface().(service.EventSource)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "panel surface cannot be streamed"))
		return
	}

	events, unsubscribe := source.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		case <-done:
			return false
		}
	})
}

// Filters godoc
// @Summary Change a filter control
// @Tags Panel
// @Accept x-www-form-urlencoded
// @Param field formData string true "entity, department or major"
// @Param value formData string false "New value"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /panel/filters [post]
func (h *PanelHandler) Filters(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	if err := panel.ChangeFilter(c.Request.Context(), c.PostForm("field"), c.PostForm("value")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Search godoc
// @Summary Update the search text
// @Description The table refreshes once typing pauses
// @Tags Panel
// @Accept x-www-form-urlencoded
// @Param text formData string false "Search text"
// @Success 202
// @Router /panel/search [post]
func (h *PanelHandler) Search(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	panel.Search(c.PostForm("text"))
	c.Status(http.StatusAccepted)
}

// Refresh re-renders the table with the current filters.
func (h *PanelHandler) Refresh(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, panel.Refresh(c.Request.Context()))
}

// Edit godoc
// @Summary Open the edit dialog of a record
// @Tags Panel
// @Param entity path string true "students, teachers or courses"
// @Param id path string true "Record id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /panel/edit/{entity}/{id} [post]
func (h *PanelHandler) Edit(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	if err := panel.OpenEdit(c.Request.Context(), entity, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panel.Modal())
}

// New godoc
// @Summary Open an empty dialog for a new record
// @Tags Panel
// @Param entity path string true "students, teachers or courses"
// @Success 200 {object} response.Envelope
// @Router /panel/new/{entity} [post]
func (h *PanelHandler) New(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	if err := panel.OpenCreate(c.Request.Context(), entity); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panel.Modal())
}

// ModalDepartment repopulates the dependent selects of the open dialog.
func (h *PanelHandler) ModalDepartment(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	values := formValues(c)
	if err := panel.ModalDepartment(c.Request.Context(), values["department"], values); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panel.Modal())
}

// Save godoc
// @Summary Submit the open dialog
// @Tags Panel
// @Accept x-www-form-urlencoded
// @Success 204
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /panel/modal/save [post]
func (h *PanelHandler) Save(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	if err := panel.SaveModal(c.Request.Context(), formValues(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Cancel closes the open dialog without saving.
func (h *PanelHandler) Cancel(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	if err := panel.CancelModal(); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a record
// @Description The browser asks for confirmation before calling this endpoint
// @Tags Panel
// @Param entity path string true "students, teachers or courses"
// @Param id path string true "Record id"
// @Success 204
// @Failure 502 {object} response.Envelope
// @Router /panel/delete/{entity}/{id} [post]
func (h *PanelHandler) Delete(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	if err := panel.Delete(c.Request.Context(), entity, c.Param("id"), service.AlwaysConfirm); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Chart godoc
// @Summary Select the displayed chart
// @Tags Panel
// @Accept x-www-form-urlencoded
// @Param type formData string false "studentsByDepartment, coursesByTeacher or empty to hide"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /panel/chart [post]
func (h *PanelHandler) Chart(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	data, err := panel.SelectChart(c.Request.Context(), c.PostForm("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data)
}

// ChartData returns the selected chart.
func (h *PanelHandler) ChartData(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, panel.Chart())
}

// ChartExport godoc
// @Summary Download the selected chart
// @Tags Panel
// @Produce image/png
// @Produce application/pdf
// @Param format query string false "png or pdf" default(png)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /panel/chart/export [get]
func (h *PanelHandler) ChartExport(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	format, err := service.ParseChartFormat(c.DefaultQuery("format", string(service.ChartFormatPNG)))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := panel.ExportChart(format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ChartExportCanvas godoc
// @Summary Download the chart as drawn by the browser
// @Description The image field is the rendered chart canvas as a PNG data URL. Without it the chart is rendered server-side.
// @Tags Panel
// @Accept x-www-form-urlencoded
// @Produce image/png
// @Produce application/pdf
// @Param format formData string false "png or pdf" default(png)
// @Param image formData string false "data:image/png;base64,..."
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /panel/chart/export [post]
func (h *PanelHandler) ChartExportCanvas(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	format, err := service.ParseChartFormat(c.DefaultPostForm("format", string(service.ChartFormatPNG)))
	if err != nil {
		response.Error(c, err)
		return
	}
	var canvas []byte
	if raw := c.PostForm("image"); raw != "" {
		if canvas, err = chart.DecodeDataURL(raw); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
			return
		}
	}
	file, err := panel.ExportCanvas(format, canvas)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ExportCSV godoc
// @Summary Download the displayed table as CSV
// @Tags Panel
// @Produce text/csv
// @Success 200 {file} file
// @Router /panel/export.csv [get]
func (h *PanelHandler) ExportCSV(c *gin.Context) {
	panel, ok := h.panel(c)
	if !ok {
		return
	}
	file, err := panel.ExportTableCSV()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func (h *PanelHandler) panel(c *gin.Context) (*service.Panel, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	panel, err := h.panels.Get(claims.SessionID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return panel, true
}

func entityParam(c *gin.Context) (models.Entity, bool) {
	entity, ok := models.ParseEntity(c.Param("entity"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrUnsupportedEntity, "unsupported entity "+c.Param("entity")))
		return "", false
	}
	return entity, true
}
