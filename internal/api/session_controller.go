package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/service"
)

// SessionController serves the time entry ledger endpoints.
type SessionController struct {
	ledger *service.LedgerService
	audit  *service.AuditLogService
}

// NewSessionController creates a session controller.
func NewSessionController(ledger *service.LedgerService, audit *service.AuditLogService) *SessionController {
	return &SessionController{ledger: ledger, audit: audit}
}

// SessionRequest carries an optional note.
type SessionRequest struct {
	Note string `json:"note"`
}

// PauseRequest carries the pause reason.
type PauseRequest struct {
	Reason string `json:"reason" binding:"required"`
	Note   string `json:"note"`
}

// EditEntryRequest is a time entry correction. Absent fields are left
// unchanged.
type EditEntryRequest struct {
	Hours *float64 `json:"hours"`
	Note  *string  `json:"note"`
}

// Start opens a session on the work order.
// @Summary Start work session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body SessionRequest false "note"
// @Success 201 {object} Response
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/workorders/{id}/sessions/start [post]
func (ctl *SessionController) Start(c *gin.Context) {
	var req SessionRequest
	_ = c.ShouldBindJSON(&req)

	entry, err := ctl.ledger.StartSession(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "session.start", entry.ID)
	Created(c, entry)
}

// Close closes the caller's open session.
// @Summary Close work session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body SessionRequest false "note"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/workorders/{id}/sessions/close [post]
func (ctl *SessionController) Close(c *gin.Context) {
	var req SessionRequest
	_ = c.ShouldBindJSON(&req)

	entry, err := ctl.ledger.CloseSession(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "session.close", entry.ID)
	Success(c, entry)
}

// Pause closes the caller's open session with a pause reason.
// @Summary Pause work session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body PauseRequest true "pause"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/workorders/{id}/sessions/pause [post]
func (ctl *SessionController) Pause(c *gin.Context) {
	var req PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	entry, err := ctl.ledger.PauseSession(c.Request.Context(), c.Param("id"), model.PauseReason(req.Reason), req.Note)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "session.pause", entry.ID)
	Success(c, entry)
}

// ListEntries lists the order's time entries and their summed hours.
// @Summary List time entries
// @Tags sessions
// @Produce json
// @Param id path string true "work order ID"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/entries [get]
func (ctl *SessionController) ListEntries(c *gin.Context) {
	entries, total, err := ctl.ledger.ListEntries(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"entries": entries, "total_hours": total})
}

// EditEntry corrects a closed entry (owner or manager).
// @Summary Edit time entry
// @Tags sessions
// @Accept json
// @Produce json
// @Param entry_id path string true "entry ID"
// @Param request body EditEntryRequest true "edit"
// @Success 200 {object} Response
// @Router /api/v1/entries/{entry_id} [put]
func (ctl *SessionController) EditEntry(c *gin.Context) {
	var req EditEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	entry, err := ctl.ledger.EditClosedEntry(c.Request.Context(), c.Param("entry_id"), service.EditEntryInput{
		Hours: req.Hours,
		Note:  req.Note,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "entry.edit", entry.ID)
	Success(c, entry)
}

// DeleteEntry removes a closed entry (owner or manager).
// @Summary Delete time entry
// @Tags sessions
// @Param entry_id path string true "entry ID"
// @Success 200 {object} Response
// @Router /api/v1/entries/{entry_id} [delete]
func (ctl *SessionController) DeleteEntry(c *gin.Context) {
	id := c.Param("entry_id")
	if err := ctl.ledger.DeleteEntry(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "entry.delete", id)
	Success(c, nil)
}

func (ctl *SessionController) recordAudit(c *gin.Context, action, resourceID string) {
	if ctl.audit == nil {
		return
	}
	ctl.audit.RecordAction(service.AuditEvent{
		UserID:       c.GetString("user_id"),
		Action:       action,
		ResourceType: "time_entry",
		ResourceID:   resourceID,
		RequestID:    c.GetString("request_id"),
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
}
