package api

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/service"
)

// WorkOrderController serves the work order lifecycle endpoints.
type WorkOrderController struct {
	workOrders *service.WorkOrderService
	completion *service.CompletionService
	audit      *service.AuditLogService
}

// NewWorkOrderController creates a work order controller.
func NewWorkOrderController(
	workOrders *service.WorkOrderService,
	completion *service.CompletionService,
	audit *service.AuditLogService,
) *WorkOrderController {
	return &WorkOrderController{
		workOrders: workOrders,
		completion: completion,
		audit:      audit,
	}
}

// CreateWorkOrderRequest is the create payload.
type CreateWorkOrderRequest struct {
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority"`
	ServiceType   string     `json:"service_type"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Notes         string     `json:"notes"`
	ClientID      string     `json:"client_id"`
}

// UpdateWorkOrderRequest is the manager edit payload. Absent fields are
// left unchanged.
type UpdateWorkOrderRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority"`
	ServiceType   *string    `json:"service_type"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Notes         *string    `json:"notes"`
	Status        *string    `json:"status"`
}

// ReasonRequest carries an optional reason.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ApproveRequest optionally schedules the approved order.
type ApproveRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// AssignRequest carries the worker to assign.
type AssignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CompleteRequest is the completion payload. Signature is a
// base64-encoded PNG and is required.
type CompleteRequest struct {
	Remarks       string `json:"remarks"`
	Signature     string `json:"signature"`
	SignatureName string `json:"signature_name"`
}

// Create creates a work order.
// @Summary Create work order
// @Tags workorders
// @Accept json
// @Produce json
// @Param request body CreateWorkOrderRequest true "work order"
// @Success 201 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/workorders [post]
func (ctl *WorkOrderController) Create(c *gin.Context) {
	var req CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	order, err := ctl.workOrders.Create(c.Request.Context(), service.CreateWorkOrderInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      model.Priority(req.Priority),
		ServiceType:   req.ServiceType,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
		ClientID:      req.ClientID,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.create", order.ID)
	Created(c, order)
}

// List lists work orders.
// @Summary List work orders
// @Tags workorders
// @Produce json
// @Param status query string false "status filter"
// @Param priority query string false "priority filter"
// @Param page query int false "page"
// @Param page_size query int false "page size"
// @Success 200 {object} PaginatedResponse
// @Router /api/v1/workorders [get]
func (ctl *WorkOrderController) List(c *gin.Context) {
	filter := &repository.WorkOrderFilter{}
	if v := c.Query("status"); v != "" {
		status := model.Status(v)
		if !status.Valid() {
			Error(c, http.StatusBadRequest, "invalid request", "unknown status "+v)
			return
		}
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := model.Priority(v)
		if !priority.Valid() {
			Error(c, http.StatusBadRequest, "invalid request", "unknown priority "+v)
			return
		}
		filter.Priority = &priority
	}
	if v := c.Query("client_id"); v != "" {
		filter.ClientID = &v
	}
	if v := c.Query("assigned_to"); v != "" {
		filter.AssignedTo = &v
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	orders, total, err := ctl.workOrders.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Paginated(c, orders, NewPagination(page, pageSize, total))
}

// Get returns one work order.
// @Summary Get work order
// @Tags workorders
// @Produce json
// @Param id path string true "work order ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/workorders/{id} [get]
func (ctl *WorkOrderController) Get(c *gin.Context) {
	order, err := ctl.workOrders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, order)
}

// Update edits a work order (manager only).
// @Summary Update work order
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body UpdateWorkOrderRequest true "edit"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id} [put]
func (ctl *WorkOrderController) Update(c *gin.Context) {
	var req UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	input := service.UpdateWorkOrderInput{
		Title:         req.Title,
		Description:   req.Description,
		ServiceType:   req.ServiceType,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		input.Priority = &priority
	}
	if req.Status != nil {
		status := model.Status(*req.Status)
		if !status.Valid() {
			Error(c, http.StatusBadRequest, "invalid request", "unknown status "+*req.Status)
			return
		}
		input.Status = &status
	}

	order, err := ctl.workOrders.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.update", order.ID)
	Success(c, order)
}

// Delete removes a work order (manager only).
// @Summary Delete work order
// @Tags workorders
// @Param id path string true "work order ID"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id} [delete]
func (ctl *WorkOrderController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := ctl.workOrders.Delete(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.delete", id)
	Success(c, nil)
}

// Approve approves a client request.
// @Summary Approve work order request
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body ApproveRequest false "schedule"
// @Success 200 {object} Response
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/workorders/{id}/approve [post]
func (ctl *WorkOrderController) Approve(c *gin.Context) {
	var req ApproveRequest
	_ = c.ShouldBindJSON(&req)

	order, err := ctl.workOrders.Approve(c.Request.Context(), c.Param("id"), req.ScheduledDate)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.approve", order.ID)
	Success(c, order)
}

// Reject rejects a client request.
// @Summary Reject work order request
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body ReasonRequest false "reason"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/reject [post]
func (ctl *WorkOrderController) Reject(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	order, err := ctl.workOrders.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.reject", order.ID)
	Success(c, order)
}

// Cancel cancels a work order.
// @Summary Cancel work order
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body ReasonRequest false "reason"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/cancel [post]
func (ctl *WorkOrderController) Cancel(c *gin.Context) {
	var req ReasonRequest
	_ = c.ShouldBindJSON(&req)

	order, err := ctl.workOrders.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.cancel", order.ID)
	Success(c, order)
}

// Assign assigns a worker.
// @Summary Assign worker
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body AssignRequest true "worker"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/assign [post]
func (ctl *WorkOrderController) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	id := c.Param("id")
	if err := ctl.workOrders.AssignWorker(c.Request.Context(), id, req.UserID); err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.assign", id)
	Success(c, nil)
}

// Unassign removes a worker assignment.
// @Summary Unassign worker
// @Tags workorders
// @Param id path string true "work order ID"
// @Param user_id path string true "worker ID"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/assign/{user_id} [delete]
func (ctl *WorkOrderController) Unassign(c *gin.Context) {
	id := c.Param("id")
	if err := ctl.workOrders.UnassignWorker(c.Request.Context(), id, c.Param("user_id")); err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.unassign", id)
	Success(c, nil)
}

// History returns the order's status transitions.
// @Summary Work order status history
// @Tags workorders
// @Produce json
// @Param id path string true "work order ID"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/history [get]
func (ctl *WorkOrderController) History(c *gin.Context) {
	history, err := ctl.workOrders.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, history)
}

// AuditTrail returns the recorded actions on the order (manager only).
// @Summary Work order audit trail
// @Tags workorders
// @Produce json
// @Param id path string true "work order ID"
// @Success 200 {object} Response
// @Router /api/v1/workorders/{id}/audit [get]
func (ctl *WorkOrderController) AuditTrail(c *gin.Context) {
	id := c.Param("id")
	if _, err := ctl.workOrders.Get(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}

	if ctl.audit == nil {
		Success(c, []interface{}{})
		return
	}

	logs, err := ctl.audit.ListByResource("work_order", id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, logs)
}

// Complete runs the completion workflow.
// @Summary Complete work order
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path string true "work order ID"
// @Param request body CompleteRequest true "completion"
// @Success 200 {object} Response
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/workorders/{id}/complete [post]
func (ctl *WorkOrderController) Complete(c *gin.Context) {
	var req CompleteRequest
	_ = c.ShouldBindJSON(&req)

	var signature []byte
	if req.Signature != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Signature)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid request", "signature is not valid base64")
			return
		}
		signature = decoded
	}

	order, err := ctl.completion.Complete(c.Request.Context(), c.Param("id"), service.CompleteInput{
		Remarks:       req.Remarks,
		SignaturePNG:  signature,
		SignatureName: req.SignatureName,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	ctl.recordAudit(c, "work_order.complete", order.ID)
	Success(c, order)
}

func (ctl *WorkOrderController) recordAudit(c *gin.Context, action, resourceID string) {
	if ctl.audit == nil {
		return
	}
	ctl.audit.RecordAction(service.AuditEvent{
		UserID:       c.GetString("user_id"),
		Action:       action,
		ResourceType: "work_order",
		ResourceID:   resourceID,
		RequestID:    c.GetString("request_id"),
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
}

// queryInt parses an int query param with a default.
func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	var n int
	for _, r := range v {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return def
	}
	return n
}
