package handler

import (
	"context"
	"net/http"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/middleware"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/pagination"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	intakeService   service.IntakeService
	approvalService service.ApprovalService
	trailService    service.TrailService
}

func NewRequestHandler(intakeService service.IntakeService, approvalService service.ApprovalService, trailService service.TrailService) *RequestHandler {
	return &RequestHandler{
		intakeService:   intakeService,
		approvalService: approvalService,
		trailService:    trailService,
	}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/issuance-requests")
	{
		requests.POST("", middleware.RequireRole(model.RoleRequester, model.RoleSupervisor, model.RoleAdmin), h.SubmitRequest)
		requests.GET("/pending", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.ListPending)
		requests.GET("/:id", middleware.RequireRole(model.RoleRequester, model.RoleSupervisor, model.RoleAdmin, model.RoleStoreKeeper), h.GetRequestDetails)
		requests.GET("/:id/history", middleware.RequireRole(model.RoleRequester, model.RoleSupervisor, model.RoleAdmin, model.RoleStoreKeeper), h.GetHistory)
		requests.POST("/:id/approve", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.Approve)
		requests.POST("/:id/forward", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.Forward)
		requests.POST("/:id/reject", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.Reject)
		requests.POST("/:id/return", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.Return)
	}

	items := router.Group("/api/request-items")
	{
		items.GET("/:id/tracking", middleware.RequireRole(model.RoleRequester, model.RoleSupervisor, model.RoleAdmin, model.RoleStoreKeeper), h.GetItemTracking)
	}
}

// SubmitRequest handles POST /api/issuance-requests
// @Summary      Submit an issuance request
// @Description  Creates a new stock issuance request with one or more line items
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=service.SubmitRequestResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/issuance-requests [post]
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	var req service.SubmitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.intakeService.SubmitRequest(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListPending handles GET /api/issuance-requests/pending
// @Summary      List pending requests
// @Description  Lists requests with items pending at the caller's approval level
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/issuance-requests/pending [get]
func (h *RequestHandler) ListPending(c *gin.Context) {
	params := pagination.Parse(c)
	role := c.GetString("userRole")

	// Supervisors are scoped to their own wing from the token
	scopeID := c.GetString("userWing")
	if override := c.Query("wing_id"); override != "" && role == model.RoleAdmin {
		scopeID = override
	}

	summaries, total, err := h.approvalService.ListPending(c.Request.Context(), role, scopeID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": summaries,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetRequestDetails handles GET /api/issuance-requests/:id
// @Summary      Get request details
// @Description  Returns a request with item decisions, availability annotations, versions and full history
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestDetails}
// @Failure      404  {object}  response.Response
// @Router       /api/issuance-requests/{id} [get]
func (h *RequestHandler) GetRequestDetails(c *gin.Context) {
	details, err := h.approvalService.GetRequestDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, details))
}

// GetHistory handles GET /api/issuance-requests/:id/history
// @Summary      Get request audit trail
// @Description  Returns the ordered, append-only audit trail for a request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/issuance-requests/{id}/history [get]
func (h *RequestHandler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request ID"))
		return
	}

	history, err := h.trailService.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"request_id": id.String(),
		"history":    history,
	}))
}

// Approve handles POST /api/issuance-requests/:id/approve
// @Summary      Approve request items
// @Description  Approves a batch of items from stock or for procurement; each item is decided independently
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.BatchActionDTO  true  "Batch Approval Payload"
// @Success      200      {object}  response.Response{data=[]service.ItemActionResult}
// @Failure      400      {object}  response.Response
// @Router       /api/issuance-requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	h.runBatch(c, h.approvalService.Approve)
}

// Forward handles POST /api/issuance-requests/:id/forward
// @Summary      Forward request items
// @Description  Forwards a batch of items to another approval level with a mandatory reason
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.BatchActionDTO  true  "Batch Forward Payload"
// @Success      200      {object}  response.Response{data=[]service.ItemActionResult}
// @Failure      400      {object}  response.Response
// @Router       /api/issuance-requests/{id}/forward [post]
func (h *RequestHandler) Forward(c *gin.Context) {
	h.runBatch(c, h.approvalService.Forward)
}

// Reject handles POST /api/issuance-requests/:id/reject
// @Summary      Reject request items
// @Description  Rejects a batch of items with a mandatory comment
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.BatchActionDTO  true  "Batch Rejection Payload"
// @Success      200      {object}  response.Response{data=[]service.ItemActionResult}
// @Failure      400      {object}  response.Response
// @Router       /api/issuance-requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	h.runBatch(c, h.approvalService.Reject)
}

// Return handles POST /api/issuance-requests/:id/return
// @Summary      Return request items to the requester
// @Description  Sends a batch of items back for revision; re-submission arrives as a new linked request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.BatchActionDTO  true  "Batch Return Payload"
// @Success      200      {object}  response.Response{data=[]service.ItemActionResult}
// @Failure      400      {object}  response.Response
// @Router       /api/issuance-requests/{id}/return [post]
func (h *RequestHandler) Return(c *gin.Context) {
	h.runBatch(c, h.approvalService.Return)
}

// runBatch binds the shared batch payload and reports per-item outcomes. The
// HTTP call succeeds whenever the batch ran; individual failures live in the
// result list.
func (h *RequestHandler) runBatch(c *gin.Context, fn func(ctx context.Context, requestID string, dto service.BatchActionDTO) ([]service.ItemActionResult, error)) {
	var dto service.BatchActionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if dto.ActorID == "" {
		dto.ActorID = c.GetString("userID")
	}

	results, err := fn(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

// GetItemTracking handles GET /api/request-items/:id/tracking
// @Summary      Track one request item
// @Description  Returns an item's current decision, owning level, version and its slice of the audit trail
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request Item ID"
// @Success      200  {object}  response.Response{data=service.ItemTracking}
// @Failure      404  {object}  response.Response
// @Router       /api/request-items/{id}/tracking [get]
func (h *RequestHandler) GetItemTracking(c *gin.Context) {
	tracking, err := h.approvalService.GetItemTracking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tracking))
}
