package handler

import (
	"net/http"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/middleware"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type IssuanceHandler struct {
	issuanceService service.IssuanceService
}

func NewIssuanceHandler(issuanceService service.IssuanceService) *IssuanceHandler {
	return &IssuanceHandler{issuanceService: issuanceService}
}

func (h *IssuanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/issuance-requests")
	{
		requests.POST("/:id/issue", middleware.RequireRole(model.RoleStoreKeeper, model.RoleAdmin), h.IssueStock)
		requests.GET("/:id/transactions", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin, model.RoleStoreKeeper), h.ListTransactions)
	}
}

// IssueStock handles POST /api/issuance-requests/:id/issue
// @Summary      Issue approved stock
// @Description  Deducts pools for every approved-from-stock item not yet issued, journaling each deduction
// @Tags         issuance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Request ID"
// @Param        payload  body      service.IssueStockDTO   true  "Issue Payload"
// @Success      201      {object}  response.Response{data=service.IssuanceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/issuance-requests/{id}/issue [post]
func (h *IssuanceHandler) IssueStock(c *gin.Context) {
	var dto service.IssueStockDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if dto.IssuedBy == "" {
		dto.IssuedBy = c.GetString("userID")
	}

	result, err := h.issuanceService.IssueStock(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListTransactions handles GET /api/issuance-requests/:id/transactions
// @Summary      List issuance transactions
// @Description  Lists issuance transactions with their stock allocations for one request
// @Tags         issuance
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=[]service.IssuanceResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/issuance-requests/{id}/transactions [get]
func (h *IssuanceHandler) ListTransactions(c *gin.Context) {
	transactions, err := h.issuanceService.ListTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transactions))
}
