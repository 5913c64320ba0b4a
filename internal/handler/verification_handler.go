package handler

import (
	"net/http"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/middleware"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/response"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verificationService service.VerificationService
}

func NewVerificationHandler(verificationService service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

func (h *VerificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	verifications := router.Group("/api/verifications")
	{
		verifications.POST("/forward", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin), h.ForwardForVerification)
		verifications.POST("/:id/submit", middleware.RequireRole(model.RoleStoreKeeper), h.SubmitVerification)
		verifications.GET("/:id", middleware.RequireRole(model.RoleSupervisor, model.RoleAdmin, model.RoleStoreKeeper), h.GetTask)
		verifications.GET("/open", middleware.RequireRole(model.RoleStoreKeeper), h.ListOpenTasks)
	}
}

// ForwardForVerification handles POST /api/verifications/forward
// @Summary      Forward an item for physical verification
// @Description  Hands a pending item to a store keeper for a physical stock count
// @Tags         verifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ForwardVerificationDTO  true  "Forward Payload"
// @Success      201      {object}  response.Response{data=service.VerificationTaskResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/verifications/forward [post]
func (h *VerificationHandler) ForwardForVerification(c *gin.Context) {
	var dto service.ForwardVerificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if dto.ActorID == "" {
		dto.ActorID = c.GetString("userID")
	}

	task, err := h.verificationService.ForwardForVerification(c.Request.Context(), dto)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, task))
}

// SubmitVerification handles POST /api/verifications/:id/submit
// @Summary      Submit a verification result
// @Description  Records the store keeper's physical count and classification on the audit trail
// @Tags         verifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Verification Task ID"
// @Param        payload  body      service.SubmitVerificationDTO  true  "Verification Result Payload"
// @Success      200      {object}  response.Response{data=service.VerificationTaskResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/verifications/{id}/submit [post]
func (h *VerificationHandler) SubmitVerification(c *gin.Context) {
	var dto service.SubmitVerificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if dto.StoreKeeperID == "" {
		dto.StoreKeeperID = c.GetString("userID")
	}

	task, err := h.verificationService.SubmitVerification(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// GetTask handles GET /api/verifications/:id
// @Summary      Get a verification task
// @Tags         verifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Verification Task ID"
// @Success      200  {object}  response.Response{data=service.VerificationTaskResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/verifications/{id} [get]
func (h *VerificationHandler) GetTask(c *gin.Context) {
	task, err := h.verificationService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// ListOpenTasks handles GET /api/verifications/open
// @Summary      List open verification tasks
// @Description  Lists forwarded tasks awaiting the calling store keeper's count
// @Tags         verifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.VerificationTaskResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/verifications/open [get]
func (h *VerificationHandler) ListOpenTasks(c *gin.Context) {
	tasks, err := h.verificationService.ListOpenTasks(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tasks))
}
