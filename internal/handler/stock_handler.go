package handler

import (
	"net/http"
	"strconv"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/middleware"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/pagination"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	stock.Use(middleware.RequireRole(model.RoleRequester, model.RoleSupervisor, model.RoleAdmin, model.RoleStoreKeeper))
	{
		stock.GET("/search", h.SearchItems)
		stock.GET("/items/:id/availability", h.CheckAvailability)
		stock.GET("/items/:id/log", h.GetItemLog)
	}
}

// SearchItems handles GET /api/stock/search
// @Summary      Search the item catalog
// @Description  Searches items by code or nomenclature, annotated with pool availability and stock status
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        q        query     string  false  "Search term"
// @Param        wing_id  query     string  false  "Wing pool to read (defaults to admin pool)"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/stock/search [get]
func (h *StockHandler) SearchItems(c *gin.Context) {
	params := pagination.Parse(c)

	var wingID *uuid.UUID
	if raw := c.Query("wing_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid wing ID"))
			return
		}
		wingID = &parsed
	}

	items, total, err := h.stockService.SearchItems(c.Request.Context(), c.Query("q"), wingID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CheckAvailability handles GET /api/stock/items/:id/availability
// @Summary      Check item availability
// @Description  Reports wing and admin pool availability for one item; nothing is reserved by checking
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true   "Item Master ID"
// @Param        wing_id   query     string  false  "Wing pool to read"
// @Param        quantity  query     int     false  "Requested quantity (default 1)"
// @Success      200       {object}  response.Response{data=service.Availability}
// @Failure      400       {object}  response.Response
// @Router       /api/stock/items/{id}/availability [get]
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item ID"))
		return
	}

	var wingID *uuid.UUID
	if raw := c.Query("wing_id"); raw != "" {
		parsed, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid wing ID"))
			return
		}
		wingID = &parsed
	}

	quantity, _ := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if quantity < 1 {
		quantity = 1
	}

	avail, err := h.stockService.CheckAvailability(c.Request.Context(), itemID, wingID, quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, avail))
}

// GetItemLog handles GET /api/stock/items/:id/log
// @Summary      Get item inventory log
// @Description  Returns recent stock movements for one item with before/after snapshots
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Item Master ID"
// @Param        limit  query     int     false  "Maximum rows (default 50)"
// @Success      200    {object}  response.Response{data=[]service.InventoryLogResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/stock/items/{id}/log [get]
func (h *StockHandler) GetItemLog(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item ID"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	logs, err := h.stockService.ItemLog(c.Request.Context(), itemID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
