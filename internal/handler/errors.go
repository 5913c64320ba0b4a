package handler

import (
	"errors"
	"net/http"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"
	"github.com/syedsanaulhaq/ims-v2-sub002/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// writeError translates a typed workflow error into an HTTP status:
// validation 400, scope 403, not-found 404, conflicts (already resolved,
// concurrent modification, invalid state, insufficient stock) 409.
func writeError(c *gin.Context, err error) {
	var (
		vErr *service.ValidationError
		sErr *service.InsufficientStockError
		iErr *service.InvalidStateError
		aErr *service.AlreadyResolvedError
		cErr *service.ConcurrentModificationError
		pErr *service.PermissionScopeError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.As(err, &pErr):
		status = http.StatusForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.As(err, &aErr), errors.As(err, &cErr), errors.As(err, &iErr), errors.As(err, &sErr):
		status = http.StatusConflict
	}

	c.JSON(status, response.Error(status, err.Error()))
}
