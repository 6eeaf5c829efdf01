package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/dto"
)

// respondError translates a service error into its taxonomy status and a
// body safe to expose.
func respondError(ctx *gin.Context, err error) {
	kind, ok := apperror.KindOf(err)
	if !ok {
		kind = apperror.KindPersistence
	}
	ctx.JSON(apperror.HTTPStatus(err), dto.ErrorResponse{
		Error:   string(kind),
		Message: apperror.Message(err),
	})
}
