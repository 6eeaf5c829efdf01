package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mthsena/corrigeai/internal/apperror"
	"github.com/mthsena/corrigeai/internal/dto"
)

// ContextUserKey is the gin context key under which the authenticated user id
// is stored by Middleware.
const ContextUserKey = "auth_user_id"

// Middleware rejects requests without a valid bearer token and stores the
// resolved user id in the gin context.
func Middleware(signer *Signer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   string(apperror.KindUnauthorized),
				Message: "Missing or malformed Authorization header",
			})
			return
		}

		userID, ok := signer.Parse(token, time.Now())
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   string(apperror.KindUnauthorized),
				Message: "Invalid or expired token",
			})
			return
		}

		ctx.Set(ContextUserKey, userID)
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user id set by Middleware.
func CurrentUser(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
