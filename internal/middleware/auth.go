package middleware

import (
	"strings"

	"ai-doc-authoring/auth"
	"ai-doc-authoring/internal/errors"

	"github.com/gin-gonic/gin"
)

type Auth struct {
	Issuer   *auth.Issuer
	Sessions *auth.Sessions
}

// AuthMiddleWare resolves the bearer token into the caller identity ("user_id")
// that every project operation receives explicitly.
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.Issuer.Verify(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		active, err := m.Sessions.Active(ctx.Request.Context(), claims.ID)
		if err != nil || !active {
			ctx.Error(errors.Unauthorized("Token expired or revoked", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", claims.UserID)
		ctx.Set("session_id", claims.ID)
		ctx.Next()
	}
}
