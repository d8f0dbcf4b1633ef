package middleware

import (
	"errors"

	apiError "ai-doc-authoring/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *apiError.APIError
		if !errors.As(err, &apiErr) {
			// raw error nobody wrapped
			apiErr = apiError.Internal(err)
		}

		event := logger.Info()
		if apiErr.Status >= 500 {
			event = logger.Error()
		}
		event.Err(apiErr.Internal).
			Str("kind", string(apiErr.Kind)).
			Str("path", c.FullPath()).
			Msg(apiErr.Message)

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
