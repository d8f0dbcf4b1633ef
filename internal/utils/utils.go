package utils

import (
	"strconv"

	"ai-doc-authoring/internal/errors"

	"github.com/gin-gonic/gin"
)

// ParseIDParam reads a numeric path parameter. Anything that is not a positive
// integer cannot name an existing row, so it reports NotFound.
func ParseIDParam(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NotFound("Resource not found", err)
	}
	return id, nil
}

// CallerID returns the user id the auth middleware stored on the context.
func CallerID(c *gin.Context) (uint64, error) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, errors.Unauthorized("Authorization is not found!", nil)
	}
	id, ok := v.(uint64)
	if !ok || id == 0 {
		return 0, errors.Unauthorized("Authorization is not found!", nil)
	}
	return id, nil
}
