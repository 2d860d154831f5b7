package api

import (
	"alcyxob/fitness-social/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto status codes. Not-found results
// carry a title and message, internal errors are never echoed.
func respondError(c *gin.Context, err error, fallback string) {
	var notFound *service.NotFoundError
	switch {
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"title": notFound.Title, "message": notFound.Message})
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAvatarStorageDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
