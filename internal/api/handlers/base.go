package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/orderrecon/internal/adapters/platforms"
	"github.com/eshaffer321/orderrecon/internal/adapters/sheets"
	"github.com/eshaffer321/orderrecon/internal/api/dto"
	"github.com/eshaffer321/orderrecon/internal/application/service"
	"github.com/eshaffer321/orderrecon/internal/domain/reconciler"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/storage"
)

// WriteError maps a service error onto a status code and APIError body.
func WriteError(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, dto.APIError) {
	switch {
	case errors.Is(err, platforms.ErrUnsupportedPlatformType):
		return http.StatusBadRequest, dto.NewAPIError(dto.ErrCodeUnsupportedPlatform, err.Error())
	case errors.Is(err, sheets.ErrUnsupportedFormat), errors.Is(err, platforms.ErrHeaderNotFound):
		return http.StatusBadRequest, dto.NewAPIError(dto.ErrCodeUnreadableFile, err.Error())
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, dto.BadRequestError(err.Error())
	case errors.Is(err, reconciler.ErrRunTimeout):
		return http.StatusGatewayTimeout, dto.NewAPIError(dto.ErrCodeRunTimeout, err.Error())
	case errors.Is(err, storage.ErrRunNotFound):
		return http.StatusNotFound, dto.NotFoundError("run")
	case errors.Is(err, service.ErrOutcomeNotFound):
		return http.StatusNotFound, dto.NotFoundError("outcome")
	default:
		return http.StatusInternalServerError, dto.InternalError()
	}
}

// ParseIntQuery parses an integer query parameter with a default value.
func ParseIntQuery(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
